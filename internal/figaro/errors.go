package figaro

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTimeout means the API did not answer within the request timeout.
	ErrTimeout = errors.New("request timeout - Figaro API did not respond")
	// ErrUnauthorized means the token was rejected (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetwork wraps transport-level failures.
	ErrNetwork = errors.New("network error - unable to reach Figaro API")
	// ErrInvalidResponse means the body did not have the expected shape.
	ErrInvalidResponse = errors.New("invalid response format from API")
)

// APIError is a non-2xx answer from the Figaro API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == http.StatusUnauthorized {
		return fmt.Sprintf("401: %s", e.Message)
	}
	return e.Message
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 answers.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}
