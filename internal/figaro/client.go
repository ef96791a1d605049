// Package figaro is a small client for the Figaro personal assistant API
// used by the dashboard widgets.
package figaro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://textfigaro.com/api"
	// RequestTimeout bounds every request made by the client.
	RequestTimeout = 10 * time.Second
	// StaleThreshold is the minimum age of cached data before a new sync.
	StaleThreshold = 5 * time.Minute

	maxBodyBytes = 1 << 20
)

// Client fetches Figaro data on behalf of an authenticated user.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithTimeout overrides RequestTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		timeout: RequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ShouldSync reports whether cached data is missing or older than StaleThreshold.
func ShouldSync(lastSyncAt *time.Time, now time.Time) bool {
	if lastSyncAt == nil {
		return true
	}
	return now.Sub(*lastSyncAt) >= StaleThreshold
}

// FetchSummary returns the lightweight widget summary: lists with their top
// items, upcoming reminders, the latest briefing and the subscription.
func (c *Client) FetchSummary(ctx context.Context, token string) (*Summary, error) {
	body, err := c.get(ctx, token, "/tab/summary")
	if err != nil {
		return nil, err
	}
	if !validSummary(body) {
		return nil, ErrInvalidResponse
	}
	var summary Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &summary, nil
}

func (c *Client) FetchNutrition(ctx context.Context, token string) (*Nutrition, error) {
	var out Nutrition
	if err := c.getObject(ctx, token, "/nutrition/daily", &out); err != nil {
		return nil, fmt.Errorf("fetch nutrition: %w", err)
	}
	return &out, nil
}

func (c *Client) FetchFitness(ctx context.Context, token string) (*Fitness, error) {
	var out Fitness
	if err := c.getObject(ctx, token, "/fitness/weekly", &out); err != nil {
		return nil, fmt.Errorf("fetch fitness: %w", err)
	}
	return &out, nil
}

func (c *Client) FetchPeople(ctx context.Context, token string) (*People, error) {
	var out People
	if err := c.getObject(ctx, token, "/people/summary", &out); err != nil {
		return nil, fmt.Errorf("fetch people: %w", err)
	}
	return &out, nil
}

func (c *Client) FetchMoney(ctx context.Context, token string) (*Money, error) {
	var out Money
	if err := c.getObject(ctx, token, "/money/summary", &out); err != nil {
		return nil, fmt.Errorf("fetch money: %w", err)
	}
	return &out, nil
}

func (c *Client) getObject(ctx context.Context, token, path string, out any) error {
	body, err := c.get(ctx, token, path)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return ErrInvalidResponse
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, token, path string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(ctx, reqCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

func transportError(parent, reqCtx context.Context, err error) error {
	switch {
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case parent.Err() != nil:
		return parent.Err()
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}

func apiError(status int, body []byte) *APIError {
	msg := ""
	if gjson.ValidBytes(body) {
		msg = gjson.GetBytes(body, "error").String()
	}
	if msg == "" {
		if status == http.StatusUnauthorized {
			msg = "Unauthorized"
		} else {
			msg = fmt.Sprintf("API error: %d", status)
		}
	}
	return &APIError{Status: status, Message: msg}
}

// validSummary checks the payload shape before decoding: subscription must be
// an object, lists and reminders arrays, memoriesCount a number and briefing
// present as null or an object.
func validSummary(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return false
	}
	if !root.Get("subscription").IsObject() {
		return false
	}
	if !root.Get("lists").IsArray() || !root.Get("reminders").IsArray() {
		return false
	}
	if root.Get("memoriesCount").Type != gjson.Number {
		return false
	}
	briefing := root.Get("briefing")
	return briefing.Exists() && (briefing.Type == gjson.Null || briefing.IsObject())
}
