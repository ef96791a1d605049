// Package persist upgrades versioned JSON documents through an explicit chain
// of schema steps.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrFutureVersion is returned for documents written by a newer schema.
var ErrFutureVersion = errors.New("stored version is newer than supported")

// Step upgrades a document from version From to From+1. Upgrade must be
// idempotent: it only fills fields that are missing and drops retired ones.
type Step struct {
	From    int
	Upgrade func(doc map[string]any) map[string]any
}

// Chain is the ordered list of steps for one document kind.
type Chain struct {
	name    string
	current int
	steps   []Step
}

// NewChain builds a chain whose documents are at version current once fully
// upgraded. Steps are applied in ascending From order.
func NewChain(name string, current int, steps ...Step) *Chain {
	sorted := append([]Step(nil), steps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })
	return &Chain{name: name, current: current, steps: sorted}
}

func (c *Chain) Name() string { return c.name }

// Current is the version documents are written at.
func (c *Chain) Current() int { return c.current }

// Upgrade runs every step at or above version on a copy of doc.
func (c *Chain) Upgrade(version int, doc map[string]any) (map[string]any, error) {
	if version > c.current {
		return nil, fmt.Errorf("%s v%d (supported v%d): %w", c.name, version, c.current, ErrFutureVersion)
	}
	out := deepCopy(doc)
	for _, step := range c.steps {
		if step.From < version || step.From >= c.current {
			continue
		}
		out = step.Upgrade(out)
	}
	return out, nil
}

func deepCopy(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = copyValue(e)
		}
		return cp
	default:
		return v
	}
}

// Encode turns a typed value into a document.
func Encode[T any](v T) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode turns a document back into a typed value. Unknown fields are ignored.
func Decode[T any](doc map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// Backfill sets key to value when it is missing.
func Backfill(doc map[string]any, key string, value any) {
	if _, ok := doc[key]; !ok {
		doc[key] = value
	}
}

// Object returns the nested object at key, creating it when missing or not
// an object.
func Object(doc map[string]any, key string) map[string]any {
	if nested, ok := doc[key].(map[string]any); ok {
		return nested
	}
	nested := map[string]any{}
	doc[key] = nested
	return nested
}
