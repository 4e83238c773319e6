// Package schema validates language-model output against the closed set of
// task result shapes. Each task kind has its own validation function; all of
// them share the tolerance policy for sentence references: a primary
// reference that fails to resolve rejects the candidate, a supporting
// reference is silently downgraded to "not_available".
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed marks any response that cannot be parsed into its expected
// shape. The consensus loop counts it like a transport failure and retries.
var ErrMalformed = errors.New("malformed model response")

// ExtractObject cuts the outermost {...} span out of free text. Models wrap
// JSON in prose and code fences; everything outside the braces is noise.
func ExtractObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || start >= end {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformed)
	}
	return s[start : end+1], nil
}

// ExtractArray cuts the outermost [...] span out of free text.
func ExtractArray(s string) (string, error) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || start >= end {
		return "", fmt.Errorf("%w: no JSON array found", ErrMalformed)
	}
	return s[start : end+1], nil
}

// decodeObject extracts the outermost object span and unmarshals it,
// mapping any JSON error to ErrMalformed.
func decodeObject(data string, v any) error {
	span, err := ExtractObject(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// decodeArray extracts the outermost array span and unmarshals it.
func decodeArray(data string, v any) error {
	span, err := ExtractArray(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
