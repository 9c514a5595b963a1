package shopify

import (
	"encoding/json"
	"fmt"
)

// ValidationError signals bad caller input (empty domain/token/endpoint,
// malformed state). It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "shopify: validation failed: " + e.Reason
}

// APIError is a terminal client error (4xx other than 429). The parsed error
// body is surfaced; the request is never retried.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("shopify api error: status=%d detail=%s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("shopify api error: status=%d", e.StatusCode)
}

// RateLimitError is returned after the retry budget is exhausted on 429s.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("shopify rate limit exceeded after %d attempts", e.Attempts)
}

// InvalidResponseError signals a 2xx response missing fields the derived
// operations require.
type InvalidResponseError struct {
	Operation string
	Missing   string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("shopify %s returned an invalid response: missing %s", e.Operation, e.Missing)
}

// parseErrorDetail extracts Shopify's {"errors": ...} body into a flat string.
// The errors value can be a string, a list, or an object keyed by field.
func parseErrorDetail(body []byte) string {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	if len(envelope.Errors) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Errors, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(envelope.Errors, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	// Object form: keep it raw, it is already human readable enough.
	return string(envelope.Errors)
}
