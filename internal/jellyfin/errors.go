package jellyfin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common Jellyfin API errors.
var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("unauthorized — check your Jellyfin API key")
	// ErrForbidden is returned when the key lacks permission for the item.
	ErrForbidden = errors.New("forbidden — API key may lack management permission")
)

// StatusError is a non-2xx response from the server. Detail carries
// whatever diagnostic text the error body contained.
type StatusError struct {
	Code   int
	Status string
	URL    string
	Detail string
}

func (e *StatusError) Error() string {
	msg := "HTTP " + e.Status
	if e.URL != "" {
		msg += " for url: " + e.URL
	}
	if e.Detail != "" {
		msg += " - " + e.Detail
	}
	return msg
}

// Unwrap maps well-known status codes onto sentinel errors so callers can
// branch with errors.Is while the message keeps the server's detail.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// extractErrorDetail pulls human-readable diagnostics out of an error
// body. Jellyfin and Emby disagree on the shape: plain Message fields,
// ErrorCode fields, or a nested ServiceStack-style ResponseStatus object
// all occur in the wild.
func extractErrorDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	var details []string
	seen := make(map[string]bool)
	add := func(value any, prefix string) {
		if value == nil {
			return
		}
		text := strings.TrimSpace(fmt.Sprint(value))
		if text == "" {
			return
		}
		d := prefix + text
		if seen[d] {
			return
		}
		seen[d] = true
		details = append(details, d)
	}

	add(firstKey(payload, "Message", "message"), "")
	if code := firstKey(payload, "ErrorCode", "errorCode"); code != nil {
		add(code, "ErrorCode=")
	}
	switch rs := firstKey(payload, "ResponseStatus", "responseStatus").(type) {
	case map[string]any:
		add(firstKey(rs, "Message", "message"), "")
		if code := firstKey(rs, "ErrorCode", "errorCode"); code != nil {
			add(code, "ResponseStatus.ErrorCode=")
		}
	case nil:
	default:
		add(rs, "ResponseStatus=")
	}

	return strings.Join(details, "; ")
}

func firstKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v
	}
	return nil
}
