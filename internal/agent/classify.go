package agent

import (
	"context"
	"errors"
	"strings"
)

// Error classes. Classification drives whether a caller retries or surfaces
// the failure to the user; the turn engine rolls back either way.
const (
	ErrClassAuth           = "auth"
	ErrClassRateLimit      = "rate_limit"
	ErrClassContextWindow  = "context_window"
	ErrClassInvalidRequest = "invalid_request"
	ErrClassUpstreamServer = "upstream_server"
	ErrClassUnknown        = "unknown"
)

// Classify maps a reasoning-service error onto the retry taxonomy.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401 || apiErr.Status == 403:
			return ErrClassAuth
		case apiErr.Status == 429:
			return ErrClassRateLimit
		case apiErr.Status >= 500:
			return ErrClassUpstreamServer
		case apiErr.Status == 400:
			if isContextWindow(apiErr) {
				return ErrClassContextWindow
			}
			return ErrClassInvalidRequest
		case apiErr.Status >= 400:
			return ErrClassInvalidRequest
		}
		return ErrClassUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrClassUpstreamServer
	}
	return ErrClassUnknown
}

func isContextWindow(e *APIError) bool {
	if strings.Contains(e.Code, "context_length") {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "context window") || strings.Contains(msg, "maximum context length")
}

// Retryable reports whether a class is worth an automatic retry.
func Retryable(class string) bool {
	return class == ErrClassRateLimit || class == ErrClassUpstreamServer
}
