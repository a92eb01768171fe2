package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrValidation marks input failures caught before any network call.
	ErrValidation = errors.New("validation error")
	// ErrRateLimited marks an upstream 429 (post creation quota).
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable marks an upstream 503 (launch service down).
	ErrUnavailable = errors.New("service unavailable")
	// ErrUpstream marks any other upstream failure passed through as-is.
	ErrUpstream = errors.New("upstream failure")
)

// Wrap builds an error message that includes operation context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusError reports a non-success HTTP response from an upstream
// service, preserving the status code for classification.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s returned %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, body)
}

// StatusCode extracts the upstream HTTP status from an error chain.
// Returns 0 when no StatusError is present (network-class failure).
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Retryable reports whether a launch failure should be retried: either
// no response was received at all, or the upstream answered with a
// server error.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	code := StatusCode(err)
	return code == 0 || code >= http.StatusInternalServerError
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
