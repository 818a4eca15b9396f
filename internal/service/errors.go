package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rebloomsa/social-publisher/internal/models"
)

var (
	ErrNotFound         = errors.New("post not found")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNotPending       = errors.New("post is not pending")
	ErrAlreadyClaimed   = errors.New("post already claimed by another run")
	ErrImageRequired    = errors.New("instagram requires an image URL, cannot post text-only")
	ErrContainerTimeout = errors.New("instagram media container timed out")
	ErrContainerFailed  = errors.New("instagram media container failed")
)

// ValidationError carries brand guard reasons for a rejected post.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "brand guard rejected post: " + strings.Join(e.Reasons, "; ")
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// APIError is a classified provider failure. StatusCode follows HTTP
// semantics so the retry executor can branch on it.
type APIError struct {
	Platform   models.Platform
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s API error %d", e.Platform, e.StatusCode)
}

func newAPIError(platform models.Platform, status int, message string) *APIError {
	return &APIError{Platform: platform, StatusCode: status, Message: message}
}

func missingCredentials(platform models.Platform, message string) *APIError {
	return newAPIError(platform, http.StatusUnauthorized, message)
}

// IsNonRetryable reports authorization failures, which are never retried.
func IsNonRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// RetryAfterOf returns the provider-stated wait of a rate limit error.
func RetryAfterOf(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter, true
	}
	return 0, false
}
