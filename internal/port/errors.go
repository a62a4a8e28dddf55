package port

import (
	"errors"
	"net/http"
)

// Sentinel errors used across ports. Adapters wrap them with %w; the HTTP
// boundary maps them to sanitized messages and status codes.
var (
	ErrInvalidURL         = errors.New("invalid repository url")
	ErrNotFound           = errors.New("repository not found")
	ErrAccessDenied       = errors.New("repository access denied")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUpstream           = errors.New("upstream error")
	ErrAnalysisFailed     = errors.New("analysis failed")
)

// Public messages returned to callers. Upstream detail is never exposed.
const (
	MsgInvalidURL         = "Invalid repository URL. Expected https://github.com/owner/repo"
	MsgNotFound           = "Repository not found. Make sure it exists and is public."
	MsgAccessDenied       = "Access to this repository was denied by GitHub."
	MsgRateLimited        = "Rate limit exceeded. Please try again in a moment."
	MsgServiceUnavailable = "Service temporarily unavailable. Please try again later."
	MsgAnalysisFailed     = "Failed to analyze repository. Please try again."
)

// PublicError maps an error to the HTTP status and sanitized message shown to
// callers. Unknown errors map to 500.
func PublicError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return http.StatusBadRequest, MsgInvalidURL
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, ErrAccessDenied):
		return http.StatusForbidden, MsgAccessDenied
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, MsgRateLimited
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, MsgServiceUnavailable
	default:
		return http.StatusInternalServerError, MsgAnalysisFailed
	}
}
