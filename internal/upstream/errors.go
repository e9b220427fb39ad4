package upstream

import (
	"fmt"
)

// AuthError signals missing or rejected credentials. It is fatal: the
// client never retries it.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// RateLimitError signals an HTTP 429 from the upstream. Callers should
// back off; the client performs no retry of its own.
type RateLimitError struct {
	Path string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded on %s", e.Path)
}

// UpstreamError wraps any other 4xx/5xx response, carrying the status
// code and a truncated body snippet for diagnosis.
type UpstreamError struct {
	Path   string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error on %s: %d - %s", e.Path, e.Status, e.Body)
}
