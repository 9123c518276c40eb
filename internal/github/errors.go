package github

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the identifier or repository does not resolve upstream.
	ErrNotFound = errors.New("resource not found upstream")
	// ErrUpstreamUnavailable indicates a transport-level failure or a 5xx response.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// RateLimitedError indicates the host throttled the request. RetryAfter is a
// hint for how long to back off before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
