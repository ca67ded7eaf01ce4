package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrTokenInvalid deliberately covers not-found, expired and already-used:
// callers must not be able to tell which one happened.
var (
	ErrTokenInvalid     = errors.New("invalid or expired token")
	ErrPasswordTooShort = errors.New("password too short")
)

// RateLimitError reports a denied admission along with when the window frees up.
type RateLimitError struct {
	RetryAfter time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.RetryAfter.Format(time.RFC3339))
}
