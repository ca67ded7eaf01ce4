package models

import "time"

// Rate-limited actions. Each has its own policy.
const (
	ActionForgotPassword = "forgotPassword"
	ActionResetPassword  = "resetPassword"
)

// AttemptLog is an append-only record of one request to a rate-limited
// endpoint. Identifier+Action is the grouping key for admission decisions.
type AttemptLog struct {
	ID         int64     `json:"id"`
	Identifier string    `json:"identifier"`
	Action     string    `json:"action"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}

// RateLimitPolicy is the compiled-in admission policy for one action.
// BlockMinutes is informational: the effective block falls out of the
// look-back window, there is no separate block timer.
type RateLimitPolicy struct {
	MaxAttempts   int
	WindowMinutes int
	BlockMinutes  int
}

// Window returns the look-back window as a duration.
func (p RateLimitPolicy) Window() time.Duration {
	return time.Duration(p.WindowMinutes) * time.Minute
}
