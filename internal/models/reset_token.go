package models

import "time"

// ResetToken is a single-use, time-boxed bearer secret tied to one user.
// Only the sha256 hash of the secret is ever stored.
type ResetToken struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	TokenHash        string     `json:"-"`
	IssuedAt         time.Time  `json:"issued_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	UsedAt           *time.Time `json:"used_at,omitempty"`
	RequestIP        string     `json:"request_ip"`
	RequestUserAgent string     `json:"request_user_agent"`
}

// Active reports whether the token can still be redeemed.
func (t *ResetToken) Active(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
