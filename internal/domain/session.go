package domain

import "time"

// Session is the per-browser state for the access gate. It never holds
// the credential that was typed in.
type Session struct {
	ID         string    `json:"id"`
	Authorized bool      `json:"authorized"`
	Rejected   bool      `json:"rejected"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
