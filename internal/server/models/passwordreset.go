package models

import "time"

// PasswordResetRequest is one issued recovery code. Only the hash of the
// code is stored. IsUsed moves from false to true once and never back.
type PasswordResetRequest struct {
	ID        string
	AccountID string
	OTPHash   string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// Expired reports whether the request is past its expiry at now.
func (r *PasswordResetRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
