package domain

import "time"

// PendingSignup is a signup attempt waiting for its emailed code.
// PK: email. One record per email; a new attempt replaces the old one.
//
// Password is kept in plaintext until the attempt is finalized so the client
// can resubmit it at verification time.
type PendingSignup struct {
	Email           string    `json:"email"`
	Code            string    `json:"-"`
	Password        string    `json:"-"`
	Expiry          time.Time `json:"expiry"`
	HasVerification bool      `json:"has_verification"`
}

// Expired reports whether the code can no longer be redeemed at now.
func (p *PendingSignup) Expired(now time.Time) bool {
	return !now.Before(p.Expiry)
}
