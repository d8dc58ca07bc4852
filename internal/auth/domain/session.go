package domain

import "time"

// PendingSession represents a login that passed the password check and is
// awaiting its second factor. It grants no access to protected resources;
// its ID is only good for completing or cancelling the login.
type PendingSession struct {
	ID        string    // ULID (the pending_token handed to the client)
	UserID    string    // User ID
	AMR       []string  // Authentication Method References so far (["pwd"])
	Attempts  int       // Failed code verifications (max 5 to prevent brute force)
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its deadline at the given
// instant.
func (s PendingSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// PendingSessionResponse is returned by the login endpoint when a second
// factor is required before a session token can be issued.
type PendingSessionResponse struct {
	TwoFactorRequired bool     `json:"two_factor_required"` // always true
	PendingToken      string   `json:"pending_token"`       // ULID reference token
	Methods           []string `json:"methods"`             // available second factors (["totp"])
	ExpiresIn         int64    `json:"expires_in"`          // seconds until the pending session lapses
}
