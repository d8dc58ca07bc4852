package domain

import "time"

type User struct {
	ID               string
	Username         string
	PasswordHash     string     // argon2 encoded
	TOTPSecret       *string    // TOTP secret (nullable, base32 encoded)
	TwoFactorEnabled *time.Time // Timestamp of the first successful code verification (nullable)
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TwoFactorActive reports whether the user has completed enrollment and must
// present a code on every login.
func (u User) TwoFactorActive() bool {
	return u.TwoFactorEnabled != nil
}

// UserInfo is the public projection of a user returned by the userinfo
// endpoint. Never includes credential material.
type UserInfo struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}
