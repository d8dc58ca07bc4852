package domain

import "time"

// SessionToken is what a fully authenticated login returns: the short-lived
// signed access token for the session.
type SessionToken struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"` // always "Bearer"
	SessionID   string        `json:"session_id"` // SID embedded in the token
	ExpiresIn   time.Duration `json:"expires_in"` // seconds until expiry
}

// TOTPProvisioning carries everything a client needs to enroll an
// authenticator app. The secret is only ever returned at provisioning time.
type TOTPProvisioning struct {
	Secret  string `json:"secret"`  // base32 encoded, no padding
	URI     string `json:"uri"`     // otpauth:// URL for QR code generation
	Issuer  string `json:"issuer"`  // service name shown in the app
	Account string `json:"account"` // account label shown in the app
}
