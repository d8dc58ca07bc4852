// Package totpx wraps the RFC 6238 time-based one-time password algorithm
// with the parameters this service uses everywhere: SHA1, 6 digits, 30
// second steps. Secrets are base32 without padding, the format every
// authenticator app expects.
package totpx

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// SecretBytes is the raw entropy of a generated secret. 160 bits per
	// the RFC 4226 recommendation.
	SecretBytes = 20

	// StepSeconds is the validity window of a single code.
	StepSeconds = 30

	// DefaultWindow is the clock-skew tolerance used by Verify callers:
	// one step either side of the current one.
	DefaultWindow = 1

	digits = otp.DigitsSix
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a new random base32-encoded secret. It fails only
// when the entropy source is unavailable, which is not retryable in-process.
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totpx: generate secret: %w", err)
	}
	return b32.EncodeToString(buf), nil
}

// Code returns the 6-digit code for the time step containing at. It is a
// pure function of (secret, at); leading zeros are preserved.
func Code(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, validateOpts(DefaultWindow))
	if err != nil {
		return "", fmt.Errorf("totpx: generate code: %w", err)
	}
	return code, nil
}

// Verify reports whether code matches the secret for any time step within
// [-window, +window] steps of at. The underlying comparison is constant
// time. Malformed input (wrong length, non-numeric) and an empty secret are
// rejected before any hashing happens.
func Verify(secret, code string, at time.Time, window uint) bool {
	if secret == "" || !isSixDigits(code) {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at, validateOpts(window))
	if err != nil {
		return false
	}
	return ok
}

// ProvisioningURI builds the otpauth:// URI that authenticator apps consume
// during enrollment, per the Key Uri Format. Labels are percent-encoded.
func ProvisioningURI(secret, account, issuer string) string {
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("algorithm", otp.AlgorithmSHA1.String())
	q.Set("digits", digits.String())
	q.Set("period", fmt.Sprintf("%d", StepSeconds))

	label := url.PathEscape(issuer) + ":" + url.PathEscape(account)
	return "otpauth://totp/" + label + "?" + q.Encode()
}

func validateOpts(window uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    StepSeconds,
		Skew:      window,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
