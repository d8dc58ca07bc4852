package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/internal/auth/store"
	"github.com/arkrose/doorman/pkg/slogx"
	"github.com/arkrose/doorman/pkg/totpx"
)

var ErrTwoFactorAlreadyEnabled = errors.New("two_factor_already_enabled")

// MFAService manages TOTP enrollment material. Enablement itself happens in
// AuthService on the first verified code.
type MFAService struct {
	Store  store.Store
	Issuer string // Issuer name for the authenticator app label (e.g., "Doorman")
}

// ProvisionTOTP generates a fresh secret for the user and persists it. It
// never enables two-factor; the user proves possession during their next
// login. Re-provisioning is allowed while the secret is unverified
// (abandoned setup), and rejected once two-factor is active.
func (s *MFAService) ProvisionTOTP(ctx context.Context, userID string) (domain.TOTPProvisioning, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.TOTPProvisioning{}, fmt.Errorf("failed to get user: %w", err)
	}

	if u.TwoFactorActive() {
		return domain.TOTPProvisioning{}, ErrTwoFactorAlreadyEnabled
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return domain.TOTPProvisioning{}, fmt.Errorf("failed to generate secret: %w", err)
	}

	if err := s.Store.Users().UpdateTOTPSecret(ctx, u.ID, secret); err != nil {
		return domain.TOTPProvisioning{}, fmt.Errorf("failed to store secret: %w", err)
	}

	slogx.FromContext(ctx).Info("totp secret provisioned", "user_id", u.ID)

	return domain.TOTPProvisioning{
		Secret:  secret,
		URI:     totpx.ProvisioningURI(secret, u.Username, s.Issuer),
		Issuer:  s.Issuer,
		Account: u.Username,
	}, nil
}

// ProvisioningURI rebuilds the otpauth URI for the user's current secret,
// for re-rendering the enrollment QR. Fails once two-factor is active; the
// secret is never shown again after enrollment.
func (s *MFAService) ProvisioningURI(ctx context.Context, userID string) (string, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if u.TwoFactorActive() {
		return "", ErrTwoFactorAlreadyEnabled
	}
	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		return "", ErrTwoFactorNotProvisioned
	}

	return totpx.ProvisioningURI(*u.TOTPSecret, u.Username, s.Issuer), nil
}

// DisableTwoFactor clears the secret and the enabled flag in one statement.
// Callers must have already authenticated the user; disabling and then
// re-provisioning is the only way to rotate a secret.
func (s *MFAService) DisableTwoFactor(ctx context.Context, userID string) error {
	if err := s.Store.Users().DisableTwoFactor(ctx, userID); err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}

	slogx.FromContext(ctx).Info("two-factor disabled", "user_id", userID)
	return nil
}
