package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/internal/auth/store"
	"github.com/arkrose/doorman/pkg/cryptox"
	"github.com/arkrose/doorman/pkg/idx"
	"github.com/arkrose/doorman/pkg/slogx"
)

var ErrUsernameTaken = errors.New("username_taken")

type UserService struct {
	Store store.Store
	MFA   *MFAService
}

// Register creates a credential record and immediately provisions a TOTP
// secret (not yet enabled) so the client can render the enrollment QR in the
// same flow.
func (s *UserService) Register(ctx context.Context, username, password string) (domain.User, domain.TOTPProvisioning, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, domain.TOTPProvisioning{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, domain.TOTPProvisioning{}, ErrUsernameTaken
		}
		return domain.User{}, domain.TOTPProvisioning{}, fmt.Errorf("failed to create user: %w", err)
	}

	prov, err := s.MFA.ProvisionTOTP(ctx, u.ID)
	if err != nil {
		return domain.User{}, domain.TOTPProvisioning{}, err
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID)
	return u, prov, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}
