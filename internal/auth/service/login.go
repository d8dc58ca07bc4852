package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/internal/auth/session"
	"github.com/arkrose/doorman/internal/auth/store"
	"github.com/arkrose/doorman/pkg/cryptox"
	"github.com/arkrose/doorman/pkg/idx"
	"github.com/arkrose/doorman/pkg/jwtx"
	"github.com/arkrose/doorman/pkg/slogx"
	"github.com/arkrose/doorman/pkg/totpx"
)

// MaxCodeAttempts is the maximum number of failed code verifications allowed
// per pending session before it is destroyed.
const MaxCodeAttempts = 5

var (
	ErrInvalidCredentials      = errors.New("invalid_credentials")
	ErrNoSuchPendingSession    = errors.New("no_such_pending_session")
	ErrTwoFactorNotProvisioned = errors.New("two_factor_not_provisioned")
	ErrInvalidTwoFactorCode    = errors.New("invalid_two_factor_code")
	ErrTooManyAttempts         = errors.New("too_many_attempts")
)

// decoyHash is a throwaway argon2id hash verified against when the username
// is unknown, so the unknown-user and wrong-password paths cost the same.
// The password behind it is random and discarded; it can never match.
// Built lazily because hashing needs the pepper, which is configured at
// application startup.
var (
	decoyHash     string
	decoyHashOnce sync.Once
)

func getDecoyHash() string {
	decoyHashOnce.Do(func() {
		t, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			panic(fmt.Sprintf("decoy token generation: %v", err))
		}
		decoyHash, err = cryptox.HashPassword(t)
		if err != nil {
			panic(fmt.Sprintf("decoy hash generation: %v", err))
		}
	})
	return decoyHash
}

// AuthService drives the two-step login: password check first, then a
// time-based one-time code against the pending session it hands out.
type AuthService struct {
	Store    store.Store
	Sessions *session.Store
	Tokens   *TokenService

	// PendingTTL bounds how long a password-verified login may wait for its
	// code. Defaults to session.DefaultTTL.
	PendingTTL time.Duration

	// CodeWindow is the accepted step skew for code verification.
	CodeWindow uint
}

func (s *AuthService) pendingTTL() time.Duration {
	if s.PendingTTL > 0 {
		return s.PendingTTL
	}
	return session.DefaultTTL
}

func (s *AuthService) codeWindow() uint {
	if s.CodeWindow > 0 {
		return s.CodeWindow
	}
	return totpx.DefaultWindow
}

// BeginLogin verifies the password and opens a pending session awaiting the
// second factor. Unknown usernames and wrong passwords are deliberately
// indistinguishable, in both the returned error and the time taken.
func (s *AuthService) BeginLogin(ctx context.Context, username, password string) (domain.PendingSession, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a verification anyway so the miss costs as much as a hit.
			_ = cryptox.VerifyPassword(password, getDecoyHash())
			return domain.PendingSession{}, ErrInvalidCredentials
		}
		return domain.PendingSession{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("user_id", u.ID))
		return domain.PendingSession{}, ErrInvalidCredentials
	}

	sess := domain.PendingSession{
		ID:        idx.New().String(),
		UserID:    u.ID,
		AMR:       []string{jwtx.AMRPassword},
		CreatedAt: now,
		ExpiresAt: now.Add(s.pendingTTL()),
	}
	// Replaces any earlier pending session for this user.
	s.Sessions.Put(sess)

	l.Info("pending session opened", slog.String("user_id", u.ID))
	return sess, nil
}

// CompleteLogin verifies the one-time code for a pending session and, on
// success, issues the signed session token. The first successful
// verification also finalizes enrollment by flipping the enabled flag.
func (s *AuthService) CompleteLogin(ctx context.Context, pendingID, code string) (domain.SessionToken, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	sess, ok := s.Sessions.Get(pendingID, now)
	if !ok {
		return domain.SessionToken{}, ErrNoSuchPendingSession
	}

	if sess.Attempts >= MaxCodeAttempts {
		s.Sessions.Remove(pendingID)
		l.Warn("pending session exceeded max attempts",
			slog.String("user_id", sess.UserID),
			slog.Int("attempts", sess.Attempts),
		)
		return domain.SessionToken{}, ErrTooManyAttempts
	}

	u, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// User deleted mid-login; the session is worthless.
			s.Sessions.Remove(pendingID)
			return domain.SessionToken{}, ErrNoSuchPendingSession
		}
		return domain.SessionToken{}, fmt.Errorf("failed to load user: %w", err)
	}

	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		return domain.SessionToken{}, ErrTwoFactorNotProvisioned
	}

	if !totpx.Verify(*u.TOTPSecret, code, now, s.codeWindow()) {
		updated, ok := s.Sessions.IncrementAttempts(pendingID, now)
		if ok && updated.Attempts >= MaxCodeAttempts {
			s.Sessions.Remove(pendingID)
			l.Warn("pending session destroyed after max attempts", slog.String("user_id", sess.UserID))
			return domain.SessionToken{}, ErrTooManyAttempts
		}
		l.Info("code verification failed",
			slog.String("user_id", sess.UserID),
			slog.Int("attempts", updated.Attempts),
		)
		return domain.SessionToken{}, ErrInvalidTwoFactorCode
	}

	// Consume the session before issuing anything. Take is atomic, so
	// concurrent completions with the same valid code race for it and
	// exactly one wins; the rest see the session as gone.
	sess, ok = s.Sessions.Take(pendingID, now)
	if !ok {
		return domain.SessionToken{}, ErrNoSuchPendingSession
	}

	// First verified code proves possession and completes enrollment.
	if !u.TwoFactorActive() {
		if err := s.Store.Users().EnableTwoFactor(ctx, u.ID); err != nil {
			return domain.SessionToken{}, fmt.Errorf("failed to enable two-factor: %w", err)
		}
		l.Info("two-factor enrollment completed", slog.String("user_id", u.ID))
	}

	amr := append(sess.AMR, jwtx.AMROTP)
	token, err := s.Tokens.IssueSession(u, amr, now)
	if err != nil {
		return domain.SessionToken{}, err
	}

	l.Info("login completed",
		slog.String("user_id", u.ID),
		slog.String("session_id", token.SessionID),
	)
	return token, nil
}

// CancelLogin abandons a pending session before the second factor. Unknown
// ids report ErrNoSuchPendingSession rather than silently succeeding.
func (s *AuthService) CancelLogin(ctx context.Context, pendingID string) error {
	now := time.Now()

	if _, ok := s.Sessions.Get(pendingID, now); !ok {
		return ErrNoSuchPendingSession
	}
	s.Sessions.Remove(pendingID)

	slogx.FromContext(ctx).Info("pending session cancelled")
	return nil
}
