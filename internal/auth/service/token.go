package service

import (
	"fmt"
	"time"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/pkg/idx"
	"github.com/arkrose/doorman/pkg/jwtx"
)

// TokenService mints the signed access token for a fully authenticated
// session.
type TokenService struct {
	Signer     jwtx.Signer
	Issuer     string
	SessionTTL time.Duration
}

// IssueSession signs a session token for the user. The amr slice records
// every factor that was verified to get here.
func (s *TokenService) IssueSession(u domain.User, amr []string, now time.Time) (domain.SessionToken, error) {
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}

	sid := idx.New().String()
	claims := jwtx.NewSessionClaims(u.ID, sid, amr, ttl, s.Issuer, u.Username, now)

	signed, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.SessionToken{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return domain.SessionToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		SessionID:   sid,
		ExpiresIn:   ttl,
	}, nil
}
