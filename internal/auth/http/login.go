package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/internal/auth/service"
	"github.com/arkrose/doorman/pkg/httpx"
	"github.com/arkrose/doorman/pkg/slogx"
)

// LoginHandler drives the two-step login over HTTP.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type completeRequest struct {
	PendingToken string `json:"pending_token"`
	Code         string `json:"code"`
}

type cancelRequest struct {
	PendingToken string `json:"pending_token"`
}

// HandleBegin handles POST /v1/login. A correct password opens a pending
// session; the response never reveals whether the username exists.
func (h *LoginHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	sess, err := h.AuthService.BeginLogin(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "username or password is incorrect")
			return
		}
		log.Error("failed to begin login", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "login failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, domain.PendingSessionResponse{
		TwoFactorRequired: true,
		PendingToken:      sess.ID,
		Methods:           []string{"totp"},
		ExpiresIn:         int64(time.Until(sess.ExpiresAt).Seconds()),
	})
}

// HandleComplete handles POST /v1/login/2fa, exchanging a pending token and
// a one-time code for a session token.
func (h *LoginHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.PendingToken == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "pending_token and code are required")
		return
	}

	token, err := h.AuthService.CompleteLogin(ctx, req.PendingToken, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSuchPendingSession):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_pending_session", "pending session is unknown or expired")
		case errors.Is(err, service.ErrInvalidTwoFactorCode):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", "one-time code is incorrect")
		case errors.Is(err, service.ErrTwoFactorNotProvisioned):
			// No secret to verify against; don't leak enrollment state.
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "login cannot be completed")
		case errors.Is(err, service.ErrTooManyAttempts):
			httpx.WriteError(w, http.StatusTooManyRequests, "too_many_attempts", "too many failed codes; start the login again")
		default:
			log.Error("failed to complete login", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "login failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"session_id":   token.SessionID,
		"expires_in":   int64(token.ExpiresIn.Seconds()),
	})
}

// HandleCancel handles DELETE /v1/login/2fa, abandoning a pending login.
func (h *LoginHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PendingToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "pending_token is required")
		return
	}

	if err := h.AuthService.CancelLogin(ctx, req.PendingToken); err != nil {
		httpx.WriteError(w, http.StatusNotFound, "invalid_pending_session", "pending session is unknown or expired")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
