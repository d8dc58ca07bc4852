package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/internal/auth/service"
	"github.com/arkrose/doorman/pkg/httpx"
	"github.com/arkrose/doorman/pkg/slogx"
)

// MinPasswordLength is deliberately the only password rule. Length beats
// composition requirements.
const MinPasswordLength = 12

// RegisterHandler handles POST /v1/register.
type RegisterHandler struct {
	UserService *service.UserService
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	User      domain.UserInfo         `json:"user"`
	TwoFactor domain.TOTPProvisioning `json:"two_factor"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Username == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username is required")
		return
	}
	if len(req.Password) < MinPasswordLength {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password must be at least 12 characters")
		return
	}

	u, prov, err := h.UserService.Register(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			httpx.WriteError(w, http.StatusConflict, "username_taken", "username is already registered")
			return
		}
		log.Error("failed to register user", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "registration failed")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		User: domain.UserInfo{
			ID:       u.ID,
			Username: u.Username,
		},
		TwoFactor: prov,
	})
}
