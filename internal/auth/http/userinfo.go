package http

import (
	"errors"
	"net/http"

	"github.com/arkrose/doorman/internal/auth/domain"
	"github.com/arkrose/doorman/internal/auth/service"
	"github.com/arkrose/doorman/internal/auth/store"
	"github.com/arkrose/doorman/pkg/httpx"
	"github.com/arkrose/doorman/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Get subject (user ID) from request context.
	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing authenticated user")
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Valid token for a user that no longer exists.
			log.Warn("token subject no longer exists", "user_id", userID)
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "unknown user")
			return
		}
		log.Warn("failed to load user", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "failed to load user")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, domain.UserInfo{
		ID:               user.ID,
		Username:         user.Username,
		TwoFactorEnabled: user.TwoFactorActive(),
	})
}
