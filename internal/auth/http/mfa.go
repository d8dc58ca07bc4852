package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/arkrose/doorman/internal/auth/service"
	"github.com/arkrose/doorman/pkg/httpx"
	"github.com/arkrose/doorman/pkg/qrx"
	"github.com/arkrose/doorman/pkg/slogx"
)

// MFAHandler handles the authenticated two-factor management endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleProvision handles POST /v1/2fa/provision. Generates and stores a
// fresh secret for the caller; enrollment completes on their next login.
func (h *MFAHandler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing authenticated user")
		return
	}

	prov, err := h.MFAService.ProvisionTOTP(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrTwoFactorAlreadyEnabled) {
			httpx.WriteError(w, http.StatusBadRequest, "two_factor_already_enabled",
				"two-factor is already enabled; disable it before provisioning a new secret")
			return
		}
		log.Error("failed to provision totp", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "provisioning failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, prov)
}

// HandleQR handles GET /v1/2fa/qr, rendering the caller's enrollment URI as
// a PNG. Optional ?size= pixels, capped to keep response sizes sane.
func (h *MFAHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing authenticated user")
		return
	}

	size := qrx.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 1024 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "size must be between 64 and 1024")
			return
		}
		size = parsed
	}

	uri, err := h.MFAService.ProvisioningURI(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
			httpx.WriteError(w, http.StatusBadRequest, "two_factor_already_enabled",
				"the secret is not shown again after enrollment")
		case errors.Is(err, service.ErrTwoFactorNotProvisioned):
			httpx.WriteError(w, http.StatusNotFound, "two_factor_not_provisioned",
				"no secret has been provisioned yet")
		default:
			log.Error("failed to build provisioning uri", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "qr rendering failed")
		}
		return
	}

	png, err := qrx.PNG(uri, size)
	if err != nil {
		log.Error("failed to render qr", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "qr rendering failed")
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// HandleDisable handles DELETE /v1/2fa, clearing the caller's secret and
// enabled flag.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "missing authenticated user")
		return
	}

	if err := h.MFAService.DisableTwoFactor(ctx, userID); err != nil {
		log.Error("failed to disable two-factor", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "disable failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
