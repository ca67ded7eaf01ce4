package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/hdsm55/shababna-platform-sub002/internal/logger"
	"github.com/hdsm55/shababna-platform-sub002/internal/services"
	helpers "github.com/hdsm55/shababna-platform-sub002/internal/utils/helpers"

	"go.uber.org/zap"
)

// Both reset endpoints answer with this regardless of whether the account
// exists or the email went out.
const genericResetMessage = "If the email exists, a reset link has been sent."

type PasswordResetHandler struct {
	svc *services.PasswordResetService
}

func NewPasswordResetHandler(svc *services.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

type forgotRequest struct {
	Email string `json:"email"`
}

// Forgot godoc
// @Summary Request a password reset
// @Description Sends an email with a reset link. The response is identical whether or not the email is registered.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotRequest true "Account email"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /api/forgot-password [post]
func (h *PasswordResetHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		log.Warn("invalid payload in Forgot")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	err := h.svc.RequestReset(r.Context(), req.Email, clientIP(r), r.UserAgent())

	var rle *services.RateLimitError
	switch {
	case errors.As(err, &rle):
		log.Warn("forgot-password rate limited", zap.String("email_masked", maskEmail(req.Email)))
		helpers.RateLimited(w, rle.RetryAfter)
		return
	case err != nil:
		log.Error("password reset request failed", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	log.Info("password reset requested", zap.String("email_masked", maskEmail(req.Email)))
	helpers.JSON(w, http.StatusOK, map[string]string{"message": genericResetMessage})
}

// ValidateReset godoc
// @Summary Check a reset link
// @Description Returns the account the token belongs to, for display on the reset form. Does not consume the token.
// @Tags password
// @Produce json
// @Param token query string true "Reset token from the email"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/reset-password [get]
func (h *PasswordResetHandler) ValidateReset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	token := r.URL.Query().Get("token")
	if token == "" {
		helpers.Error(w, http.StatusBadRequest, "invalid or expired token")
		return
	}

	user, err := h.svc.ValidateToken(r.Context(), token)
	switch {
	case errors.Is(err, services.ErrTokenInvalid):
		log.Warn("reset link validation failed")
		helpers.Error(w, http.StatusBadRequest, "invalid or expired token")
		return
	case err != nil:
		log.Error("reset link check failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{
		"email":      user.Email,
		"first_name": user.FirstName,
	})
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Reset godoc
// @Summary Set a new password
// @Description Sets a new password using the token from the email. The token works once.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetRequest true "Token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /api/reset-password [post]
func (h *PasswordResetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" || strings.TrimSpace(req.Password) == "" {
		log.Warn("invalid payload in Reset")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	err := h.svc.CompleteReset(r.Context(), req.Token, req.Password, clientIP(r), r.UserAgent())

	var rle *services.RateLimitError
	switch {
	case errors.As(err, &rle):
		log.Warn("reset-password rate limited")
		helpers.RateLimited(w, rle.RetryAfter)
		return
	case errors.Is(err, services.ErrTokenInvalid), errors.Is(err, services.ErrPasswordTooShort):
		log.Warn("password reset rejected", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid token or password")
		return
	case err != nil:
		log.Error("password reset failed", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	log.Info("password reset succeeded")
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
}

// clientIP prefers proxy headers, falling back to the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return strings.TrimSpace(xr)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
