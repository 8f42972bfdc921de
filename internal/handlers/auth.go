package handlers

import (
	"fmt"
	"net/http"

	"shared-notes/internal/auth"
	"shared-notes/internal/models"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Password == "" {
		h.fail(w, r, fmt.Errorf("%w: password is required", models.ErrInvalidInput))
		return
	}

	token, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, map[string]string{"token": token}, http.StatusOK)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		h.fail(w, r, fmt.Errorf("%w: current password and new password are required", models.ErrInvalidInput))
		return
	}

	if err := h.auth.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	logArgs := []any{}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.IssuedAt != nil {
		logArgs = append(logArgs, "token_issued_at", claims.IssuedAt.Time)
	}
	h.logger.Info("password changed", logArgs...)
	h.message(w, "Password changed successfully")
}
