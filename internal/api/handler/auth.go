package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/volunteerhub/volunteer-backend/internal/api/middleware"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/service"
	"github.com/volunteerhub/volunteer-backend/internal/tokens"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc      *service.AuthService
	denylist *tokens.Denylist
}

func NewAuthHandler(svc *service.AuthService, denylist *tokens.Denylist) *AuthHandler {
	return &AuthHandler{svc: svc, denylist: denylist}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		RealName  string `json:"real_name"`
		StudentID string `json:"student_id"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterCmd{
		Username:  req.Username,
		RealName:  req.RealName,
		StudentID: req.StudentID,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if status, pType, msg, ok := mapAuthError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("register failed", zap.Error(err), zap.String("username", req.Username))
		RespondError(w, r, http.StatusInternalServerError, "auth/register-failed", "Failed to register")
		return
	}

	RespondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.svc.Login)
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.svc.AdminLogin)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, authenticate func(context.Context, string, string) (string, *models.User, error)) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	token, user, err := authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if status, pType, msg, ok := mapAuthError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("login failed", zap.Error(err), zap.String("username", req.Username))
		RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Failed to log in")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// Logout revokes the presented token until its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.RawTokenFromContext(r.Context())
	if token == "" {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	if err := h.denylist.Revoke(r.Context(), token, h.svc.TokenExpiry()); err != nil {
		zap.L().Error("logout failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/logout-failed", "Failed to log out")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
