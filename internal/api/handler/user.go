package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/volunteerhub/volunteer-backend/internal/repository"
	"go.uber.org/zap"
)

type UserHandler struct {
	queries *repository.Queries
}

func NewUserHandler(queries *repository.Queries) *UserHandler {
	return &UserHandler{queries: queries}
}

// Me returns the authenticated user's profile, including the running
// service-hour total.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	user, err := h.queries.GetUser(r.Context(), actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			RespondError(w, r, http.StatusNotFound, "user/not-found", "User not found")
			return
		}
		zap.L().Error("load profile failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "user/profile-read-failed", "Failed to load profile")
		return
	}

	RespondJSON(w, http.StatusOK, user)
}
