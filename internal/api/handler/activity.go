package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/volunteerhub/volunteer-backend/internal/service"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		RespondError(w, r, http.StatusBadRequest, "request/missing-title", "title is required")
		return
	}

	activity, err := h.svc.Create(r.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		zap.L().Error("create activity failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "activity/create-failed", "Failed to create activity")
		return
	}

	RespondJSON(w, http.StatusCreated, activity)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	activities, err := h.svc.List(r.Context())
	if err != nil {
		zap.L().Error("list activities failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "activity/list-failed", "Failed to list activities")
		return
	}

	RespondJSON(w, http.StatusOK, activities)
}
