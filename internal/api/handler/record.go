package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volunteerhub/volunteer-backend/internal/service"
	"github.com/volunteerhub/volunteer-backend/internal/xlsx"
	"go.uber.org/zap"
)

// maxImportUpload bounds the multipart body of a spreadsheet import.
const maxImportUpload = 8 << 20

type RecordHandler struct {
	ledger   *service.LedgerService
	importer *service.ImportService
}

func NewRecordHandler(ledger *service.LedgerService, importer *service.ImportService) *RecordHandler {
	return &RecordHandler{ledger: ledger, importer: importer}
}

type recordRequest struct {
	UserID       *uuid.UUID      `json:"user_id,omitempty"`
	StudentID    string          `json:"student_id,omitempty"`
	ActivityID   uuid.UUID       `json:"activity_id"`
	ServiceHours decimal.Decimal `json:"service_hours"`
	Remarks      string          `json:"remarks"`
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.ActivityID == uuid.Nil {
		RespondError(w, r, http.StatusBadRequest, "request/missing-activity", "activity_id is required")
		return
	}
	if req.ServiceHours.IsNegative() {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-hours", "service_hours must not be negative")
		return
	}

	record, err := h.ledger.CreateRecord(r.Context(), service.CreateRecordCmd{
		UserID:       req.UserID,
		StudentID:    req.StudentID,
		ActivityID:   req.ActivityID,
		ServiceHours: req.ServiceHours,
		Remarks:      req.Remarks,
		RecordedBy:   actorID,
	})
	if err != nil {
		if status, pType, msg, ok := mapLedgerError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("create record failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "record/create-failed", "Failed to create record")
		return
	}

	RespondJSON(w, http.StatusCreated, record)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-record-id", "Invalid record ID")
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.ActivityID == uuid.Nil {
		RespondError(w, r, http.StatusBadRequest, "request/missing-activity", "activity_id is required")
		return
	}
	if req.ServiceHours.IsNegative() {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-hours", "service_hours must not be negative")
		return
	}

	record, err := h.ledger.UpdateRecord(r.Context(), recordID, service.UpdateRecordCmd{
		UserID:       req.UserID,
		StudentID:    req.StudentID,
		ActivityID:   req.ActivityID,
		ServiceHours: req.ServiceHours,
		Remarks:      req.Remarks,
		ActorID:      actorID,
	})
	if err != nil {
		if status, pType, msg, ok := mapLedgerError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("update record failed", zap.Error(err), zap.String("record_id", recordID.String()))
		RespondError(w, r, http.StatusInternalServerError, "record/update-failed", "Failed to update record")
		return
	}

	RespondJSON(w, http.StatusOK, record)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-record-id", "Invalid record ID")
		return
	}

	if err := h.ledger.DeleteRecord(r.Context(), recordID, actorID); err != nil {
		if status, pType, msg, ok := mapLedgerError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("delete record failed", zap.Error(err), zap.String("record_id", recordID.String()))
		RespondError(w, r, http.StatusInternalServerError, "record/delete-failed", "Failed to delete record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.ledger.ListRecords(r.Context(), page, pageSize)
	if err != nil {
		zap.L().Error("list records failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "record/list-failed", "Failed to list records")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// Import accepts a multipart xlsx upload and registers one record per row.
// A batch with failed rows comes back 400 with the per-row detail so the
// operator can fix and resubmit just those rows.
func (h *RecordHandler) Import(w http.ResponseWriter, r *http.Request) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-multipart", "Invalid multipart body")
		return
	}

	activityID, err := uuid.Parse(r.FormValue("activity_id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-activity-id", "Invalid activity_id")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/missing-file", "file is required")
		return
	}
	defer file.Close()

	rows, err := xlsx.ReadRows(file)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "import/unreadable-workbook", fmt.Sprintf("could not read workbook: %v", err))
		return
	}

	result, err := h.importer.ImportRecords(r.Context(), rows, activityID, actorID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "import/rejected", err.Error())
		return
	}

	status := http.StatusOK
	if !result.AllSucceeded() {
		status = http.StatusBadRequest
	}
	RespondJSON(w, status, result)
}

// Template serves the blank import spreadsheet.
func (h *RecordHandler) Template(w http.ResponseWriter, r *http.Request) {
	buf, err := xlsx.Template()
	if err != nil {
		zap.L().Error("build template failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "import/template-failed", "Failed to build template")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="service_hours_template.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
