package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/volunteerhub/volunteer-backend/internal/api/middleware"
	"github.com/volunteerhub/volunteer-backend/internal/api/problem"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/service"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, errors.New("missing user in auth context")
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, errors.New("invalid user_id in auth context")
	}
	return actorID, nil
}

// mapLedgerError translates the ledger's typed failures into problem
// responses. Unmatched errors fall through to the caller's 500 path.
func mapLedgerError(err error) (status int, problemType, message string, ok bool) {
	var (
		userNotFound   *models.UserNotFoundError
		mismatch       *models.IdentityMismatchError
		duplicate      *models.DuplicateRecordError
		recordNotFound *models.RecordNotFoundError
		orphaned       *models.OrphanedRecordError
	)
	switch {
	case errors.As(err, &userNotFound):
		return http.StatusNotFound, "ledger/user-not-found", userNotFound.Error(), true
	case errors.As(err, &mismatch):
		return http.StatusConflict, "ledger/identity-mismatch", mismatch.Error(), true
	case errors.As(err, &duplicate):
		return http.StatusConflict, "ledger/duplicate-record", duplicate.Error(), true
	case errors.As(err, &recordNotFound):
		return http.StatusNotFound, "ledger/record-not-found", recordNotFound.Error(), true
	case errors.As(err, &orphaned):
		return http.StatusInternalServerError, "ledger/orphaned-record", orphaned.Error(), true
	default:
		return 0, "", "", false
	}
}

func mapAuthError(err error) (status int, problemType, message string, ok bool) {
	var (
		conflict   *service.ConflictError
		validation *service.ValidationError
	)
	switch {
	case errors.As(err, &conflict):
		return http.StatusConflict, "auth/conflict", conflict.Error(), true
	case errors.As(err, &validation):
		return http.StatusBadRequest, "auth/validation", validation.Error(), true
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "auth/invalid-credentials", err.Error(), true
	case errors.Is(err, service.ErrAccountDisabled):
		return http.StatusForbidden, "auth/account-disabled", err.Error(), true
	case errors.Is(err, service.ErrNotAdmin):
		return http.StatusForbidden, "auth/not-admin", err.Error(), true
	default:
		return 0, "", "", false
	}
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
