package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/observability"
	"github.com/volunteerhub/volunteer-backend/internal/xlsx"
	"go.uber.org/zap"
)

// ImportService drives the ledger once per spreadsheet row. Each row is its
// own transaction: a bad row is reported and skipped, never aborting the
// rows before or after it.
type ImportService struct {
	ledger  *LedgerService
	maxRows int
}

func NewImportService(ledger *LedgerService, maxRows int) *ImportService {
	return &ImportService{ledger: ledger, maxRows: maxRows}
}

type RowFailure struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	SuccessCount int          `json:"success_count"`
	Failures     []RowFailure `json:"failures,omitempty"`
}

// AllSucceeded reports whether every row produced a record.
func (r *ImportResult) AllSucceeded() bool {
	return len(r.Failures) == 0
}

// ImportRecords folds over rows in sheet order. Rows identify users by
// student id only; internal ids are never accepted on this path.
func (s *ImportService) ImportRecords(ctx context.Context, rows []xlsx.Row, activityID, operatorID uuid.UUID) (*ImportResult, error) {
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return nil, fmt.Errorf("import of %d rows exceeds the limit of %d", len(rows), s.maxRows)
	}

	result := &ImportResult{}
	for _, row := range rows {
		if row.Err != nil {
			result.Failures = append(result.Failures, RowFailure{Row: row.Line, Message: row.Err.Error()})
			observability.IncrementImportRow("parse_error")
			continue
		}

		_, err := s.ledger.CreateRecord(ctx, CreateRecordCmd{
			StudentID:    row.StudentID,
			ActivityID:   activityID,
			ServiceHours: row.Hours,
			Remarks:      row.Remarks,
			RecordMethod: models.RecordMethodImport,
			RecordedBy:   operatorID,
		})
		if err != nil {
			result.Failures = append(result.Failures, RowFailure{Row: row.Line, Message: err.Error()})
			observability.IncrementImportRow("failure")
			continue
		}
		result.SuccessCount++
		observability.IncrementImportRow("success")
	}

	zap.L().Info("service record import finished",
		zap.String("activity_id", activityID.String()),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}
