package service

import (
	"context"
	"fmt"

	"github.com/volunteerhub/volunteer-backend/internal/observability"
	"go.uber.org/zap"
)

// ReconciliationService verifies ledger integrity invariants.
type ReconciliationService struct {
	store QueryStore
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run checks that every user's stored hour total matches the sum of their
// service records and reports any drift. Drift is reported, not repaired:
// record mutations are the only writers of the running total.
func (s *ReconciliationService) Run(ctx context.Context) error {
	drifts, err := s.store.Queries().ListBalanceDrift(ctx)
	if err != nil {
		return fmt.Errorf("run balance drift query: %w", err)
	}

	if len(drifts) == 0 {
		zap.L().Info("hour totals balanced")
		return nil
	}

	for _, d := range drifts {
		observability.IncrementIntegrityViolation("balance_drift")
		zap.L().Error("hour total drift detected",
			zap.String("user_id", d.UserID.String()),
			zap.String("student_id", d.StudentID),
			zap.String("stored_total", d.StoredTotal.String()),
			zap.String("record_sum", d.RecordSum.String()))
	}
	return nil
}
