package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/volunteerhub/volunteer-backend/internal/domain"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/observability"
	"github.com/volunteerhub/volunteer-backend/internal/repository"
	"go.uber.org/zap"
)

// LedgerService keeps each user's total_service_hours equal to the sum of
// their service records. Every mutation applies the record write and the
// balance write inside one transaction, holding a row lock on the user.
type LedgerService struct {
	store QueryStore
	audit *AuditService
	now   func() time.Time
}

func NewLedgerService(store QueryStore) *LedgerService {
	return &LedgerService{
		store: store,
		now:   time.Now,
	}
}

// WithAudit enables audit trail entries for record mutations.
func (s *LedgerService) WithAudit(audit *AuditService) *LedgerService {
	s.audit = audit
	return s
}

// WithClock overrides the timestamp source, for tests.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

func (s *LedgerService) writeAudit(ctx context.Context, q *repository.Queries, record *models.ServiceRecord, actorID *uuid.UUID, action, prevHours, nextHours string) error {
	if s.audit == nil {
		return nil
	}
	metadata, err := json.Marshal(map[string]string{
		"user_id":     record.UserID.String(),
		"activity_id": record.ActivityID.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	return s.audit.Write(ctx, q, "service_record", record.ID, actorID, action, prevHours, nextHours, metadata)
}

type CreateRecordCmd struct {
	UserID       *uuid.UUID
	StudentID    string
	ActivityID   uuid.UUID
	ServiceHours decimal.Decimal
	Remarks      string
	RecordMethod string
	RecordedBy   uuid.UUID
}

type UpdateRecordCmd struct {
	UserID       *uuid.UUID
	StudentID    string
	ActivityID   uuid.UUID
	ServiceHours decimal.Decimal
	Remarks      string
	ActorID      uuid.UUID
}

// resolveUser loads and locks the user identified by userID or studentID.
// userID takes precedence; when both are supplied they must agree. The
// returned user's internal id is authoritative from here on.
func resolveUser(ctx context.Context, q *repository.Queries, userID *uuid.UUID, studentID string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case userID != nil:
		user, err = q.GetUserForUpdate(ctx, *userID)
	case studentID != "":
		user, err = q.GetUserByStudentIDForUpdate(ctx, studentID)
	default:
		return nil, &models.UserNotFoundError{StudentID: studentID}
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.UserNotFoundError{UserID: userID, StudentID: studentID}
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if userID != nil && studentID != "" && user.StudentID != studentID {
		return nil, &models.IdentityMismatchError{
			UserID:          user.ID,
			GivenStudentID:  studentID,
			ActualStudentID: user.StudentID,
		}
	}
	return user, nil
}

func (s *LedgerService) CreateRecord(ctx context.Context, cmd CreateRecordCmd) (*models.ServiceRecord, error) {
	if !domain.ValidHours(cmd.ServiceHours) {
		return nil, fmt.Errorf("service hours must not be negative, got %s", cmd.ServiceHours)
	}
	method := cmd.RecordMethod
	if method == "" {
		method = models.RecordMethodManual
	}

	var record *models.ServiceRecord
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		user, err := resolveUser(ctx, q, cmd.UserID, cmd.StudentID)
		if err != nil {
			return err
		}

		exists, err := q.ServiceRecordExists(ctx, user.ID, cmd.ActivityID)
		if err != nil {
			return err
		}
		if exists {
			return &models.DuplicateRecordError{UserID: user.ID, ActivityID: cmd.ActivityID}
		}

		record = &models.ServiceRecord{
			ID:           uuid.New(),
			UserID:       user.ID,
			ActivityID:   cmd.ActivityID,
			ServiceHours: cmd.ServiceHours,
			Remarks:      cmd.Remarks,
			RecordMethod: method,
			RecordedAt:   s.now().UTC(),
			RecordedBy:   cmd.RecordedBy,
		}
		if err := q.InsertServiceRecord(ctx, record); err != nil {
			return err
		}

		newTotal := user.TotalServiceHours.Add(cmd.ServiceHours)
		rows, err := q.UpdateUserTotalHours(ctx, user.ID, newTotal)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "update user total hours"); err != nil {
			return err
		}
		return s.writeAudit(ctx, q, record, &cmd.RecordedBy, "record.create", "", record.ServiceHours.String())
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *LedgerService) UpdateRecord(ctx context.Context, recordID uuid.UUID, cmd UpdateRecordCmd) (*models.ServiceRecord, error) {
	if !domain.ValidHours(cmd.ServiceHours) {
		return nil, fmt.Errorf("service hours must not be negative, got %s", cmd.ServiceHours)
	}

	var record *models.ServiceRecord
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		user, err := resolveUser(ctx, q, cmd.UserID, cmd.StudentID)
		if err != nil {
			return err
		}

		old, err := q.GetServiceRecordByUserActivity(ctx, user.ID, cmd.ActivityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &models.RecordNotFoundError{UserID: user.ID, ActivityID: cmd.ActivityID}
			}
			return err
		}

		if old.ID != recordID {
			// The (user, activity) lookup is authoritative; a stale path id
			// is tolerated the same way a stale user id is.
			zap.L().Warn("record id in request does not match ledger record",
				zap.String("given", recordID.String()),
				zap.String("resolved", old.ID.String()),
			)
		}

		delta := cmd.ServiceHours.Sub(old.ServiceHours)
		newTotal := user.TotalServiceHours.Add(delta)
		if newTotal.IsNegative() {
			newTotal = decimal.Zero
			observability.IncrementBalanceClamp("update")
			zap.L().Error("total service hours clamped to zero, ledger drift detected",
				zap.String("user_id", user.ID.String()),
				zap.String("record_id", old.ID.String()),
				zap.String("total", user.TotalServiceHours.String()),
				zap.String("delta", delta.String()),
			)
		}
		rows, err := q.UpdateUserTotalHours(ctx, user.ID, newTotal)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "update user total hours"); err != nil {
			return err
		}

		// Identity fields come from the resolved user and the looked-up
		// record, never from the request.
		record = &models.ServiceRecord{
			ID:           old.ID,
			UserID:       user.ID,
			ActivityID:   old.ActivityID,
			ServiceHours: cmd.ServiceHours,
			Remarks:      cmd.Remarks,
			RecordMethod: old.RecordMethod,
			RecordedAt:   old.RecordedAt,
			RecordedBy:   old.RecordedBy,
		}
		rows, err = q.UpdateServiceRecord(ctx, record)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "update service record"); err != nil {
			return err
		}
		return s.writeAudit(ctx, q, record, &cmd.ActorID, "record.update", old.ServiceHours.String(), record.ServiceHours.String())
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *LedgerService) DeleteRecord(ctx context.Context, recordID, actorID uuid.UUID) error {
	return s.store.RunInTx(ctx, func(q *repository.Queries) error {
		record, err := q.GetServiceRecord(ctx, recordID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &models.RecordNotFoundError{RecordID: &recordID}
			}
			return err
		}

		user, err := q.GetUserForUpdate(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				orphan := &models.OrphanedRecordError{RecordID: recordID, UserID: record.UserID}
				observability.IncrementIntegrityViolation("orphaned_record")
				zap.L().Error("orphaned service record", zap.Error(orphan))
				return orphan
			}
			return err
		}

		newTotal, clamped := domain.SubtractClamped(user.TotalServiceHours, record.ServiceHours)
		if clamped {
			observability.IncrementBalanceClamp("delete")
			zap.L().Error("total service hours clamped to zero, ledger drift detected",
				zap.String("user_id", user.ID.String()),
				zap.String("record_id", record.ID.String()),
				zap.String("total", user.TotalServiceHours.String()),
				zap.String("record_hours", record.ServiceHours.String()),
			)
		}

		rows, err := q.UpdateUserTotalHours(ctx, user.ID, newTotal)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "update user total hours"); err != nil {
			return err
		}

		rows, err = q.DeleteServiceRecord(ctx, recordID)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "delete service record"); err != nil {
			return err
		}
		return s.writeAudit(ctx, q, record, &actorID, "record.delete", record.ServiceHours.String(), "")
	})
}

// RecordPage is one page of the admin record listing.
type RecordPage struct {
	Records  []models.ServiceRecordView `json:"records"`
	Total    int64                      `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
}

func (s *LedgerService) ListRecords(ctx context.Context, page, pageSize int) (*RecordPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	queries := s.store.Queries()
	total, err := queries.CountServiceRecords(ctx)
	if err != nil {
		return nil, err
	}
	views, err := queries.ListServiceRecordViews(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &RecordPage{Records: views, Total: total, Page: page, PageSize: pageSize}, nil
}
