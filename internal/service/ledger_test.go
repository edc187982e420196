package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/repository"
)

func TestCreateRecordAddsToTotal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store).WithAudit(NewAuditService(store))

	user := createTestUser(t, queries, "20230001")
	activity := createTestActivity(t, queries, "Campus Cleanup")
	admin := uuid.New()

	record, err := svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromFloat(3.5),
		Remarks:      "helped with setup",
		RecordedBy:   admin,
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, record.UserID)
	require.Equal(t, models.RecordMethodManual, record.RecordMethod)
	require.True(t, record.ServiceHours.Equal(decimal.NewFromFloat(3.5)))

	total := userTotal(t, queries, user.ID)
	require.True(t, total.Equal(decimal.NewFromFloat(3.5)), "total %s", total)

	var auditCount int
	err = db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log WHERE entity_id = $1 AND action = 'record.create'`, record.ID).Scan(&auditCount)
	require.NoError(t, err)
	require.Equal(t, 1, auditCount)
}

func TestCreateRecordByStudentID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store)

	user := createTestUser(t, queries, "20230002")
	activity := createTestActivity(t, queries, "Library Desk")

	record, err := svc.CreateRecord(ctx, CreateRecordCmd{
		StudentID:    "20230002",
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(2),
		RecordedBy:   uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, record.UserID)
}

func TestCreateRecordUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	activity := createTestActivity(t, store.Queries(), "Food Drive")
	svc := NewLedgerService(store)

	_, err := svc.CreateRecord(context.Background(), CreateRecordCmd{
		StudentID:    "99999999",
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(1),
		RecordedBy:   uuid.New(),
	})
	var notFound *models.UserNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "99999999", notFound.StudentID)
}

func TestCreateRecordIdentityMismatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store)

	userA := createTestUser(t, queries, "20230003")
	createTestUser(t, queries, "20230004")
	activity := createTestActivity(t, queries, "Tutoring")

	_, err := svc.CreateRecord(context.Background(), CreateRecordCmd{
		UserID:       &userA.ID,
		StudentID:    "20230004",
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(1),
		RecordedBy:   uuid.New(),
	})
	var mismatch *models.IdentityMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, userA.ID, mismatch.UserID)
}

func TestCreateRecordDuplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store)

	user := createTestUser(t, queries, "20230005")
	activity := createTestActivity(t, queries, "Blood Donation")

	_, err := svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(2),
		RecordedBy:   uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(4),
		RecordedBy:   uuid.New(),
	})
	var dup *models.DuplicateRecordError
	require.ErrorAs(t, err, &dup)

	// The failed create must not touch the balance.
	total := userTotal(t, queries, user.ID)
	require.True(t, total.Equal(decimal.NewFromInt(2)), "total %s", total)
}

func TestUpdateRecordAppliesDelta(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store).WithAudit(NewAuditService(store))

	user := createTestUser(t, queries, "20230006")
	activity := createTestActivity(t, queries, "Beach Cleanup")

	record, err := svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(3),
		RecordedBy:   uuid.New(),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateRecord(ctx, record.ID, UpdateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromFloat(7.5),
		Remarks:      "extended shift",
		ActorID:      uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, record.ID, updated.ID)
	require.True(t, updated.ServiceHours.Equal(decimal.NewFromFloat(7.5)))
	require.Equal(t, "extended shift", updated.Remarks)

	total := userTotal(t, queries, user.ID)
	require.True(t, total.Equal(decimal.NewFromFloat(7.5)), "total %s", total)
}

func TestUpdateRecordNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store)

	user := createTestUser(t, queries, "20230007")
	activity := createTestActivity(t, queries, "Soup Kitchen")

	_, err := svc.UpdateRecord(context.Background(), uuid.New(), UpdateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(1),
		ActorID:      uuid.New(),
	})
	var notFound *models.RecordNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUpdateRecordClampsNegativeTotal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store)

	user := createTestUser(t, queries, "20230008")
	activity := createTestActivity(t, queries, "Park Restoration")

	record, err := svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(5),
		RecordedBy:   uuid.New(),
	})
	require.NoError(t, err)

	// Manufacture drift so the update delta would push the total negative.
	_, err = queries.UpdateUserTotalHours(ctx, user.ID, decimal.NewFromInt(2))
	require.NoError(t, err)

	_, err = svc.UpdateRecord(ctx, record.ID, UpdateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.Zero,
		ActorID:      uuid.New(),
	})
	require.NoError(t, err)

	total := userTotal(t, queries, user.ID)
	require.True(t, total.IsZero(), "total %s", total)
}

func TestDeleteRecordRestoresTotal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store).WithAudit(NewAuditService(store))

	user := createTestUser(t, queries, "20230009")
	activityA := createTestActivity(t, queries, "Recycling Drive")
	activityB := createTestActivity(t, queries, "Senior Visits")

	recordA, err := svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activityA.ID,
		ServiceHours: decimal.NewFromInt(4),
		RecordedBy:   uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activityB.ID,
		ServiceHours: decimal.NewFromFloat(1.5),
		RecordedBy:   uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, recordA.ID, uuid.New()))

	total := userTotal(t, queries, user.ID)
	require.True(t, total.Equal(decimal.NewFromFloat(1.5)), "total %s", total)

	_, err = queries.GetServiceRecord(ctx, recordA.ID)
	require.Error(t, err)
}

func TestDeleteRecordClampsNegativeTotal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store)

	user := createTestUser(t, queries, "20230010")
	activity := createTestActivity(t, queries, "Charity Run")

	record, err := svc.CreateRecord(ctx, CreateRecordCmd{
		UserID:       &user.ID,
		ActivityID:   activity.ID,
		ServiceHours: decimal.NewFromInt(5),
		RecordedBy:   uuid.New(),
	})
	require.NoError(t, err)

	_, err = queries.UpdateUserTotalHours(ctx, user.ID, decimal.NewFromInt(2))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(ctx, record.ID, uuid.New()))

	total := userTotal(t, queries, user.ID)
	require.True(t, total.IsZero(), "total %s", total)
}

func TestDeleteRecordNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewLedgerService(store)

	err := svc.DeleteRecord(context.Background(), uuid.New(), uuid.New())
	var notFound *models.RecordNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListRecordsPagination(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewLedgerService(store)

	user := createTestUser(t, queries, "20230011")
	for i := 0; i < 3; i++ {
		activity := createTestActivity(t, queries, "Batch Activity")
		_, err := svc.CreateRecord(ctx, CreateRecordCmd{
			UserID:       &user.ID,
			ActivityID:   activity.ID,
			ServiceHours: decimal.NewFromInt(1),
			RecordedBy:   uuid.New(),
		})
		require.NoError(t, err)
	}

	page, err := svc.ListRecords(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)
	require.Len(t, page.Records, 2)

	page, err = svc.ListRecords(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
}
