package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/repository"
	"github.com/volunteerhub/volunteer-backend/internal/xlsx"
)

func TestImportRecordsRowIsolation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewImportService(NewLedgerService(store), 100)

	userA := createTestUser(t, queries, "20230101")
	userB := createTestUser(t, queries, "20230102")
	activity := createTestActivity(t, queries, "Imported Event")

	rows := []xlsx.Row{
		{Line: 2, StudentID: "20230101", Hours: decimal.NewFromInt(2)},
		{Line: 3, StudentID: "00000000", Hours: decimal.NewFromInt(1)},
		{Line: 4, Err: errors.New("hours must be a number, got \"abc\"")},
		{Line: 5, StudentID: "20230102", Hours: decimal.NewFromFloat(1.5), Remarks: "late shift"},
	}

	result, err := svc.ImportRecords(ctx, rows, activity.ID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Failures, 2)
	require.False(t, result.AllSucceeded())

	// Failures carry the sheet line they came from.
	require.Equal(t, 3, result.Failures[0].Row)
	require.Equal(t, 4, result.Failures[1].Row)

	// Good rows landed despite the bad ones in between.
	require.True(t, userTotal(t, queries, userA.ID).Equal(decimal.NewFromInt(2)))
	require.True(t, userTotal(t, queries, userB.ID).Equal(decimal.NewFromFloat(1.5)))
}

func TestImportRecordsDuplicateRow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewImportService(NewLedgerService(store), 100)

	user := createTestUser(t, queries, "20230103")
	activity := createTestActivity(t, queries, "Dup Import")

	rows := []xlsx.Row{
		{Line: 2, StudentID: "20230103", Hours: decimal.NewFromInt(2)},
		{Line: 3, StudentID: "20230103", Hours: decimal.NewFromInt(4)},
	}

	result, err := svc.ImportRecords(ctx, rows, activity.ID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	require.Equal(t, 3, result.Failures[0].Row)

	require.True(t, userTotal(t, queries, user.ID).Equal(decimal.NewFromInt(2)))
}

func TestImportRecordsMarksMethodImport(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := repository.NewStore(db)
	queries := store.Queries()
	svc := NewImportService(NewLedgerService(store), 100)

	user := createTestUser(t, queries, "20230104")
	activity := createTestActivity(t, queries, "Method Check")

	_, err := svc.ImportRecords(ctx, []xlsx.Row{
		{Line: 2, StudentID: "20230104", Hours: decimal.NewFromInt(1)},
	}, activity.ID, uuid.New())
	require.NoError(t, err)

	record, err := queries.GetServiceRecordByUserActivity(ctx, user.ID, activity.ID)
	require.NoError(t, err)
	require.Equal(t, models.RecordMethodImport, record.RecordMethod)
}

func TestImportRecordsRowLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := repository.NewStore(db)
	svc := NewImportService(NewLedgerService(store), 2)

	rows := make([]xlsx.Row, 3)
	_, err := svc.ImportRecords(context.Background(), rows, uuid.New(), uuid.New())
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds the limit")
}
