package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/volunteerhub/volunteer-backend/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the same query set
// can run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a query set bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const userColumns = `id, username, real_name, student_id, email, password_hash, role, status, avatar_url, total_service_hours::text, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var hours string
	err := row.Scan(&u.ID, &u.Username, &u.RealName, &u.StudentID, &u.Email, &u.PasswordHash,
		&u.Role, &u.Status, &u.AvatarURL, &hours, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.TotalServiceHours, err = decimal.NewFromString(hours)
	if err != nil {
		return nil, fmt.Errorf("parse total_service_hours: %w", err)
	}
	return &u, nil
}

func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, username, real_name, student_id, email, password_hash, role, status, avatar_url, total_service_hours, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, user.ID, user.Username, user.RealName, user.StudentID, user.Email,
		user.PasswordHash, user.Role, user.Status, user.AvatarURL, user.TotalServiceHours.String()).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (q *Queries) GetUserByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE student_id = $1`, studentID)
	return scanUser(row)
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetUserForUpdate locks the user row for the rest of the transaction. Every
// ledger mutation takes this lock before reading the balance it will rewrite.
func (q *Queries) GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

func (q *Queries) GetUserByStudentIDForUpdate(ctx context.Context, studentID string) (*models.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE student_id = $1 FOR UPDATE`, studentID)
	return scanUser(row)
}

func (q *Queries) UpdateUserTotalHours(ctx context.Context, id uuid.UUID, total decimal.Decimal) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET total_service_hours = $1::numeric WHERE id = $2`, total.String(), id)
	if err != nil {
		return 0, fmt.Errorf("update total hours: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

func (q *Queries) UserExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE student_id = $1)`, studentID)
}

func (q *Queries) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (q *Queries) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := q.db.QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return exists, nil
}

const recordColumns = `id, user_id, activity_id, service_hours::text, remarks, record_method, recorded_at, recorded_by`

func scanRecord(row pgx.Row) (*models.ServiceRecord, error) {
	var r models.ServiceRecord
	var hours string
	err := row.Scan(&r.ID, &r.UserID, &r.ActivityID, &hours, &r.Remarks, &r.RecordMethod, &r.RecordedAt, &r.RecordedBy)
	if err != nil {
		return nil, err
	}
	r.ServiceHours, err = decimal.NewFromString(hours)
	if err != nil {
		return nil, fmt.Errorf("parse service_hours: %w", err)
	}
	return &r, nil
}

func (q *Queries) GetServiceRecord(ctx context.Context, id uuid.UUID) (*models.ServiceRecord, error) {
	row := q.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM service_records WHERE id = $1`, id)
	return scanRecord(row)
}

func (q *Queries) GetServiceRecordByUserActivity(ctx context.Context, userID, activityID uuid.UUID) (*models.ServiceRecord, error) {
	row := q.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM service_records WHERE user_id = $1 AND activity_id = $2`, userID, activityID)
	return scanRecord(row)
}

func (q *Queries) ServiceRecordExists(ctx context.Context, userID, activityID uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM service_records WHERE user_id = $1 AND activity_id = $2)`, userID, activityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("record existence check: %w", err)
	}
	return exists, nil
}

func (q *Queries) InsertServiceRecord(ctx context.Context, r *models.ServiceRecord) error {
	query := `INSERT INTO service_records (id, user_id, activity_id, service_hours, remarks, record_method, recorded_at, recorded_by)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`
	_, err := q.db.Exec(ctx, query, r.ID, r.UserID, r.ActivityID, r.ServiceHours.String(), r.Remarks, r.RecordMethod, r.RecordedAt, r.RecordedBy)
	if err != nil {
		return fmt.Errorf("insert service record: %w", err)
	}
	return nil
}

func (q *Queries) UpdateServiceRecord(ctx context.Context, r *models.ServiceRecord) (int64, error) {
	query := `UPDATE service_records SET service_hours = $1::numeric, remarks = $2 WHERE id = $3`
	tag, err := q.db.Exec(ctx, query, r.ServiceHours.String(), r.Remarks, r.ID)
	if err != nil {
		return 0, fmt.Errorf("update service record: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) DeleteServiceRecord(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM service_records WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete service record: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListServiceRecordViews returns the admin listing page: records joined with
// the owning user and activity, newest first.
func (q *Queries) ListServiceRecordViews(ctx context.Context, limit, offset int) ([]models.ServiceRecordView, error) {
	query := `
		SELECT sr.id, u.student_id, u.real_name, sr.activity_id, a.title,
		       sr.service_hours::text, sr.remarks, sr.record_method, sr.recorded_at
		FROM service_records sr
		JOIN users u ON u.id = sr.user_id
		JOIN activities a ON a.id = sr.activity_id
		ORDER BY sr.recorded_at DESC, sr.id
		LIMIT $1 OFFSET $2
	`
	rows, err := q.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list service records: %w", err)
	}
	defer rows.Close()

	var views []models.ServiceRecordView
	for rows.Next() {
		var v models.ServiceRecordView
		var hours string
		if err := rows.Scan(&v.ID, &v.StudentID, &v.RealName, &v.ActivityID, &v.ActivityTitle,
			&hours, &v.Remarks, &v.RecordMethod, &v.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan service record view: %w", err)
		}
		if v.ServiceHours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("parse service_hours: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (q *Queries) CountServiceRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM service_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count service records: %w", err)
	}
	return n, nil
}

func (q *Queries) CreateActivity(ctx context.Context, a *models.Activity) error {
	err := q.db.QueryRow(ctx, `INSERT INTO activities (id, title, created_at) VALUES ($1, $2, NOW()) RETURNING created_at`,
		a.ID, a.Title).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (q *Queries) ListActivities(ctx context.Context) ([]models.Activity, error) {
	rows, err := q.db.Query(ctx, `SELECT id, title, created_at FROM activities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Title, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// BalanceDrift reports a user whose stored running total disagrees with the
// sum of their service records.
type BalanceDrift struct {
	UserID      uuid.UUID
	StudentID   string
	StoredTotal decimal.Decimal
	RecordSum   decimal.Decimal
}

func (q *Queries) ListBalanceDrift(ctx context.Context) ([]BalanceDrift, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.student_id, u.total_service_hours::text,
		       COALESCE(SUM(r.service_hours), 0)::text
		FROM users u
		LEFT JOIN service_records r ON r.user_id = u.id
		GROUP BY u.id, u.student_id, u.total_service_hours
		HAVING u.total_service_hours <> COALESCE(SUM(r.service_hours), 0)`)
	if err != nil {
		return nil, fmt.Errorf("list balance drift: %w", err)
	}
	defer rows.Close()

	var drifts []BalanceDrift
	for rows.Next() {
		var d BalanceDrift
		var stored, sum string
		if err := rows.Scan(&d.UserID, &d.StudentID, &stored, &sum); err != nil {
			return nil, fmt.Errorf("scan balance drift: %w", err)
		}
		if d.StoredTotal, err = decimal.NewFromString(stored); err != nil {
			return nil, fmt.Errorf("parse stored total: %w", err)
		}
		if d.RecordSum, err = decimal.NewFromString(sum); err != nil {
			return nil, fmt.Errorf("parse record sum: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

type InsertAuditLogParams struct {
	EntityType string
	EntityID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	PrevState  *string
	NextState  *string
	Metadata   []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, p InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.EntityType, p.EntityID, p.ActorID, p.Action, p.PrevState, p.NextState, p.Metadata)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
