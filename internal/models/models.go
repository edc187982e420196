package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record method tags how a service record entered the system.
const (
	RecordMethodManual = "manual"
	RecordMethodImport = "import"
)

const (
	RoleVolunteer  = "volunteer"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"

	StatusActive   = 1
	StatusDisabled = 0
)

type User struct {
	ID                uuid.UUID       `json:"id"`
	Username          string          `json:"username"`
	RealName          string          `json:"real_name"`
	StudentID         string          `json:"student_id"`
	Email             string          `json:"email"`
	PasswordHash      string          `json:"-"`
	Role              string          `json:"role"`
	Status            int             `json:"status"`
	AvatarURL         string          `json:"avatar_url,omitempty"`
	TotalServiceHours decimal.Decimal `json:"total_service_hours"`
	CreatedAt         time.Time       `json:"created_at"`
}

type Activity struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ServiceRecord struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	ActivityID   uuid.UUID       `json:"activity_id"`
	ServiceHours decimal.Decimal `json:"service_hours"`
	Remarks      string          `json:"remarks,omitempty"`
	RecordMethod string          `json:"record_method"`
	RecordedAt   time.Time       `json:"recorded_at"`
	RecordedBy   uuid.UUID       `json:"recorded_by"`
}

// ServiceRecordView is the admin listing row: a record joined with the
// owning user and the activity it belongs to.
type ServiceRecordView struct {
	ID            uuid.UUID       `json:"id"`
	StudentID     string          `json:"student_id"`
	RealName      string          `json:"real_name"`
	ActivityID    uuid.UUID       `json:"activity_id"`
	ActivityTitle string          `json:"activity_title"`
	ServiceHours  decimal.Decimal `json:"service_hours"`
	Remarks       string          `json:"remarks,omitempty"`
	RecordMethod  string          `json:"record_method"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
