package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Ledger failure kinds. These are returned as typed values so callers can
// match with errors.As instead of inspecting message text.

// UserNotFoundError reports that neither identifier resolved to a user.
type UserNotFoundError struct {
	UserID    *uuid.UUID
	StudentID string
}

func (e *UserNotFoundError) Error() string {
	if e.UserID != nil {
		return fmt.Sprintf("user %s does not exist", e.UserID)
	}
	return fmt.Sprintf("no user with student id %q", e.StudentID)
}

// IdentityMismatchError reports that a supplied user id and student id
// resolve to different users.
type IdentityMismatchError struct {
	UserID          uuid.UUID
	GivenStudentID  string
	ActualStudentID string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("user id and student id do not match: user %s has student id %q, got %q",
		e.UserID, e.ActualStudentID, e.GivenStudentID)
}

// DuplicateRecordError reports an existing record for the (user, activity) pair.
type DuplicateRecordError struct {
	UserID     uuid.UUID
	ActivityID uuid.UUID
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("user %s already has a service record for activity %s; edit the existing record instead", e.UserID, e.ActivityID)
}

// RecordNotFoundError reports a missing service record.
type RecordNotFoundError struct {
	RecordID   *uuid.UUID
	UserID     uuid.UUID
	ActivityID uuid.UUID
}

func (e *RecordNotFoundError) Error() string {
	if e.RecordID != nil {
		return fmt.Sprintf("service record %s does not exist", e.RecordID)
	}
	return fmt.Sprintf("user %s has no service record for activity %s", e.UserID, e.ActivityID)
}

// OrphanedRecordError reports a record whose owning user cannot be resolved.
// This is a data-integrity violation, not a normal not-found.
type OrphanedRecordError struct {
	RecordID uuid.UUID
	UserID   uuid.UUID
}

func (e *OrphanedRecordError) Error() string {
	return fmt.Sprintf("integrity violation: record %s references missing user %s", e.RecordID, e.UserID)
}
