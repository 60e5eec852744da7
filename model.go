package dax

import (
	"time"

	"github.com/google/uuid"
)

// Identifiable is implemented by entities exposing a UUID primary key.
// Repositories rely on it for single-row lookups and deletes.
type Identifiable interface {
	ID() uuid.UUID
}

// GenerateNewID returns a new random UUID suitable for primary keys.
func GenerateNewID() uuid.UUID {
	return uuid.New()
}

// SetAuditFieldsBeforeCreate stamps creation and update times with the same
// UTC instant. The identity pointers are left untouched; callers wire them
// once an authenticated principal is available.
func SetAuditFieldsBeforeCreate(createdAt, updatedAt *time.Time, createdBy, updatedBy *uuid.UUID) {
	now := time.Now().UTC()
	if createdAt != nil {
		*createdAt = now
	}
	if updatedAt != nil {
		*updatedAt = now
	}
}

// SetAuditFieldsBeforeUpdate refreshes the update timestamp.
func SetAuditFieldsBeforeUpdate(updatedAt *time.Time, updatedBy *uuid.UUID) {
	if updatedAt != nil {
		*updatedAt = time.Now().UTC()
	}
}
