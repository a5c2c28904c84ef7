package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLogEntry records a domain event (scheduler run, status transition,
// suggestion review) for compliance traceability.
type AuditLogEntry struct {
	ID      string `gorm:"type:uuid;primaryKey"`
	OrgID   string `gorm:"type:uuid;not null;index"`
	ActorID string
	Action  string `gorm:"not null"`
	Detail  datatypes.JSON
	CreatedAt time.Time
}

func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
