package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CapaOpen                = "open"
	CapaInProgress          = "in_progress"
	CapaPendingVerification = "pending_verification"
	CapaClosed              = "closed"
	CapaOverdue             = "overdue"
)

// CorrectiveAction tracks remediation of a finding (CAPA). Closure records
// the verifier's sign-off; the model keeps owner and verifier as separate
// fields but does not force them to differ.
type CorrectiveAction struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	OrgID     string `gorm:"type:uuid;not null;index"`
	FindingID string `gorm:"type:uuid;not null"`

	Title            string `gorm:"not null"`
	RootCause        string
	CorrectiveAction string
	OwnerID          string
	Status           string `gorm:"not null;default:open"`
	DueDate          time.Time

	VerifiedBy        string
	VerifiedAt        *time.Time
	VerificationNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *CorrectiveAction) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
