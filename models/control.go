package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Recurrence determines which calendar months a control generates a
// checkpoint in. Boundaries are fixed to the calendar (quarter ends, half
// ends, year end), not to a rolling window from the control's creation date.
type Recurrence string

const (
	RecurrenceMonthly    Recurrence = "monthly"
	RecurrenceQuarterly  Recurrence = "quarterly"
	RecurrenceSemiAnnual Recurrence = "semi_annual"
	RecurrenceAnnual     Recurrence = "annual"
)

// ValidRecurrence reports whether r is one of the defined recurrence values.
func ValidRecurrence(r Recurrence) bool {
	switch r {
	case RecurrenceMonthly, RecurrenceQuarterly, RecurrenceSemiAnnual, RecurrenceAnnual:
		return true
	}
	return false
}

// Control is a compliance requirement template from the control library.
// Controls are soft-deactivated, never deleted, so historical checkpoints
// keep a valid reference.
type Control struct {
	ID string `gorm:"type:uuid;primaryKey"`

	OrgID string `gorm:"type:uuid;not null;uniqueIndex:idx_control_org_code"`

	// Code is the control's immutable identity within the org (e.g. "HIPAA-07").
	Code string `gorm:"not null;uniqueIndex:idx_control_org_code"`

	Title string `gorm:"not null"`

	// Standard names the governing framework, e.g. "HIPAA", "OIG", "CARF".
	Standard string

	Recurrence Recurrence `gorm:"type:string;not null"`

	// DefaultOwnerRole is the role the scheduler assigns new checkpoints to.
	DefaultOwnerRole Role `gorm:"type:string"`

	// RequiredEvidence is a JSON array of evidence descriptions reviewers
	// expect before a checkpoint can pass.
	RequiredEvidence datatypes.JSON

	Active bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Control) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
