package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CheckpointPending    = "pending"
	CheckpointInProgress = "in_progress"
	CheckpointPassed     = "passed"
	CheckpointFailed     = "failed"
	CheckpointOverdue    = "overdue"
	CheckpointSkipped    = "skipped"
)

// Checkpoint is one scheduled instance of a control for one period. The
// unique index on (org, control, period) is the authoritative dedup guard;
// the scheduler's existence pre-check is only an optimization.
type Checkpoint struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	OrgID     string `gorm:"type:uuid;not null;uniqueIndex:idx_checkpoint_org_control_period"`
	ControlID string `gorm:"type:uuid;not null;uniqueIndex:idx_checkpoint_org_control_period"`

	// Period is the recurrence-shaped label, e.g. "2026-03", "2026-Q1",
	// "2026-H1", "2026".
	Period string `gorm:"not null;uniqueIndex:idx_checkpoint_org_control_period"`

	Status     string `gorm:"not null;default:pending"`
	AssignedTo string
	DueDate    time.Time

	CompletedBy string
	CompletedAt *time.Time
	Attestation string
	Notes       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Checkpoint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// TerminalCheckpointStatus reports whether status admits no further work.
func TerminalCheckpointStatus(status string) bool {
	switch status {
	case CheckpointPassed, CheckpointFailed, CheckpointSkipped:
		return true
	}
	return false
}
