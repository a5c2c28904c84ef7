package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AgentRunRunning   = "running"
	AgentRunCompleted = "completed"
	AgentRunFailed    = "failed"
)

// AIAgentRun is one execution of an automated analysis job. A row is created
// in "running" state before the agent does any work, so crashed or failed
// runs remain auditable.
type AIAgentRun struct {
	ID    string `gorm:"type:uuid;primaryKey"`
	OrgID string `gorm:"type:uuid;not null;index"`

	// AgentName identifies the job, e.g. "policy_guardian", "packet_builder".
	AgentName string `gorm:"not null"`

	// TriggerType is "scheduled" or "manual".
	TriggerType string `gorm:"not null"`

	Status       string `gorm:"not null;default:running"`
	Summary      string
	ErrorMessage string
	TokensUsed   int
	DurationMs   int64

	StartedAt  time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *AIAgentRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
