package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SuggestionPending  = "pending"
	SuggestionAccepted = "accepted"
	SuggestionRejected = "rejected"
	SuggestionModified = "modified"
)

// AISuggestion is a proposed change produced by an agent run. Suggestions
// land as "pending" and cannot touch domain records until a human reviewer
// moves them to accepted/rejected/modified.
type AISuggestion struct {
	ID    string `gorm:"type:uuid;primaryKey"`
	OrgID string `gorm:"type:uuid;not null;index"`
	RunID string `gorm:"type:uuid;not null"`

	// Kind names the proposal, e.g. "policy_revision", "overdue_flag",
	// "readiness_note".
	Kind    string `gorm:"not null"`
	Title   string `gorm:"not null"`
	Payload datatypes.JSON

	// TargetID optionally references the domain record the suggestion is
	// about (a policy id for policy_revision, a checkpoint id for
	// overdue_flag).
	TargetID *string `gorm:"type:uuid"`

	Status     string `gorm:"not null;default:pending"`
	ReviewedBy string
	ReviewedAt *time.Time
	ReviewNote string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *AISuggestion) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
