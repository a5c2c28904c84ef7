package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditReadinessScore is a point-in-time computed snapshot per (org, period).
// Recomputation upserts on the unique index, replacing the prior row.
type AuditReadinessScore struct {
	ID     string `gorm:"type:uuid;primaryKey"`
	OrgID  string `gorm:"type:uuid;not null;uniqueIndex:idx_score_org_period"`
	Period string `gorm:"not null;uniqueIndex:idx_score_org_period"`

	OverallScore    int
	CheckpointScore float64
	EvidenceScore   float64
	PolicyScore     float64
	CapaScore       float64

	ComputedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s *AuditReadinessScore) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
