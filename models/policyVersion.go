package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PolicyVersion is an immutable content snapshot. Version numbers per policy
// are assigned max+1 at creation and backed by a unique index; rows are never
// updated or deleted once written.
type PolicyVersion struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	PolicyID string `gorm:"type:uuid;not null;uniqueIndex:idx_version_policy_number"`

	VersionNumber int `gorm:"not null;uniqueIndex:idx_version_policy_number"`

	// Content is the structured policy body (sections, procedures, references).
	Content datatypes.JSON `gorm:"not null"`

	ChangeSummary string
	AuthorID      string `gorm:"not null"`

	ApprovedBy string
	ApprovedAt *time.Time

	CreatedAt time.Time
}

func (v *PolicyVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
