package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PolicyDraft     = "draft"
	PolicyInReview  = "in_review"
	PolicyApproved  = "approved"
	PolicyEffective = "effective"
	PolicyRetired   = "retired"
)

// Policy is the mutable metadata of a governed document. Content lives in
// PolicyVersions; CurrentVersionID is a movable pointer into that history,
// it does not own the version it names.
type Policy struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	OrgID    string `gorm:"type:uuid;not null;uniqueIndex:idx_policy_org_code"`
	Code     string `gorm:"not null;uniqueIndex:idx_policy_org_code"`
	Title    string `gorm:"not null"`
	Category string

	Status string `gorm:"not null;default:draft"`

	CurrentVersionID *string `gorm:"type:uuid"`

	// ReviewCadenceMonths drives NextReviewDate, stamped when the policy
	// becomes effective.
	ReviewCadenceMonths int
	NextReviewDate      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Policy) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
