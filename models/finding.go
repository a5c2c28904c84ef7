package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Finding struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	OrgID       string `gorm:"type:uuid;not null;index"`
	Title       string `gorm:"not null"`
	Description string
	Severity    string
	Source      string
	MeetingID   *string `gorm:"type:uuid"`
	Status      string  `gorm:"not null;default:open"`
	ReportedBy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (f *Finding) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
