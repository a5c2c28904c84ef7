package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QMMeeting struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	OrgID     string    `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"not null"`
	HeldAt    time.Time `gorm:"not null"`
	Period    string
	Attendees datatypes.JSON
	Minutes   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *QMMeeting) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
