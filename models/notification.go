package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	OrgID     string `gorm:"type:uuid;not null;index"`
	Recipient string `gorm:"not null"`
	Subject   string
	Body      string
	Kind      string
	Sent      bool `gorm:"not null;default:false"`
	SentAt    *time.Time
	CreatedAt time.Time
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
