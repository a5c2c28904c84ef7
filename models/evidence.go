package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Evidence is the metadata row for a file held in object storage. A row
// attaches to a checkpoint or a policy, never both.
type Evidence struct {
	ID           string  `gorm:"type:uuid;primaryKey"`
	OrgID        string  `gorm:"type:uuid;not null;index"`
	CheckpointID *string `gorm:"type:uuid;index"`
	PolicyID     *string `gorm:"type:uuid"`

	// StoragePath is the object key under the deployment bucket, prefixed
	// org-{id}-evidence/ for coarse tenant isolation.
	StoragePath  string `gorm:"not null"`
	OriginalName string `gorm:"not null"`
	MimeType     string
	SizeBytes    int64

	// Tags is a free-form string map, e.g. {"reviewed":"true"}.
	Tags datatypes.JSON

	UploadedBy string
	CreatedAt  time.Time
}

func (e *Evidence) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
