package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of membership roles. Capability checks key off these
// values; never compare against raw strings elsewhere.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleComplianceOfficer Role = "compliance_officer"
	RoleClinician         Role = "clinician"
	RoleViewer            Role = "viewer"
)

// ValidRole reports whether r is one of the defined roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleComplianceOfficer, RoleClinician, RoleViewer:
		return true
	}
	return false
}

// Organization is a tenant. Every domain row carries an OrgID referencing one.
type Organization struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrgMembership links an externally-authenticated user to an organization.
// The (org, user) pair is unique; rejoining reactivates rather than duplicates.
type OrgMembership struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	OrgID     string `gorm:"type:uuid;not null;uniqueIndex:idx_membership_org_user"`
	UserID    string `gorm:"not null;uniqueIndex:idx_membership_org_user"`
	Role      Role   `gorm:"type:string;not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *OrgMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
