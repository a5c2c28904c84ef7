package services

import (
	"errors"
	"log"
	"time"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/gorm"
)

// OrgService owns tenant setup and membership management.
type OrgService struct {
	db *gorm.DB
}

func NewOrgService(db *gorm.DB) *OrgService {
	return &OrgService{db: db}
}

// SetupOrganization creates the org and the founding admin membership in one
// transaction, so a membership failure never leaves an orphaned org behind.
func (s *OrgService) SetupOrganization(userID, name string) (*model.Organization, error) {
	if userID == "" {
		return nil, errs.New(errs.Unauthorized, "not authenticated")
	}
	if name == "" {
		return nil, errs.New(errs.Validation, "organization name is required")
	}

	org := model.Organization{Name: name}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return errs.Wrap(errs.Dependency, err, "failed to create organization")
		}
		membership := model.OrgMembership{
			OrgID:  org.ID,
			UserID: userID,
			Role:   model.RoleAdmin,
			Active: true,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return errs.Wrap(errs.Dependency, err, "failed to create founding membership")
		}
		return nil
	})
	if err != nil {
		log.Printf("[SetupOrganization] setup failed for %q: %v", name, err)
		return nil, err
	}
	log.Printf("[SetupOrganization] created org %s with admin %s", org.ID, userID)
	return &org, nil
}

// AddMember adds a user to the org. A duplicate membership is not an error:
// the existing row is reactivated with the requested role and reported back.
func (s *OrgService) AddMember(actorID, orgID, userID string, role model.Role) (*model.OrgMembership, error) {
	if !model.ValidRole(role) {
		return nil, errs.Newf(errs.Validation, "unknown role %q", role)
	}
	if _, err := requireMember(s.db, actorID, orgID, CapManageMembers); err != nil {
		return nil, err
	}

	var existing model.OrgMembership
	err := s.db.Where("org_id = ? AND user_id = ?", orgID, userID).First(&existing).Error
	if err == nil {
		// Already a member: reactivate rather than fail.
		if err := s.db.Model(&existing).Updates(map[string]interface{}{
			"role":       role,
			"active":     true,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return nil, errs.Wrap(errs.Dependency, err, "failed to reactivate membership")
		}
		existing.Role = role
		existing.Active = true
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Wrap(errs.Dependency, err, "membership lookup failed")
	}

	m := model.OrgMembership{OrgID: orgID, UserID: userID, Role: role, Active: true}
	if err := s.db.Create(&m).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to create membership")
	}
	return &m, nil
}

// DeactivateMember soft-removes a user from the org.
func (s *OrgService) DeactivateMember(actorID, orgID, userID string) error {
	if _, err := requireMember(s.db, actorID, orgID, CapManageMembers); err != nil {
		return err
	}
	res := s.db.Model(&model.OrgMembership{}).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return errs.Wrap(errs.Dependency, res.Error, "failed to deactivate membership")
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.NotFound, "membership not found")
	}
	return nil
}
