package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ControlService manages the control library. Controls are the read-only
// input to the scheduler; deactivation is always soft so checkpoint history
// keeps valid references.
type ControlService struct {
	db *gorm.DB
}

func NewControlService(db *gorm.DB) *ControlService {
	return &ControlService{db: db}
}

// ControlInput carries the admin-editable fields of a control.
type ControlInput struct {
	Code             string          `json:"code"`
	Title            string          `json:"title"`
	Standard         string          `json:"standard"`
	Recurrence       string          `json:"recurrence"`
	DefaultOwnerRole string          `json:"default_owner_role"`
	RequiredEvidence json.RawMessage `json:"required_evidence"`
}

// CreateControl adds a control to the org's library.
func (s *ControlService) CreateControl(userID, orgID string, in ControlInput) (*model.Control, error) {
	if in.Code == "" || in.Title == "" {
		return nil, errs.New(errs.Validation, "control code and title are required")
	}
	rec := model.Recurrence(in.Recurrence)
	if !model.ValidRecurrence(rec) {
		return nil, errs.Newf(errs.Validation, "unknown recurrence %q", in.Recurrence)
	}
	if in.DefaultOwnerRole != "" && !model.ValidRole(model.Role(in.DefaultOwnerRole)) {
		return nil, errs.Newf(errs.Validation, "unknown default owner role %q", in.DefaultOwnerRole)
	}
	if _, err := requireMember(s.db, userID, orgID, CapManageControls); err != nil {
		return nil, err
	}

	c := model.Control{
		OrgID:            orgID,
		Code:             in.Code,
		Title:            in.Title,
		Standard:         in.Standard,
		Recurrence:       rec,
		DefaultOwnerRole: model.Role(in.DefaultOwnerRole),
		RequiredEvidence: datatypes.JSON(in.RequiredEvidence),
		Active:           true,
	}
	if err := s.db.Create(&c).Error; err != nil {
		log.Printf("[CreateControl] create failed for %s/%s: %v", orgID, in.Code, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to create control")
	}
	return &c, nil
}

// UpdateControl edits the mutable fields. The code (identity) never changes.
func (s *ControlService) UpdateControl(userID, orgID, controlID string, in ControlInput) (*model.Control, error) {
	if _, err := requireMember(s.db, userID, orgID, CapManageControls); err != nil {
		return nil, err
	}
	var c model.Control
	if err := s.db.Where("id = ? AND org_id = ?", controlID, orgID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "control not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load control")
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if in.Title != "" {
		updates["title"] = in.Title
	}
	if in.Standard != "" {
		updates["standard"] = in.Standard
	}
	if in.Recurrence != "" {
		rec := model.Recurrence(in.Recurrence)
		if !model.ValidRecurrence(rec) {
			return nil, errs.Newf(errs.Validation, "unknown recurrence %q", in.Recurrence)
		}
		updates["recurrence"] = rec
	}
	if in.DefaultOwnerRole != "" {
		if !model.ValidRole(model.Role(in.DefaultOwnerRole)) {
			return nil, errs.Newf(errs.Validation, "unknown default owner role %q", in.DefaultOwnerRole)
		}
		updates["default_owner_role"] = in.DefaultOwnerRole
	}
	if len(in.RequiredEvidence) > 0 {
		updates["required_evidence"] = datatypes.JSON(in.RequiredEvidence)
	}
	if err := s.db.Model(&c).Updates(updates).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to update control")
	}
	return &c, nil
}

// DeactivateControl soft-disables a control; it stops generating checkpoints
// but keeps its history intact.
func (s *ControlService) DeactivateControl(userID, orgID, controlID string) error {
	if _, err := requireMember(s.db, userID, orgID, CapManageControls); err != nil {
		return err
	}
	res := s.db.Model(&model.Control{}).
		Where("id = ? AND org_id = ?", controlID, orgID).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return errs.Wrap(errs.Dependency, res.Error, "failed to deactivate control")
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.NotFound, "control not found")
	}
	return nil
}

// ListControls returns the org's library, active controls first.
func (s *ControlService) ListControls(userID, orgID string, includeInactive bool) ([]model.Control, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	q := s.db.Where("org_id = ?", orgID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var controls []model.Control
	if err := q.Order("code").Find(&controls).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to list controls")
	}
	return controls, nil
}
