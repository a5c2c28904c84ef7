package services

import (
	"errors"
	"log"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/gorm"
)

// Capability names an action a role may perform. Checks happen once at the
// service boundary of each operation, never per call site.
type Capability string

const (
	CapManageControls     Capability = "manage_controls"
	CapGenerateSchedule   Capability = "generate_schedule"
	CapCompleteCheckpoint Capability = "complete_checkpoint"
	CapUploadEvidence     Capability = "upload_evidence"
	CapAuthorPolicy       Capability = "author_policy"
	CapApprovePolicy      Capability = "approve_policy"
	CapManageCapas        Capability = "manage_capas"
	CapReviewSuggestions  Capability = "review_suggestions"
	CapManageMembers      Capability = "manage_members"
	CapView               Capability = "view"
)

// roleCapabilities is the closed role -> permitted-actions table.
var roleCapabilities = map[model.Role]map[Capability]bool{
	model.RoleAdmin: {
		CapManageControls: true, CapGenerateSchedule: true,
		CapCompleteCheckpoint: true, CapUploadEvidence: true,
		CapAuthorPolicy: true, CapApprovePolicy: true,
		CapManageCapas: true, CapReviewSuggestions: true,
		CapManageMembers: true, CapView: true,
	},
	model.RoleComplianceOfficer: {
		CapManageControls: true, CapGenerateSchedule: true,
		CapCompleteCheckpoint: true, CapUploadEvidence: true,
		CapAuthorPolicy: true, CapApprovePolicy: true,
		CapManageCapas: true, CapReviewSuggestions: true,
		CapView: true,
	},
	model.RoleClinician: {
		CapCompleteCheckpoint: true, CapUploadEvidence: true,
		CapView: true,
	},
	model.RoleViewer: {
		CapView: true,
	},
}

// RoleAllows reports whether the role grants the capability.
func RoleAllows(role model.Role, cap Capability) bool {
	return roleCapabilities[role][cap]
}

// requireMember loads the caller's active membership in the org and checks
// the capability. The same "not a member of this organization" error covers
// both a missing org and a missing membership, so callers cannot probe
// which orgs exist.
func requireMember(db *gorm.DB, userID, orgID string, cap Capability) (*model.OrgMembership, error) {
	if userID == "" {
		return nil, errs.New(errs.Unauthorized, "not authenticated")
	}
	var m model.OrgMembership
	err := db.Where("org_id = ? AND user_id = ? AND active = ?", orgID, userID, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.Unauthorized, "not a member of this organization")
		}
		log.Printf("[requireMember] membership lookup failed: %v", err)
		return nil, errs.Wrap(errs.Dependency, err, "membership lookup failed")
	}
	if !RoleAllows(m.Role, cap) {
		return nil, errs.New(errs.Unauthorized, "insufficient role for this action")
	}
	return &m, nil
}
