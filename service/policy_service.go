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

// PolicyService owns policy metadata, the append-only version ledger, and
// status transitions through the approval workflow.
type PolicyService struct {
	db *gorm.DB
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db}
}

// CreatePolicy registers a new policy in draft with no versions yet.
func (s *PolicyService) CreatePolicy(userID, orgID, code, title, category string, reviewCadenceMonths int) (*model.Policy, error) {
	if code == "" || title == "" {
		return nil, errs.New(errs.Validation, "policy code and title are required")
	}
	if _, err := requireMember(s.db, userID, orgID, CapAuthorPolicy); err != nil {
		return nil, err
	}
	p := model.Policy{
		OrgID:               orgID,
		Code:                code,
		Title:               title,
		Category:            category,
		Status:              model.PolicyDraft,
		ReviewCadenceMonths: reviewCadenceMonths,
	}
	if err := s.db.Create(&p).Error; err != nil {
		log.Printf("[CreatePolicy] create failed for %s/%s: %v", orgID, code, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to create policy")
	}
	return &p, nil
}

// VersionResult reports the outcome of CreateVersion.
type VersionResult struct {
	VersionID     string `json:"version_id"`
	VersionNumber int    `json:"version_number"`
}

// CreateVersion appends an immutable snapshot numbered max+1 for the policy,
// then moves the policy's current-version pointer to it. Both writes run in
// one transaction; success is reported only after the pointer moved. The
// unique index on (policy, version_number) rejects a concurrent writer that
// read the same max.
func (s *PolicyService) CreateVersion(userID, orgID, policyID string, content json.RawMessage, changeSummary string) (*VersionResult, error) {
	if len(content) == 0 {
		return nil, errs.New(errs.Validation, "version content is required")
	}
	if _, err := requireMember(s.db, userID, orgID, CapAuthorPolicy); err != nil {
		return nil, err
	}

	var result VersionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var p model.Policy
		if err := tx.Where("id = ? AND org_id = ?", policyID, orgID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.New(errs.NotFound, "policy not found")
			}
			return errs.Wrap(errs.Dependency, err, "failed to load policy")
		}

		var maxNumber int
		if err := tx.Model(&model.PolicyVersion{}).
			Where("policy_id = ?", policyID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return errs.Wrap(errs.Dependency, err, "failed to read version history")
		}

		v := model.PolicyVersion{
			PolicyID:      policyID,
			VersionNumber: maxNumber + 1,
			Content:       datatypes.JSON(content),
			ChangeSummary: changeSummary,
			AuthorID:      userID,
		}
		if err := tx.Create(&v).Error; err != nil {
			return errs.Wrap(errs.Dependency, err, "failed to create policy version")
		}

		if err := tx.Model(&model.Policy{}).Where("id = ?", policyID).Updates(map[string]interface{}{
			"current_version_id": v.ID,
			"updated_at":         time.Now(),
		}).Error; err != nil {
			return errs.Wrap(errs.Dependency, err, "failed to move current version pointer")
		}

		result = VersionResult{VersionID: v.ID, VersionNumber: v.VersionNumber}
		return nil
	})
	if err != nil {
		log.Printf("[CreateVersion] failed for policy %s: %v", policyID, err)
		return nil, err
	}
	log.Printf("[CreateVersion] policy %s now at version %d", policyID, result.VersionNumber)
	return &result, nil
}

// GetCurrentContent resolves policy -> current_version_id -> content.
func (s *PolicyService) GetCurrentContent(userID, orgID, policyID string) (json.RawMessage, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	var p model.Policy
	if err := s.db.Where("id = ? AND org_id = ?", policyID, orgID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "policy not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load policy")
	}
	if p.CurrentVersionID == nil {
		return nil, errs.New(errs.NotFound, "policy has no versions yet")
	}
	var v model.PolicyVersion
	if err := s.db.Where("id = ?", *p.CurrentVersionID).First(&v).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to load current version")
	}
	return json.RawMessage(v.Content), nil
}

// History returns the full version ledger, newest first. The current
// designation is only a pointer on the policy; nothing here is ever deleted.
func (s *PolicyService) History(userID, orgID, policyID string) ([]model.PolicyVersion, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	var versions []model.PolicyVersion
	err := s.db.Joins("JOIN policies ON policies.id = policy_versions.policy_id").
		Where("policy_versions.policy_id = ? AND policies.org_id = ?", policyID, orgID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to load version history")
	}
	return versions, nil
}

// Transition applies an approval-workflow move after validating it against
// the transition table. Invalid moves are rejected before any write.
// Entering effective stamps the next review date from the review cadence;
// approving stamps the approver onto the current version.
func (s *PolicyService) Transition(userID, orgID, policyID, requestedStatus string) (*model.Policy, error) {
	if _, err := requireMember(s.db, userID, orgID, CapApprovePolicy); err != nil {
		return nil, err
	}

	var p model.Policy
	if err := s.db.Where("id = ? AND org_id = ?", policyID, orgID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "policy not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load policy")
	}

	if !RequestStatusTransition(p.Status, requestedStatus) {
		return nil, errs.Newf(errs.Validation, "cannot move policy from %s to %s", p.Status, requestedStatus)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     requestedStatus,
		"updated_at": now,
	}
	if requestedStatus == model.PolicyEffective && p.ReviewCadenceMonths > 0 {
		next := now.AddDate(0, p.ReviewCadenceMonths, 0)
		updates["next_review_date"] = &next
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&p).Updates(updates).Error; err != nil {
			return errs.Wrap(errs.Dependency, err, "failed to update policy status")
		}
		if requestedStatus == model.PolicyApproved && p.CurrentVersionID != nil {
			if err := tx.Model(&model.PolicyVersion{}).
				Where("id = ?", *p.CurrentVersionID).
				Updates(map[string]interface{}{"approved_by": userID, "approved_at": &now}).Error; err != nil {
				return errs.Wrap(errs.Dependency, err, "failed to stamp approver")
			}
		}
		detail, _ := json.Marshal(map[string]string{
			"policy_id": policyID,
			"from":      p.Status,
			"to":        requestedStatus,
		})
		return tx.Create(&model.AuditLogEntry{
			OrgID:   orgID,
			ActorID: userID,
			Action:  "policy_status_changed",
			Detail:  datatypes.JSON(detail),
		}).Error
	})
	if err != nil {
		log.Printf("[Transition] failed for policy %s (%s -> %s): %v", policyID, p.Status, requestedStatus, err)
		return nil, err
	}

	p.Status = requestedStatus
	return &p, nil
}

// ListPolicies returns the org's policies, optionally filtered by status.
func (s *PolicyService) ListPolicies(userID, orgID, status string) ([]model.Policy, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	q := s.db.Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var policies []model.Policy
	if err := q.Order("code").Find(&policies).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to list policies")
	}
	return policies, nil
}
