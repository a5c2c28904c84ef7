package services

import (
	"errors"
	"log"
	"time"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/gorm"
)

// CapaService manages findings and the corrective actions raised from them.
// notifier may be nil (tests).
type CapaService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewCapaService(db *gorm.DB, notifier *NotificationService) *CapaService {
	return &CapaService{db: db, notifier: notifier}
}

// CreateFinding records a compliance gap or observation.
func (s *CapaService) CreateFinding(userID, orgID, title, description, severity, source string, meetingID *string) (*model.Finding, error) {
	if title == "" {
		return nil, errs.New(errs.Validation, "finding title is required")
	}
	if _, err := requireMember(s.db, userID, orgID, CapManageCapas); err != nil {
		return nil, err
	}
	f := model.Finding{
		OrgID:       orgID,
		Title:       title,
		Description: description,
		Severity:    severity,
		Source:      source,
		MeetingID:   meetingID,
		Status:      "open",
		ReportedBy:  userID,
	}
	if err := s.db.Create(&f).Error; err != nil {
		log.Printf("[CreateFinding] create failed: %v", err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to create finding")
	}
	return &f, nil
}

// ListFindings returns the org's findings, open first.
func (s *CapaService) ListFindings(userID, orgID, status string) ([]model.Finding, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	q := s.db.Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var findings []model.Finding
	if err := q.Order("created_at DESC").Find(&findings).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to list findings")
	}
	return findings, nil
}

// CreateCapa raises a corrective action from a finding.
func (s *CapaService) CreateCapa(userID, orgID, findingID, title, rootCause, correctiveAction, ownerID string, dueDate time.Time) (*model.CorrectiveAction, error) {
	if title == "" {
		return nil, errs.New(errs.Validation, "CAPA title is required")
	}
	if _, err := requireMember(s.db, userID, orgID, CapManageCapas); err != nil {
		return nil, err
	}
	var f model.Finding
	if err := s.db.Where("id = ? AND org_id = ?", findingID, orgID).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "finding not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load finding")
	}
	c := model.CorrectiveAction{
		OrgID:            orgID,
		FindingID:        findingID,
		Title:            title,
		RootCause:        rootCause,
		CorrectiveAction: correctiveAction,
		OwnerID:          ownerID,
		Status:           model.CapaOpen,
		DueDate:          dueDate,
	}
	if err := s.db.Create(&c).Error; err != nil {
		log.Printf("[CreateCapa] create failed for finding %s: %v", findingID, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to create CAPA")
	}
	if s.notifier != nil && ownerID != "" {
		s.notifier.NotifyAssignment(orgID, ownerID, "capa", title, dueDate)
	}
	return &c, nil
}

// capaTransitions lists the permitted CAPA status moves. Closure goes
// through CloseCapa, which records the verification sign-off.
var capaTransitions = map[string][]string{
	model.CapaOpen:                {model.CapaInProgress},
	model.CapaInProgress:          {model.CapaPendingVerification},
	model.CapaOverdue:             {model.CapaInProgress, model.CapaPendingVerification},
	model.CapaPendingVerification: {model.CapaInProgress},
}

// UpdateCapaStatus moves a CAPA along its workflow (everything except
// closure).
func (s *CapaService) UpdateCapaStatus(userID, orgID, capaID, newStatus string) (*model.CorrectiveAction, error) {
	if _, err := requireMember(s.db, userID, orgID, CapManageCapas); err != nil {
		return nil, err
	}
	var c model.CorrectiveAction
	if err := s.db.Where("id = ? AND org_id = ?", capaID, orgID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "CAPA not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load CAPA")
	}
	allowed := false
	for _, to := range capaTransitions[c.Status] {
		if to == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errs.Newf(errs.Validation, "cannot move CAPA from %s to %s", c.Status, newStatus)
	}
	if err := s.db.Model(&c).Updates(map[string]interface{}{
		"status":     newStatus,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to update CAPA")
	}
	c.Status = newStatus
	return &c, nil
}

// CloseCapa closes a pending-verification CAPA with the verifier's sign-off.
// The verifier is recorded but not required to differ from the owner.
func (s *CapaService) CloseCapa(userID, orgID, capaID, verificationNotes string) (*model.CorrectiveAction, error) {
	if _, err := requireMember(s.db, userID, orgID, CapManageCapas); err != nil {
		return nil, err
	}
	var c model.CorrectiveAction
	if err := s.db.Where("id = ? AND org_id = ?", capaID, orgID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "CAPA not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load CAPA")
	}
	if c.Status != model.CapaPendingVerification {
		return nil, errs.Newf(errs.Validation, "CAPA must be pending verification to close, is %s", c.Status)
	}
	now := time.Now()
	if err := s.db.Model(&c).Updates(map[string]interface{}{
		"status":             model.CapaClosed,
		"verified_by":        userID,
		"verified_at":        &now,
		"verification_notes": verificationNotes,
		"updated_at":         now,
	}).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to close CAPA")
	}
	c.Status = model.CapaClosed
	c.VerifiedBy = userID
	return &c, nil
}

// MarkCapasOverdue is the daily sweep for open or in-progress CAPAs past
// their due date.
func (s *CapaService) MarkCapasOverdue(now time.Time) (int, error) {
	res := s.db.Model(&model.CorrectiveAction{}).
		Where("status IN ? AND due_date < ?", []string{model.CapaOpen, model.CapaInProgress}, now).
		Updates(map[string]interface{}{"status": model.CapaOverdue, "updated_at": now})
	if res.Error != nil {
		log.Printf("[MarkCapasOverdue] sweep failed: %v", res.Error)
		return 0, errs.Wrap(errs.Dependency, res.Error, "CAPA overdue sweep failed")
	}
	return int(res.RowsAffected), nil
}
