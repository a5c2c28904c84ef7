package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckpointService owns checkpoint generation and lifecycle. notifier may
// be nil (tests); assignment emails are best-effort either way.
type CheckpointService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewCheckpointService(db *gorm.DB, notifier *NotificationService) *CheckpointService {
	return &CheckpointService{db: db, notifier: notifier}
}

var periodInputRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// GenerateResult summarizes one scheduler run.
type GenerateResult struct {
	Count   int       `json:"count"`
	Skipped int       `json:"skipped"`
	DueDate time.Time `json:"due_date"`
}

// GenerateCheckpoints creates the due checkpoints for every active control
// applicable to the given "YYYY-MM" month. The run is idempotent: pairs
// already scheduled for their period label are counted as skipped, and the
// unique index on (org, control, period) guards the race two concurrent runs
// can hit between the existence check and the insert.
func (s *CheckpointService) GenerateCheckpoints(userID, orgID, periodInput string) (*GenerateResult, error) {
	year, month, err := parsePeriodInput(periodInput)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(s.db, userID, orgID, CapGenerateSchedule); err != nil {
		return nil, err
	}

	dueDate := LastBusinessDay(year, month)

	var controls []model.Control
	if err := s.db.Where("org_id = ? AND active = ?", orgID, true).Find(&controls).Error; err != nil {
		log.Printf("[GenerateCheckpoints] loading controls failed: %v", err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to load controls")
	}

	// Filter to controls whose recurrence fires this month and compute each
	// one's period label.
	type staged struct {
		control model.Control
		label   string
	}
	var applicable []staged
	labelSet := map[string]bool{}
	for _, c := range controls {
		if !MatchesPeriod(c.Recurrence, month) {
			continue
		}
		label := PeriodLabel(c.Recurrence, year, month)
		applicable = append(applicable, staged{control: c, label: label})
		labelSet[label] = true
	}
	if len(applicable) == 0 {
		log.Printf("[GenerateCheckpoints] no applicable controls for org %s period %s", orgID, periodInput)
		return &GenerateResult{DueDate: dueDate}, nil
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}

	// Pre-filter against existing rows. This is an optimization only; the
	// unique index is what actually prevents duplicates.
	var existing []model.Checkpoint
	if err := s.db.Select("control_id", "period").
		Where("org_id = ? AND period IN ?", orgID, labels).
		Find(&existing).Error; err != nil {
		log.Printf("[GenerateCheckpoints] loading existing checkpoints failed: %v", err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to load existing checkpoints")
	}
	scheduled := map[string]bool{}
	for _, cp := range existing {
		scheduled[cp.ControlID+"|"+cp.Period] = true
	}

	ownerCache := map[model.Role]string{}
	skipped := 0
	var rows []model.Checkpoint
	for _, st := range applicable {
		if scheduled[st.control.ID+"|"+st.label] {
			skipped++
			continue
		}
		rows = append(rows, model.Checkpoint{
			OrgID:      orgID,
			ControlID:  st.control.ID,
			Period:     st.label,
			Status:     model.CheckpointPending,
			AssignedTo: s.defaultOwner(orgID, st.control.DefaultOwnerRole, ownerCache),
			DueDate:    dueDate,
		})
	}

	created := 0
	if len(rows) > 0 {
		// Insert and audit entry succeed or fail together. ON CONFLICT DO
		// NOTHING turns a lost race into a skip rather than an error.
		err = s.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
			if res.Error != nil {
				return res.Error
			}
			created = int(res.RowsAffected)
			skipped += len(rows) - created

			detail, _ := json.Marshal(map[string]interface{}{
				"period":    periodInput,
				"generated": created,
				"skipped":   skipped,
				"due_date":  dueDate.Format("2006-01-02"),
			})
			return tx.Create(&model.AuditLogEntry{
				OrgID:   orgID,
				ActorID: userID,
				Action:  "checkpoints_generated",
				Detail:  datatypes.JSON(detail),
			}).Error
		})
		if err != nil {
			log.Printf("[GenerateCheckpoints] insert failed for org %s period %s: %v", orgID, periodInput, err)
			return nil, errs.Wrap(errs.Dependency, err, "failed to create checkpoints")
		}
	}

	if s.notifier != nil {
		titles := make(map[string]string, len(controls))
		for _, c := range controls {
			titles[c.ID] = c.Title
		}
		for _, row := range rows {
			if row.AssignedTo != "" {
				s.notifier.NotifyAssignment(orgID, row.AssignedTo, "checkpoint",
					titles[row.ControlID]+" ("+row.Period+")", dueDate)
			}
		}
	}

	log.Printf("[GenerateCheckpoints] org %s period %s: generated %d, skipped %d", orgID, periodInput, created, skipped)
	return &GenerateResult{Count: created, Skipped: skipped, DueDate: dueDate}, nil
}

// defaultOwner picks the first active member holding the control's default
// owner role. A lookup failure never aborts the batch; the checkpoint is
// simply left unassigned.
func (s *CheckpointService) defaultOwner(orgID string, role model.Role, cache map[model.Role]string) string {
	if role == "" {
		return ""
	}
	if owner, ok := cache[role]; ok {
		return owner
	}
	var m model.OrgMembership
	err := s.db.Where("org_id = ? AND role = ? AND active = ?", orgID, role, true).
		Order("created_at").
		First(&m).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[defaultOwner] lookup for role %s failed: %v", role, err)
		}
		cache[role] = ""
		return ""
	}
	cache[role] = m.UserID
	return m.UserID
}

func parsePeriodInput(periodInput string) (int, time.Month, error) {
	if !periodInputRe.MatchString(periodInput) {
		return 0, 0, errs.Newf(errs.Validation, "period must be in YYYY-MM format, got %q", periodInput)
	}
	year, _ := strconv.Atoi(periodInput[:4])
	monthNum, _ := strconv.Atoi(periodInput[5:])
	if monthNum < 1 || monthNum > 12 {
		return 0, 0, errs.Newf(errs.Validation, "period month out of range: %q", periodInput)
	}
	return year, time.Month(monthNum), nil
}

// checkpointTransitions lists the permitted status moves as work proceeds.
var checkpointTransitions = map[string][]string{
	model.CheckpointPending:    {model.CheckpointInProgress, model.CheckpointPassed, model.CheckpointFailed, model.CheckpointSkipped},
	model.CheckpointInProgress: {model.CheckpointPassed, model.CheckpointFailed, model.CheckpointSkipped},
	model.CheckpointOverdue:    {model.CheckpointInProgress, model.CheckpointPassed, model.CheckpointFailed, model.CheckpointSkipped},
}

// CompleteCheckpoint moves a checkpoint to a new status, recording who
// completed it and their attestation when the status is terminal.
func (s *CheckpointService) CompleteCheckpoint(userID, orgID, checkpointID, newStatus, attestation, notes string) (*model.Checkpoint, error) {
	if _, err := requireMember(s.db, userID, orgID, CapCompleteCheckpoint); err != nil {
		return nil, err
	}

	var cp model.Checkpoint
	if err := s.db.Where("id = ? AND org_id = ?", checkpointID, orgID).First(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "checkpoint not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load checkpoint")
	}

	allowed := false
	for _, to := range checkpointTransitions[cp.Status] {
		if to == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errs.Newf(errs.Validation, "cannot move checkpoint from %s to %s", cp.Status, newStatus)
	}

	updates := map[string]interface{}{
		"status":     newStatus,
		"notes":      notes,
		"updated_at": time.Now(),
	}
	if model.TerminalCheckpointStatus(newStatus) {
		now := time.Now()
		updates["completed_by"] = userID
		updates["completed_at"] = &now
		updates["attestation"] = attestation
	}
	if err := s.db.Model(&cp).Updates(updates).Error; err != nil {
		log.Printf("[CompleteCheckpoint] update failed for %s: %v", checkpointID, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to update checkpoint")
	}
	return &cp, nil
}

// ListCheckpoints returns the org's checkpoints, optionally filtered by
// period label and status.
func (s *CheckpointService) ListCheckpoints(userID, orgID, period, status string) ([]model.Checkpoint, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	q := s.db.Where("org_id = ?", orgID)
	if period != "" {
		q = q.Where("period = ?", period)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var cps []model.Checkpoint
	if err := q.Order("due_date, created_at").Find(&cps).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to list checkpoints")
	}
	return cps, nil
}

// MarkOverdue is the daily sweep flipping pending checkpoints past their due
// date to overdue. It runs across all orgs and returns the number flipped.
func (s *CheckpointService) MarkOverdue(now time.Time) (int, error) {
	res := s.db.Model(&model.Checkpoint{}).
		Where("status = ? AND due_date < ?", model.CheckpointPending, now).
		Updates(map[string]interface{}{"status": model.CheckpointOverdue, "updated_at": now})
	if res.Error != nil {
		log.Printf("[MarkOverdue] sweep failed: %v", res.Error)
		return 0, errs.Wrap(errs.Dependency, res.Error, "overdue sweep failed")
	}
	if res.RowsAffected > 0 {
		log.Printf("[MarkOverdue] flipped %d checkpoints to overdue", res.RowsAffected)
	}
	return int(res.RowsAffected), nil
}

// String implements fmt.Stringer for logging scheduler results.
func (r *GenerateResult) String() string {
	return fmt.Sprintf("generated=%d skipped=%d due=%s", r.Count, r.Skipped, r.DueDate.Format("2006-01-02"))
}
