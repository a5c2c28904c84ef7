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

// AgentService keeps the run ledger and the human-review gate over agent
// suggestions. Agents themselves live behind an external completion API;
// only what they read and write is handled here.
type AgentService struct {
	db       *gorm.DB
	policies *PolicyService
}

func NewAgentService(db *gorm.DB, policies *PolicyService) *AgentService {
	return &AgentService{db: db, policies: policies}
}

// RecordAgentRun opens a ledger row in "running" state. Agents must call
// this before doing any work so that crashes remain visible in the ledger.
func (s *AgentService) RecordAgentRun(orgID, agentName, triggerType string) (string, error) {
	if agentName == "" {
		return "", errs.New(errs.Validation, "agent name is required")
	}
	if triggerType != "scheduled" && triggerType != "manual" {
		return "", errs.Newf(errs.Validation, "unknown trigger type %q", triggerType)
	}
	run := model.AIAgentRun{
		OrgID:       orgID,
		AgentName:   agentName,
		TriggerType: triggerType,
		Status:      model.AgentRunRunning,
		StartedAt:   time.Now(),
	}
	if err := s.db.Create(&run).Error; err != nil {
		log.Printf("[RecordAgentRun] create failed for %s: %v", agentName, err)
		return "", errs.Wrap(errs.Dependency, err, "failed to record agent run")
	}
	return run.ID, nil
}

// CompleteAgentRun closes a run with its summary and resource usage.
func (s *AgentService) CompleteAgentRun(runID, summary string, tokensUsed int, durationMs int64) error {
	return s.finishRun(runID, map[string]interface{}{
		"status":      model.AgentRunCompleted,
		"summary":     summary,
		"tokens_used": tokensUsed,
		"duration_ms": durationMs,
	})
}

// FailAgentRun records a failure. Callers record the failure before
// propagating the error, so every failed run is auditable even when not
// retried.
func (s *AgentService) FailAgentRun(runID, errorMessage string) error {
	return s.finishRun(runID, map[string]interface{}{
		"status":        model.AgentRunFailed,
		"error_message": errorMessage,
	})
}

func (s *AgentService) finishRun(runID string, updates map[string]interface{}) error {
	now := time.Now()
	updates["finished_at"] = &now
	updates["updated_at"] = now
	res := s.db.Model(&model.AIAgentRun{}).
		Where("id = ? AND status = ?", runID, model.AgentRunRunning).
		Updates(updates)
	if res.Error != nil {
		log.Printf("[finishRun] update failed for run %s: %v", runID, res.Error)
		return errs.Wrap(errs.Dependency, res.Error, "failed to update agent run")
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.NotFound, "agent run not found or already finished")
	}
	return nil
}

// CreateSuggestion persists an agent proposal in pending state. Nothing in
// the domain moves until ReviewSuggestion.
func (s *AgentService) CreateSuggestion(orgID, runID, kind, title string, payload json.RawMessage, targetID *string) (*model.AISuggestion, error) {
	if kind == "" || title == "" {
		return nil, errs.New(errs.Validation, "suggestion kind and title are required")
	}
	var run model.AIAgentRun
	if err := s.db.Where("id = ? AND org_id = ?", runID, orgID).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "agent run not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load agent run")
	}
	sg := model.AISuggestion{
		OrgID:    orgID,
		RunID:    runID,
		Kind:     kind,
		Title:    title,
		Payload:  datatypes.JSON(payload),
		TargetID: targetID,
		Status:   model.SuggestionPending,
	}
	if err := s.db.Create(&sg).Error; err != nil {
		log.Printf("[CreateSuggestion] create failed for run %s: %v", runID, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to create suggestion")
	}
	return &sg, nil
}

// ListSuggestions returns the org's suggestions, optionally by status.
func (s *AgentService) ListSuggestions(userID, orgID, status string) ([]model.AISuggestion, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	q := s.db.Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []model.AISuggestion
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to list suggestions")
	}
	return out, nil
}

// policyRevisionPayload is the data contract a policy_revision suggestion
// carries: the draft content the reviewer accepts into a new version.
type policyRevisionPayload struct {
	Content       json.RawMessage `json:"content"`
	ChangeSummary string          `json:"change_summary"`
}

// ReviewSuggestion is the only path by which agent output reaches domain
// records. A reviewer moves a pending suggestion to accepted, rejected or
// modified; accepting a policy_revision creates a new policy version through
// the version store, attributed to the reviewer.
func (s *AgentService) ReviewSuggestion(userID, orgID, suggestionID, decision, note string) (*model.AISuggestion, error) {
	switch decision {
	case model.SuggestionAccepted, model.SuggestionRejected, model.SuggestionModified:
	default:
		return nil, errs.Newf(errs.Validation, "unknown review decision %q", decision)
	}
	if _, err := requireMember(s.db, userID, orgID, CapReviewSuggestions); err != nil {
		return nil, err
	}

	var sg model.AISuggestion
	if err := s.db.Where("id = ? AND org_id = ?", suggestionID, orgID).First(&sg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.NotFound, "suggestion not found")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load suggestion")
	}
	if sg.Status != model.SuggestionPending {
		return nil, errs.Newf(errs.Conflict, "suggestion already reviewed (%s)", sg.Status)
	}

	// Apply the accepted change before recording the decision; if applying
	// fails, the suggestion stays pending and can be retried.
	if decision == model.SuggestionAccepted && sg.Kind == "policy_revision" {
		if sg.TargetID == nil {
			return nil, errs.New(errs.Validation, "policy_revision suggestion has no target policy")
		}
		var payload policyRevisionPayload
		if err := json.Unmarshal(sg.Payload, &payload); err != nil {
			return nil, errs.Wrap(errs.Validation, err, "malformed suggestion payload")
		}
		if _, err := s.policies.CreateVersion(userID, orgID, *sg.TargetID, payload.Content, payload.ChangeSummary); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      decision,
		"reviewed_by": userID,
		"reviewed_at": &now,
		"review_note": note,
		"updated_at":  now,
	}
	if err := s.db.Model(&sg).Updates(updates).Error; err != nil {
		log.Printf("[ReviewSuggestion] update failed for %s: %v", suggestionID, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to record review decision")
	}
	sg.Status = decision
	sg.ReviewedBy = userID
	return &sg, nil
}

// ListRuns returns the org's agent runs, newest first.
func (s *AgentService) ListRuns(userID, orgID string) ([]model.AIAgentRun, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	var runs []model.AIAgentRun
	if err := s.db.Where("org_id = ?", orgID).Order("started_at DESC").Find(&runs).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to list agent runs")
	}
	return runs, nil
}
