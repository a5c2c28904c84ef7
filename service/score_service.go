package services

import (
	"log"
	"math"
	"time"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Composite weights for the overall readiness score.
const (
	checkpointWeight = 0.35
	evidenceWeight   = 0.25
	policyWeight     = 0.25
	capaWeight       = 0.15

	// capaBaselineScore stands in for a real CAPA-derived component, which
	// needs a product decision on how open vs overdue CAPAs weigh in.
	capaBaselineScore = 85.0
)

// ScoreService computes and stores audit readiness snapshots.
type ScoreService struct {
	db *gorm.DB
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{db: db}
}

// ComputeAuditReadiness derives the weighted composite for (org, period) and
// upserts it on the unique index, replacing any prior snapshot for the same
// period. All components are clamped to [0,100]; empty denominators score 0.
func (s *ScoreService) ComputeAuditReadiness(userID, orgID, period string) (*model.AuditReadinessScore, error) {
	if period == "" {
		return nil, errs.New(errs.Validation, "period is required")
	}
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}

	var total, passed int64
	if err := s.db.Model(&model.Checkpoint{}).
		Where("org_id = ? AND period = ?", orgID, period).
		Count(&total).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to count checkpoints")
	}
	if err := s.db.Model(&model.Checkpoint{}).
		Where("org_id = ? AND period = ? AND status = ?", orgID, period, model.CheckpointPassed).
		Count(&passed).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to count passed checkpoints")
	}

	checkpointScore := 0.0
	if total > 0 {
		checkpointScore = float64(passed) / float64(total) * 100
	}

	// Evidence coverage counts only passed checkpoints holding at least one
	// evidence row.
	var covered int64
	if err := s.db.Model(&model.Evidence{}).
		Distinct("evidences.checkpoint_id").
		Joins("JOIN checkpoints ON checkpoints.id = evidences.checkpoint_id").
		Where("evidences.org_id = ? AND checkpoints.period = ? AND checkpoints.status = ?",
			orgID, period, model.CheckpointPassed).
		Count(&covered).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to count evidence coverage")
	}
	evidenceScore := 0.0
	if passed > 0 {
		evidenceScore = float64(covered) / float64(passed) * 100
	}

	var totalPolicies, effective, overdueReview int64
	if err := s.db.Model(&model.Policy{}).
		Where("org_id = ?", orgID).Count(&totalPolicies).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to count policies")
	}
	if err := s.db.Model(&model.Policy{}).
		Where("org_id = ? AND status = ?", orgID, model.PolicyEffective).
		Count(&effective).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to count effective policies")
	}
	// Overdue-for-review applies to any policy past its next review date,
	// whatever its status.
	if err := s.db.Model(&model.Policy{}).
		Where("org_id = ? AND next_review_date IS NOT NULL AND next_review_date < ?", orgID, time.Now()).
		Count(&overdueReview).Error; err != nil {
		return nil, errs.Wrap(errs.Dependency, err, "failed to count overdue policies")
	}
	policyScore := 0.0
	if totalPolicies > 0 {
		policyScore = float64(effective-overdueReview) / float64(totalPolicies) * 100
	}

	checkpointScore = clampScore(checkpointScore)
	evidenceScore = clampScore(evidenceScore)
	policyScore = clampScore(policyScore)

	overall := int(math.Round(
		checkpointScore*checkpointWeight +
			evidenceScore*evidenceWeight +
			policyScore*policyWeight +
			capaBaselineScore*capaWeight))

	score := model.AuditReadinessScore{
		OrgID:           orgID,
		Period:          period,
		OverallScore:    overall,
		CheckpointScore: checkpointScore,
		EvidenceScore:   evidenceScore,
		PolicyScore:     policyScore,
		CapaScore:       capaBaselineScore,
		ComputedAt:      time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "org_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overall_score", "checkpoint_score", "evidence_score",
			"policy_score", "capa_score", "computed_at", "updated_at",
		}),
	}).Create(&score).Error
	if err != nil {
		log.Printf("[ComputeAuditReadiness] upsert failed for %s/%s: %v", orgID, period, err)
		return nil, errs.Wrap(errs.Dependency, err, "failed to store readiness score")
	}

	log.Printf("[ComputeAuditReadiness] org %s period %s: overall %d (cp %.1f ev %.1f pol %.1f)",
		orgID, period, overall, checkpointScore, evidenceScore, policyScore)
	return &score, nil
}

// GetScore returns the stored snapshot for (org, period), if any.
func (s *ScoreService) GetScore(userID, orgID, period string) (*model.AuditReadinessScore, error) {
	if _, err := requireMember(s.db, userID, orgID, CapView); err != nil {
		return nil, err
	}
	var score model.AuditReadinessScore
	err := s.db.Where("org_id = ? AND period = ?", orgID, period).First(&score).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.New(errs.NotFound, "no readiness score for this period")
		}
		return nil, errs.Wrap(errs.Dependency, err, "failed to load readiness score")
	}
	return &score, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
