package services

import (
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/brightpathbh/qmportal/models"
)

func TestComputeAuditReadiness_EmptyOrg(t *testing.T) {
	db := setupTestDB(t)
	svc := NewScoreService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleViewer)

	score, err := svc.ComputeAuditReadiness("user-1", orgID, "2026-03")
	require.NoError(t, err)

	// Zero denominators yield 0, never NaN or a division error.
	assert.Zero(t, score.CheckpointScore)
	assert.Zero(t, score.EvidenceScore)
	assert.Zero(t, score.PolicyScore)
	assert.Equal(t, capaBaselineScore, score.CapaScore)

	// Only the CAPA baseline contributes: round(85 * 0.15).
	assert.Equal(t, 13, score.OverallScore)
}

func TestComputeAuditReadiness_Bounds(t *testing.T) {
	db := setupTestDB(t)
	svc := NewScoreService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	c := seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")

	db.Create(&model.Checkpoint{OrgID: orgID, ControlID: c.ID, Period: "2026-03", Status: model.CheckpointPassed, DueDate: time.Now()})

	score, err := svc.ComputeAuditReadiness("user-1", orgID, "2026-03")
	require.NoError(t, err)
	for name, v := range map[string]float64{
		"checkpoint": score.CheckpointScore,
		"evidence":   score.EvidenceScore,
		"policy":     score.PolicyScore,
		"capa":       score.CapaScore,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
	assert.Equal(t, 100.0, score.CheckpointScore)
}

func TestComputeAuditReadiness_EvidenceCoverage(t *testing.T) {
	db := setupTestDB(t)
	svc := NewScoreService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	c1 := seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")
	c2 := seedControl(t, db, orgID, "M-02", model.RecurrenceMonthly, "")

	cp1 := model.Checkpoint{OrgID: orgID, ControlID: c1.ID, Period: "2026-03", Status: model.CheckpointPassed, DueDate: time.Now()}
	cp2 := model.Checkpoint{OrgID: orgID, ControlID: c2.ID, Period: "2026-03", Status: model.CheckpointPassed, DueDate: time.Now()}
	require.NoError(t, db.Create(&cp1).Error)
	require.NoError(t, db.Create(&cp2).Error)

	// Only cp1 carries evidence: coverage is 1 of 2 passed.
	require.NoError(t, db.Create(&model.Evidence{
		OrgID: orgID, CheckpointID: &cp1.ID,
		StoragePath: "org-x-evidence/a.pdf", OriginalName: "a.pdf",
	}).Error)

	score, err := svc.ComputeAuditReadiness("user-1", orgID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 100.0, score.CheckpointScore)
	assert.Equal(t, 50.0, score.EvidenceScore)
}

func TestComputeAuditReadiness_PolicyOverdueReview(t *testing.T) {
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	patches := gomonkey.ApplyFunc(time.Now, func() time.Time { return now })
	defer patches.Reset()

	db := setupTestDB(t)
	svc := NewScoreService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)

	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 6, 0)
	require.NoError(t, db.Create(&model.Policy{
		OrgID: orgID, Code: "P-1", Title: "Current", Status: model.PolicyEffective, NextReviewDate: &future,
	}).Error)
	require.NoError(t, db.Create(&model.Policy{
		OrgID: orgID, Code: "P-2", Title: "Stale", Status: model.PolicyEffective, NextReviewDate: &past,
	}).Error)

	score, err := svc.ComputeAuditReadiness("user-1", orgID, "2026-08")
	require.NoError(t, err)
	// (2 effective - 1 overdue) / 2 total = 50.
	assert.Equal(t, 50.0, score.PolicyScore)
}

func TestComputeAuditReadiness_Upsert(t *testing.T) {
	db := setupTestDB(t)
	svc := NewScoreService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	c := seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")

	_, err := svc.ComputeAuditReadiness("user-1", orgID, "2026-03")
	require.NoError(t, err)

	// New data lands, recompute replaces the snapshot in place.
	require.NoError(t, db.Create(&model.Checkpoint{
		OrgID: orgID, ControlID: c.ID, Period: "2026-03", Status: model.CheckpointPassed, DueDate: time.Now(),
	}).Error)
	second, err := svc.ComputeAuditReadiness("user-1", orgID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 100.0, second.CheckpointScore)

	var count int64
	db.Model(&model.AuditReadinessScore{}).Where("org_id = ? AND period = ?", orgID, "2026-03").Count(&count)
	assert.EqualValues(t, 1, count, "recomputation must not accumulate rows")

	stored, err := svc.GetScore("user-1", orgID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.CheckpointScore)
}

func TestComputeAuditReadiness_Weighting(t *testing.T) {
	db := setupTestDB(t)
	svc := NewScoreService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	c1 := seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")
	c2 := seedControl(t, db, orgID, "M-02", model.RecurrenceMonthly, "")

	cp1 := model.Checkpoint{OrgID: orgID, ControlID: c1.ID, Period: "2026-03", Status: model.CheckpointPassed, DueDate: time.Now()}
	cp2 := model.Checkpoint{OrgID: orgID, ControlID: c2.ID, Period: "2026-03", Status: model.CheckpointPending, DueDate: time.Now()}
	require.NoError(t, db.Create(&cp1).Error)
	require.NoError(t, db.Create(&cp2).Error)
	require.NoError(t, db.Create(&model.Evidence{
		OrgID: orgID, CheckpointID: &cp1.ID,
		StoragePath: "org-x-evidence/a.pdf", OriginalName: "a.pdf",
	}).Error)

	score, err := svc.ComputeAuditReadiness("user-1", orgID, "2026-03")
	require.NoError(t, err)
	// 50*0.35 + 100*0.25 + 0*0.25 + 85*0.15 = 17.5 + 25 + 0 + 12.75 = 55.25 -> 55
	assert.Equal(t, 55, score.OverallScore)
}
