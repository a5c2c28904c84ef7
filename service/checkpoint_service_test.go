package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
)

func TestGenerateCheckpoints_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)

	for _, bad := range []string{"2026", "2026-3", "March 2026", "2026-13", "2026-00", ""} {
		_, err := svc.GenerateCheckpoints("user-1", orgID, bad)
		require.Error(t, err, "period %q must be rejected", bad)
		assert.True(t, errs.IsKind(err, errs.Validation), "period %q: want validation error", bad)
	}

	var count int64
	db.Model(&model.Checkpoint{}).Count(&count)
	assert.Zero(t, count, "validation failures must perform no writes")
}

func TestGenerateCheckpoints_Authorization(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "member", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "HIPAA-01", model.RecurrenceMonthly, "")

	_, err := svc.GenerateCheckpoints("stranger", orgID, "2026-03")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.Unauthorized))

	// Viewers can see but not generate.
	db.Create(&model.OrgMembership{OrgID: orgID, UserID: "viewer", Role: model.RoleViewer, Active: true})
	_, err = svc.GenerateCheckpoints("viewer", orgID, "2026-03")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.Unauthorized))

	var count int64
	db.Model(&model.Checkpoint{}).Count(&count)
	assert.Zero(t, count)
}

func TestGenerateCheckpoints_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "HIPAA-01", model.RecurrenceMonthly, "")
	seedControl(t, db, orgID, "OIG-02", model.RecurrenceMonthly, "")

	first, err := svc.GenerateCheckpoints("user-1", orgID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 0, first.Skipped)

	second, err := svc.GenerateCheckpoints("user-1", orgID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count)
	assert.Equal(t, 2, second.Skipped)

	var count int64
	db.Model(&model.Checkpoint{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

// A monthly and a quarterly control both firing in March get distinct period
// labels, so both are scheduled in the same run.
func TestGenerateCheckpoints_LabelScoping(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	monthly := seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")
	quarterly := seedControl(t, db, orgID, "Q-01", model.RecurrenceQuarterly, "")

	result, err := svc.GenerateCheckpoints("user-1", orgID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	var cps []model.Checkpoint
	require.NoError(t, db.Where("org_id = ?", orgID).Find(&cps).Error)
	labels := map[string]string{}
	for _, cp := range cps {
		labels[cp.ControlID] = cp.Period
	}
	assert.Equal(t, "2026-03", labels[monthly.ID])
	assert.Equal(t, "2026-Q1", labels[quarterly.ID])
}

// End-to-end recurrence boundary: March generates only the monthly control;
// June generates both monthly and quarterly.
func TestGenerateCheckpoints_RecurrenceBoundaries(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")
	seedControl(t, db, orgID, "Q-01", model.RecurrenceQuarterly, "")

	march, err := svc.GenerateCheckpoints("user-1", orgID, "2026-04")
	require.NoError(t, err)
	assert.Equal(t, 1, march.Count, "April fires only the monthly control")

	june, err := svc.GenerateCheckpoints("user-1", orgID, "2026-06")
	require.NoError(t, err)
	assert.Equal(t, 2, june.Count)
	assert.Equal(t, 0, june.Skipped)

	var quarterlyCp model.Checkpoint
	require.NoError(t, db.Where("org_id = ? AND period = ?", orgID, "2026-Q2").First(&quarterlyCp).Error)
	assert.Equal(t, time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), quarterlyCp.DueDate.UTC())
}

func TestGenerateCheckpoints_DueDateIsLastBusinessDay(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")

	result, err := svc.GenerateCheckpoints("user-1", orgID, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 27, 0, 0, 0, 0, time.UTC), result.DueDate)
}

func TestGenerateCheckpoints_OwnerAssignment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "admin-1", model.RoleAdmin)
	db.Create(&model.OrgMembership{OrgID: orgID, UserID: "clin-1", Role: model.RoleClinician, Active: true})
	seedControl(t, db, orgID, "C-01", model.RecurrenceMonthly, model.RoleClinician)
	seedControl(t, db, orgID, "C-02", model.RecurrenceMonthly, model.RoleComplianceOfficer) // nobody holds this role
	seedControl(t, db, orgID, "C-03", model.RecurrenceMonthly, "")

	_, err := svc.GenerateCheckpoints("admin-1", orgID, "2026-01")
	require.NoError(t, err)

	var cps []model.Checkpoint
	require.NoError(t, db.Where("org_id = ?", orgID).Find(&cps).Error)
	require.Len(t, cps, 3)

	byControl := map[string]model.Checkpoint{}
	for _, cp := range cps {
		byControl[cp.ControlID] = cp
	}
	var c1, c2 model.Control
	db.Where("code = ?", "C-01").First(&c1)
	db.Where("code = ?", "C-02").First(&c2)
	assert.Equal(t, "clin-1", byControl[c1.ID].AssignedTo)
	assert.Equal(t, "", byControl[c2.ID].AssignedTo, "missing role holder schedules unassigned")
}

func TestGenerateCheckpoints_NoApplicableControls(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "A-01", model.RecurrenceAnnual, "")

	// Annual controls only fire in December.
	result, err := svc.GenerateCheckpoints("user-1", orgID, "2026-05")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Equal(t, 0, result.Skipped)
}

func TestGenerateCheckpoints_InactiveControlsIgnored(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	c := seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")
	require.NoError(t, db.Model(&c).Update("active", false).Error)

	result, err := svc.GenerateCheckpoints("user-1", orgID, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
}

func TestGenerateCheckpoints_WritesAuditEntry(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")

	_, err := svc.GenerateCheckpoints("user-1", orgID, "2026-03")
	require.NoError(t, err)

	var entries []model.AuditLogEntry
	require.NoError(t, db.Where("org_id = ? AND action = ?", orgID, "checkpoints_generated").Find(&entries).Error)
	assert.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].ActorID)
}

func TestCompleteCheckpoint_Transitions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")
	_, err := svc.GenerateCheckpoints("user-1", orgID, "2026-03")
	require.NoError(t, err)

	var cp model.Checkpoint
	require.NoError(t, db.Where("org_id = ?", orgID).First(&cp).Error)

	updated, err := svc.CompleteCheckpoint("user-1", orgID, cp.ID, model.CheckpointPassed, "Reviewed and attested", "all good")
	require.NoError(t, err)
	assert.Equal(t, model.CheckpointPassed, updated.Status)

	var stored model.Checkpoint
	require.NoError(t, db.First(&stored, "id = ?", cp.ID).Error)
	assert.Equal(t, model.CheckpointPassed, stored.Status)
	assert.Equal(t, "user-1", stored.CompletedBy)
	assert.NotNil(t, stored.CompletedAt)

	// Terminal status admits no further transitions.
	_, err = svc.CompleteCheckpoint("user-1", orgID, cp.ID, model.CheckpointFailed, "", "")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.Validation))
}

func TestMarkOverdue(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCheckpointService(db, nil)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")

	_, err := svc.GenerateCheckpoints("user-1", orgID, "2026-01")
	require.NoError(t, err)

	// Before the due date nothing flips.
	flipped, err := svc.MarkOverdue(time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, flipped)

	flipped, err = svc.MarkOverdue(time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	var cp model.Checkpoint
	require.NoError(t, db.Where("org_id = ?", orgID).First(&cp).Error)
	assert.Equal(t, model.CheckpointOverdue, cp.Status)
}
