package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
)

func TestCreateMeeting(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMeetingService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)

	m, err := svc.CreateMeeting("user-1", orgID, "Q1 QM Committee", time.Now(), "2026-Q1",
		[]string{"user-1", "clin-2"}, "Reviewed readiness and open CAPAs.")
	require.NoError(t, err)
	assert.JSONEq(t, `["user-1","clin-2"]`, string(m.Attendees))

	_, err = svc.CreateMeeting("user-1", orgID, "", time.Now(), "", nil, "")
	assert.True(t, errs.IsKind(err, errs.Validation))
}

func TestAssemblePacket(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMeetingService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	c := seedControl(t, db, orgID, "M-01", model.RecurrenceMonthly, "")

	m, err := svc.CreateMeeting("user-1", orgID, "March QM", time.Now(), "2026-03", nil, "")
	require.NoError(t, err)

	// Seed what the committee reviews: a score, an open finding, an overdue
	// checkpoint.
	_, err = NewScoreService(db).ComputeAuditReadiness("user-1", orgID, "2026-03")
	require.NoError(t, err)
	capas := NewCapaService(db, nil)
	_, err = capas.CreateFinding("user-1", orgID, "Late note co-signs", "", "medium", "chart_review", &m.ID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Checkpoint{
		OrgID: orgID, ControlID: c.ID, Period: "2026-03",
		Status: model.CheckpointOverdue, DueDate: time.Now().AddDate(0, 0, -5),
	}).Error)

	packet, err := svc.AssemblePacket("user-1", orgID, m.ID)
	require.NoError(t, err)
	require.NotNil(t, packet.ReadinessScore)
	assert.Equal(t, "2026-03", packet.ReadinessScore.Period)
	assert.Len(t, packet.OpenFindings, 1)
	assert.Len(t, packet.OverdueCheckpoints, 1)

	_, err = svc.AssemblePacket("user-1", orgID, "missing")
	assert.True(t, errs.IsKind(err, errs.NotFound))
}

func TestAssemblePacket_NoScoreYet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMeetingService(db)
	orgID := seedOrg(t, db, "user-1", model.RoleViewer)

	m, err := svc.CreateMeeting("user-1", orgID, "Kickoff", time.Now(), "2026-01", nil, "")
	require.NoError(t, err)

	packet, err := svc.AssemblePacket("user-1", orgID, m.ID)
	require.NoError(t, err)
	assert.Nil(t, packet.ReadinessScore)
	assert.Empty(t, packet.OpenFindings)
	assert.Empty(t, packet.OverdueCheckpoints)
}
