package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
)

func newAgentFixture(t *testing.T) (*AgentService, *PolicyService, string) {
	t.Helper()
	db := setupTestDB(t)
	policies := NewPolicyService(db)
	svc := NewAgentService(db, policies)
	orgID := seedOrg(t, db, "user-1", model.RoleComplianceOfficer)
	return svc, policies, orgID
}

func TestAgentRun_Lifecycle(t *testing.T) {
	svc, _, orgID := newAgentFixture(t)

	runID, err := svc.RecordAgentRun(orgID, "policy-reviewer", "scheduled")
	require.NoError(t, err)

	runs, err := svc.ListRuns("user-1", orgID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.AgentRunRunning, runs[0].Status)
	assert.Nil(t, runs[0].FinishedAt)

	require.NoError(t, svc.CompleteAgentRun(runID, "reviewed 3 policies", 1200, 4500))

	runs, err = svc.ListRuns("user-1", orgID)
	require.NoError(t, err)
	assert.Equal(t, model.AgentRunCompleted, runs[0].Status)
	assert.Equal(t, "reviewed 3 policies", runs[0].Summary)
	assert.Equal(t, 1200, runs[0].TokensUsed)
	require.NotNil(t, runs[0].FinishedAt)
}

func TestAgentRun_Validation(t *testing.T) {
	svc, _, orgID := newAgentFixture(t)

	_, err := svc.RecordAgentRun(orgID, "", "manual")
	assert.True(t, errs.IsKind(err, errs.Validation))

	_, err = svc.RecordAgentRun(orgID, "policy-reviewer", "cron")
	assert.True(t, errs.IsKind(err, errs.Validation))
}

func TestAgentRun_FinishIsOneShot(t *testing.T) {
	svc, _, orgID := newAgentFixture(t)

	runID, err := svc.RecordAgentRun(orgID, "policy-reviewer", "manual")
	require.NoError(t, err)
	require.NoError(t, svc.FailAgentRun(runID, "completion API timeout"))

	// A finished run can be neither completed nor re-failed.
	err = svc.CompleteAgentRun(runID, "late result", 0, 0)
	assert.True(t, errs.IsKind(err, errs.NotFound))
	err = svc.FailAgentRun(runID, "again")
	assert.True(t, errs.IsKind(err, errs.NotFound))

	runs, err := svc.ListRuns("user-1", orgID)
	require.NoError(t, err)
	assert.Equal(t, model.AgentRunFailed, runs[0].Status)
	assert.Equal(t, "completion API timeout", runs[0].ErrorMessage)
}

func TestCreateSuggestion_RequiresRun(t *testing.T) {
	svc, _, orgID := newAgentFixture(t)

	_, err := svc.CreateSuggestion(orgID, "missing-run", "policy_revision", "Update", json.RawMessage(`{}`), nil)
	assert.True(t, errs.IsKind(err, errs.NotFound))

	runID, err := svc.RecordAgentRun(orgID, "policy-reviewer", "manual")
	require.NoError(t, err)

	sg, err := svc.CreateSuggestion(orgID, runID, "policy_revision", "Update wording", json.RawMessage(`{"content":{}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionPending, sg.Status)
}

func TestReviewSuggestion_Reject(t *testing.T) {
	svc, _, orgID := newAgentFixture(t)
	runID, err := svc.RecordAgentRun(orgID, "policy-reviewer", "manual")
	require.NoError(t, err)
	sg, err := svc.CreateSuggestion(orgID, runID, "finding", "Possible gap", json.RawMessage(`{"note":"x"}`), nil)
	require.NoError(t, err)

	reviewed, err := svc.ReviewSuggestion("user-1", orgID, sg.ID, model.SuggestionRejected, "not actionable")
	require.NoError(t, err)
	assert.Equal(t, model.SuggestionRejected, reviewed.Status)
	assert.Equal(t, "user-1", reviewed.ReviewedBy)

	// Decisions are final; a reviewed suggestion cannot flip.
	_, err = svc.ReviewSuggestion("user-1", orgID, sg.ID, model.SuggestionAccepted, "")
	assert.True(t, errs.IsKind(err, errs.Conflict))
}

func TestReviewSuggestion_AcceptPolicyRevision(t *testing.T) {
	svc, policies, orgID := newAgentFixture(t)
	p := seedPolicy(t, policies, "user-1", orgID)

	runID, err := svc.RecordAgentRun(orgID, "policy-reviewer", "scheduled")
	require.NoError(t, err)
	payload := json.RawMessage(`{"content":{"body":"agent draft"},"change_summary":"tighten retention language"}`)
	sg, err := svc.CreateSuggestion(orgID, runID, "policy_revision", "Retention update", payload, &p.ID)
	require.NoError(t, err)

	_, err = svc.ReviewSuggestion("user-1", orgID, sg.ID, model.SuggestionAccepted, "looks right")
	require.NoError(t, err)

	// Acceptance flows through the version store, attributed to the reviewer.
	history, err := policies.History("user-1", orgID, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].VersionNumber)
	assert.Equal(t, "user-1", history[0].AuthorID)
	assert.Equal(t, "tighten retention language", history[0].ChangeSummary)
	assert.JSONEq(t, `{"body":"agent draft"}`, string(history[0].Content))
}

func TestReviewSuggestion_Guards(t *testing.T) {
	svc, _, orgID := newAgentFixture(t)
	runID, err := svc.RecordAgentRun(orgID, "policy-reviewer", "manual")
	require.NoError(t, err)
	sg, err := svc.CreateSuggestion(orgID, runID, "policy_revision", "No target", json.RawMessage(`{"content":{}}`), nil)
	require.NoError(t, err)

	_, err = svc.ReviewSuggestion("user-1", orgID, sg.ID, "approved", "")
	assert.True(t, errs.IsKind(err, errs.Validation), "unknown decision word")

	_, err = svc.ReviewSuggestion("stranger", orgID, sg.ID, model.SuggestionRejected, "")
	assert.True(t, errs.IsKind(err, errs.Unauthorized))

	// Accepting a policy_revision with no target cannot apply; the
	// suggestion stays pending for correction.
	_, err = svc.ReviewSuggestion("user-1", orgID, sg.ID, model.SuggestionAccepted, "")
	assert.True(t, errs.IsKind(err, errs.Validation))

	pending, err := svc.ListSuggestions("user-1", orgID, model.SuggestionPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
