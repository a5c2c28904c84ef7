package services

import (
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	model "github.com/brightpathbh/qmportal/models"
)

// setupTestDB opens a fresh in-memory database with the full schema,
// including the unique indexes the scheduler and version store rely on.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(
		&model.Organization{},
		&model.OrgMembership{},
		&model.Control{},
		&model.Checkpoint{},
		&model.Evidence{},
		&model.Policy{},
		&model.PolicyVersion{},
		&model.Finding{},
		&model.CorrectiveAction{},
		&model.QMMeeting{},
		&model.AIAgentRun{},
		&model.AISuggestion{},
		&model.AuditReadinessScore{},
		&model.AuditLogEntry{},
		&model.Notification{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

// seedOrg creates an organization with one active member of the given role
// and returns the org id.
func seedOrg(t *testing.T, db *gorm.DB, userID string, role model.Role) string {
	t.Helper()

	org := model.Organization{Name: "Test Behavioral Health"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	m := model.OrgMembership{OrgID: org.ID, UserID: userID, Role: role, Active: true}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return org.ID
}

// seedControl adds an active control to the org.
func seedControl(t *testing.T, db *gorm.DB, orgID, code string, rec model.Recurrence, ownerRole model.Role) model.Control {
	t.Helper()

	c := model.Control{
		OrgID:            orgID,
		Code:             code,
		Title:            "Control " + code,
		Standard:         "HIPAA",
		Recurrence:       rec,
		DefaultOwnerRole: ownerRole,
		Active:           true,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed control %s: %v", code, err)
	}
	return c
}
