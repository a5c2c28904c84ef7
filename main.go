package main

import (
	"log"
	"net/http"
	"os"

	controller "github.com/brightpathbh/qmportal/controller"
	"github.com/brightpathbh/qmportal/initializers"
	middleware "github.com/brightpathbh/qmportal/middleware"
	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("No .env file loaded: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	db := initializers.DB

	notificationService := service.NewNotificationService(db)
	orgService := service.NewOrgService(db)
	controlService := service.NewControlService(db)
	checkpointService := service.NewCheckpointService(db, notificationService)
	policyService := service.NewPolicyService(db)
	scoreService := service.NewScoreService(db)
	agentService := service.NewAgentService(db, policyService)
	capaService := service.NewCapaService(db, notificationService)
	meetingService := service.NewMeetingService(db)

	evidenceService, err := service.NewEvidenceService(db)
	if err != nil {
		log.Fatalf("Failed to initialize evidence service: %s", err)
	}

	orgController := controller.NewOrgController(orgService)
	controlController := controller.NewControlController(controlService)
	checkpointController := controller.NewCheckpointController(checkpointService)
	policyController := controller.NewPolicyController(policyService)
	scoreController := controller.NewScoreController(scoreService)
	agentController := controller.NewAgentController(agentService)
	capaController := controller.NewCapaController(capaService)
	meetingController := controller.NewMeetingController(meetingService)
	evidenceController := controller.NewEvidenceController(evidenceService)
	jobController := controller.NewJobController(checkpointService, capaService)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.Identity())
	router.Use(middleware.GlobalRateLimiter.Limit())

	// Tenant setup and membership
	router.POST("/orgs", orgController.SetupOrganization)
	router.POST("/orgs/:id/members", orgController.AddMember)
	router.DELETE("/orgs/:id/members/:userId", orgController.RemoveMember)

	// Control library
	router.POST("/controls", controlController.CreateControl)
	router.GET("/controls", controlController.ListControls)
	router.PATCH("/controls/:id", controlController.UpdateControl)
	router.DELETE("/controls/:id", controlController.DeactivateControl)

	// Checkpoint scheduling and lifecycle
	router.POST("/checkpoints/generate",
		middleware.StrictRateLimiter.Limit(),
		checkpointController.GenerateCheckpoints)
	router.GET("/checkpoints", checkpointController.ListCheckpoints)
	router.PATCH("/checkpoints/:id/complete", checkpointController.CompleteCheckpoint)

	// Evidence binder
	router.POST("/checkpoints/:id/evidence",
		middleware.StrictRateLimiter.Limit(),
		evidenceController.UploadEvidence)
	router.GET("/checkpoints/:id/evidence", evidenceController.ListForCheckpoint)
	router.GET("/evidence/:id/url", evidenceController.SignedURL)
	router.DELETE("/evidence/:id", evidenceController.DeleteEvidence)

	// Policies, versions, approval workflow
	router.POST("/policies", policyController.CreatePolicy)
	router.GET("/policies", policyController.ListPolicies)
	router.POST("/policies/:id/versions", policyController.CreateVersion)
	router.GET("/policies/:id/versions", policyController.History)
	router.GET("/policies/:id/current", policyController.CurrentContent)
	router.POST("/policies/:id/transition", policyController.Transition)

	// Audit readiness
	router.GET("/readiness", scoreController.Get)
	router.POST("/readiness/compute", scoreController.Compute)

	// Agent run ledger and suggestion gate
	router.POST("/agent-runs", agentController.RecordRun)
	router.GET("/agent-runs", agentController.ListRuns)
	router.POST("/agent-runs/:id/complete", agentController.CompleteRun)
	router.POST("/agent-runs/:id/fail", agentController.FailRun)
	router.POST("/suggestions", agentController.CreateSuggestion)
	router.GET("/suggestions", agentController.ListSuggestions)
	router.POST("/suggestions/:id/review", agentController.ReviewSuggestion)

	// Findings and CAPAs
	router.POST("/findings", capaController.CreateFinding)
	router.GET("/findings", capaController.ListFindings)
	router.POST("/capas", capaController.CreateCapa)
	router.PATCH("/capas/:id/status", capaController.UpdateStatus)
	router.POST("/capas/:id/close", capaController.Close)

	// QM meetings
	router.POST("/meetings", meetingController.CreateMeeting)
	router.GET("/meetings/:id/packet", meetingController.Packet)

	// Scheduled job triggers (hit by the external cron runner)
	router.POST("/jobs/overdue-sweep", jobController.OverdueSweep)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	router.Run(":" + port)
}
