package controller

import (
	"log"
	"net/http"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// CheckpointController manages HTTP requests for checkpoint generation and
// lifecycle.
type CheckpointController struct {
	service *service.CheckpointService
}

func NewCheckpointController(service *service.CheckpointService) *CheckpointController {
	return &CheckpointController{service}
}

// GenerateCheckpoints handles POST /checkpoints/generate.
func (c *CheckpointController) GenerateCheckpoints(ctx *gin.Context) {
	var req struct {
		OrgID  string `json:"org_id"`
		Period string `json:"period"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := c.service.GenerateCheckpoints(callerID(ctx), req.OrgID, req.Period)
	if err != nil {
		respondError(ctx, err)
		return
	}
	log.Printf("CheckpointController: %s for org %s period %s", result, req.OrgID, req.Period)
	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Checkpoint generation completed",
		"count":    result.Count,
		"skipped":  result.Skipped,
		"due_date": result.DueDate.Format("2006-01-02"),
	})
}

// ListCheckpoints handles GET /checkpoints?org_id=&period=&status=.
func (c *CheckpointController) ListCheckpoints(ctx *gin.Context) {
	orgID := ctx.Query("org_id")
	if orgID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'org_id' is required"})
		return
	}
	cps, err := c.service.ListCheckpoints(callerID(ctx), orgID, ctx.Query("period"), ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"checkpoints": cps, "total": len(cps)})
}

// CompleteCheckpoint handles PATCH /checkpoints/:id/complete.
func (c *CheckpointController) CompleteCheckpoint(ctx *gin.Context) {
	var req struct {
		OrgID       string `json:"org_id"`
		Status      string `json:"status"`
		Attestation string `json:"attestation"`
		Notes       string `json:"notes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cp, err := c.service.CompleteCheckpoint(callerID(ctx), req.OrgID, ctx.Param("id"), req.Status, req.Attestation, req.Notes)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"checkpoint": cp})
}
