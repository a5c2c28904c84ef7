package controller

import (
	"net/http"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// ScoreController exposes audit readiness computation and retrieval.
type ScoreController struct {
	service *service.ScoreService
}

func NewScoreController(service *service.ScoreService) *ScoreController {
	return &ScoreController{service}
}

// Compute handles POST /readiness/compute.
func (c *ScoreController) Compute(ctx *gin.Context) {
	var req struct {
		OrgID  string `json:"org_id"`
		Period string `json:"period"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	score, err := c.service.ComputeAuditReadiness(callerID(ctx), req.OrgID, req.Period)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"overall":    score.OverallScore,
		"checkpoint": score.CheckpointScore,
		"evidence":   score.EvidenceScore,
		"policy":     score.PolicyScore,
		"capa":       score.CapaScore,
	})
}

// Get handles GET /readiness?org_id=&period=.
func (c *ScoreController) Get(ctx *gin.Context) {
	score, err := c.service.GetScore(callerID(ctx), ctx.Query("org_id"), ctx.Query("period"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"score": score})
}
