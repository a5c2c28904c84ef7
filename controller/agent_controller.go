package controller

import (
	"encoding/json"
	"net/http"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// AgentController exposes the agent run ledger and the suggestion review
// gate. Run endpoints are called by the agent workers; review endpoints by
// humans.
type AgentController struct {
	service *service.AgentService
}

func NewAgentController(service *service.AgentService) *AgentController {
	return &AgentController{service}
}

// RecordRun handles POST /agent-runs.
func (c *AgentController) RecordRun(ctx *gin.Context) {
	var req struct {
		OrgID       string `json:"org_id"`
		AgentName   string `json:"agent_name"`
		TriggerType string `json:"trigger_type"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	runID, err := c.service.RecordAgentRun(req.OrgID, req.AgentName, req.TriggerType)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"run_id": runID})
}

// CompleteRun handles POST /agent-runs/:id/complete.
func (c *AgentController) CompleteRun(ctx *gin.Context) {
	var req struct {
		Summary    string `json:"summary"`
		TokensUsed int    `json:"tokens_used"`
		DurationMs int64  `json:"duration_ms"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := c.service.CompleteAgentRun(ctx.Param("id"), req.Summary, req.TokensUsed, req.DurationMs); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Agent run completed"})
}

// FailRun handles POST /agent-runs/:id/fail.
func (c *AgentController) FailRun(ctx *gin.Context) {
	var req struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := c.service.FailAgentRun(ctx.Param("id"), req.ErrorMessage); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Agent run marked failed"})
}

// ListRuns handles GET /agent-runs?org_id=.
func (c *AgentController) ListRuns(ctx *gin.Context) {
	runs, err := c.service.ListRuns(callerID(ctx), ctx.Query("org_id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}

// CreateSuggestion handles POST /suggestions.
func (c *AgentController) CreateSuggestion(ctx *gin.Context) {
	var req struct {
		OrgID    string          `json:"org_id"`
		RunID    string          `json:"run_id"`
		Kind     string          `json:"kind"`
		Title    string          `json:"title"`
		Payload  json.RawMessage `json:"payload"`
		TargetID *string         `json:"target_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sg, err := c.service.CreateSuggestion(req.OrgID, req.RunID, req.Kind, req.Title, req.Payload, req.TargetID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"suggestion": sg})
}

// ListSuggestions handles GET /suggestions?org_id=&status=.
func (c *AgentController) ListSuggestions(ctx *gin.Context) {
	items, err := c.service.ListSuggestions(callerID(ctx), ctx.Query("org_id"), ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"suggestions": items, "total": len(items)})
}

// ReviewSuggestion handles POST /suggestions/:id/review — the human gate.
func (c *AgentController) ReviewSuggestion(ctx *gin.Context) {
	var req struct {
		OrgID    string `json:"org_id"`
		Decision string `json:"decision"`
		Note     string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sg, err := c.service.ReviewSuggestion(callerID(ctx), req.OrgID, ctx.Param("id"), req.Decision, req.Note)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"suggestion": sg})
}
