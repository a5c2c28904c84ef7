package controller

import (
	"net/http"
	"time"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// CapaController manages findings and corrective actions.
type CapaController struct {
	service *service.CapaService
}

func NewCapaController(service *service.CapaService) *CapaController {
	return &CapaController{service}
}

// CreateFinding handles POST /findings.
func (c *CapaController) CreateFinding(ctx *gin.Context) {
	var req struct {
		OrgID       string  `json:"org_id"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Severity    string  `json:"severity"`
		Source      string  `json:"source"`
		MeetingID   *string `json:"meeting_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	f, err := c.service.CreateFinding(callerID(ctx), req.OrgID, req.Title, req.Description, req.Severity, req.Source, req.MeetingID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"finding": f})
}

// ListFindings handles GET /findings?org_id=&status=.
func (c *CapaController) ListFindings(ctx *gin.Context) {
	findings, err := c.service.ListFindings(callerID(ctx), ctx.Query("org_id"), ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"findings": findings, "total": len(findings)})
}

// CreateCapa handles POST /capas.
func (c *CapaController) CreateCapa(ctx *gin.Context) {
	var req struct {
		OrgID            string    `json:"org_id"`
		FindingID        string    `json:"finding_id"`
		Title            string    `json:"title"`
		RootCause        string    `json:"root_cause"`
		CorrectiveAction string    `json:"corrective_action"`
		OwnerID          string    `json:"owner_id"`
		DueDate          time.Time `json:"due_date"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	capa, err := c.service.CreateCapa(callerID(ctx), req.OrgID, req.FindingID, req.Title, req.RootCause, req.CorrectiveAction, req.OwnerID, req.DueDate)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"capa": capa})
}

// UpdateStatus handles PATCH /capas/:id/status.
func (c *CapaController) UpdateStatus(ctx *gin.Context) {
	var req struct {
		OrgID  string `json:"org_id"`
		Status string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	capa, err := c.service.UpdateCapaStatus(callerID(ctx), req.OrgID, ctx.Param("id"), req.Status)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"capa": capa})
}

// Close handles POST /capas/:id/close.
func (c *CapaController) Close(ctx *gin.Context) {
	var req struct {
		OrgID             string `json:"org_id"`
		VerificationNotes string `json:"verification_notes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	capa, err := c.service.CloseCapa(callerID(ctx), req.OrgID, ctx.Param("id"), req.VerificationNotes)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"capa": capa})
}
