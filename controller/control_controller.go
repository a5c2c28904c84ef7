package controller

import (
	"net/http"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// ControlController manages the control library endpoints.
type ControlController struct {
	service *service.ControlService
}

func NewControlController(service *service.ControlService) *ControlController {
	return &ControlController{service}
}

type controlRequest struct {
	OrgID string `json:"org_id"`
	service.ControlInput
}

// CreateControl handles POST /controls.
func (c *ControlController) CreateControl(ctx *gin.Context) {
	var req controlRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	control, err := c.service.CreateControl(callerID(ctx), req.OrgID, req.ControlInput)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"control": control})
}

// UpdateControl handles PATCH /controls/:id.
func (c *ControlController) UpdateControl(ctx *gin.Context) {
	var req controlRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	control, err := c.service.UpdateControl(callerID(ctx), req.OrgID, ctx.Param("id"), req.ControlInput)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"control": control})
}

// DeactivateControl handles DELETE /controls/:id (soft deactivate only).
func (c *ControlController) DeactivateControl(ctx *gin.Context) {
	orgID := ctx.Query("org_id")
	if err := c.service.DeactivateControl(callerID(ctx), orgID, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Control deactivated"})
}

// ListControls handles GET /controls?org_id=&include_inactive=.
func (c *ControlController) ListControls(ctx *gin.Context) {
	orgID := ctx.Query("org_id")
	if orgID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'org_id' is required"})
		return
	}
	controls, err := c.service.ListControls(callerID(ctx), orgID, ctx.Query("include_inactive") == "true")
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"controls": controls, "total": len(controls)})
}
