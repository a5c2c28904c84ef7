package controller

import (
	"net/http"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// OrgController manages tenant setup and membership endpoints.
type OrgController struct {
	service *service.OrgService
}

func NewOrgController(service *service.OrgService) *OrgController {
	return &OrgController{service}
}

// SetupOrganization handles POST /orgs.
func (c *OrgController) SetupOrganization(ctx *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	org, err := c.service.SetupOrganization(callerID(ctx), req.Name)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":      "Organization created successfully",
		"organization": org,
	})
}

// AddMember handles POST /orgs/:id/members.
func (c *OrgController) AddMember(ctx *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := c.service.AddMember(callerID(ctx), ctx.Param("id"), req.UserID, modelRole(req.Role))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"membership": m})
}

// RemoveMember handles DELETE /orgs/:id/members/:userId.
func (c *OrgController) RemoveMember(ctx *gin.Context) {
	if err := c.service.DeactivateMember(callerID(ctx), ctx.Param("id"), ctx.Param("userId")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Membership deactivated"})
}
