package controller

import (
	"encoding/json"
	"net/http"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// PolicyController manages policy documents, their version ledger, and the
// approval workflow.
type PolicyController struct {
	service *service.PolicyService
}

func NewPolicyController(service *service.PolicyService) *PolicyController {
	return &PolicyController{service}
}

// CreatePolicy handles POST /policies.
func (c *PolicyController) CreatePolicy(ctx *gin.Context) {
	var req struct {
		OrgID               string `json:"org_id"`
		Code                string `json:"code"`
		Title               string `json:"title"`
		Category            string `json:"category"`
		ReviewCadenceMonths int    `json:"review_cadence_months"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := c.service.CreatePolicy(callerID(ctx), req.OrgID, req.Code, req.Title, req.Category, req.ReviewCadenceMonths)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"policy": p})
}

// ListPolicies handles GET /policies?org_id=&status=.
func (c *PolicyController) ListPolicies(ctx *gin.Context) {
	orgID := ctx.Query("org_id")
	if orgID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'org_id' is required"})
		return
	}
	policies, err := c.service.ListPolicies(callerID(ctx), orgID, ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"policies": policies, "total": len(policies)})
}

// CreateVersion handles POST /policies/:id/versions.
func (c *PolicyController) CreateVersion(ctx *gin.Context) {
	var req struct {
		OrgID         string          `json:"org_id"`
		Content       json.RawMessage `json:"content"`
		ChangeSummary string          `json:"change_summary"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := c.service.CreateVersion(callerID(ctx), req.OrgID, ctx.Param("id"), req.Content, req.ChangeSummary)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"version_id":     result.VersionID,
		"version_number": result.VersionNumber,
	})
}

// History handles GET /policies/:id/versions?org_id=.
func (c *PolicyController) History(ctx *gin.Context) {
	versions, err := c.service.History(callerID(ctx), ctx.Query("org_id"), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"versions": versions, "total": len(versions)})
}

// CurrentContent handles GET /policies/:id/current?org_id=.
func (c *PolicyController) CurrentContent(ctx *gin.Context) {
	content, err := c.service.GetCurrentContent(callerID(ctx), ctx.Query("org_id"), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"content": content})
}

// Transition handles POST /policies/:id/transition.
func (c *PolicyController) Transition(ctx *gin.Context) {
	var req struct {
		OrgID string `json:"org_id"`
		To    string `json:"to"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p, err := c.service.Transition(callerID(ctx), req.OrgID, ctx.Param("id"), req.To)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"policy": p})
}
