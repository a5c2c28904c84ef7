package controller

import (
	"net/http"
	"time"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// EvidenceController manages evidence file uploads and retrieval.
type EvidenceController struct {
	service *service.EvidenceService
}

func NewEvidenceController(service *service.EvidenceService) *EvidenceController {
	return &EvidenceController{service}
}

// UploadEvidence handles POST /checkpoints/:id/evidence (multipart).
func (c *EvidenceController) UploadEvidence(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
		return
	}
	defer file.Close()

	orgID := ctx.PostForm("org_id")
	checkpointID := ctx.Param("id")

	tags := map[string]string{}
	if tag := ctx.PostForm("tag"); tag != "" {
		tags["tag"] = tag
	}

	ev, err := c.service.UploadEvidence(callerID(ctx), orgID, &checkpointID, nil, file, header, tags)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "Evidence uploaded successfully",
		"evidence": ev,
		"path":     ev.StoragePath,
	})
}

// ListForCheckpoint handles GET /checkpoints/:id/evidence?org_id=.
func (c *EvidenceController) ListForCheckpoint(ctx *gin.Context) {
	items, err := c.service.ListForCheckpoint(callerID(ctx), ctx.Query("org_id"), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"evidence": items, "total": len(items)})
}

// SignedURL handles GET /evidence/:id/url?org_id=.
func (c *EvidenceController) SignedURL(ctx *gin.Context) {
	url, err := c.service.SignedURL(callerID(ctx), ctx.Query("org_id"), ctx.Param("id"), 15*time.Minute)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"url": url})
}

// DeleteEvidence handles DELETE /evidence/:id?org_id=.
func (c *EvidenceController) DeleteEvidence(ctx *gin.Context) {
	if err := c.service.DeleteEvidence(callerID(ctx), ctx.Query("org_id"), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Evidence deleted"})
}
