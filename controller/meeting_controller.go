package controller

import (
	"net/http"
	"time"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// MeetingController manages QM meetings and packet assembly.
type MeetingController struct {
	service *service.MeetingService
}

func NewMeetingController(service *service.MeetingService) *MeetingController {
	return &MeetingController{service}
}

// CreateMeeting handles POST /meetings.
func (c *MeetingController) CreateMeeting(ctx *gin.Context) {
	var req struct {
		OrgID     string    `json:"org_id"`
		Title     string    `json:"title"`
		HeldAt    time.Time `json:"held_at"`
		Period    string    `json:"period"`
		Attendees []string  `json:"attendees"`
		Minutes   string    `json:"minutes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := c.service.CreateMeeting(callerID(ctx), req.OrgID, req.Title, req.HeldAt, req.Period, req.Attendees, req.Minutes)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"meeting": m})
}

// Packet handles GET /meetings/:id/packet?org_id=.
func (c *MeetingController) Packet(ctx *gin.Context) {
	packet, err := c.service.AssemblePacket(callerID(ctx), ctx.Query("org_id"), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"packet": packet})
}
