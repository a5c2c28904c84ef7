package controller

import (
	"net/http"
	"time"

	service "github.com/brightpathbh/qmportal/service"

	"github.com/gin-gonic/gin"
)

// JobController handles the endpoints the external cron runner hits.
type JobController struct {
	checkpoints *service.CheckpointService
	capas       *service.CapaService
}

func NewJobController(checkpoints *service.CheckpointService, capas *service.CapaService) *JobController {
	return &JobController{checkpoints: checkpoints, capas: capas}
}

// OverdueSweep handles POST /jobs/overdue-sweep, flipping past-due pending
// checkpoints and open CAPAs to overdue.
func (c *JobController) OverdueSweep(ctx *gin.Context) {
	now := time.Now()

	checkpointsFlipped, err := c.checkpoints.MarkOverdue(now)
	if err != nil {
		respondError(ctx, err)
		return
	}
	capasFlipped, err := c.capas.MarkCapasOverdue(now)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":             "Overdue sweep completed",
		"checkpoints_flipped": checkpointsFlipped,
		"capas_flipped":       capasFlipped,
	})
}
