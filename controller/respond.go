package controller

import (
	"net/http"

	"github.com/brightpathbh/qmportal/errs"
	model "github.com/brightpathbh/qmportal/models"
	"github.com/gin-gonic/gin"
)

// respondError maps an error kind to an HTTP status. Handlers never
// string-match on messages; the kind is the contract.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.Validation:
		status = http.StatusBadRequest
	case errs.Unauthorized:
		status = http.StatusForbidden
	case errs.NotFound:
		status = http.StatusNotFound
	case errs.Conflict:
		status = http.StatusConflict
	case errs.Dependency:
		status = http.StatusBadGateway
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

// callerID returns the identity the middleware resolved, or "" when the
// request is unauthenticated.
func callerID(ctx *gin.Context) string {
	return ctx.GetString("userID")
}

func modelRole(role string) model.Role {
	return model.Role(role)
}
