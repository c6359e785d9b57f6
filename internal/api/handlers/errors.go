package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/satohidetada/my-flea-app/internal/api/middleware"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// statusFor maps a lifecycle error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, lifecycle.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, lifecycle.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}. Server-side failures are
// attached to the gin context for the logger and their details are not echoed.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if status == http.StatusInternalServerError {
			msg = "Internal server error"
		} else {
			msg = "Upstream service failure"
		}
	}
	c.JSON(status, gin.H{"error": msg, "code": lifecycle.KindOf(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": lifecycle.KindOf(lifecycle.ErrValidation)})
}

// requireActor returns the authenticated actor or aborts with 401.
func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "unauthenticated"})
	}
	return actor, ok
}

// idParam parses the path parameter name as a SixID.
func idParam(c *gin.Context, name, what string) (utils.SixID, bool) {
	id, err := utils.ParseSixID(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+what+" ID format")
		return utils.SixID{}, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter, falling back to def.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
