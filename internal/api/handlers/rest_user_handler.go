package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/services"
)

// RestUserHandler handles REST requests related to users.
type RestUserHandler struct {
	userService   services.IUserService
	reviewService services.IReviewService
	itemService   services.IItemService
}

// NewRestUserHandler creates a new RestUserHandler.
func NewRestUserHandler(userService services.IUserService, reviewService services.IReviewService, itemService services.IItemService) *RestUserHandler {
	return &RestUserHandler{
		userService:   userService,
		reviewService: reviewService,
		itemService:   itemService,
	}
}

// GetProfile handles GET /v1/users/:id
func (h *RestUserHandler) GetProfile(c *gin.Context) {
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListReviews handles GET /v1/users/:id/reviews
func (h *RestUserHandler) ListReviews(c *gin.Context) {
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	reviews, err := h.reviewService.ListReviews(c.Request.Context(), userID, queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews})
}

// ListItems handles GET /v1/users/:id/items
func (h *RestUserHandler) ListItems(c *gin.Context) {
	userID, ok := idParam(c, "id", "user")
	if !ok {
		return
	}
	items, next, err := h.itemService.ListItemsBySeller(c.Request.Context(), userID, queryInt(c, "limit", 0), c.Query("cursor"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "next_cursor": next})
}

// UpdateProfile handles PUT /v1/me/profile
func (h *RestUserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	profile, err := h.userService.UpdateProfile(c.Request.Context(), actor, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
