package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/services"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// RestItemHandler handles REST requests for items, their likes, comments and purchase.
type RestItemHandler struct {
	itemService        services.IItemService
	transactionService services.ITransactionService
	likeService        services.ILikeService
	commentService     services.ICommentService
}

// NewRestItemHandler creates a new RestItemHandler.
func NewRestItemHandler(
	itemService services.IItemService,
	transactionService services.ITransactionService,
	likeService services.ILikeService,
	commentService services.ICommentService,
) *RestItemHandler {
	return &RestItemHandler{
		itemService:        itemService,
		transactionService: transactionService,
		likeService:        likeService,
		commentService:     commentService,
	}
}

// SearchItems handles GET /v1/items
func (h *RestItemHandler) SearchItems(c *gin.Context) {
	q := services.ItemQuery{
		Text:   c.Query("q"),
		Limit:  queryInt(c, "limit", 0),
		Cursor: c.Query("cursor"),
	}
	if s := c.Query("status"); s != "" {
		status, err := models.ParseItemStatus(s)
		if err != nil {
			badRequest(c, "Invalid status")
			return
		}
		q.Status = status
	}
	if s := c.Query("seller"); s != "" {
		sellerID, err := utils.ParseSixID(s)
		if err != nil {
			badRequest(c, "Invalid seller ID format")
			return
		}
		q.SellerID = &sellerID
	}
	for key, dst := range map[string]**int64{"min_price": &q.MinPrice, "max_price": &q.MaxPrice} {
		s := c.Query(key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			badRequest(c, "Invalid "+key)
			return
		}
		*dst = &v
	}

	items, next, err := h.itemService.SearchItems(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "next_cursor": next})
}

// GetItem handles GET /v1/items/:id
func (h *RestItemHandler) GetItem(c *gin.Context) {
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	item, err := h.itemService.GetItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// CreateItem handles POST /v1/items
func (h *RestItemHandler) CreateItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var in lifecycle.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	item, err := h.itemService.CreateItem(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// EditItem handles PATCH /v1/items/:id
func (h *RestItemHandler) EditItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	var patch lifecycle.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	item, err := h.itemService.EditItem(c.Request.Context(), actor, itemID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /v1/items/:id
func (h *RestItemHandler) DeleteItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	if err := h.itemService.DeleteItem(c.Request.Context(), actor, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Purchase handles POST /v1/items/:id/purchase
func (h *RestItemHandler) Purchase(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	chat, err := h.transactionService.InitiatePurchase(c.Request.Context(), actor, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// ToggleLike handles POST /v1/items/:id/like
func (h *RestItemHandler) ToggleLike(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	state, err := h.likeService.ToggleLike(c.Request.Context(), actor, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// IsLiked handles GET /v1/items/:id/like
func (h *RestItemHandler) IsLiked(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	liked, err := h.likeService.IsLiked(c.Request.Context(), actor, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": itemID, "liked": liked})
}

// ListLikedItems handles GET /v1/me/likes
func (h *RestItemHandler) ListLikedItems(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	items, err := h.likeService.ListLikedItems(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// ListComments handles GET /v1/items/:id/comments
func (h *RestItemHandler) ListComments(c *gin.Context) {
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	comments, err := h.commentService.ListComments(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": comments})
}

// AddComment handles POST /v1/items/:id/comments
func (h *RestItemHandler) AddComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id", "item")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	comment, err := h.commentService.AddComment(c.Request.Context(), actor, itemID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
