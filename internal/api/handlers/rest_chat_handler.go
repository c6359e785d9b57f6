package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/services"
)

// RestChatHandler handles transaction chats: messages and reviews.
type RestChatHandler struct {
	transactionService services.ITransactionService
	messageService     services.IMessageService
}

// NewRestChatHandler creates a new RestChatHandler.
func NewRestChatHandler(transactionService services.ITransactionService, messageService services.IMessageService) *RestChatHandler {
	return &RestChatHandler{
		transactionService: transactionService,
		messageService:     messageService,
	}
}

// ListChats handles GET /v1/chats
func (h *RestChatHandler) ListChats(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	chats, err := h.transactionService.ListChats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": chats})
}

// GetChat handles GET /v1/chats/:id
func (h *RestChatHandler) GetChat(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	chatID, ok := idParam(c, "id", "chat")
	if !ok {
		return
	}
	chat, err := h.transactionService.GetChat(c.Request.Context(), actor, chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// ListMessages handles GET /v1/chats/:id/messages?after=<seq>&limit=<n>
func (h *RestChatHandler) ListMessages(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	chatID, ok := idParam(c, "id", "chat")
	if !ok {
		return
	}
	var after int64
	if s := c.Query("after"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			badRequest(c, "Invalid after")
			return
		}
		after = v
	}
	messages, err := h.messageService.ListMessages(c.Request.Context(), actor, chatID, after, queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

// SendMessage handles POST /v1/chats/:id/messages
func (h *RestChatHandler) SendMessage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	chatID, ok := idParam(c, "id", "chat")
	if !ok {
		return
	}
	var content lifecycle.MessageContent
	if err := c.ShouldBindJSON(&content); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	msg, err := h.messageService.SendMessage(c.Request.Context(), actor, chatID, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SubmitReview handles POST /v1/chats/:id/reviews
func (h *RestChatHandler) SubmitReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	chatID, ok := idParam(c, "id", "chat")
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	review, err := h.transactionService.SubmitReview(c.Request.Context(), actor, chatID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
