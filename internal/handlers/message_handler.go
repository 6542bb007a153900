package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/services"
)

type MessageHandler struct {
	messageService *services.MessageService
	authService    *services.AuthService
}

func NewMessageHandler(messageService *services.MessageService, authService *services.AuthService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		authService:    authService,
	}
}

// Send delivers a direct message
// POST /api/messages
func (h *MessageHandler) Send(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
		Body        string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messageService.Send(user, req.RecipientID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": message})
}

// Conversations lists the caller's inbox, one entry per peer
// GET /api/messages
func (h *MessageHandler) Conversations(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	conversations, err := h.messageService.ListConversations(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": conversations})
}

// Conversation returns the history with one peer and marks it read
// GET /api/messages/:peerId
func (h *MessageHandler) Conversation(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	messages, total, err := h.messageService.GetConversation(user, c.Param("peerId"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	// Opening a conversation reads it
	if err := h.messageService.MarkRead(user, c.Param("peerId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(messages, total, page, limit))
}

// UnreadCount returns the total unread messages
// GET /api/messages/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	count, err := h.messageService.UnreadCount(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"unread": count}})
}
