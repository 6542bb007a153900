package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/models"
	"prato-rinaldo/internal/services"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
	authService       *services.AuthService
}

func NewModerationHandler(moderationService *services.ModerationService, authService *services.AuthService) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
		authService:       authService,
	}
}

// ListQueue returns one page of the moderation queue
// GET /api/admin/moderation
func (h *ModerationHandler) ListQueue(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	filters := services.ModerationFilters{
		Status:   c.Query("status"),
		ItemType: c.Query("item_type"),
	}

	items, total, err := h.moderationService.ListQueue(user, page, limit, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(items, total, page, limit))
}

// GetItem returns a queue entry together with the content under review
// GET /api/admin/moderation/:id
func (h *ModerationHandler) GetItem(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	item, content, err := h.moderationService.GetItem(user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"item":    item,
			"content": content,
		},
	})
}

// Approve resolves a pending item and publishes the content
// POST /api/admin/moderation/:id/approve
func (h *ModerationHandler) Approve(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.moderationService.Approve(user, c.Param("id"), req.Note); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Reject resolves a pending item and keeps the content hidden
// POST /api/admin/moderation/:id/reject
func (h *ModerationHandler) Reject(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.moderationService.Reject(user, c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Assign hands a queue item to a moderator
// POST /api/admin/moderation/:id/assign
func (h *ModerationHandler) Assign(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		AssigneeID *string `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.moderationService.Assign(user, c.Param("id"), req.AssigneeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MyItems returns the caller's assigned pending items
// GET /api/admin/moderation/mine
func (h *ModerationHandler) MyItems(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	items, err := h.moderationService.MyItems(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// ActionLog returns the audit trail for one queue item
// GET /api/admin/moderation/:id/log
func (h *ModerationHandler) ActionLog(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	logs, err := h.moderationService.GetActionLog(user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": logs})
}

// Report files content into the moderation queue
// POST /api/moderation/report
func (h *ModerationHandler) Report(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		ItemType string `json:"item_type" binding:"required"`
		ItemID   string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.moderationService.Report(user, models.ModerationItemType(req.ItemType), req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": item})
}
