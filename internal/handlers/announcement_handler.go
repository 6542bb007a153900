package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/services"
)

type AnnouncementHandler struct {
	announcementService *services.AnnouncementService
	authService         *services.AuthService
}

func NewAnnouncementHandler(announcementService *services.AnnouncementService, authService *services.AuthService) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementService: announcementService,
		authService:         authService,
	}
}

// List returns announcements, pinned first
// GET /api/announcements
func (h *AnnouncementHandler) List(c *gin.Context) {
	page, limit := pageParams(c)

	announcements, total, err := h.announcementService.List(auth.CurrentTenantID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(announcements, total, page, limit))
}

// Get returns one announcement
// GET /api/announcements/:id
func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.announcementService.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": announcement})
}

// Create publishes a committee notice. Admin only.
// POST /api/admin/announcements
func (h *AnnouncementHandler) Create(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content" binding:"required"`
		Category string `json:"category"`
		IsPinned bool   `json:"is_pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement, err := h.announcementService.Create(user, req.Title, req.Content, req.Category, req.IsPinned)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": announcement})
}

// Update edits an announcement. Admin only.
// PUT /api/admin/announcements/:id
func (h *AnnouncementHandler) Update(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content" binding:"required"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	announcement, err := h.announcementService.Update(user, c.Param("id"), req.Title, req.Content, req.Category)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": announcement})
}

// SetPinned pins or unpins an announcement. Admin only.
// PATCH /api/admin/announcements/:id/pin
func (h *AnnouncementHandler) SetPinned(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.announcementService.SetPinned(user, c.Param("id"), req.Pinned); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete removes an announcement. Admin only.
// DELETE /api/admin/announcements/:id
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	if err := h.announcementService.Delete(user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
