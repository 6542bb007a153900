package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/services"
)

type ForumHandler struct {
	forumService *services.ForumService
	authService  *services.AuthService
}

func NewForumHandler(forumService *services.ForumService, authService *services.AuthService) *ForumHandler {
	return &ForumHandler{
		forumService: forumService,
		authService:  authService,
	}
}

// ListCategories returns the boards in display order
// GET /api/forum/categories
func (h *ForumHandler) ListCategories(c *gin.Context) {
	categories, err := h.forumService.ListCategories(auth.CurrentTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

// CreateCategory adds a board. Admin only.
// POST /api/admin/forum/categories
func (h *ForumHandler) CreateCategory(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.forumService.CreateCategory(user, req.Name, req.Description, req.Icon)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

// ListThreads returns one page of a category's threads
// GET /api/forum/categories/:id/threads
func (h *ForumHandler) ListThreads(c *gin.Context) {
	page, limit := pageParams(c)

	threads, total, err := h.forumService.ListThreads(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(threads, total, page, limit))
}

// GetThread returns one thread and bumps its view counter
// GET /api/forum/threads/:id
func (h *ForumHandler) GetThread(c *gin.Context) {
	thread, err := h.forumService.GetThread(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": thread})
}

// CreateThread starts a discussion
// POST /api/forum/categories/:id/threads
func (h *ForumHandler) CreateThread(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := h.forumService.CreateThread(user, c.Param("id"), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": thread})
}

// SetPinned pins or unpins a thread. Moderator only.
// PATCH /api/forum/threads/:id/pin
func (h *ForumHandler) SetPinned(c *gin.Context) {
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

	if err := h.forumService.SetPinned(user, c.Param("id"), req.Pinned); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetLocked locks or unlocks a thread. Moderator only.
// PATCH /api/forum/threads/:id/lock
func (h *ForumHandler) SetLocked(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Locked bool `json:"locked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.forumService.SetLocked(user, c.Param("id"), req.Locked); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListPosts returns one page of a thread's replies, oldest first
// GET /api/forum/threads/:id/posts
func (h *ForumHandler) ListPosts(c *gin.Context) {
	page, limit := pageParams(c)

	posts, total, err := h.forumService.ListPosts(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(posts, total, page, limit))
}

// CreatePost replies in a thread
// POST /api/forum/threads/:id/posts
func (h *ForumHandler) CreatePost(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.forumService.CreatePost(user, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": post})
}

// DeletePost removes a reply
// DELETE /api/forum/posts/:id
func (h *ForumHandler) DeletePost(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	if err := h.forumService.DeletePost(user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteThread removes a thread and its replies
// DELETE /api/forum/threads/:id
func (h *ForumHandler) DeleteThread(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	if err := h.forumService.DeleteThread(user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
