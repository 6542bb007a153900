package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/models"
	"prato-rinaldo/internal/services"
)

type ProposalHandler struct {
	proposalService *services.ProposalService
	authService     *services.AuthService
}

func NewProposalHandler(proposalService *services.ProposalService, authService *services.AuthService) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
		authService:     authService,
	}
}

// List returns one page of proposals
// GET /api/proposals
func (h *ProposalHandler) List(c *gin.Context) {
	page, limit := pageParams(c)
	params := services.ProposalListParams{
		CategoryID: c.Query("category_id"),
		Status:     c.Query("status"),
		SortBy:     c.Query("sort"),
		Page:       page,
		Limit:      limit,
	}

	proposals, total, err := h.proposalService.List(auth.CurrentTenantID(c), params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(proposals, total, page, limit))
}

// Get returns one proposal and bumps its view counter
// GET /api/proposals/:id
func (h *ProposalHandler) Get(c *gin.Context) {
	proposal, err := h.proposalService.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"success": true, "data": proposal}
	if userID, ok := auth.CurrentUserID(c); ok {
		if vote, err := h.proposalService.GetUserVote(proposal.ID, userID); err == nil && vote != nil {
			resp["user_vote"] = *vote
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Create submits a new proposal
// POST /api/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		CategoryID  string `json:"category_id" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposalService.Create(user, req.CategoryID, req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": proposal})
}

// Update edits the author's own proposal while still in proposed status
// PUT /api/proposals/:id
func (h *ProposalHandler) Update(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposalService.Update(c.Param("id"), user, req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": proposal})
}

// Delete removes a proposal
// DELETE /api/proposals/:id
func (h *ProposalHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	if err := h.proposalService.Delete(c.Param("id"), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateStatus moves a proposal along its lifecycle
// PATCH /api/proposals/:id/status
func (h *ProposalHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Status        string     `json:"status" binding:"required"`
		Reason        string     `json:"reason"`
		PlannedDate   *time.Time `json:"planned_date"`
		CompletedDate *time.Time `json:"completed_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.proposalService.UpdateStatus(
		c.Param("id"), user, models.ProposalStatus(req.Status),
		req.Reason, req.PlannedDate, req.CompletedDate,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": proposal})
}

// History returns the status transition log
// GET /api/proposals/:id/history
func (h *ProposalHandler) History(c *gin.Context) {
	history, err := h.proposalService.GetStatusHistory(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

// Vote casts, flips, or removes the caller's vote
// POST /api/proposals/:id/vote
func (h *ProposalHandler) Vote(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, current, err := h.proposalService.Vote(c.Param("id"), user, models.VoteDirection(req.Direction))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"success": true, "data": proposal}
	if current != nil {
		resp["user_vote"] = *current
	}
	c.JSON(http.StatusOK, resp)
}

// Roadmap returns approved, in-progress, and completed proposals grouped
// GET /api/proposals/roadmap
func (h *ProposalHandler) Roadmap(c *gin.Context) {
	roadmap, err := h.proposalService.GetRoadmap(auth.CurrentTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": roadmap})
}

// ListComments returns a proposal's comments, oldest first
// GET /api/proposals/:id/comments
func (h *ProposalHandler) ListComments(c *gin.Context) {
	page, limit := pageParams(c)
	comments, total, err := h.proposalService.ListComments(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(comments, total, page, limit))
}

// CreateComment adds a comment to a proposal
// POST /api/proposals/:id/comments
func (h *ProposalHandler) CreateComment(c *gin.Context) {
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

	comment, err := h.proposalService.CreateComment(c.Param("id"), user, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": comment})
}

// DeleteComment removes a comment
// DELETE /api/proposals/comments/:commentId
func (h *ProposalHandler) DeleteComment(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	if err := h.proposalService.DeleteComment(c.Param("commentId"), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListCategories returns the proposal categories in display order
// GET /api/proposals/categories
func (h *ProposalHandler) ListCategories(c *gin.Context) {
	categories, err := h.proposalService.ListCategories(auth.CurrentTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
}

// CreateCategory adds a proposal category. Admin only.
// POST /api/admin/proposal-categories
func (h *ProposalHandler) CreateCategory(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
		Color       string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.proposalService.CreateCategory(user, req.Name, req.Description, req.Icon, req.Color)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

// DeleteCategory removes an empty proposal category. Admin only.
// DELETE /api/admin/proposal-categories/:id
func (h *ProposalHandler) DeleteCategory(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	if err := h.proposalService.DeleteCategory(c.Param("id"), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
