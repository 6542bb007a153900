package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/models"
	"prato-rinaldo/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	authService *services.AuthService
}

func NewUserHandler(userService *services.UserService, authService *services.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

// GetProfile returns a user's public profile
// GET /api/users/:id
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// UpdateProfile edits the caller's own profile
// PUT /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Name   *string `json:"name"`
		Phone  *string `json:"phone"`
		Bio    *string `json:"bio"`
		Avatar *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.userService.UpdateProfile(user, services.ProfileUpdate{
		Name:   req.Name,
		Phone:  req.Phone,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}

// Bacheca returns the caller's personal dashboard summary
// GET /api/users/me/bacheca
func (h *UserHandler) Bacheca(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	summary, err := h.userService.GetBacheca(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

// ListUsers returns one page of the tenant's users. Admin only.
// GET /api/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	users, total, err := h.userService.ListUsers(user, c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse(users, total, page, limit))
}

// ApproveResident verifies a pending resident. Admin only.
// POST /api/admin/users/:id/approve
func (h *UserHandler) ApproveResident(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	approved, err := h.userService.ApproveResident(user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": approved})
}

// RejectResident declines a verification request. Admin only.
// POST /api/admin/users/:id/reject
func (h *UserHandler) RejectResident(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	rejected, err := h.userService.RejectResident(user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rejected})
}

// SetAdminRole grants or clears a user's admin role. Super admin only.
// PUT /api/admin/users/:id/role
func (h *UserHandler) SetAdminRole(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Role *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var role *models.AdminRole
	if req.Role != nil {
		r := models.AdminRole(*req.Role)
		role = &r
	}

	updated, err := h.userService.SetAdminRole(user, c.Param("id"), role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}
