package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/services"
)

type AuthHandler struct {
	authService   *services.AuthService
	defaultTenant string
}

func NewAuthHandler(authService *services.AuthService, defaultTenant string) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		defaultTenant: defaultTenant,
	}
}

// Register creates a new account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		TenantID string `json:"tenant_id"`
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := req.TenantID
	if tenantID == "" {
		tenantID = h.defaultTenant
	}

	user, err := h.authService.Register(tenantID, req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": user})
}

// Login checks credentials and returns a JWT
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		// Collapse everything onto 401 so the response does not reveal
		// whether the email exists
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": token,
			"user":  user,
		},
	})
}

// Me returns the authenticated user's own record
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}
