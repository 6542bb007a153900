package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/services"
)

type GamificationHandler struct {
	gamificationService *services.GamificationService
	authService         *services.AuthService
}

func NewGamificationHandler(gamificationService *services.GamificationService, authService *services.AuthService) *GamificationHandler {
	return &GamificationHandler{
		gamificationService: gamificationService,
		authService:         authService,
	}
}

// ListBadges returns the badge catalogue
// GET /api/badges
func (h *GamificationHandler) ListBadges(c *gin.Context) {
	badges, err := h.gamificationService.GetAllBadges(auth.CurrentTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": badges})
}

// UserBadges returns the badges a user has earned
// GET /api/users/:id/badges
func (h *GamificationHandler) UserBadges(c *gin.Context) {
	awards, err := h.gamificationService.GetUserBadges(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": awards})
}

// UserPoints returns a user's total points and level
// GET /api/users/:id/points
func (h *GamificationHandler) UserPoints(c *gin.Context) {
	points, err := h.gamificationService.GetUserPoints(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": points})
}

// Leaderboard ranks the tenant's users by badge points
// GET /api/leaderboard
func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.gamificationService.GetLeaderboard(auth.CurrentTenantID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}
