package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/models"
	"prato-rinaldo/internal/services"
)

// respondError maps service sentinel errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// requireUser loads the authenticated user or writes a 401
func requireUser(c *gin.Context, authService *services.AuthService) (*models.User, bool) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	user, err := authService.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

// optionalUser loads the user when a valid token was presented, nil otherwise
func optionalUser(c *gin.Context, authService *services.AuthService) *models.User {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return nil
	}
	user, err := authService.GetUser(userID)
	if err != nil {
		return nil
	}
	return user
}

// pageParams reads ?page= and ?limit= with sane defaults
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// listResponse is the standard envelope for paged collections
func listResponse(items interface{}, total int64, page, limit int) gin.H {
	return gin.H{
		"success": true,
		"data":    items,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	}
}
