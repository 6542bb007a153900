package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/services"
)

type FeedHandler struct {
	feedService   *services.FeedService
	authService   *services.AuthService
	defaultTenant string
}

func NewFeedHandler(feedService *services.FeedService, authService *services.AuthService, defaultTenant string) *FeedHandler {
	return &FeedHandler{
		feedService:   feedService,
		authService:   authService,
		defaultTenant: defaultTenant,
	}
}

func (h *FeedHandler) feedParams(c *gin.Context) services.FeedParams {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return services.FeedParams{
		Type:   c.DefaultQuery("type", "all"),
		SortBy: c.DefaultQuery("sort", "newest"),
		Limit:  limit,
		Offset: offset,
	}
}

func (h *FeedHandler) tenantID(c *gin.Context) string {
	if id := auth.CurrentTenantID(c); id != "" {
		return id
	}
	if id := c.Query("tenant_id"); id != "" {
		return id
	}
	return h.defaultTenant
}

// Public returns the anonymous feed: public items only
// GET /api/feed/public
func (h *FeedHandler) Public(c *gin.Context) {
	page, err := h.feedService.GetPublicFeed(c.Request.Context(), h.tenantID(c), h.feedParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page})
}

// Private returns the resident feed: private items and proposals included
// for verified residents, the public view otherwise
// GET /api/feed
func (h *FeedHandler) Private(c *gin.Context) {
	viewer := optionalUser(c, h.authService)

	page, err := h.feedService.GetPrivateFeed(c.Request.Context(), h.tenantID(c), viewer, h.feedParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": page})
}

// Item returns one feed item by id and type
// GET /api/feed/items/:type/:id
func (h *FeedHandler) Item(c *gin.Context) {
	item, err := h.feedService.GetFeedItemByID(c.Param("id"), c.Param("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}
