package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/services"
)

type MarketplaceHandler struct {
	marketplaceService *services.MarketplaceService
	authService        *services.AuthService
}

func NewMarketplaceHandler(marketplaceService *services.MarketplaceService, authService *services.AuthService) *MarketplaceHandler {
	return &MarketplaceHandler{
		marketplaceService: marketplaceService,
		authService:        authService,
	}
}

type listingRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Condition   string          `json:"condition"`
	Images      []string        `json:"images"`
	IsPrivate   bool            `json:"is_private"`
}

func (r listingRequest) toInput() services.CreateListingInput {
	return services.CreateListingInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Condition:   r.Condition,
		Images:      r.Images,
		IsPrivate:   r.IsPrivate,
	}
}

// List returns approved unsold listings, newest first
// GET /api/marketplace
func (h *MarketplaceHandler) List(c *gin.Context) {
	viewer := optionalUser(c, h.authService)
	page, limit := pageParams(c)

	params := services.ListingParams{
		Condition: c.Query("condition"),
		Page:      page,
		Limit:     limit,
	}
	if raw := c.Query("max_price"); raw != "" {
		if maxPrice, err := decimal.NewFromString(raw); err == nil {
			params.MaxPrice = &maxPrice
		}
	}

	items, total, err := h.marketplaceService.List(auth.CurrentTenantID(c), viewer, params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(items, total, page, limit))
}

// Get returns one listing and bumps its view counter
// GET /api/marketplace/:id
func (h *MarketplaceHandler) Get(c *gin.Context) {
	viewer := optionalUser(c, h.authService)

	item, err := h.marketplaceService.GetByID(c.Param("id"), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}

// Create stores a new listing pending moderation
// POST /api/marketplace
func (h *MarketplaceHandler) Create(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.marketplaceService.Create(user, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": item})
}

// Update edits the seller's own listing
// PUT /api/marketplace/:id
func (h *MarketplaceHandler) Update(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.marketplaceService.Update(user, c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}

// MarkSold flags a listing as sold
// POST /api/marketplace/:id/sold
func (h *MarketplaceHandler) MarkSold(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	item, err := h.marketplaceService.MarkSold(user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}

// Delete removes a listing
// DELETE /api/marketplace/:id
func (h *MarketplaceHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	if err := h.marketplaceService.Delete(user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MyListings returns everything the caller has posted, any status
// GET /api/marketplace/mine
func (h *MarketplaceHandler) MyListings(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	items, err := h.marketplaceService.MyListings(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}
