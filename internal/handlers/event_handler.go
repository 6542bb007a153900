package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/models"
	"prato-rinaldo/internal/services"
)

type EventHandler struct {
	eventService *services.EventService
	authService  *services.AuthService
}

func NewEventHandler(eventService *services.EventService, authService *services.AuthService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		authService:  authService,
	}
}

type eventRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	CoverImage   string     `json:"cover_image"`
	StartDate    time.Time  `json:"start_date" binding:"required"`
	EndDate      *time.Time `json:"end_date"`
	IsPrivate    bool       `json:"is_private"`
	MaxAttendees *int       `json:"max_attendees"`
}

func (r eventRequest) toInput() services.CreateEventInput {
	return services.CreateEventInput{
		Title:        r.Title,
		Description:  r.Description,
		Location:     r.Location,
		CoverImage:   r.CoverImage,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		IsPrivate:    r.IsPrivate,
		MaxAttendees: r.MaxAttendees,
	}
}

// List returns published events, upcoming first
// GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	viewer := optionalUser(c, h.authService)
	page, limit := pageParams(c)

	params := services.EventListParams{
		IncludePast: c.Query("include_past") == "true",
		Page:        page,
		Limit:       limit,
	}

	events, total, err := h.eventService.List(auth.CurrentTenantID(c), viewer, params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse(events, total, page, limit))
}

// Get returns one event with its attendance count
// GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	viewer := optionalUser(c, h.authService)

	event, err := h.eventService.GetByID(c.Param("id"), viewer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// Create stores a new draft event
// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.Create(user, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": event})
}

// Update edits an event
// PUT /api/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.eventService.Update(user, c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// Publish makes a draft event visible
// POST /api/events/:id/publish
func (h *EventHandler) Publish(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	event, err := h.eventService.Publish(user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// Cancel calls off an event
// POST /api/events/:id/cancel
func (h *EventHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	event, err := h.eventService.Cancel(user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": event})
}

// Rsvp records the caller's attendance answer
// POST /api/events/:id/rsvp
func (h *EventHandler) Rsvp(c *gin.Context) {
	user, ok := requireUser(c, h.authService)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rsvp, err := h.eventService.Rsvp(user, c.Param("id"), models.RsvpStatus(req.Status), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rsvp})
}

// Attendees lists the going answers for an event
// GET /api/events/:id/attendees
func (h *EventHandler) Attendees(c *gin.Context) {
	rsvps, err := h.eventService.Attendees(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rsvps})
}
