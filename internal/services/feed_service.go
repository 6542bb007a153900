package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"

	"prato-rinaldo/internal/cache"
	"prato-rinaldo/internal/models"
)

// Feed item type and sort values accepted from callers. Anything else
// falls back to the defaults instead of failing the page.
const (
	FeedTypeAll          = "all"
	FeedTypeEvent        = "event"
	FeedTypeMarketplace  = "marketplace"
	FeedTypeProposal     = "proposal"
	FeedTypeAnnouncement = "announcement"

	FeedSortNewest  = "newest"
	FeedSortPopular = "popular"

	// Candidate cap per source when merging the full feed
	feedSourceCap = 100
)

// FeedAuthor is the envelope's author summary
type FeedAuthor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// FeedItem is the tagged union over the feed sources. Type names which of
// the payload pointers is set; render-time dispatch goes by tag, never by
// probing fields.
type FeedItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      FeedAuthor `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	Popularity  int       `json:"popularity"`

	Event        *EventFeedPayload        `json:"event,omitempty"`
	Marketplace  *MarketplaceFeedPayload  `json:"marketplace,omitempty"`
	Proposal     *ProposalFeedPayload     `json:"proposal,omitempty"`
	Announcement *AnnouncementFeedPayload `json:"announcement,omitempty"`
}

// EventFeedPayload carries the event-specific fields
type EventFeedPayload struct {
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Location     string     `json:"location,omitempty"`
	MaxAttendees *int       `json:"max_attendees,omitempty"`
	RsvpCount    int        `json:"rsvp_count"`
	Status       string     `json:"status"`
}

// MarketplaceFeedPayload carries the mercatino-specific fields
type MarketplaceFeedPayload struct {
	Price     string   `json:"price"`
	Condition string   `json:"condition,omitempty"`
	Images    []string `json:"images,omitempty"`
	IsSold    bool     `json:"is_sold"`
	Status    string   `json:"status"`
}

// ProposalFeedPayload carries the agora-specific fields
type ProposalFeedPayload struct {
	Status    string `json:"status"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Score     int    `json:"score"`
}

// AnnouncementFeedPayload carries the bacheca-specific fields
type AnnouncementFeedPayload struct {
	Category string `json:"category,omitempty"`
	IsPinned bool   `json:"is_pinned"`
}

// FeedParams filters and pages the unified feed
type FeedParams struct {
	Type   string
	SortBy string
	Limit  int
	Offset int
}

// FeedPage is one page of the merged feed
type FeedPage struct {
	Items   []FeedItem `json:"items"`
	Total   int64      `json:"total"`
	HasMore bool       `json:"has_more"`
}

type FeedService struct {
	db        *gorm.DB
	feedCache *cache.FeedCache
}

func NewFeedService(db *gorm.DB, feedCache *cache.FeedCache) *FeedService {
	return &FeedService{db: db, feedCache: feedCache}
}

// normalize applies the safe fallbacks for malformed parameters
func (p FeedParams) normalize() FeedParams {
	switch p.Type {
	case FeedTypeEvent, FeedTypeMarketplace, FeedTypeProposal, FeedTypeAnnouncement:
	default:
		p.Type = FeedTypeAll
	}
	if p.SortBy != FeedSortPopular {
		p.SortBy = FeedSortNewest
	}
	if p.Limit < 1 || p.Limit > feedSourceCap {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// sourceLimit decides how many candidates to pull from one source: enough
// to fill the requested page when the type filter narrows to that source,
// the merge cap otherwise.
func (p FeedParams) sourceLimit(sourceType string) int {
	if p.Type == sourceType {
		return p.Offset + p.Limit
	}
	return feedSourceCap
}

// GetPublicFeed merges events, marketplace listings and announcements that
// are visible to everyone. Pages are cached briefly when Redis is around.
func (s *FeedService) GetPublicFeed(ctx context.Context, tenantID string, params FeedParams) (*FeedPage, error) {
	params = params.normalize()

	var cached FeedPage
	found, err := s.feedCache.Get(ctx, tenantID, params.Type, params.SortBy, params.Limit, params.Offset, &cached)
	if err != nil {
		log.Printf("Feed cache read failed: %v", err)
	}
	if found {
		return &cached, nil
	}

	page := s.aggregate(tenantID, params, false)

	if err := s.feedCache.Set(ctx, tenantID, params.Type, params.SortBy, params.Limit, params.Offset, page); err != nil {
		log.Printf("Feed cache write failed: %v", err)
	}
	return page, nil
}

// GetPrivateFeed adds private rows and agora proposals for verified
// residents. Anyone else silently gets the public feed.
func (s *FeedService) GetPrivateFeed(ctx context.Context, tenantID string, viewer *models.User, params FeedParams) (*FeedPage, error) {
	if viewer == nil || !viewer.IsVerifiedResident() {
		return s.GetPublicFeed(ctx, tenantID, params)
	}
	params = params.normalize()
	return s.aggregate(tenantID, params, true), nil
}

// aggregate fetches each source independently, merges, sorts, filters and
// pages. A failing source contributes nothing instead of failing the page.
func (s *FeedService) aggregate(tenantID string, params FeedParams, includePrivate bool) *FeedPage {
	var items []FeedItem
	var total int64

	if params.Type == FeedTypeAll || params.Type == FeedTypeEvent {
		sourceItems, count, err := s.fetchEvents(tenantID, includePrivate, params.sourceLimit(FeedTypeEvent))
		if err != nil {
			log.Printf("Feed: events source failed, degrading: %v", err)
		} else {
			items = append(items, sourceItems...)
			total += count
		}
	}

	if params.Type == FeedTypeAll || params.Type == FeedTypeMarketplace {
		sourceItems, count, err := s.fetchMarketplace(tenantID, includePrivate, params.sourceLimit(FeedTypeMarketplace))
		if err != nil {
			log.Printf("Feed: marketplace source failed, degrading: %v", err)
		} else {
			items = append(items, sourceItems...)
			total += count
		}
	}

	if includePrivate && (params.Type == FeedTypeAll || params.Type == FeedTypeProposal) {
		sourceItems, count, err := s.fetchProposals(tenantID, params.sourceLimit(FeedTypeProposal))
		if err != nil {
			log.Printf("Feed: proposals source failed, degrading: %v", err)
		} else {
			items = append(items, sourceItems...)
			total += count
		}
	}

	if params.Type == FeedTypeAll || params.Type == FeedTypeAnnouncement {
		sourceItems, count, err := s.fetchAnnouncements(tenantID, params.sourceLimit(FeedTypeAnnouncement))
		if err != nil {
			log.Printf("Feed: announcements source failed, degrading: %v", err)
		} else {
			items = append(items, sourceItems...)
			total += count
		}
	}

	sortFeedItems(items, params.SortBy)

	// Page against the merged, already type-filtered sequence
	start := params.Offset
	if start > len(items) {
		start = len(items)
	}
	end := start + params.Limit
	if end > len(items) {
		end = len(items)
	}

	return &FeedPage{
		Items:   items[start:end],
		Total:   total,
		HasMore: int64(params.Offset+params.Limit) < total,
	}
}

// sortFeedItems orders by recency, or by the popularity proxy with recency
// as the tie-breaker. Stable so equal rows keep a deterministic order.
func sortFeedItems(items []FeedItem, sortBy string) {
	if sortBy == FeedSortPopular {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Popularity != items[j].Popularity {
				return items[i].Popularity > items[j].Popularity
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func feedAuthor(u *models.User, fallbackID string) FeedAuthor {
	if u == nil {
		return FeedAuthor{ID: fallbackID, Name: "Residente"}
	}
	return FeedAuthor{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// fetchEvents returns published events that have not ended yet
func (s *FeedService) fetchEvents(tenantID string, includePrivate bool, limit int) ([]FeedItem, int64, error) {
	now := time.Now()
	query := s.db.Model(&models.Event{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.EventStatusPublished).
		Where("(end_date IS NULL AND start_date >= ?) OR end_date >= ?", now, now)
	if !includePrivate {
		query = query.Where("is_private = ?", false)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Event
	if err := query.Preload("Organizer").
		Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	rsvpCounts := s.rsvpCounts(rows)

	items := make([]FeedItem, 0, len(rows))
	for i := range rows {
		ev := &rows[i]
		rsvps := rsvpCounts[ev.ID]
		items = append(items, FeedItem{
			ID:          ev.ID,
			Type:        FeedTypeEvent,
			Title:       ev.Title,
			Description: ev.Description,
			Author:      feedAuthor(ev.Organizer, ev.OrganizerID),
			CreatedAt:   ev.CreatedAt,
			Popularity:  rsvps,
			Event: &EventFeedPayload{
				StartDate:    ev.StartDate,
				EndDate:      ev.EndDate,
				Location:     ev.Location,
				MaxAttendees: ev.MaxAttendees,
				RsvpCount:    rsvps,
				Status:       string(ev.Status),
			},
		})
	}
	return items, count, nil
}

// rsvpCounts loads going-counts for a batch of events in one query
func (s *FeedService) rsvpCounts(rows []models.Event) map[string]int {
	counts := make(map[string]int, len(rows))
	if len(rows) == 0 {
		return counts
	}
	ids := make([]string, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}

	type rsvpRow struct {
		EventID string
		N       int
	}
	var result []rsvpRow
	err := s.db.Model(&models.EventRsvp{}).
		Select("event_id, COUNT(*) as n").
		Where("event_id IN ? AND status = ?", ids, models.RsvpGoing).
		Group("event_id").Scan(&result).Error
	if err != nil {
		log.Printf("Feed: rsvp counts failed: %v", err)
		return counts
	}
	for _, r := range result {
		counts[r.EventID] = r.N
	}
	return counts
}

// fetchMarketplace returns approved, unsold listings
func (s *FeedService) fetchMarketplace(tenantID string, includePrivate bool, limit int) ([]FeedItem, int64, error) {
	query := s.db.Model(&models.MarketplaceItem{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.ListingStatusApproved)
	if !includePrivate {
		query = query.Where("is_private = ?", false)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MarketplaceItem
	if err := query.Preload("Seller").
		Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]FeedItem, 0, len(rows))
	for i := range rows {
		it := &rows[i]
		items = append(items, FeedItem{
			ID:          it.ID,
			Type:        FeedTypeMarketplace,
			Title:       it.Title,
			Description: it.Description,
			Author:      feedAuthor(it.Seller, it.SellerID),
			CreatedAt:   it.CreatedAt,
			Popularity:  it.ViewCount,
			Marketplace: &MarketplaceFeedPayload{
				Price:     it.Price.StringFixed(2),
				Condition: it.Condition,
				Images:    it.Images,
				IsSold:    it.Status == models.ListingStatusSold,
				Status:    string(it.Status),
			},
		})
	}
	return items, count, nil
}

// fetchProposals returns agora proposals; private feed only
func (s *FeedService) fetchProposals(tenantID string, limit int) ([]FeedItem, int64, error) {
	query := s.db.Model(&models.Proposal{}).Where("tenant_id = ?", tenantID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Proposal
	if err := query.Preload("Author").
		Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]FeedItem, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		items = append(items, FeedItem{
			ID:          p.ID,
			Type:        FeedTypeProposal,
			Title:       p.Title,
			Description: p.Description,
			Author:      feedAuthor(p.Author, p.AuthorID),
			CreatedAt:   p.CreatedAt,
			Popularity:  p.Upvotes,
			Proposal: &ProposalFeedPayload{
				Status:    string(p.Status),
				Upvotes:   p.Upvotes,
				Downvotes: p.Downvotes,
				Score:     p.Score,
			},
		})
	}
	return items, count, nil
}

// fetchAnnouncements returns committee notices
func (s *FeedService) fetchAnnouncements(tenantID string, limit int) ([]FeedItem, int64, error) {
	query := s.db.Model(&models.Announcement{}).Where("tenant_id = ?", tenantID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Announcement
	if err := query.Preload("Author").
		Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]FeedItem, 0, len(rows))
	for i := range rows {
		a := &rows[i]
		items = append(items, FeedItem{
			ID:          a.ID,
			Type:        FeedTypeAnnouncement,
			Title:       a.Title,
			Description: a.Content,
			Author:      feedAuthor(a.Author, a.AuthorID),
			CreatedAt:   a.CreatedAt,
			Announcement: &AnnouncementFeedPayload{
				Category: a.Category,
				IsPinned: a.IsPinned,
			},
		})
	}
	return items, count, nil
}

// GetFeedItemByID resolves one item by id and tag, for detail navigation
func (s *FeedService) GetFeedItemByID(id, itemType string) (*FeedItem, error) {
	switch itemType {
	case FeedTypeEvent:
		var ev models.Event
		if err := s.db.Preload("Organizer").First(&ev, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: event %s", ErrNotFound, id)
			}
			return nil, err
		}
		rsvps := s.rsvpCounts([]models.Event{ev})[ev.ID]
		return &FeedItem{
			ID:          ev.ID,
			Type:        FeedTypeEvent,
			Title:       ev.Title,
			Description: ev.Description,
			Author:      feedAuthor(ev.Organizer, ev.OrganizerID),
			CreatedAt:   ev.CreatedAt,
			Popularity:  rsvps,
			Event: &EventFeedPayload{
				StartDate:    ev.StartDate,
				EndDate:      ev.EndDate,
				Location:     ev.Location,
				MaxAttendees: ev.MaxAttendees,
				RsvpCount:    rsvps,
				Status:       string(ev.Status),
			},
		}, nil

	case FeedTypeMarketplace:
		var it models.MarketplaceItem
		if err := s.db.Preload("Seller").First(&it, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: listing %s", ErrNotFound, id)
			}
			return nil, err
		}
		return &FeedItem{
			ID:          it.ID,
			Type:        FeedTypeMarketplace,
			Title:       it.Title,
			Description: it.Description,
			Author:      feedAuthor(it.Seller, it.SellerID),
			CreatedAt:   it.CreatedAt,
			Popularity:  it.ViewCount,
			Marketplace: &MarketplaceFeedPayload{
				Price:     it.Price.StringFixed(2),
				Condition: it.Condition,
				Images:    it.Images,
				IsSold:    it.Status == models.ListingStatusSold,
				Status:    string(it.Status),
			},
		}, nil

	case FeedTypeProposal:
		var p models.Proposal
		if err := s.db.Preload("Author").First(&p, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: proposal %s", ErrNotFound, id)
			}
			return nil, err
		}
		return &FeedItem{
			ID:          p.ID,
			Type:        FeedTypeProposal,
			Title:       p.Title,
			Description: p.Description,
			Author:      feedAuthor(p.Author, p.AuthorID),
			CreatedAt:   p.CreatedAt,
			Popularity:  p.Upvotes,
			Proposal: &ProposalFeedPayload{
				Status:    string(p.Status),
				Upvotes:   p.Upvotes,
				Downvotes: p.Downvotes,
				Score:     p.Score,
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown feed item type %q", ErrValidation, itemType)
	}
}
