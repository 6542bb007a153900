package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prato-rinaldo/internal/models"
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Conversation is one thread of the inbox, keyed by the other participant
type Conversation struct {
	Peer        *models.User   `json:"peer"`
	LastMessage models.Message `json:"last_message"`
	UnreadCount int            `json:"unread_count"`
}

// Send delivers a direct message to another resident of the same community
func (s *MessageService) Send(sender *models.User, recipientID, body string) (*models.Message, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrValidation)
	}
	if recipientID == sender.ID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}

	var recipient models.User
	if err := s.db.First(&recipient, "id = ?", recipientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, recipientID)
		}
		return nil, err
	}
	if recipient.TenantID != sender.TenantID {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, recipientID)
	}

	message := models.Message{
		ID:          uuid.NewString(),
		TenantID:    sender.TenantID,
		SenderID:    sender.ID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &message, nil
}

// GetConversation returns the message history with one peer, oldest first
func (s *MessageService) GetConversation(user *models.User, peerID string, page, limit int) ([]models.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := s.db.Model(&models.Message{}).Where(
		"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
		user.ID, peerID, peerID, user.ID,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	if err := query.Order("created_at ASC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	return messages, total, nil
}

// ListConversations folds the user's messages into one entry per peer,
// most recently active first
func (s *MessageService) ListConversations(user *models.User) ([]Conversation, error) {
	var messages []models.Message
	if err := s.db.Where("sender_id = ? OR recipient_id = ?", user.ID, user.ID).
		Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	latest := make(map[string]models.Message)
	unread := make(map[string]int)
	for _, m := range messages {
		peerID := m.SenderID
		if peerID == user.ID {
			peerID = m.RecipientID
		}
		if _, seen := latest[peerID]; !seen {
			latest[peerID] = m
		}
		if m.RecipientID == user.ID && m.ReadAt == nil {
			unread[peerID]++
		}
	}

	if len(latest) == 0 {
		return []Conversation{}, nil
	}

	peerIDs := make([]string, 0, len(latest))
	for id := range latest {
		peerIDs = append(peerIDs, id)
	}

	var peers []models.User
	if err := s.db.Where("id IN ?", peerIDs).Find(&peers).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch peers: %w", err)
	}
	peerByID := make(map[string]*models.User, len(peers))
	for i := range peers {
		peerByID[peers[i].ID] = &peers[i]
	}

	conversations := make([]Conversation, 0, len(latest))
	for peerID, m := range latest {
		conversations = append(conversations, Conversation{
			Peer:        peerByID[peerID],
			LastMessage: m,
			UnreadCount: unread[peerID],
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})

	return conversations, nil
}

// MarkRead stamps every unread message from the peer as read
func (s *MessageService) MarkRead(user *models.User, peerID string) error {
	now := time.Now()
	return s.db.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read_at IS NULL", peerID, user.ID).
		Update("read_at", now).Error
}

// UnreadCount returns the total unread messages across all conversations
func (s *MessageService) UnreadCount(user *models.User) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", user.ID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
