package services

import (
	"errors"
	"testing"

	"prato-rinaldo/internal/models"
)

func TestSendAndConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)

	alice := makeUser(t, db, "Alice", true)
	bruno := makeUser(t, db, "Bruno", true)

	if _, err := svc.Send(alice, bruno.ID, "Ciao, la bici è ancora disponibile?"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.Send(bruno, alice.ID, "Sì, passa quando vuoi."); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	messages, total, err := svc.GetConversation(alice, bruno.ID, 1, 50)
	if err != nil {
		t.Fatalf("conversation failed: %v", err)
	}
	if total != 2 || len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", total)
	}
	// Oldest first
	if messages[0].SenderID != alice.ID {
		t.Errorf("expected the opening message first")
	}
}

func TestSendValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)

	alice := makeUser(t, db, "Alice", true)

	if _, err := svc.Send(alice, alice.ID, "Promemoria"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on self-message, got %v", err)
	}
	if _, err := svc.Send(alice, "missing", "Ciao"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown recipient, got %v", err)
	}

	// Residents of other communities are invisible
	stranger := makeUser(t, db, "Estraneo", true)
	if err := db.Model(stranger).Update("tenant_id", "altro-quartiere").Error; err != nil {
		t.Fatalf("failed to move user: %v", err)
	}
	if _, err := svc.Send(alice, stranger.ID, "Ciao"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestConversationsFoldByPeer(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)

	alice := makeUser(t, db, "Alice", true)
	bruno := makeUser(t, db, "Bruno", true)
	carla := makeUser(t, db, "Carla", true)

	mustSend := func(from *models.User, to string, body string) {
		t.Helper()
		if _, err := svc.Send(from, to, body); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	mustSend(alice, bruno.ID, "Primo messaggio a Bruno")
	mustSend(bruno, alice.ID, "Risposta di Bruno")
	mustSend(carla, alice.ID, "Messaggio di Carla")
	mustSend(carla, alice.ID, "Secondo messaggio di Carla")

	conversations, err := svc.ListConversations(alice)
	if err != nil {
		t.Fatalf("conversations failed: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}

	// Carla wrote last, so her conversation comes first with 2 unread
	if conversations[0].Peer == nil || conversations[0].Peer.ID != carla.ID {
		t.Errorf("expected Carla's conversation first")
	}
	if conversations[0].UnreadCount != 2 {
		t.Errorf("expected 2 unread from Carla, got %d", conversations[0].UnreadCount)
	}
	if conversations[1].UnreadCount != 1 {
		t.Errorf("expected 1 unread from Bruno, got %d", conversations[1].UnreadCount)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db)

	alice := makeUser(t, db, "Alice", true)
	bruno := makeUser(t, db, "Bruno", true)

	if _, err := svc.Send(bruno, alice.ID, "Uno"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.Send(bruno, alice.ID, "Due"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	count, err := svc.UnreadCount(alice)
	if err != nil {
		t.Fatalf("unread failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 unread, got %d", count)
	}

	if err := svc.MarkRead(alice, bruno.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	count, _ = svc.UnreadCount(alice)
	if count != 0 {
		t.Errorf("expected 0 unread after reading, got %d", count)
	}

	// Read stamps survive on the rows
	var unread int64
	db.Model(&models.Message{}).Where("recipient_id = ? AND read_at IS NULL", alice.ID).Count(&unread)
	if unread != 0 {
		t.Errorf("expected all messages stamped, %d left", unread)
	}

	// Sender's own unread count is untouched
	if senderCount, _ := svc.UnreadCount(bruno); senderCount != 0 {
		t.Errorf("sender unread should be 0, got %d", senderCount)
	}
}
