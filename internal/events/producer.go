package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Activity event types published by the services and consumed by the badge
// worker. Kept as plain strings on the wire.
const (
	ActivityProposalCreated = "proposal_created"
	ActivityVoteCast        = "vote_cast"
	ActivityCommentCreated  = "comment_created"
	ActivityListingCreated  = "listing_created"
	ActivityListingSold     = "listing_sold"
	ActivityEventRsvp       = "event_rsvp"
	ActivityThreadCreated   = "thread_created"
	ActivityPostCreated     = "post_created"
)

// ActivityEvent is the payload for every community activity record
type ActivityEvent struct {
	Type       string    `json:"type"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	SubjectID  string    `json:"subject_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Producer publishes activity events. A nil Producer drops them, so the
// services work unchanged when Kafka is not configured.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a Kafka writer for the activity topic
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &Producer{writer: w}
}

// Publish sends one activity event, keyed by user so a user's events stay
// ordered within a partition. Errors are logged, never surfaced: losing an
// activity event must not fail the user action that produced it.
func (p *Producer) Publish(ctx context.Context, ev ActivityEvent) {
	if p == nil || p.writer == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal activity event: %v", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.UserID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("events: publish %s: %v", ev.Type, err)
	}
}

// Close flushes and closes the underlying writer
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// NewReader builds a consumer-group reader for the activity topic
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}
