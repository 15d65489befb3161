package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gowallet/internal/domain"
)

// DefaultEventsChannel is the channel notification subscribers listen on.
const DefaultEventsChannel = "wallet.events"

// Message is the wire form of an outbox event on the events channel.
type Message struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// EventPublisher publishes outbox events with PUBLISH.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

// NewEventPublisher creates a publisher for channel. An empty channel selects DefaultEventsChannel.
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &EventPublisher{client: client, channel: channel}
}

// Channel returns the channel events are published on.
func (p *EventPublisher) Channel() string {
	return p.channel
}

// Publish sends one event. Redis pub/sub has no delivery guarantee, so a
// subscriber that is down misses the message; the outbox row stays the record.
func (p *EventPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	data, err := json.Marshal(Message{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		OccurredAt:    event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}
