// Package eventpublisher drains the transactional outbox to a Publisher.
package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

// EventPublisher handles publishing events from the outbox.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     *logging.Logger
	metrics    *metrics.Metrics
	batchSize  int
	interval   time.Duration
	retention  time.Duration
	now        func() time.Time
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	Retention  time.Duration // Published events older than this are deleted; 0 keeps them
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the event publishing worker.
// It runs continuously until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.InfoCtx(ctx, "event publisher started",
		"batch_size", ep.batchSize,
		"interval", ep.interval,
	)

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			ep.logger.InfoCtx(ctx, "event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		}
	}
}

func (ep *EventPublisher) tick(ctx context.Context) {
	if _, err := ep.processEvents(ctx); err != nil {
		ep.logger.ErrorCtx(ctx, "error processing events", "error", err)
	}

	if ep.retention > 0 {
		if err := ep.outboxRepo.DeletePublished(ctx, ep.now().Add(-ep.retention)); err != nil {
			ep.logger.ErrorCtx(ctx, "failed to delete published events", "error", err)
		}
	}
}

// processEvents publishes one batch in outbox order and returns how many
// events were published. Once an event fails, later events of the same
// aggregate wait for the next batch so subscribers see them in order.
func (ep *EventPublisher) processEvents(ctx context.Context) (int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	ep.logger.DebugCtx(ctx, "processing events", "count", len(events))

	blocked := make(map[string]bool)
	published := 0
	for _, event := range events {
		if blocked[event.AggregateID] {
			continue
		}

		if err := ep.publisher.Publish(ctx, event); err != nil {
			blocked[event.AggregateID] = true
			if ep.metrics != nil {
				ep.metrics.EventPublishErrors.Inc()
			}
			ep.logger.ErrorCtx(ctx, "failed to publish event",
				"event_id", event.ID,
				"event_type", event.EventType,
				"error", err,
			)
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			// the event goes out again next batch
			blocked[event.AggregateID] = true
			ep.logger.ErrorCtx(ctx, "failed to mark event as published",
				"event_id", event.ID,
				"error", err,
			)
			continue
		}

		published++
		if ep.metrics != nil {
			ep.metrics.EventsPublished.WithLabelValues(event.EventType).Inc()
		}
	}

	return published, nil
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger *logging.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.InfoCtx(ctx, "event published",
		"event_id", event.ID,
		"event_type", event.EventType,
		"aggregate_type", event.AggregateType,
		"aggregate_id", event.AggregateID,
		"payload", string(payload),
	)

	return nil
}

// MultiPublisher sends each event to every publisher in turn and stops at the first error.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
