package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MaxPublishRetries is the number of delivery attempts before an event is
// parked as failed and left for an operator to requeue.
const MaxPublishRetries = 5

// Relay polls the outbox table and publishes pending events to Kafka.
// Publishing is at-least-once: an event is marked sent only after the broker
// acknowledges it, and failures are rescheduled with exponential backoff.
type Relay struct {
	repo      Repository
	writer    *kafka.Writer
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewRelay(repo Repository, brokers []string, interval time.Duration, batchSize int, logger *slog.Logger) *Relay {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}

	return &Relay{
		repo:      repo,
		writer:    writer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger.With(slog.String("component", "outbox_relay")),
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.writer.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

// drain claims one batch inside a transaction so the SKIP LOCKED claim
// holds until every event in it is marked.
func (r *Relay) drain(ctx context.Context) {
	err := r.repo.WithinTx(ctx, func(ctx context.Context) error {
		events, err := r.repo.ListPending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		r.ship(ctx, events)
		return nil
	})
	if err != nil {
		r.logger.Error("outbox drain pass failed", slog.Any("error", err))
	}
}

func (r *Relay) ship(ctx context.Context, events []Event) {
	for _, event := range events {
		if err := r.publish(ctx, event); err != nil {
			r.logger.Error("failed to publish outbox event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.EventType),
				slog.Int("retry_count", event.RetryCount),
				slog.Any("error", err),
			)

			// Exponential backoff: 2s, 4s, 8s, ... capped by max retries.
			backoff := time.Duration(1<<uint(event.RetryCount+1)) * time.Second
			if markErr := r.repo.MarkFailed(ctx, event.ID, err.Error(), time.Now().Add(backoff)); markErr != nil {
				r.logger.Error("failed to mark outbox event failed", slog.String("event_id", event.ID), slog.Any("error", markErr))
			}
			continue
		}

		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			r.logger.Error("failed to mark outbox event sent", slog.String("event_id", event.ID), slog.Any("error", err))
		}
	}
}

func (r *Relay) publish(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return r.writer.WriteMessages(ctx, kafka.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	})
}
