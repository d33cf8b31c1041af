package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridianhr/payroll-backend-go/internal/pkg/database"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/outbox"
)

type outboxRepository struct {
	db *database.DB
}

func NewOutboxRepository(db *database.DB) outbox.Repository {
	return &outboxRepository{db: db}
}

// WithinTx scopes fn to one transaction so the FOR UPDATE SKIP LOCKED claim
// in ListPending holds until the batch is fully processed.
func (r *outboxRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

// ListPending locks the claimed rows (FOR UPDATE SKIP LOCKED) so multiple
// relay instances never ship the same event twice in one pass.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, topic, payload, status, retry_count, next_retry_at, created_at
		FROM outbox_events
		WHERE status = $1 AND next_retry_at <= NOW()
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, outbox.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var e outbox.Event
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Topic, &e.Payload, &e.Status, &e.RetryCount, &e.NextRetryAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}

	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE outbox_events SET status = $1 WHERE id = $2`, outbox.StatusSent, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}

	return nil
}

// MarkFailed reschedules the event, parking it as failed once the retry
// budget is exhausted.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string, nextRetryAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
		    last_error = $1,
		    next_retry_at = $2,
		    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
		WHERE id = $5
	`

	_, err := q.Exec(ctx, query, reason, nextRetryAt, outbox.MaxPublishRetries, outbox.StatusFailed, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}

	return nil
}
