package outbox

import (
	"context"
	"time"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

const (
	AggregatePayroll       = "payroll"
	EventPayrollTransition = "payroll.transitioned"
)

// Event is a pending message in the transactional outbox. Rows are written
// in the same transaction as the state change they describe and shipped to
// Kafka by the relay worker.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
	CreatedAt     time.Time
}

type Repository interface {
	// WithinTx runs fn in one transaction; the row locks ListPending takes
	// are held until fn returns, so concurrent relays skip each other's
	// claimed batches.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	ListPending(ctx context.Context, limit int) ([]Event, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string, nextRetryAt time.Time) error
}
