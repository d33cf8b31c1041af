package payroll

import (
	"context"

	"github.com/meridianhr/payroll-backend-go/internal/pkg/outbox"
)

// Transition is the atomic mutation applied to a payroll by the approval
// state machine. The write is conditioned on ExpectedVersion and
// ExpectedLevel still holding (optimistic concurrency): the loser of a race
// gets ErrConcurrentModification and nothing is written.
type Transition struct {
	PayrollID       string
	ExpectedVersion int64
	ExpectedLevel   Level

	NewStatus Status
	NewLevel  *Level
	Entry     HistoryEntry

	// Event, when set, is inserted into the outbox in the same transaction
	// as the status change so external consumers never see a transition
	// without its event or vice versa.
	Event *outbox.Event
}

type Repository interface {
	Create(ctx context.Context, p Payroll) (Payroll, error)
	GetByID(ctx context.Context, id string) (Payroll, error)
	ListPendingByLevel(ctx context.Context, level Level, page, limit int) ([]Payroll, int64, error)
	GetHistory(ctx context.Context, payrollID string) ([]HistoryEntry, error)

	// ApplyTransition commits status + level + history append + version bump
	// in a single transaction, or fails without partial state.
	ApplyTransition(ctx context.Context, t Transition) (Payroll, error)
}
