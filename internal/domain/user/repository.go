package user

import "context"

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)

	// FindApprover returns the active admin in the department holding the
	// functional role. Accounts without an explicit functional_role are
	// matched by position-title phrases as a fallback.
	FindApprover(ctx context.Context, departmentID string, fr FunctionalRole, positionPhrases []string) (User, error)

	// FindByRole returns any active user with the role.
	FindByRole(ctx context.Context, role Role) (User, error)

	// Backfill support (one-time functional role migration)
	ListWithoutFunctionalRole(ctx context.Context) ([]User, error)
	UpdateFunctionalRole(ctx context.Context, id string, fr FunctionalRole) error
}
