package department

import "context"

type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (Department, error)

	// FindFirstByNames returns the first active department whose name is in
	// names, in names order.
	FindFirstByNames(ctx context.Context, names []string) (Department, error)
}
