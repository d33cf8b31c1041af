package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/database"
)

type userRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, full_name, role, department_id, position, functional_role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.DepartmentID,
		&u.Position, &u.FunctionalRole, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// FindApprover prefers the explicit functional_role column; accounts that
// predate the backfill are matched on position-title phrases instead.
func (r *userRepository) FindApprover(ctx context.Context, departmentID string, fr user.FunctionalRole, positionPhrases []string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	patterns := make([]string, 0, len(positionPhrases))
	for _, phrase := range positionPhrases {
		patterns = append(patterns, "%"+strings.ToLower(phrase)+"%")
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE department_id = $1
		  AND role = $2
		  AND is_active
		  AND (functional_role = $3
		       OR (functional_role IS NULL AND LOWER(position) LIKE ANY($4)))
		ORDER BY functional_role NULLS LAST, created_at ASC
		LIMIT 1
	`

	u, err := scanUser(q.QueryRow(ctx, query, departmentID, user.RoleAdmin, fr, patterns))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to find approver: %w", err)
	}

	return u, nil
}

func (r *userRepository) FindByRole(ctx context.Context, role user.Role) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_active ORDER BY created_at ASC LIMIT 1`

	u, err := scanUser(q.QueryRow(ctx, query, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to find user by role: %w", err)
	}

	return u, nil
}

func (r *userRepository) ListWithoutFunctionalRole(ctx context.Context) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE functional_role IS NULL AND role = $1 AND is_active`

	rows, err := q.Query(ctx, query, user.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list users without functional role: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func (r *userRepository) UpdateFunctionalRole(ctx context.Context, id string, fr user.FunctionalRole) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE users SET functional_role = $1, updated_at = NOW() WHERE id = $2`, fr, id)
	if err != nil {
		return fmt.Errorf("failed to update functional role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}
