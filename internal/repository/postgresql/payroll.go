package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meridianhr/payroll-backend-go/internal/domain/payroll"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.Repository {
	return &payrollRepository{db: db}
}

const payrollColumns = `
	p.id, p.employee_id, p.department_id, p.period_month, p.period_year,
	p.net_pay, p.status, p.current_level, p.submitted_by, p.submitted_at,
	p.version, p.created_at, p.updated_at,
	e.full_name AS employee_name, d.name AS department_name
`

const payrollJoins = `
	FROM payrolls p
	JOIN users e ON e.id = p.employee_id
	JOIN departments d ON d.id = p.department_id
`

func scanPayroll(row pgx.Row) (payroll.Payroll, error) {
	var p payroll.Payroll
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.DepartmentID, &p.PeriodMonth, &p.PeriodYear,
		&p.NetPay, &p.Status, &p.CurrentLevel, &p.SubmittedBy, &p.SubmittedAt,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
		&p.EmployeeName, &p.DepartmentName,
	)
	return p, err
}

func (r *payrollRepository) Create(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payrolls (
			id, employee_id, department_id, period_month, period_year,
			net_pay, status, current_level, submitted_by, submitted_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		p.ID, p.EmployeeID, p.DepartmentID, p.PeriodMonth, p.PeriodYear,
		p.NetPay, p.Status, p.CurrentLevel, p.SubmittedBy, p.SubmittedAt,
	).Scan(&id)
	if err != nil {
		return payroll.Payroll{}, fmt.Errorf("failed to create payroll: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollColumns + payrollJoins + ` WHERE p.id = $1`

	p, err := scanPayroll(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll: %w", err)
	}

	history, err := r.GetHistory(ctx, p.ID)
	if err != nil {
		return payroll.Payroll{}, err
	}
	p.History = history

	return p, nil
}

func (r *payrollRepository) ListPendingByLevel(ctx context.Context, level payroll.Level, page, limit int) ([]payroll.Payroll, int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	countQuery := `SELECT COUNT(*) FROM payrolls WHERE status = $1 AND current_level = $2`
	if err := q.QueryRow(ctx, countQuery, payroll.StatusPending, level).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending payrolls: %w", err)
	}

	query := `SELECT ` + payrollColumns + payrollJoins + `
		WHERE p.status = $1 AND p.current_level = $2
		ORDER BY p.submitted_at ASC
		LIMIT $3 OFFSET $4`

	rows, err := q.Query(ctx, query, payroll.StatusPending, level, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending payrolls: %w", err)
	}
	defer rows.Close()

	var result []payroll.Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll row: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate pending payrolls: %w", err)
	}

	return result, total, nil
}

func (r *payrollRepository) GetHistory(ctx context.Context, payrollID string) ([]payroll.HistoryEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT h.id, h.payroll_id, h.level, h.action, h.actor_id, h.remarks, h.created_at,
			   u.full_name AS actor_name
		FROM payroll_approval_history h
		LEFT JOIN users u ON u.id = h.actor_id
		WHERE h.payroll_id = $1
		ORDER BY h.created_at ASC, h.id ASC
	`

	rows, err := q.Query(ctx, query, payrollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get approval history: %w", err)
	}
	defer rows.Close()

	var history []payroll.HistoryEntry
	for rows.Next() {
		var e payroll.HistoryEntry
		if err := rows.Scan(&e.ID, &e.PayrollID, &e.Level, &e.Action, &e.ActorID, &e.Remarks, &e.CreatedAt, &e.ActorName); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approval history: %w", err)
	}

	return history, nil
}

// ApplyTransition is the single-writer gate for a payroll: the UPDATE is
// conditioned on the version, status and level the caller read, so of two
// racing transitions exactly one succeeds and the other sees
// ErrConcurrentModification. The history append and outbox insert ride in
// the same transaction.
func (r *payrollRepository) ApplyTransition(ctx context.Context, t payroll.Transition) (payroll.Payroll, error) {
	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		updateQuery := `
			UPDATE payrolls
			SET status = $1, current_level = $2, version = version + 1, updated_at = NOW()
			WHERE id = $3 AND version = $4 AND status = $5 AND current_level = $6
		`

		tag, err := tx.Exec(ctx, updateQuery,
			t.NewStatus, t.NewLevel,
			t.PayrollID, t.ExpectedVersion, payroll.StatusPending, t.ExpectedLevel,
		)
		if err != nil {
			return fmt.Errorf("failed to update payroll: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Distinguish a vanished record from a lost race.
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payrolls WHERE id = $1)`, t.PayrollID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check payroll existence: %w", err)
			}
			if !exists {
				return payroll.ErrPayrollNotFound
			}
			return payroll.ErrConcurrentModification
		}

		historyQuery := `
			INSERT INTO payroll_approval_history (id, payroll_id, level, action, actor_id, remarks, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.Exec(ctx, historyQuery,
			t.Entry.ID, t.PayrollID, t.Entry.Level, t.Entry.Action, t.Entry.ActorID, t.Entry.Remarks, t.Entry.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append approval history: %w", err)
		}

		if t.Event != nil {
			outboxQuery := `
				INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, topic, payload, status, retry_count, next_retry_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW())
			`
			if _, err := tx.Exec(ctx, outboxQuery,
				t.Event.ID, t.Event.AggregateType, t.Event.AggregateID, t.Event.EventType,
				t.Event.Topic, t.Event.Payload, t.Event.Status,
			); err != nil {
				return fmt.Errorf("failed to insert outbox event: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return payroll.Payroll{}, err
	}

	return r.GetByID(ctx, t.PayrollID)
}
