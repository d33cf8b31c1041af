package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meridianhr/payroll-backend-go/internal/domain/audit"
	"github.com/meridianhr/payroll-backend-go/internal/pkg/database"
)

// auditRepository is append-only by construction: no update or delete
// statement exists against audit_entries.
type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.Repository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_entries (id, action, entity, entity_id, performed_by, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = q.QueryRow(ctx, query,
		entry.ID, entry.Action, entry.Entity, entry.EntityID, entry.PerformedBy, details, entry.CreatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}

	return entry, nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, entity audit.EntityType, entityID string) ([]audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, action, entity, entity_id, performed_by, details, created_at
		FROM audit_entries
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, entity, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var entry audit.Entry
		var details []byte
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Entity, &entry.EntityID, &entry.PerformedBy, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}
