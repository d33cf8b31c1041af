package audit

import "context"

// Repository is append-only: entries are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	ListByEntity(ctx context.Context, entity EntityType, entityID string) ([]Entry, error)
}
