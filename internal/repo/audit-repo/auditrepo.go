package auditrepo

import (
	"context"

	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Append writes one audit record. The table is append-only; nothing in
// the codebase updates or deletes audit rows.
func (r *Repository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	query := `
        INSERT INTO audit_log (id, entity_type, entity_id, action, actor_user_id, before_state, after_state)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query, entry.ID, entry.EntityType, entry.EntityID, entry.Action,
		entry.ActorUserID, entry.Before, entry.After).Scan(&entry.CreatedAt)
	if err != nil {
		zap.L().Error("failed to append audit record", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditLogEntry, error) {
	query := `
        SELECT id, entity_type, entity_id, action, actor_user_id, before_state, after_state, created_at
        FROM audit_log
        WHERE entity_type = $1 AND entity_id = $2
        ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		zap.L().Error("failed to fetch audit records", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		err := rows.Scan(&entry.ID, &entry.EntityType, &entry.EntityID, &entry.Action,
			&entry.ActorUserID, &entry.Before, &entry.After, &entry.CreatedAt)
		if err != nil {
			zap.L().Error("failed to scan audit row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
