package ledgerrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/pg"
)

const ledgerColumns = `id, game_id, from_user_id, to_user_id, amount_cents, status, created_at, paid_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) ExistsForGame(ctx context.Context, gameID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE game_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, gameID).Scan(&exists); err != nil {
		zap.L().Error("failed to check ledger entries for game", zap.Error(err))
		return false, err
	}
	return exists, nil
}

// CreateEntries inserts the unpaid entries for one settled game. The
// caller wraps it in a transaction together with the audit records.
func (r *Repository) CreateEntries(ctx context.Context, entries []domain.LedgerEntry) ([]domain.LedgerEntry, error) {
	query := `
        INSERT INTO ledger_entries (game_id, from_user_id, to_user_id, amount_cents, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	created := make([]domain.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Status = domain.LedgerStatusUnpaid
		err := r.db.QueryRow(ctx, query, entry.GameID, entry.FromUserID, entry.ToUserID, entry.AmountCents, entry.Status).
			Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			zap.L().Error("failed to create ledger entry", zap.Error(err))
			return nil, err
		}
		created = append(created, entry)
	}
	return created, nil
}

// MarkPaid flips unpaid to paid in one conditional update, so two
// concurrent confirmations cannot both succeed. A nil result with nil
// error means the condition did not match.
func (r *Repository) MarkPaid(ctx context.Context, ledgerID int) (*domain.LedgerEntry, error) {
	query := `
        UPDATE ledger_entries
        SET status = $2, paid_at = now()
        WHERE id = $1 AND status = $3
        RETURNING ` + ledgerColumns
	var entry domain.LedgerEntry
	err := r.db.QueryRow(ctx, query, ledgerID, domain.LedgerStatusPaid, domain.LedgerStatusUnpaid).
		Scan(&entry.ID, &entry.GameID, &entry.FromUserID, &entry.ToUserID, &entry.AmountCents,
			&entry.Status, &entry.CreatedAt, &entry.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to mark ledger entry paid", zap.Error(err))
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) GetByID(ctx context.Context, ledgerID int) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`
	var entry domain.LedgerEntry
	err := r.db.QueryRow(ctx, query, ledgerID).
		Scan(&entry.ID, &entry.GameID, &entry.FromUserID, &entry.ToUserID, &entry.AmountCents,
			&entry.Status, &entry.CreatedAt, &entry.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get ledger entry", zap.Error(err))
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) GetByGameID(ctx context.Context, gameID int) ([]domain.LedgerEntry, error) {
	query := `
        SELECT ` + ledgerColumns + `
        FROM ledger_entries
        WHERE game_id = $1
        ORDER BY id`
	rows, err := r.db.Query(ctx, query, gameID)
	if err != nil {
		zap.L().Error("failed to fetch ledger entries", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		err := rows.Scan(&entry.ID, &entry.GameID, &entry.FromUserID, &entry.ToUserID, &entry.AmountCents,
			&entry.Status, &entry.CreatedAt, &entry.PaidAt)
		if err != nil {
			zap.L().Error("failed to scan ledger entry row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
