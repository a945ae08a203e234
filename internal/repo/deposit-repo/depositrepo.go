package depositrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/pg"
)

const intentColumns = `id, user_id, wallet_id, amount_cents, status, created_at, confirmed_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, intent *domain.DepositIntent) error {
	query := `
        INSERT INTO deposit_intents (id, user_id, wallet_id, amount_cents, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query, intent.ID, intent.UserID, intent.WalletID, intent.AmountCents, intent.Status).
		Scan(&intent.CreatedAt)
	if err != nil {
		zap.L().Error("failed to create deposit intent", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.DepositIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM deposit_intents WHERE id = $1`
	var intent domain.DepositIntent
	err := r.db.QueryRow(ctx, query, id).
		Scan(&intent.ID, &intent.UserID, &intent.WalletID, &intent.AmountCents, &intent.Status,
			&intent.CreatedAt, &intent.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get deposit intent", zap.Error(err))
		return nil, err
	}
	return &intent, nil
}

// FindPending returns intents still waiting on the external processor,
// oldest first.
func (r *Repository) FindPending(ctx context.Context, limit uint32) ([]domain.DepositIntent, error) {
	query := `
        SELECT ` + intentColumns + `
        FROM deposit_intents
        WHERE status = $1
        ORDER BY created_at
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, domain.DepositIntentPending, limit)
	if err != nil {
		zap.L().Error("failed to fetch pending deposit intents", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var intents []domain.DepositIntent
	for rows.Next() {
		var intent domain.DepositIntent
		err := rows.Scan(&intent.ID, &intent.UserID, &intent.WalletID, &intent.AmountCents, &intent.Status,
			&intent.CreatedAt, &intent.ConfirmedAt)
		if err != nil {
			zap.L().Error("failed to scan deposit intent row", zap.Error(err))
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, rows.Err()
}

// MarkConfirmed flips pending to confirmed in one conditional update.
// A false result means the intent was missing or already confirmed.
func (r *Repository) MarkConfirmed(ctx context.Context, id string) (bool, error) {
	query := `
        UPDATE deposit_intents
        SET status = $2, confirmed_at = now()
        WHERE id = $1 AND status = $3`
	tag, err := r.db.Exec(ctx, query, id, domain.DepositIntentConfirmed, domain.DepositIntentPending)
	if err != nil {
		zap.L().Error("failed to confirm deposit intent", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) MarkFailed(ctx context.Context, id string) (bool, error) {
	query := `
        UPDATE deposit_intents
        SET status = $2
        WHERE id = $1 AND status = $3`
	tag, err := r.db.Exec(ctx, query, id, domain.DepositIntentFailed, domain.DepositIntentPending)
	if err != nil {
		zap.L().Error("failed to mark deposit intent failed", zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
