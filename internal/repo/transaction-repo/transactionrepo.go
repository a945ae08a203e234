package transactionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/pg"
)

const uniqueViolation = "23505"

const txColumns = `id, transfer_id, type, amount_cents, from_wallet_id, to_wallet_id,
               idempotency_key, status, risk_score, risk_flags, description, balance_after_cents, created_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanTransaction(row pgx.Row, t *domain.Transaction) error {
	return row.Scan(&t.ID, &t.TransferID, &t.Type, &t.AmountCents, &t.FromWalletID, &t.ToWalletID,
		&t.IdempotencyKey, &t.Status, &t.RiskScore, &t.RiskFlags, &t.Description, &t.BalanceAfterCents, &t.CreatedAt)
}

func (r *Repository) insert(ctx context.Context, t *domain.Transaction) error {
	query := `
        INSERT INTO transactions (id, transfer_id, type, amount_cents, from_wallet_id, to_wallet_id,
                                  idempotency_key, status, risk_score, risk_flags, description, balance_after_cents)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query, t.ID, t.TransferID, t.Type, t.AmountCents, t.FromWalletID, t.ToWalletID,
		t.IdempotencyKey, t.Status, t.RiskScore, t.RiskFlags, t.Description, t.BalanceAfterCents).Scan(&t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return pg.ErrDuplicateKey
		}
		zap.L().Error("failed to insert transaction", zap.Error(err))
		return err
	}
	return nil
}

// Create records a single credit-side transaction (deposit or
// settlement credit).
func (r *Repository) Create(ctx context.Context, t *domain.Transaction) error {
	return r.insert(ctx, t)
}

// CreatePair records the transfer_out/transfer_in projection of one
// logical transfer. The caller runs it inside the same storage
// transaction as the balance mutations.
func (r *Repository) CreatePair(ctx context.Context, out, in *domain.Transaction) error {
	if err := r.insert(ctx, out); err != nil {
		return err
	}
	return r.insert(ctx, in)
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, fromWalletID, key string) (*domain.Transaction, error) {
	query := `
        SELECT ` + txColumns + `
        FROM transactions
        WHERE from_wallet_id = $1 AND idempotency_key = $2 AND type = $3`
	var t domain.Transaction
	err := scanTransaction(r.db.QueryRow(ctx, query, fromWalletID, key, domain.TransactionTransferOut), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to find transaction by idempotency key", zap.Error(err))
		return nil, err
	}
	return &t, nil
}

// FindCredit looks up a credit-side transaction (deposit or
// settlement credit) by its idempotency key.
func (r *Repository) FindCredit(ctx context.Context, txType, key string) (*domain.Transaction, error) {
	query := `
        SELECT ` + txColumns + `
        FROM transactions
        WHERE type = $1 AND idempotency_key = $2`
	var t domain.Transaction
	err := scanTransaction(r.db.QueryRow(ctx, query, txType, key), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to find credit transaction", zap.Error(err))
		return nil, err
	}
	return &t, nil
}

func (r *Repository) collect(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *Repository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]domain.Transaction, error) {
	query := `
        SELECT ` + txColumns + `
        FROM transactions
        WHERE from_wallet_id = $1 OR to_wallet_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		zap.L().Error("failed to list transactions", zap.Error(err))
		return nil, err
	}
	return r.collect(rows)
}

// RecentByWallet returns the wallet's outgoing transfers since the
// given time, newest first. Used by the risk engine as account history.
func (r *Repository) RecentByWallet(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error) {
	query := `
        SELECT ` + txColumns + `
        FROM transactions
        WHERE from_wallet_id = $1 AND type = $2 AND created_at >= $3
        ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, walletID, domain.TransactionTransferOut, since)
	if err != nil {
		zap.L().Error("failed to fetch recent transactions", zap.Error(err))
		return nil, err
	}
	return r.collect(rows)
}

func (r *Repository) CountBetween(ctx context.Context, fromWalletID, toWalletID string) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM transactions
        WHERE from_wallet_id = $1 AND to_wallet_id = $2 AND type = $3`
	var count int
	if err := r.db.QueryRow(ctx, query, fromWalletID, toWalletID, domain.TransactionTransferOut).Scan(&count); err != nil {
		zap.L().Error("failed to count transfers between wallets", zap.Error(err))
		return 0, err
	}
	return count, nil
}
