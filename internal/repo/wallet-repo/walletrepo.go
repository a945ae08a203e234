package walletrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/pg"
)

const walletColumns = `id, user_id, wallet_id, balance_cents, pin_hash, failed_pin_attempts,
               locked_until, per_tx_limit_cents, daily_limit_cents, daily_spent_cents,
               daily_window_start, version, created_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanWallet(row pgx.Row, w *domain.WalletAccount) error {
	return row.Scan(&w.ID, &w.UserID, &w.WalletID, &w.BalanceCents, &w.PinHash, &w.FailedPinAttempts,
		&w.LockedUntil, &w.PerTxLimitCents, &w.DailyLimitCents, &w.DailySpentCents,
		&w.DailyWindowStart, &w.Version, &w.CreatedAt)
}

func (r *Repository) Create(ctx context.Context, userID int, walletID string) (*domain.WalletAccount, error) {
	query := `
        INSERT INTO wallet_accounts (user_id, wallet_id)
        VALUES ($1, $2)
        RETURNING ` + walletColumns
	var wallet domain.WalletAccount
	if err := scanWallet(r.db.QueryRow(ctx, query, userID, walletID), &wallet); err != nil {
		zap.L().Error("failed to create wallet account", zap.Error(err))
		return nil, err
	}
	return &wallet, nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID int) (*domain.WalletAccount, error) {
	query := `SELECT ` + walletColumns + ` FROM wallet_accounts WHERE user_id = $1`
	var wallet domain.WalletAccount
	err := scanWallet(r.db.QueryRow(ctx, query, userID), &wallet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get wallet by user id", zap.Error(err))
		return nil, err
	}
	return &wallet, nil
}

func (r *Repository) GetByWalletID(ctx context.Context, walletID string) (*domain.WalletAccount, error) {
	query := `SELECT ` + walletColumns + ` FROM wallet_accounts WHERE wallet_id = $1`
	var wallet domain.WalletAccount
	err := scanWallet(r.db.QueryRow(ctx, query, walletID), &wallet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get wallet by wallet id", zap.Error(err))
		return nil, err
	}
	return &wallet, nil
}

func (r *Repository) SetPinHash(ctx context.Context, userID int, pinHash string) error {
	query := `
        UPDATE wallet_accounts
        SET pin_hash = $2, failed_pin_attempts = 0, locked_until = NULL, version = version + 1
        WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID, pinHash)
	if err != nil {
		zap.L().Error("failed to set pin hash", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RegisterPinFailure bumps the failure counter and, when maxAttempts is
// reached, sets the lock expiry in the same statement so concurrent
// wrong-PIN attempts cannot lose updates.
func (r *Repository) RegisterPinFailure(ctx context.Context, userID int, maxAttempts int, lockUntil time.Time) (int, *time.Time, error) {
	query := `
        UPDATE wallet_accounts
        SET failed_pin_attempts = failed_pin_attempts + 1,
            locked_until = CASE WHEN failed_pin_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
            version = version + 1
        WHERE user_id = $1
        RETURNING failed_pin_attempts, locked_until`
	var attempts int
	var locked *time.Time
	if err := r.db.QueryRow(ctx, query, userID, maxAttempts, lockUntil).Scan(&attempts, &locked); err != nil {
		zap.L().Error("failed to register pin failure", zap.Error(err))
		return 0, nil, err
	}
	return attempts, locked, nil
}

func (r *Repository) ResetPinFailures(ctx context.Context, userID int) error {
	query := `
        UPDATE wallet_accounts
        SET failed_pin_attempts = 0, version = version + 1
        WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		zap.L().Error("failed to reset pin failures", zap.Error(err))
		return err
	}
	return nil
}

// ApplyDebit is the single atomic balance mutation for an outgoing
// transfer: balance, daily counter and window roll over together, and
// the balance/daily-limit guards live in the WHERE clause. A zero-row
// result is ErrConditionFailed.
func (r *Repository) ApplyDebit(ctx context.Context, walletID string, amountCents int64, windowStart time.Time) (int64, error) {
	query := `
        UPDATE wallet_accounts
        SET balance_cents = balance_cents - $2,
            daily_spent_cents = CASE WHEN daily_window_start = $3 THEN daily_spent_cents + $2 ELSE $2 END,
            daily_window_start = $3,
            version = version + 1
        WHERE wallet_id = $1
          AND balance_cents >= $2
          AND (CASE WHEN daily_window_start = $3 THEN daily_spent_cents ELSE 0 END) + $2 <= daily_limit_cents
        RETURNING balance_cents`
	var newBalance int64
	err := r.db.QueryRow(ctx, query, walletID, amountCents, windowStart).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, pg.ErrConditionFailed
		}
		zap.L().Error("failed to apply debit", zap.Error(err))
		return 0, err
	}
	return newBalance, nil
}

func (r *Repository) ApplyCredit(ctx context.Context, walletID string, amountCents int64) (int64, error) {
	query := `
        UPDATE wallet_accounts
        SET balance_cents = balance_cents + $2, version = version + 1
        WHERE wallet_id = $1
        RETURNING balance_cents`
	var newBalance int64
	err := r.db.QueryRow(ctx, query, walletID, amountCents).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, pg.ErrConditionFailed
		}
		zap.L().Error("failed to apply credit", zap.Error(err))
		return 0, err
	}
	return newBalance, nil
}
