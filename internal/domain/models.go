package domain

import "time"

const (
	LedgerStatusUnpaid = "unpaid"
	LedgerStatusPaid   = "paid"
)

const (
	TransactionTransferOut      = "transfer_out"
	TransactionTransferIn       = "transfer_in"
	TransactionDeposit          = "deposit"
	TransactionSettlementCredit = "settlement_credit"
)

const (
	DepositIntentPending   = "pending"
	DepositIntentConfirmed = "confirmed"
	DepositIntentFailed    = "failed"
)

// PlayerResult is a player's signed net outcome of one game, in cents.
// Positive means the player won money, negative means they lost it.
type PlayerResult struct {
	UserID   int   `db:"user_id"`
	NetCents int64 `db:"net_cents"`
}

// SettlementInstruction is one payment that helps reconcile a game.
type SettlementInstruction struct {
	FromUserID  int   `db:"from_user_id"`
	ToUserID    int   `db:"to_user_id"`
	AmountCents int64 `db:"amount_cents"`
}

// LedgerEntry is a persisted payment obligation. Once Status leaves
// "unpaid" the row is never mutated again; further changes become
// audit records referencing it.
type LedgerEntry struct {
	ID          int        `db:"id"`
	GameID      int        `db:"game_id"`
	FromUserID  int        `db:"from_user_id"`
	ToUserID    int        `db:"to_user_id"`
	AmountCents int64      `db:"amount_cents"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	PaidAt      *time.Time `db:"paid_at"`
}

// WalletAccount holds a user's internal balance and the counters that
// gate transfers. Mutated only through the wallet service, one atomic
// UPDATE per change.
type WalletAccount struct {
	ID                int        `db:"id"`
	UserID            int        `db:"user_id"`
	WalletID          string     `db:"wallet_id"`
	BalanceCents      int64      `db:"balance_cents"`
	PinHash           string     `db:"pin_hash"`
	FailedPinAttempts int        `db:"failed_pin_attempts"`
	LockedUntil       *time.Time `db:"locked_until"`
	PerTxLimitCents   int64      `db:"per_tx_limit_cents"`
	DailyLimitCents   int64      `db:"daily_limit_cents"`
	DailySpentCents   int64      `db:"daily_spent_cents"`
	DailyWindowStart  time.Time  `db:"daily_window_start"`
	Version           int64      `db:"version"`
	CreatedAt         time.Time  `db:"created_at"`
}

// Transaction is an immutable money-movement record. A peer-to-peer
// transfer produces two rows (transfer_out and transfer_in) sharing
// one TransferID.
type Transaction struct {
	ID             string   `db:"id"`
	TransferID     string   `db:"transfer_id"`
	Type           string   `db:"type"`
	AmountCents    int64    `db:"amount_cents"`
	FromWalletID   *string  `db:"from_wallet_id"`
	ToWalletID     *string  `db:"to_wallet_id"`
	IdempotencyKey string   `db:"idempotency_key"`
	Status         string   `db:"status"`
	RiskScore      int      `db:"risk_score"`
	RiskFlags      []string `db:"risk_flags"`
	Description    string   `db:"description"`
	// balance of the owning side after this row was applied; replayed
	// to retried clients so the original response is reproduced
	BalanceAfterCents *int64    `db:"balance_after_cents"`
	CreatedAt         time.Time `db:"created_at"`
}

// DepositIntent is a pending external-processor payment that becomes a
// deposit Transaction once the processor confirms it.
type DepositIntent struct {
	ID          string     `db:"id"`
	UserID      int        `db:"user_id"`
	WalletID    string     `db:"wallet_id"`
	AmountCents int64      `db:"amount_cents"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ConfirmedAt *time.Time `db:"confirmed_at"`
}

// AuditLogEntry is an append-only record of a ledger or wallet state
// change.
type AuditLogEntry struct {
	ID          string    `db:"id"`
	EntityType  string    `db:"entity_type"`
	EntityID    string    `db:"entity_id"`
	Action      string    `db:"action"`
	ActorUserID int       `db:"actor_user_id"`
	Before      []byte    `db:"before_state"`
	After       []byte    `db:"after_state"`
	CreatedAt   time.Time `db:"created_at"`
}
