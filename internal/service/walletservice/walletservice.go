package walletservice

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/metrics"
	"github.com/kittyvault/kittyvault/internal/pg"
	"github.com/kittyvault/kittyvault/internal/service/riskservice"
	"github.com/kittyvault/kittyvault/pkg/auth"
	"github.com/kittyvault/kittyvault/pkg/walletid"
)

type WalletRepo interface {
	Create(ctx context.Context, userID int, walletID string) (*domain.WalletAccount, error)
	GetByUserID(ctx context.Context, userID int) (*domain.WalletAccount, error)
	GetByWalletID(ctx context.Context, walletID string) (*domain.WalletAccount, error)
	SetPinHash(ctx context.Context, userID int, pinHash string) error
	RegisterPinFailure(ctx context.Context, userID int, maxAttempts int, lockUntil time.Time) (int, *time.Time, error)
	ResetPinFailures(ctx context.Context, userID int) error
	ApplyDebit(ctx context.Context, walletID string, amountCents int64, windowStart time.Time) (int64, error)
	ApplyCredit(ctx context.Context, walletID string, amountCents int64) (int64, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, t *domain.Transaction) error
	CreatePair(ctx context.Context, out, in *domain.Transaction) error
	FindByIdempotencyKey(ctx context.Context, fromWalletID, key string) (*domain.Transaction, error)
	FindCredit(ctx context.Context, txType, key string) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]domain.Transaction, error)
}

type DepositRepo interface {
	Create(ctx context.Context, intent *domain.DepositIntent) error
	GetByID(ctx context.Context, id string) (*domain.DepositIntent, error)
	MarkConfirmed(ctx context.Context, id string) (bool, error)
}

type AuditRepo interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
}

type RiskScorer interface {
	Score(ctx context.Context, from *domain.WalletAccount, toWalletID string, amountCents int64) (*riskservice.Assessment, error)
}

var (
	ErrWalletExists          = errors.New("wallet already exists")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrRecipientNotFound     = errors.New("recipient wallet not found")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidWalletID       = errors.New("malformed wallet id")
	ErrSelfTransfer          = errors.New("cannot transfer to own wallet")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrWeakPin               = errors.New("pin must be 4-6 digits and not a trivial sequence")
	ErrPinNotSet             = errors.New("wallet pin is not set")
	ErrInvalidPin            = errors.New("invalid pin")
	ErrWalletLocked          = errors.New("wallet is locked")
	ErrPerTxLimitExceeded    = errors.New("per-transaction limit exceeded")
	ErrDailyLimitExceeded    = errors.New("daily transfer limit exceeded")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrRetryable             = errors.New("transfer conflicted, retry")
	ErrDepositNotFound       = errors.New("deposit intent not found")
)

const (
	maxPinAttempts     = 5
	pinLockDuration    = 30 * time.Minute
	maxExecuteAttempts = 3
	maxIDAttempts      = 3

	StatusCompleted    = "completed"
	StatusNeedsRiskAck = "needs_risk_ack"

	entityWallet = "wallet"
)

// TransferRequest is one attempt to move money between two wallets.
type TransferRequest struct {
	FromUserID       int
	ToWalletID       string
	AmountCents      int64
	Pin              string
	IdempotencyKey   string
	Description      string
	RiskAcknowledged bool
}

// TransferOutcome is a tagged result: either a completed transfer or a
// risk step-up asking the caller to re-submit with acknowledgement.
// Hard failures are returned as errors instead.
type TransferOutcome struct {
	Status          string
	TransactionID   string
	NewBalanceCents int64
	RiskScore       int
	RiskFlags       []string
}

type Service struct {
	walletRepo    WalletRepo
	txRepo        TransactionRepo
	depositRepo   DepositRepo
	auditRepo     AuditRepo
	risk          RiskScorer
	hashService   auth.HashServiceInterface
	txManager     pg.TXManager
	riskThreshold int
}

func New(walletRepo WalletRepo, txRepo TransactionRepo, depositRepo DepositRepo, auditRepo AuditRepo,
	risk RiskScorer, hashService auth.HashServiceInterface, txManager pg.TXManager, riskThreshold int) *Service {
	return &Service{
		walletRepo:    walletRepo,
		txRepo:        txRepo,
		depositRepo:   depositRepo,
		auditRepo:     auditRepo,
		risk:          risk,
		hashService:   hashService,
		txManager:     txManager,
		riskThreshold: riskThreshold,
	}
}

// Setup creates the user's wallet and issues its id. A generated id
// colliding with an existing one is retried a few times.
func (s *Service) Setup(ctx context.Context, userID int) (*domain.WalletAccount, error) {
	existing, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrWalletExists
	}

	var wallet *domain.WalletAccount
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		wallet, err = s.walletRepo.Create(ctx, userID, walletid.New())
		if err == nil {
			break
		}
		if !errors.Is(err, pg.ErrDuplicateKey) {
			zap.L().Error("failed to create wallet", zap.Error(err))
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	s.audit(ctx, wallet.WalletID, userID, "wallet_created", nil, map[string]any{"wallet_id": wallet.WalletID})
	zap.L().Info("wallet created", zap.Int("userID", userID), zap.String("walletID", wallet.WalletID))
	return wallet, nil
}

func (s *Service) SetPin(ctx context.Context, userID int, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}

	hash, err := s.hashService.HashPin(pin)
	if err != nil {
		zap.L().Error("failed to hash pin", zap.Error(err))
		return err
	}
	if err := s.walletRepo.SetPinHash(ctx, userID, hash); err != nil {
		return err
	}

	s.audit(ctx, wallet.WalletID, userID, "pin_set", nil, map[string]any{"pin_set": true})
	return nil
}

// Transfer runs the full state machine for one peer-to-peer transfer:
// idempotency replay, lock check, PIN verification, limit checks, risk
// scoring with step-up, then atomic execution.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*TransferOutcome, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !walletid.IsValid(req.ToWalletID) {
		return nil, ErrInvalidWalletID
	}
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	from, err := s.walletRepo.GetByUserID(ctx, req.FromUserID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, ErrWalletNotFound
	}
	if from.WalletID == req.ToWalletID {
		return nil, ErrSelfTransfer
	}

	// exactly-once under client retry: a recorded transaction with
	// this key is returned as-is, nothing re-executes
	if prior, err := s.txRepo.FindByIdempotencyKey(ctx, from.WalletID, req.IdempotencyKey); err != nil {
		return nil, err
	} else if prior != nil {
		return replayOutcome(prior, from.BalanceCents), nil
	}

	if from.LockedUntil != nil && from.LockedUntil.After(time.Now()) {
		metrics.TransfersRejected.WithLabelValues("wallet_locked").Inc()
		return nil, ErrWalletLocked
	}

	if err := s.verifyPin(ctx, from, req.Pin); err != nil {
		return nil, err
	}

	if req.AmountCents > from.PerTxLimitCents {
		metrics.TransfersRejected.WithLabelValues("per_tx_limit").Inc()
		return nil, ErrPerTxLimitExceeded
	}
	windowStart := dailyWindowStart(time.Now())
	if spentInWindow(from, windowStart)+req.AmountCents > from.DailyLimitCents {
		metrics.TransfersRejected.WithLabelValues("daily_limit").Inc()
		return nil, ErrDailyLimitExceeded
	}
	if req.AmountCents > from.BalanceCents {
		metrics.TransfersRejected.WithLabelValues("insufficient_balance").Inc()
		return nil, ErrInsufficientBalance
	}

	recipient, err := s.walletRepo.GetByWalletID(ctx, req.ToWalletID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}

	assessment, err := s.risk.Score(ctx, from, req.ToWalletID, req.AmountCents)
	if err != nil {
		return nil, err
	}
	if assessment.Score >= s.riskThreshold && !req.RiskAcknowledged {
		metrics.TransfersStepUp.Inc()
		zap.L().Info("transfer requires risk acknowledgement",
			zap.String("walletID", from.WalletID), zap.Int("score", assessment.Score))
		return &TransferOutcome{
			Status:    StatusNeedsRiskAck,
			RiskScore: assessment.Score,
			RiskFlags: assessment.Flags,
		}, nil
	}

	return s.execute(ctx, from, req, windowStart, assessment)
}

// execute applies the balance mutations and records both transaction
// rows in one storage transaction. A lost conditional debit is
// re-classified against a fresh read and retried a bounded number of
// times; a duplicate idempotency key means a concurrent retry won the
// race and its result is replayed.
func (s *Service) execute(ctx context.Context, from *domain.WalletAccount, req TransferRequest, windowStart time.Time, assessment *riskservice.Assessment) (*TransferOutcome, error) {
	transferID := uuid.New().String()
	out := &domain.Transaction{
		ID:             uuid.New().String(),
		TransferID:     transferID,
		Type:           domain.TransactionTransferOut,
		AmountCents:    req.AmountCents,
		FromWalletID:   &from.WalletID,
		ToWalletID:     &req.ToWalletID,
		IdempotencyKey: req.IdempotencyKey,
		Status:         StatusCompleted,
		RiskScore:      assessment.Score,
		RiskFlags:      assessment.Flags,
		Description:    req.Description,
	}
	in := &domain.Transaction{
		ID:             uuid.New().String(),
		TransferID:     transferID,
		Type:           domain.TransactionTransferIn,
		AmountCents:    req.AmountCents,
		FromWalletID:   &from.WalletID,
		ToWalletID:     &req.ToWalletID,
		IdempotencyKey: req.IdempotencyKey,
		Status:         StatusCompleted,
		RiskScore:      assessment.Score,
		RiskFlags:      assessment.Flags,
		Description:    req.Description,
	}

	var newBalance int64
	var err error
	for attempt := 0; attempt < maxExecuteAttempts; attempt++ {
		err = s.txManager.Begin(ctx, func(ctx context.Context) error {
			balance, debitErr := s.walletRepo.ApplyDebit(ctx, from.WalletID, req.AmountCents, windowStart)
			if debitErr != nil {
				return debitErr
			}
			recipientBalance, creditErr := s.walletRepo.ApplyCredit(ctx, req.ToWalletID, req.AmountCents)
			if creditErr != nil {
				// the credit has no balance guard, so a failed
				// condition means the recipient row is gone
				if errors.Is(creditErr, pg.ErrConditionFailed) {
					return ErrRecipientNotFound
				}
				return creditErr
			}
			out.BalanceAfterCents = &balance
			in.BalanceAfterCents = &recipientBalance
			if pairErr := s.txRepo.CreatePair(ctx, out, in); pairErr != nil {
				return pairErr
			}
			newBalance = balance
			return s.auditRepo.Append(ctx, s.transferAudit(from, req, transferID, newBalance))
		})
		if err == nil {
			metrics.TransfersCompleted.Inc()
			return &TransferOutcome{
				Status:          StatusCompleted,
				TransactionID:   out.ID,
				NewBalanceCents: newBalance,
				RiskScore:       assessment.Score,
				RiskFlags:       assessment.Flags,
			}, nil
		}

		if errors.Is(err, pg.ErrDuplicateKey) {
			prior, findErr := s.txRepo.FindByIdempotencyKey(ctx, from.WalletID, req.IdempotencyKey)
			if findErr != nil {
				return nil, findErr
			}
			if prior == nil {
				return nil, ErrRetryable
			}
			if prior.BalanceAfterCents != nil {
				return replayOutcome(prior, *prior.BalanceAfterCents), nil
			}
			current, findErr := s.walletRepo.GetByUserID(ctx, req.FromUserID)
			if findErr != nil {
				return nil, findErr
			}
			return replayOutcome(prior, current.BalanceCents), nil
		}

		if errors.Is(err, ErrRecipientNotFound) {
			return nil, err
		}

		if errors.Is(err, pg.ErrConditionFailed) {
			current, findErr := s.walletRepo.GetByUserID(ctx, req.FromUserID)
			if findErr != nil {
				return nil, findErr
			}
			if current == nil {
				return nil, ErrWalletNotFound
			}
			if req.AmountCents > current.BalanceCents {
				metrics.TransfersRejected.WithLabelValues("insufficient_balance").Inc()
				return nil, ErrInsufficientBalance
			}
			if spentInWindow(current, windowStart)+req.AmountCents > current.DailyLimitCents {
				metrics.TransfersRejected.WithLabelValues("daily_limit").Inc()
				return nil, ErrDailyLimitExceeded
			}
			continue
		}

		zap.L().Error("transfer execution failed", zap.Error(err))
		return nil, err
	}

	return nil, ErrRetryable
}

// replayOutcome reconstructs the response of an already-executed
// transfer. The recorded post-transfer balance wins over the fallback
// so a retried request sees the numbers of the original execution.
func replayOutcome(prior *domain.Transaction, fallbackBalance int64) *TransferOutcome {
	balance := fallbackBalance
	if prior.BalanceAfterCents != nil {
		balance = *prior.BalanceAfterCents
	}
	return &TransferOutcome{
		Status:          StatusCompleted,
		TransactionID:   prior.ID,
		NewBalanceCents: balance,
		RiskScore:       prior.RiskScore,
		RiskFlags:       prior.RiskFlags,
	}
}

func (s *Service) verifyPin(ctx context.Context, from *domain.WalletAccount, pin string) error {
	if from.PinHash == "" {
		return ErrPinNotSet
	}
	if s.hashService.ComparePin(from.PinHash, pin) {
		if from.FailedPinAttempts > 0 {
			if err := s.walletRepo.ResetPinFailures(ctx, from.UserID); err != nil {
				return err
			}
		}
		return nil
	}

	attempts, _, err := s.walletRepo.RegisterPinFailure(ctx, from.UserID, maxPinAttempts, time.Now().Add(pinLockDuration))
	if err != nil {
		return err
	}
	if attempts >= maxPinAttempts {
		metrics.TransfersRejected.WithLabelValues("wallet_locked").Inc()
		s.audit(ctx, from.WalletID, from.UserID, "wallet_locked", nil, map[string]any{"failed_attempts": attempts})
		zap.L().Info("wallet locked after repeated pin failures",
			zap.String("walletID", from.WalletID), zap.Int("attempts", attempts))
		return ErrWalletLocked
	}
	metrics.TransfersRejected.WithLabelValues("invalid_pin").Inc()
	return ErrInvalidPin
}

// Deposit records a pending external-payment intent. The balance is
// credited only once the processor confirms it.
func (s *Service) Deposit(ctx context.Context, userID int, amountCents int64) (*domain.DepositIntent, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	intent := &domain.DepositIntent{
		ID:          uuid.New().String(),
		UserID:      userID,
		WalletID:    wallet.WalletID,
		AmountCents: amountCents,
		Status:      domain.DepositIntentPending,
	}
	if err := s.depositRepo.Create(ctx, intent); err != nil {
		return nil, err
	}

	s.audit(ctx, wallet.WalletID, userID, "deposit_intent_created", nil,
		map[string]any{"intent_id": intent.ID, "amount_cents": amountCents})
	return intent, nil
}

// ConfirmDeposit credits the wallet for a confirmed external payment.
// Idempotent: the conditional pending-to-confirmed flip decides which
// caller executes; everyone else gets the recorded transaction.
func (s *Service) ConfirmDeposit(ctx context.Context, intentID string) (*domain.Transaction, error) {
	intent, err := s.depositRepo.GetByID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrDepositNotFound
	}

	key := "deposit:" + intentID
	if intent.Status != domain.DepositIntentPending {
		return s.txRepo.FindCredit(ctx, domain.TransactionDeposit, key)
	}

	transaction := &domain.Transaction{
		ID:             uuid.New().String(),
		TransferID:     uuid.New().String(),
		Type:           domain.TransactionDeposit,
		AmountCents:    intent.AmountCents,
		ToWalletID:     &intent.WalletID,
		IdempotencyKey: key,
		Status:         StatusCompleted,
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		confirmed, err := s.depositRepo.MarkConfirmed(ctx, intentID)
		if err != nil {
			return err
		}
		if !confirmed {
			return pg.ErrConditionFailed
		}
		newBalance, err := s.walletRepo.ApplyCredit(ctx, intent.WalletID, intent.AmountCents)
		if err != nil {
			return err
		}
		transaction.BalanceAfterCents = &newBalance
		if err := s.txRepo.Create(ctx, transaction); err != nil {
			return err
		}
		return s.auditRepo.Append(ctx, s.creditAudit(intent.WalletID, intent.UserID, "deposit_confirmed", transaction, newBalance))
	})
	if err != nil {
		if errors.Is(err, pg.ErrConditionFailed) || errors.Is(err, pg.ErrDuplicateKey) {
			// a concurrent confirmation won; replay its record
			return s.txRepo.FindCredit(ctx, domain.TransactionDeposit, key)
		}
		zap.L().Error("failed to confirm deposit", zap.Error(err))
		return nil, err
	}

	metrics.DepositsConfirmed.Inc()
	zap.L().Info("deposit confirmed", zap.String("intentID", intentID), zap.Int64("amount", intent.AmountCents))
	return transaction, nil
}

// SettlementCredit credits a player's wallet for a paid ledger entry.
// No PIN or risk step applies to inbound credit.
func (s *Service) SettlementCredit(ctx context.Context, toUserID int, amountCents int64, ledgerID int) (*domain.Transaction, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	key := "ledger:" + strconv.Itoa(ledgerID)
	if existing, err := s.txRepo.FindCredit(ctx, domain.TransactionSettlementCredit, key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, toUserID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	transaction := &domain.Transaction{
		ID:             uuid.New().String(),
		TransferID:     uuid.New().String(),
		Type:           domain.TransactionSettlementCredit,
		AmountCents:    amountCents,
		ToWalletID:     &wallet.WalletID,
		IdempotencyKey: key,
		Status:         StatusCompleted,
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		newBalance, err := s.walletRepo.ApplyCredit(ctx, wallet.WalletID, amountCents)
		if err != nil {
			return err
		}
		transaction.BalanceAfterCents = &newBalance
		if err := s.txRepo.Create(ctx, transaction); err != nil {
			return err
		}
		return s.auditRepo.Append(ctx, s.creditAudit(wallet.WalletID, toUserID, "settlement_credited", transaction, newBalance))
	})
	if err != nil {
		if errors.Is(err, pg.ErrDuplicateKey) {
			return s.txRepo.FindCredit(ctx, domain.TransactionSettlementCredit, key)
		}
		zap.L().Error("failed to credit settlement", zap.Error(err))
		return nil, err
	}
	return transaction, nil
}

func (s *Service) Transactions(ctx context.Context, userID, page, limit int) ([]domain.Transaction, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return s.txRepo.ListByWallet(ctx, wallet.WalletID, limit, (page-1)*limit)
}

func (s *Service) transferAudit(from *domain.WalletAccount, req TransferRequest, transferID string, newBalance int64) *domain.AuditLogEntry {
	before, _ := json.Marshal(map[string]any{"balance_cents": from.BalanceCents})
	after, _ := json.Marshal(map[string]any{
		"balance_cents": newBalance,
		"transfer_id":   transferID,
		"to_wallet_id":  req.ToWalletID,
		"amount_cents":  req.AmountCents,
	})
	return &domain.AuditLogEntry{
		ID:          uuid.New().String(),
		EntityType:  entityWallet,
		EntityID:    from.WalletID,
		Action:      "transfer_executed",
		ActorUserID: from.UserID,
		Before:      before,
		After:       after,
	}
}

func (s *Service) creditAudit(walletID string, userID int, action string, t *domain.Transaction, newBalance int64) *domain.AuditLogEntry {
	after, _ := json.Marshal(map[string]any{
		"balance_cents":  newBalance,
		"transaction_id": t.ID,
		"amount_cents":   t.AmountCents,
	})
	return &domain.AuditLogEntry{
		ID:          uuid.New().String(),
		EntityType:  entityWallet,
		EntityID:    walletID,
		Action:      action,
		ActorUserID: userID,
		After:       after,
	}
}

// audit is best effort for records outside the transactional paths.
func (s *Service) audit(ctx context.Context, walletID string, userID int, action string, before, after map[string]any) {
	var beforeJSON, afterJSON []byte
	if before != nil {
		beforeJSON, _ = json.Marshal(before)
	}
	if after != nil {
		afterJSON, _ = json.Marshal(after)
	}
	err := s.auditRepo.Append(ctx, &domain.AuditLogEntry{
		ID:          uuid.New().String(),
		EntityType:  entityWallet,
		EntityID:    walletID,
		Action:      action,
		ActorUserID: userID,
		Before:      beforeJSON,
		After:       afterJSON,
	})
	if err != nil {
		zap.L().Error("failed to append audit record", zap.Error(err))
	}
}

// dailyWindowStart is the UTC midnight that opens the current daily
// limit window. Calendar-day reset, not rolling 24h.
func dailyWindowStart(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func spentInWindow(w *domain.WalletAccount, windowStart time.Time) int64 {
	if w.DailyWindowStart.Equal(windowStart) {
		return w.DailySpentCents
	}
	return 0
}

func validatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 6 {
		return ErrWeakPin
	}
	same, asc, desc := true, true, true
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrWeakPin
		}
		if i == 0 {
			continue
		}
		if pin[i] != pin[0] {
			same = false
		}
		if pin[i] != pin[i-1]+1 {
			asc = false
		}
		if pin[i] != pin[i-1]-1 {
			desc = false
		}
	}
	if same || asc || desc {
		return ErrWeakPin
	}
	return nil
}
