package riskservice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
)

type TransactionRepo interface {
	RecentByWallet(ctx context.Context, walletID string, since time.Time) ([]domain.Transaction, error)
	CountBetween(ctx context.Context, fromWalletID, toWalletID string) (int, error)
}

type VelocityCache interface {
	Bump(ctx context.Context, walletID string, window time.Duration) (int64, error)
}

// Assessment is the advisory output of scoring one prospective
// transfer. A high score asks for acknowledgement, it never blocks.
type Assessment struct {
	Score int
	Flags []string
}

const (
	FlagUnusualAmount     = "unusual_amount"
	FlagNoHistory         = "no_history"
	FlagHighVelocity      = "high_velocity"
	FlagNewRecipient      = "new_recipient"
	FlagBalanceExhausting = "balance_exhausting"
)

const (
	historyWindow  = 30 * 24 * time.Hour
	velocityWindow = 10 * time.Minute

	// more than this many attempts inside velocityWindow is flagged
	velocityLimit = 5

	// a transfer over triple the recent average is unusual
	unusualMultiplier = 3

	// with no history at all, anything over 100.00 is worth a flag
	noHistoryFloorCents = 10000
)

type Service struct {
	txRepo   TransactionRepo
	velocity VelocityCache
}

func New(txRepo TransactionRepo, velocity VelocityCache) *Service {
	return &Service{
		txRepo:   txRepo,
		velocity: velocity,
	}
}

// Score rates a prospective transfer 0..100. Velocity is tracked in
// the cache; when the cache is down that signal is skipped rather than
// failing the transfer.
func (s *Service) Score(ctx context.Context, from *domain.WalletAccount, toWalletID string, amountCents int64) (*Assessment, error) {
	assessment := &Assessment{Flags: make([]string, 0)}

	history, err := s.txRepo.RecentByWallet(ctx, from.WalletID, time.Now().Add(-historyWindow))
	if err != nil {
		zap.L().Error("failed to load transfer history", zap.Error(err))
		return nil, err
	}

	if len(history) == 0 {
		if amountCents >= noHistoryFloorCents {
			assessment.add(20, FlagNoHistory)
		}
	} else {
		var total int64
		for _, t := range history {
			total += t.AmountCents
		}
		avg := total / int64(len(history))
		if avg > 0 && amountCents > avg*unusualMultiplier {
			assessment.add(30, FlagUnusualAmount)
		}
	}

	count, err := s.velocity.Bump(ctx, from.WalletID, velocityWindow)
	if err != nil {
		zap.L().Warn("velocity cache unavailable, skipping signal", zap.Error(err))
	} else if count > velocityLimit {
		assessment.add(25, FlagHighVelocity)
	}

	paidBefore, err := s.txRepo.CountBetween(ctx, from.WalletID, toWalletID)
	if err != nil {
		zap.L().Error("failed to count prior transfers to recipient", zap.Error(err))
		return nil, err
	}
	if paidBefore == 0 {
		assessment.add(20, FlagNewRecipient)
	}

	if from.BalanceCents > 0 && amountCents*5 >= from.BalanceCents*4 {
		assessment.add(25, FlagBalanceExhausting)
	}

	return assessment, nil
}

func (a *Assessment) add(points int, flag string) {
	a.Score += points
	if a.Score > 100 {
		a.Score = 100
	}
	a.Flags = append(a.Flags, flag)
}
