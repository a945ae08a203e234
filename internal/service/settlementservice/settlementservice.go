package settlementservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/metrics"
	"github.com/kittyvault/kittyvault/internal/pg"
	"github.com/kittyvault/kittyvault/internal/service/walletservice"
)

type LedgerRepo interface {
	ExistsForGame(ctx context.Context, gameID int) (bool, error)
	CreateEntries(ctx context.Context, entries []domain.LedgerEntry) ([]domain.LedgerEntry, error)
	MarkPaid(ctx context.Context, ledgerID int) (*domain.LedgerEntry, error)
	GetByID(ctx context.Context, ledgerID int) (*domain.LedgerEntry, error)
	GetByGameID(ctx context.Context, gameID int) ([]domain.LedgerEntry, error)
}

type AuditRepo interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
}

// WalletCreditor credits a payee's wallet once their ledger entry is
// confirmed paid. Implemented by the wallet service.
type WalletCreditor interface {
	SettlementCredit(ctx context.Context, toUserID int, amountCents int64, ledgerID int) (*domain.Transaction, error)
}

var (
	ErrChipMismatch       = errors.New("chip count mismatch, all players must cash out")
	ErrGameAlreadySettled = errors.New("settlement already exists for this game")
	ErrLedgerNotFound     = errors.New("ledger entry not found")
	ErrAlreadyPaid        = errors.New("ledger entry already paid")
)

const (
	entityLedger = "ledger_entry"
	entityGame   = "game"
)

type Service struct {
	ledgerRepo LedgerRepo
	auditRepo  AuditRepo
	wallet     WalletCreditor
	txManager  pg.TXManager
}

func New(ledgerRepo LedgerRepo, auditRepo AuditRepo, wallet WalletCreditor, txManager pg.TXManager) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		auditRepo:  auditRepo,
		wallet:     wallet,
		txManager:  txManager,
	}
}

// SettleGame validates chip integrity, runs the calculator and
// persists the resulting instructions as unpaid ledger entries.
// A game with existing entries is rejected, never silently re-settled.
func (s *Service) SettleGame(ctx context.Context, gameID, actorUserID int, players []domain.PlayerResult, chipsDistributed, chipsReturned int64) ([]domain.LedgerEntry, error) {
	integrity := CheckChipIntegrity(chipsDistributed, chipsReturned, 0)
	if !integrity.Valid {
		s.auditRejection(ctx, gameID, actorUserID, "settlement_rejected_chip_mismatch", map[string]any{
			"chips_distributed": chipsDistributed,
			"chips_returned":    chipsReturned,
			"discrepancy":       integrity.Discrepancy,
		})
		zap.L().Info("settlement rejected, chip mismatch",
			zap.Int("gameID", gameID), zap.Int64("discrepancy", integrity.Discrepancy))
		return nil, ErrChipMismatch
	}

	exists, err := s.ledgerRepo.ExistsForGame(ctx, gameID)
	if err != nil {
		zap.L().Error("failed to check existing settlement", zap.Error(err))
		return nil, err
	}
	if exists {
		s.auditRejection(ctx, gameID, actorUserID, "settlement_rejected_duplicate", nil)
		return nil, ErrGameAlreadySettled
	}

	instructions := Calculate(players)
	entries := make([]domain.LedgerEntry, 0, len(instructions))
	for _, instr := range instructions {
		entries = append(entries, domain.LedgerEntry{
			GameID:      gameID,
			FromUserID:  instr.FromUserID,
			ToUserID:    instr.ToUserID,
			AmountCents: instr.AmountCents,
		})
	}

	var created []domain.LedgerEntry
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		created, err = s.ledgerRepo.CreateEntries(ctx, entries)
		if err != nil {
			return err
		}
		for i := range created {
			after, _ := json.Marshal(created[i])
			auditErr := s.auditRepo.Append(ctx, &domain.AuditLogEntry{
				ID:          uuid.New().String(),
				EntityType:  entityLedger,
				EntityID:    strconv.Itoa(created[i].ID),
				Action:      "ledger_created",
				ActorUserID: actorUserID,
				After:       after,
			})
			if auditErr != nil {
				return auditErr
			}
		}
		return nil
	})
	if err != nil {
		zap.L().Error("failed to persist settlement", zap.Error(err))
		return nil, fmt.Errorf("persist settlement for game %d: %w", gameID, err)
	}

	metrics.SettlementsCreated.Inc()
	zap.L().Info("game settled", zap.Int("gameID", gameID), zap.Int("entries", len(created)))
	return created, nil
}

// MarkPaid transitions one ledger entry from unpaid to paid. The
// update is conditional, so a concurrent second confirmation reports
// ErrAlreadyPaid instead of succeeding twice.
func (s *Service) MarkPaid(ctx context.Context, ledgerID, actorUserID int) (*domain.LedgerEntry, error) {
	var paid *domain.LedgerEntry
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		entry, err := s.ledgerRepo.MarkPaid(ctx, ledgerID)
		if err != nil {
			return err
		}
		if entry == nil {
			existing, err := s.ledgerRepo.GetByID(ctx, ledgerID)
			if err != nil {
				return err
			}
			if existing == nil {
				return ErrLedgerNotFound
			}
			s.auditRejection(ctx, ledgerID, actorUserID, "mark_paid_rejected_already_paid", nil)
			return ErrAlreadyPaid
		}

		before := *entry
		before.Status = domain.LedgerStatusUnpaid
		before.PaidAt = nil
		beforeJSON, _ := json.Marshal(before)
		afterJSON, _ := json.Marshal(entry)
		if err := s.auditRepo.Append(ctx, &domain.AuditLogEntry{
			ID:          uuid.New().String(),
			EntityType:  entityLedger,
			EntityID:    strconv.Itoa(entry.ID),
			Action:      "ledger_marked_paid",
			ActorUserID: actorUserID,
			Before:      beforeJSON,
			After:       afterJSON,
		}); err != nil {
			return err
		}
		paid = entry
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrLedgerNotFound) && !errors.Is(err, ErrAlreadyPaid) {
			zap.L().Error("failed to mark ledger entry paid", zap.Error(err))
		}
		return nil, err
	}

	// credit the payee's wallet; the credit is idempotent per ledger
	// id. Payees without a wallet settle outside the system.
	if _, err := s.wallet.SettlementCredit(ctx, paid.ToUserID, paid.AmountCents, paid.ID); err != nil {
		if errors.Is(err, walletservice.ErrWalletNotFound) {
			zap.L().Info("payee has no wallet, settlement credit skipped",
				zap.Int("ledgerID", paid.ID), zap.Int("toUserID", paid.ToUserID))
			return paid, nil
		}
		zap.L().Error("failed to credit settlement to payee", zap.Error(err))
		return nil, err
	}
	return paid, nil
}

func (s *Service) GetSettlement(ctx context.Context, gameID int) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.GetByGameID(ctx, gameID)
	if err != nil {
		zap.L().Error("failed to get settlement", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

// auditRejection records an integrity failure. Best effort: a failed
// audit write must not mask the original rejection.
func (s *Service) auditRejection(ctx context.Context, entityID, actorUserID int, action string, detail map[string]any) {
	var after []byte
	if detail != nil {
		after, _ = json.Marshal(detail)
	}
	entityType := entityGame
	if action == "mark_paid_rejected_already_paid" {
		entityType = entityLedger
	}
	err := s.auditRepo.Append(ctx, &domain.AuditLogEntry{
		ID:          uuid.New().String(),
		EntityType:  entityType,
		EntityID:    strconv.Itoa(entityID),
		Action:      action,
		ActorUserID: actorUserID,
		After:       after,
	})
	if err != nil {
		zap.L().Error("failed to audit rejection", zap.Error(err))
	}
}
