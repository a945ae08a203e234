package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kittyvault/kittyvault/internal/config"
	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/pkg/clients"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
)

var processingIntents sync.Map

// Response is the processor's view of one payment intent.
type Response struct {
	IntentID    string `json:"intent_id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

type DepositRepo interface {
	FindPending(ctx context.Context, limit uint32) ([]domain.DepositIntent, error)
	MarkFailed(ctx context.Context, id string) (bool, error)
}

type WalletService interface {
	ConfirmDeposit(ctx context.Context, intentID string) (*domain.Transaction, error)
}

// Service polls the external payment processor for the fate of pending
// deposit intents. Confirmations converge on the same idempotent
// ConfirmDeposit the webhook uses, so the two paths cannot double-credit.
type Service struct {
	url            string
	depositRepo    DepositRepo
	walletService  WalletService
	client         clients.HTTPClientI
	limit          uint32
	workerPool     WorkerPoolI
	updateInterval time.Duration
}

func New(cfg *config.Config, depositRepo DepositRepo, walletService WalletService, client clients.HTTPClientI) *Service {
	return &Service{
		url:            cfg.ProcessorAddress,
		depositRepo:    depositRepo,
		walletService:  walletService,
		client:         client,
		limit:          1000,
		workerPool:     NewWorkerPool(10),
		updateInterval: time.Second * 5,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Payments service started")
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping service")
			return
		case <-ticker.C:
			s.processIntents(ctx)
		}
	}
}

func (s *Service) processIntents(ctx context.Context) {
	intents, err := s.depositRepo.FindPending(ctx, atomic.LoadUint32(&s.limit))
	if err != nil {
		zap.L().Error("Failed to fetch pending deposit intents", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, intent := range intents {
		intent := intent

		if _, loaded := processingIntents.LoadOrStore(intent.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer processingIntents.Delete(intent.ID)
				return s.handleIntent(ctx, intent)
			})
			if err != nil {
				processingIntents.Delete(intent.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error processing deposit intents", zap.Error(err))
	}
}

func (s *Service) handleIntent(ctx context.Context, intent domain.DepositIntent) error {
	url := s.url + "/api/payments/" + intent.ID
	var err error
	var statusCode int
	var respBody []byte
	var respHeaders http.Header

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			statusCode, respBody, respHeaders, err = s.client.Get(url, nil)
			if err != nil {
				if attempt < maxRetries {
					retryAfter := retryInterval * time.Duration(attempt)
					time.Sleep(retryAfter)
					continue
				}
				return fmt.Errorf("failed to check intent %s after %d retries: %w", intent.ID, maxRetries, err)
			}

			switch statusCode {
			case http.StatusTooManyRequests:
				return s.handleRateLimit(intent, respHeaders, attempt)
			case http.StatusNoContent:
				zap.L().Warn("Intent not known to processor yet, retrying", zap.String("intentID", intent.ID), zap.Int("attempt", attempt))
				if attempt < maxRetries {
					retryAfter := retryInterval * time.Duration(attempt)
					time.Sleep(retryAfter)
					continue
				}
				return fmt.Errorf("intent %s unknown to processor after %d retries", intent.ID, maxRetries)

			case http.StatusOK:
				return s.processStatus(ctx, intent, respBody)

			default:
				zap.L().Error("Unexpected status code", zap.Int("status", statusCode), zap.String("intentID", intent.ID))
				return errors.New("unexpected status code")
			}
		}
	}
	return nil
}

func (s *Service) processStatus(ctx context.Context, intent domain.DepositIntent, respBody []byte) error {
	var response Response
	if err := json.Unmarshal(respBody, &response); err != nil {
		return fmt.Errorf("failed to parse response body: %w", err)
	}

	if response.IntentID != intent.ID {
		return fmt.Errorf("intent id mismatch: expected %s, got %s", intent.ID, response.IntentID)
	}

	switch response.Status {
	case "CONFIRMED":
		if response.AmountCents != intent.AmountCents {
			return fmt.Errorf("amount mismatch for intent %s: expected %d, got %d",
				intent.ID, intent.AmountCents, response.AmountCents)
		}
		if _, err := s.walletService.ConfirmDeposit(ctx, intent.ID); err != nil {
			return fmt.Errorf("failed to confirm deposit %s: %w", intent.ID, err)
		}
		zap.L().Info("Deposit confirmed via processor poll", zap.String("intentID", intent.ID))
	case "PENDING":
		zap.L().Info("Intent still pending at processor", zap.String("intentID", intent.ID))
	case "FAILED":
		if _, err := s.depositRepo.MarkFailed(ctx, intent.ID); err != nil {
			return fmt.Errorf("failed to mark intent failed: %w", err)
		}
		zap.L().Info("Intent failed at processor", zap.String("intentID", intent.ID))
	default:
		zap.L().Warn("Unrecognized status received", zap.String("intentID", intent.ID), zap.String("status", response.Status))
	}

	return nil
}

func (s *Service) handleRateLimit(intent domain.DepositIntent, respHeaders http.Header, attempt int) error {
	retryAfterHeader := respHeaders.Get("Retry-After")
	retryAfter := retryInterval * time.Duration(attempt)

	if retryAfterHeader != "" {
		if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}
	zap.L().Warn(
		"Rate limit detected, retrying",
		zap.String("intentID", intent.ID),
		zap.Int("attempt", attempt),
		zap.Duration("retryAfter", retryAfter),
	)
	time.Sleep(retryAfter)
	return nil
}
