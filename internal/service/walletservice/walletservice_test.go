package walletservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/pg"
	"github.com/kittyvault/kittyvault/internal/service/riskservice"
	"github.com/kittyvault/kittyvault/pkg/auth"
)

const (
	testPin         = "4827"
	testRecipientID = "KVT-394759"
)

type mocks struct {
	walletRepo  *MockWalletRepo
	txRepo      *MockTransactionRepo
	depositRepo *MockDepositRepo
	auditRepo   *MockAuditRepo
	risk        *MockRiskScorer
	txManager   *pg.MockTXManager
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		walletRepo:  NewMockWalletRepo(ctrl),
		txRepo:      NewMockTransactionRepo(ctrl),
		depositRepo: NewMockDepositRepo(ctrl),
		auditRepo:   NewMockAuditRepo(ctrl),
		risk:        NewMockRiskScorer(ctrl),
		txManager:   pg.NewMockTXManager(ctrl),
	}
	service := New(m.walletRepo, m.txRepo, m.depositRepo, m.auditRepo, m.risk,
		&auth.HashService{}, m.txManager, 70)
	defer ctrl.Finish()
	return service, m
}

func (m *mocks) passthroughTx() {
	m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
}

func pinHash(t *testing.T) string {
	t.Helper()
	hash, err := (&auth.HashService{}).HashPin(testPin)
	assert.NoError(t, err)
	return hash
}

func senderWallet(t *testing.T) *domain.WalletAccount {
	return &domain.WalletAccount{
		ID:               1,
		UserID:           1,
		WalletID:         "KVT-000000",
		BalanceCents:     100000,
		PinHash:          pinHash(t),
		PerTxLimitCents:  50000,
		DailyLimitCents:  200000,
		DailySpentCents:  0,
		DailyWindowStart: dailyWindowStart(time.Now()),
	}
}

func transferRequest() TransferRequest {
	return TransferRequest{
		FromUserID:     1,
		ToWalletID:     testRecipientID,
		AmountCents:    2500,
		Pin:            testPin,
		IdempotencyKey: "key-1",
	}
}

func lowRisk() *riskservice.Assessment {
	return &riskservice.Assessment{Score: 10, Flags: []string{}}
}

func TestSetup(t *testing.T) {
	created := &domain.WalletAccount{ID: 1, UserID: 1, WalletID: "KVT-394759"}

	tests := []struct {
		name          string
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name: "Successful setup",
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
				m.walletRepo.EXPECT().Create(gomock.Any(), 1, gomock.Any()).Return(created, nil)
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "Wallet already exists",
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(created, nil)
			},
			expectedError: ErrWalletExists,
		},
		{
			name: "Id collision is retried",
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
				m.walletRepo.EXPECT().Create(gomock.Any(), 1, gomock.Any()).Return(nil, pg.ErrDuplicateKey)
				m.walletRepo.EXPECT().Create(gomock.Any(), 1, gomock.Any()).Return(created, nil)
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "Repository error",
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			wallet, err := service.Setup(context.Background(), 1)
			if tt.expectedError != nil {
				assert.ErrorContains(t, err, tt.expectedError.Error())
				assert.Nil(t, wallet)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, created, wallet)
			}
		})
	}
}

func TestSetPin(t *testing.T) {
	wallet := &domain.WalletAccount{ID: 1, UserID: 1, WalletID: "KVT-000000"}

	tests := []struct {
		name          string
		pin           string
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name: "Valid pin",
			pin:  "4827",
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(wallet, nil)
				m.walletRepo.EXPECT().SetPinHash(gomock.Any(), 1, gomock.Any()).Return(nil)
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{name: "Too short", pin: "123", prepareMock: func(m *mocks) {}, expectedError: ErrWeakPin},
		{name: "Too long", pin: "1234567", prepareMock: func(m *mocks) {}, expectedError: ErrWeakPin},
		{name: "Non-digit", pin: "12a4", prepareMock: func(m *mocks) {}, expectedError: ErrWeakPin},
		{name: "All same digit", pin: "1111", prepareMock: func(m *mocks) {}, expectedError: ErrWeakPin},
		{name: "Ascending sequence", pin: "1234", prepareMock: func(m *mocks) {}, expectedError: ErrWeakPin},
		{name: "Descending sequence", pin: "4321", prepareMock: func(m *mocks) {}, expectedError: ErrWeakPin},
		{
			name: "Wallet not found",
			pin:  "4827",
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
			},
			expectedError: ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			err := service.SetPin(context.Background(), 1, tt.pin)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransfer_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(req *TransferRequest)
		prepareMock   func(m *mocks, t *testing.T)
		expectedError error
	}{
		{
			name:          "Non-positive amount",
			mutate:        func(req *TransferRequest) { req.AmountCents = 0 },
			prepareMock:   func(m *mocks, t *testing.T) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Malformed wallet id",
			mutate:        func(req *TransferRequest) { req.ToWalletID = "KVT-123456" },
			prepareMock:   func(m *mocks, t *testing.T) {},
			expectedError: ErrInvalidWalletID,
		},
		{
			name:          "Wallet id without prefix",
			mutate:        func(req *TransferRequest) { req.ToWalletID = "394759" },
			prepareMock:   func(m *mocks, t *testing.T) {},
			expectedError: ErrInvalidWalletID,
		},
		{
			name:          "Missing idempotency key",
			mutate:        func(req *TransferRequest) { req.IdempotencyKey = "" },
			prepareMock:   func(m *mocks, t *testing.T) {},
			expectedError: ErrMissingIdempotencyKey,
		},
		{
			name:   "Transfer to own wallet",
			mutate: func(req *TransferRequest) {},
			prepareMock: func(m *mocks, t *testing.T) {
				own := senderWallet(t)
				own.WalletID = testRecipientID
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(own, nil)
			},
			expectedError: ErrSelfTransfer,
		},
		{
			name:   "Sender wallet missing",
			mutate: func(req *TransferRequest) {},
			prepareMock: func(m *mocks, t *testing.T) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
			},
			expectedError: ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m, t)

			req := transferRequest()
			tt.mutate(&req)

			outcome, err := service.Transfer(context.Background(), req)
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, outcome)
		})
	}
}

func TestTransfer_IdempotentReplay(t *testing.T) {
	t.Run("Recorded balance is replayed verbatim", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)
		recorded := int64(96000)
		prior := &domain.Transaction{
			ID:                "tx-1",
			RiskScore:         15,
			RiskFlags:         []string{riskservice.FlagNewRecipient},
			BalanceAfterCents: &recorded,
		}

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(prior, nil)

		outcome, err := service.Transfer(context.Background(), transferRequest())
		assert.NoError(t, err)
		assert.Equal(t, &TransferOutcome{
			Status:          StatusCompleted,
			TransactionID:   "tx-1",
			NewBalanceCents: recorded,
			RiskScore:       15,
			RiskFlags:       []string{riskservice.FlagNewRecipient},
		}, outcome)
	})

	t.Run("Row without recorded balance falls back to current", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)
		prior := &domain.Transaction{
			ID:        "tx-1",
			RiskScore: 15,
			RiskFlags: []string{riskservice.FlagNewRecipient},
		}

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(prior, nil)

		outcome, err := service.Transfer(context.Background(), transferRequest())
		assert.NoError(t, err)
		assert.Equal(t, from.BalanceCents, outcome.NewBalanceCents)
		assert.Equal(t, "tx-1", outcome.TransactionID)
	})
}

func TestTransfer_WalletLocked(t *testing.T) {
	service, m := NewMock(t)
	from := senderWallet(t)
	lockedUntil := time.Now().Add(10 * time.Minute)
	from.LockedUntil = &lockedUntil

	m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
	m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)

	_, err := service.Transfer(context.Background(), transferRequest())
	assert.ErrorIs(t, err, ErrWalletLocked)
}

func TestTransfer_ExpiredLockIsIgnored(t *testing.T) {
	service, m := NewMock(t)
	from := senderWallet(t)
	lockedUntil := time.Now().Add(-time.Minute)
	from.LockedUntil = &lockedUntil

	m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
	m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
	m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
		Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
	m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
	m.passthroughTx()
	m.walletRepo.EXPECT().ApplyDebit(gomock.Any(), from.WalletID, int64(2500), gomock.Any()).Return(int64(97500), nil)
	m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), testRecipientID, int64(2500)).Return(int64(2500), nil)
	m.txRepo.EXPECT().CreatePair(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	outcome, err := service.Transfer(context.Background(), transferRequest())
	assert.NoError(t, err)
	assert.Equal(t, StatusCompleted, outcome.Status)
}

func TestTransfer_PinFailures(t *testing.T) {
	tests := []struct {
		name          string
		pin           string
		prepareMock   func(m *mocks, from *domain.WalletAccount)
		expectedError error
	}{
		{
			name: "Wrong pin below the lockout threshold",
			pin:  "9999",
			prepareMock: func(m *mocks, from *domain.WalletAccount) {
				m.walletRepo.EXPECT().RegisterPinFailure(gomock.Any(), 1, maxPinAttempts, gomock.Any()).
					Return(3, nil, nil)
			},
			expectedError: ErrInvalidPin,
		},
		{
			name: "Fifth wrong pin locks the wallet",
			pin:  "9999",
			prepareMock: func(m *mocks, from *domain.WalletAccount) {
				lockedUntil := time.Now().Add(pinLockDuration)
				m.walletRepo.EXPECT().RegisterPinFailure(gomock.Any(), 1, maxPinAttempts, gomock.Any()).
					Return(maxPinAttempts, &lockedUntil, nil)
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedError: ErrWalletLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			from := senderWallet(t)
			m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
			m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
			tt.prepareMock(m, from)

			req := transferRequest()
			req.Pin = tt.pin

			_, err := service.Transfer(context.Background(), req)
			assert.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestTransfer_CorrectPinResetsFailureCount(t *testing.T) {
	service, m := NewMock(t)
	from := senderWallet(t)
	from.FailedPinAttempts = 3

	m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
	m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
	m.walletRepo.EXPECT().ResetPinFailures(gomock.Any(), 1).Return(nil)
	m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
		Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
	m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
	m.passthroughTx()
	m.walletRepo.EXPECT().ApplyDebit(gomock.Any(), from.WalletID, int64(2500), gomock.Any()).Return(int64(97500), nil)
	m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), testRecipientID, int64(2500)).Return(int64(2500), nil)
	m.txRepo.EXPECT().CreatePair(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	outcome, err := service.Transfer(context.Background(), transferRequest())
	assert.NoError(t, err)
	assert.Equal(t, int64(97500), outcome.NewBalanceCents)
}

func TestTransfer_Limits(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(from *domain.WalletAccount, req *TransferRequest)
		expectedError error
	}{
		{
			name: "Per-transaction limit",
			mutate: func(from *domain.WalletAccount, req *TransferRequest) {
				req.AmountCents = from.PerTxLimitCents + 1
			},
			expectedError: ErrPerTxLimitExceeded,
		},
		{
			name: "Daily limit counting prior spend",
			mutate: func(from *domain.WalletAccount, req *TransferRequest) {
				from.DailySpentCents = from.DailyLimitCents - 1000
				req.AmountCents = 1001
			},
			expectedError: ErrDailyLimitExceeded,
		},
		{
			name: "Insufficient balance",
			mutate: func(from *domain.WalletAccount, req *TransferRequest) {
				from.BalanceCents = 2000
				req.AmountCents = 2500
			},
			expectedError: ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			from := senderWallet(t)
			req := transferRequest()
			tt.mutate(from, &req)

			m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
			m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)

			_, err := service.Transfer(context.Background(), req)
			assert.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestTransfer_StaleWindowSpendDoesNotCount(t *testing.T) {
	service, m := NewMock(t)
	from := senderWallet(t)
	from.DailySpentCents = from.DailyLimitCents
	from.DailyWindowStart = dailyWindowStart(time.Now()).Add(-24 * time.Hour)

	m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
	m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
	m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
		Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
	m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
	m.passthroughTx()
	m.walletRepo.EXPECT().ApplyDebit(gomock.Any(), from.WalletID, int64(2500), gomock.Any()).Return(int64(97500), nil)
	m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), testRecipientID, int64(2500)).Return(int64(2500), nil)
	m.txRepo.EXPECT().CreatePair(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	_, err := service.Transfer(context.Background(), transferRequest())
	assert.NoError(t, err)
}

func TestTransfer_RecipientNotFound(t *testing.T) {
	service, m := NewMock(t)
	from := senderWallet(t)

	m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
	m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
	m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).Return(nil, nil)

	_, err := service.Transfer(context.Background(), transferRequest())
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestTransfer_RiskStepUp(t *testing.T) {
	highRisk := &riskservice.Assessment{
		Score: 75,
		Flags: []string{riskservice.FlagUnusualAmount, riskservice.FlagNewRecipient},
	}

	t.Run("High score without acknowledgement returns step-up", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
		m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
			Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
		m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(highRisk, nil)

		outcome, err := service.Transfer(context.Background(), transferRequest())
		assert.NoError(t, err)
		assert.Equal(t, &TransferOutcome{
			Status:    StatusNeedsRiskAck,
			RiskScore: 75,
			RiskFlags: highRisk.Flags,
		}, outcome)
	})

	t.Run("Acknowledged high-risk transfer executes", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
		m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
			Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
		m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(highRisk, nil)
		m.passthroughTx()
		m.walletRepo.EXPECT().ApplyDebit(gomock.Any(), from.WalletID, int64(2500), gomock.Any()).Return(int64(97500), nil)
		m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), testRecipientID, int64(2500)).Return(int64(2500), nil)
		m.txRepo.EXPECT().CreatePair(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

		req := transferRequest()
		req.RiskAcknowledged = true

		outcome, err := service.Transfer(context.Background(), req)
		assert.NoError(t, err)
		assert.Equal(t, StatusCompleted, outcome.Status)
		assert.Equal(t, 75, outcome.RiskScore)
	})
}

func TestTransfer_DuplicateKeyReplaysWinner(t *testing.T) {
	t.Run("Winner with recorded balance needs no re-read", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)
		recorded := int64(97500)
		winner := &domain.Transaction{ID: "tx-winner", RiskScore: 10, BalanceAfterCents: &recorded}

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
		m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
			Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
		m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
		m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(pg.ErrDuplicateKey)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(winner, nil)

		outcome, err := service.Transfer(context.Background(), transferRequest())
		assert.NoError(t, err)
		assert.Equal(t, "tx-winner", outcome.TransactionID)
		assert.Equal(t, int64(97500), outcome.NewBalanceCents)
	})

	t.Run("Winner without recorded balance reads fresh", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)
		winner := &domain.Transaction{ID: "tx-winner", RiskScore: 10}

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
		m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
			Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
		m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
		m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(pg.ErrDuplicateKey)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(winner, nil)
		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).
			Return(&domain.WalletAccount{ID: 1, UserID: 1, WalletID: from.WalletID, BalanceCents: 97500}, nil)

		outcome, err := service.Transfer(context.Background(), transferRequest())
		assert.NoError(t, err)
		assert.Equal(t, "tx-winner", outcome.TransactionID)
		assert.Equal(t, int64(97500), outcome.NewBalanceCents)
	})
}

func TestTransfer_ConditionFailedReclassified(t *testing.T) {
	t.Run("Fresh read shows balance gone", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
		m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
			Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
		m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
		m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(pg.ErrConditionFailed)
		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).
			Return(&domain.WalletAccount{ID: 1, UserID: 1, WalletID: from.WalletID, BalanceCents: 100,
				PerTxLimitCents: 50000, DailyLimitCents: 200000}, nil)

		_, err := service.Transfer(context.Background(), transferRequest())
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("Persistent conflict exhausts retries", func(t *testing.T) {
		service, m := NewMock(t)
		from := senderWallet(t)

		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
		m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
		m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
			Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
		m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
		m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(pg.ErrConditionFailed).Times(maxExecuteAttempts)
		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(senderWallet(t), nil).Times(maxExecuteAttempts)

		_, err := service.Transfer(context.Background(), transferRequest())
		assert.ErrorIs(t, err, ErrRetryable)
	})
}

func TestTransfer_RecordsPostTransferBalances(t *testing.T) {
	service, m := NewMock(t)
	from := senderWallet(t)

	m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
	m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
	m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
		Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
	m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
	m.passthroughTx()
	m.walletRepo.EXPECT().ApplyDebit(gomock.Any(), from.WalletID, int64(2500), gomock.Any()).Return(int64(97500), nil)
	m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), testRecipientID, int64(2500)).Return(int64(2500), nil)
	m.txRepo.EXPECT().CreatePair(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, out, in *domain.Transaction) error {
			if assert.NotNil(t, out.BalanceAfterCents) {
				assert.Equal(t, int64(97500), *out.BalanceAfterCents)
			}
			if assert.NotNil(t, in.BalanceAfterCents) {
				assert.Equal(t, int64(2500), *in.BalanceAfterCents)
			}
			return nil
		})
	m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	outcome, err := service.Transfer(context.Background(), transferRequest())
	assert.NoError(t, err)
	assert.Equal(t, int64(97500), outcome.NewBalanceCents)
}

func TestTransfer_VanishedRecipientNotRetried(t *testing.T) {
	service, m := NewMock(t)
	from := senderWallet(t)

	m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(from, nil)
	m.txRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), from.WalletID, "key-1").Return(nil, nil)
	m.walletRepo.EXPECT().GetByWalletID(gomock.Any(), testRecipientID).
		Return(&domain.WalletAccount{ID: 2, UserID: 2, WalletID: testRecipientID}, nil)
	m.risk.EXPECT().Score(gomock.Any(), from, testRecipientID, int64(2500)).Return(lowRisk(), nil)
	m.passthroughTx()
	m.walletRepo.EXPECT().ApplyDebit(gomock.Any(), from.WalletID, int64(2500), gomock.Any()).
		Return(int64(97500), nil).Times(1)
	m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), testRecipientID, int64(2500)).
		Return(int64(0), pg.ErrConditionFailed).Times(1)

	_, err := service.Transfer(context.Background(), transferRequest())
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestDeposit(t *testing.T) {
	wallet := &domain.WalletAccount{ID: 1, UserID: 1, WalletID: "KVT-000000"}

	tests := []struct {
		name          string
		amountCents   int64
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name:        "Successful intent creation",
			amountCents: 10000,
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(wallet, nil)
				m.depositRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:          "Non-positive amount",
			amountCents:   0,
			prepareMock:   func(m *mocks) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:        "Wallet not found",
			amountCents: 10000,
			prepareMock: func(m *mocks) {
				m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
			},
			expectedError: ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			intent, err := service.Deposit(context.Background(), 1, tt.amountCents)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, domain.DepositIntentPending, intent.Status)
				assert.Equal(t, tt.amountCents, intent.AmountCents)
			}
		})
	}
}

func TestConfirmDeposit(t *testing.T) {
	intent := &domain.DepositIntent{
		ID:          "intent-1",
		UserID:      1,
		WalletID:    "KVT-000000",
		AmountCents: 10000,
		Status:      domain.DepositIntentPending,
	}
	recorded := &domain.Transaction{ID: "tx-1", Type: domain.TransactionDeposit, AmountCents: 10000}

	t.Run("Successful confirmation", func(t *testing.T) {
		service, m := NewMock(t)
		m.passthroughTx()
		m.depositRepo.EXPECT().GetByID(gomock.Any(), "intent-1").Return(intent, nil)
		m.depositRepo.EXPECT().MarkConfirmed(gomock.Any(), "intent-1").Return(true, nil)
		m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), "KVT-000000", int64(10000)).Return(int64(10000), nil)
		m.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

		transaction, err := service.ConfirmDeposit(context.Background(), "intent-1")
		assert.NoError(t, err)
		assert.Equal(t, domain.TransactionDeposit, transaction.Type)
		assert.Equal(t, int64(10000), transaction.AmountCents)
	})

	t.Run("Intent not found", func(t *testing.T) {
		service, m := NewMock(t)
		m.depositRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, nil)

		_, err := service.ConfirmDeposit(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrDepositNotFound)
	})

	t.Run("Already confirmed replays recorded transaction", func(t *testing.T) {
		service, m := NewMock(t)
		confirmed := *intent
		confirmed.Status = domain.DepositIntentConfirmed
		m.depositRepo.EXPECT().GetByID(gomock.Any(), "intent-1").Return(&confirmed, nil)
		m.txRepo.EXPECT().FindCredit(gomock.Any(), domain.TransactionDeposit, "deposit:intent-1").Return(recorded, nil)

		transaction, err := service.ConfirmDeposit(context.Background(), "intent-1")
		assert.NoError(t, err)
		assert.Equal(t, recorded, transaction)
	})

	t.Run("Lost race replays the winner", func(t *testing.T) {
		service, m := NewMock(t)
		m.depositRepo.EXPECT().GetByID(gomock.Any(), "intent-1").Return(intent, nil)
		m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(pg.ErrConditionFailed)
		m.txRepo.EXPECT().FindCredit(gomock.Any(), domain.TransactionDeposit, "deposit:intent-1").Return(recorded, nil)

		transaction, err := service.ConfirmDeposit(context.Background(), "intent-1")
		assert.NoError(t, err)
		assert.Equal(t, recorded, transaction)
	})
}

func TestSettlementCredit(t *testing.T) {
	wallet := &domain.WalletAccount{ID: 1, UserID: 1, WalletID: "KVT-000000"}
	recorded := &domain.Transaction{ID: "tx-1", Type: domain.TransactionSettlementCredit}

	t.Run("Successful credit", func(t *testing.T) {
		service, m := NewMock(t)
		m.passthroughTx()
		m.txRepo.EXPECT().FindCredit(gomock.Any(), domain.TransactionSettlementCredit, "ledger:7").Return(nil, nil)
		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(wallet, nil)
		m.walletRepo.EXPECT().ApplyCredit(gomock.Any(), "KVT-000000", int64(8000)).Return(int64(8000), nil)
		m.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

		transaction, err := service.SettlementCredit(context.Background(), 1, 8000, 7)
		assert.NoError(t, err)
		assert.Equal(t, "ledger:7", transaction.IdempotencyKey)
	})

	t.Run("Existing credit is replayed", func(t *testing.T) {
		service, m := NewMock(t)
		m.txRepo.EXPECT().FindCredit(gomock.Any(), domain.TransactionSettlementCredit, "ledger:7").Return(recorded, nil)

		transaction, err := service.SettlementCredit(context.Background(), 1, 8000, 7)
		assert.NoError(t, err)
		assert.Equal(t, recorded, transaction)
	})
}

func TestTransactions(t *testing.T) {
	wallet := &domain.WalletAccount{ID: 1, UserID: 1, WalletID: "KVT-000000"}
	history := []domain.Transaction{{ID: "tx-1"}, {ID: "tx-2"}}

	tests := []struct {
		name        string
		page        int
		limit       int
		wantLimit   int
		wantOffset  int
		expectError error
	}{
		{name: "Defaults applied", page: 0, limit: 0, wantLimit: 20, wantOffset: 0},
		{name: "Explicit paging", page: 3, limit: 10, wantLimit: 10, wantOffset: 20},
		{name: "Oversized limit reset", page: 1, limit: 1000, wantLimit: 20, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(wallet, nil)
			m.txRepo.EXPECT().ListByWallet(gomock.Any(), "KVT-000000", tt.wantLimit, tt.wantOffset).Return(history, nil)

			got, err := service.Transactions(context.Background(), 1, tt.page, tt.limit)
			assert.NoError(t, err)
			assert.Equal(t, history, got)
		})
	}

	t.Run("Wallet not found", func(t *testing.T) {
		service, m := NewMock(t)
		m.walletRepo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)

		_, err := service.Transactions(context.Background(), 1, 1, 10)
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})
}
