package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/dto"
	"github.com/kittyvault/kittyvault/internal/service/walletservice"
	"github.com/kittyvault/kittyvault/pkg/auth"
)

func NewMock(t *testing.T) (*WalletHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	defer ctrl.Finish()
	return handler, service
}

func authedRequest(method, target string, body []byte) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	return r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, 1))
}

func TestSetupHandler(t *testing.T) {
	tests := []struct {
		name         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Wallet created",
			prepareMock: func(service *MockService) {
				service.EXPECT().Setup(gomock.Any(), 1).
					Return(&domain.WalletAccount{WalletID: "KVT-394759", BalanceCents: 0}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Wallet already exists",
			prepareMock: func(service *MockService) {
				service.EXPECT().Setup(gomock.Any(), 1).Return(nil, walletservice.ErrWalletExists)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Internal error",
			prepareMock: func(service *MockService) {
				service.EXPECT().Setup(gomock.Any(), 1).Return(nil, errors.New("db error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			w := httptest.NewRecorder()
			handler.Setup(w, authedRequest(http.MethodPost, "/api/wallet/setup", nil))
			assert.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedCode == http.StatusOK {
				var body dto.SetupWalletResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, "KVT-394759", body.WalletID)
			}
		})
	}
}

func TestSetPinHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Pin stored",
			body: `{"pin":"4827"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().SetPin(gomock.Any(), 1, "4827").Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid body",
			body:         `{"pin":4827}`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Weak pin",
			body: `{"pin":"1234"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().SetPin(gomock.Any(), 1, "1234").Return(walletservice.ErrWeakPin)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Wallet not found",
			body: `{"pin":"4827"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().SetPin(gomock.Any(), 1, "4827").Return(walletservice.ErrWalletNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			w := httptest.NewRecorder()
			handler.SetPin(w, authedRequest(http.MethodPost, "/api/wallet/pin/set", []byte(tt.body)))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestTransferHandler(t *testing.T) {
	body := `{"to_wallet_id":"KVT-394759","amount_cents":2500,"pin":"4827","idempotency_key":"key-1"}`

	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Transfer executed",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), walletservice.TransferRequest{
					FromUserID:     1,
					ToWalletID:     "KVT-394759",
					AmountCents:    2500,
					Pin:            "4827",
					IdempotencyKey: "key-1",
				}).Return(&walletservice.TransferOutcome{
					Status:          walletservice.StatusCompleted,
					TransactionID:   "tx-1",
					NewBalanceCents: 97500,
				}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid body",
			body:         `{"amount_cents":"nope"}`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Risk step-up",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Return(&walletservice.TransferOutcome{
						Status:    walletservice.StatusNeedsRiskAck,
						RiskScore: 75,
						RiskFlags: []string{"unusual_amount"},
					}, nil)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Invalid pin",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Return(nil, walletservice.ErrInvalidPin)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name: "Wallet locked",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Return(nil, walletservice.ErrWalletLocked)
			},
			expectedCode: http.StatusLocked,
		},
		{
			name: "Insufficient balance",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Return(nil, walletservice.ErrInsufficientBalance)
			},
			expectedCode: http.StatusPaymentRequired,
		},
		{
			name: "Daily limit exceeded",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Return(nil, walletservice.ErrDailyLimitExceeded)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Recipient not found",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Return(nil, walletservice.ErrRecipientNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Transient conflict",
			body: body,
			prepareMock: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).
					Return(nil, walletservice.ErrRetryable)
			},
			expectedCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			w := httptest.NewRecorder()
			handler.Transfer(w, authedRequest(http.MethodPost, "/api/wallet/transfer", []byte(tt.body)))
			assert.Equal(t, tt.expectedCode, w.Code)

			switch tt.expectedCode {
			case http.StatusOK:
				var body dto.TransferResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, "tx-1", body.TransactionID)
				assert.Equal(t, int64(97500), body.NewBalanceCents)
			case http.StatusConflict:
				var body dto.HighRiskTransferResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Equal(t, "high_risk_transfer", body.Error)
				assert.Equal(t, 75, body.RiskScore)
			}
		})
	}
}

func TestDepositHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Intent accepted",
			body: `{"amount_cents":10000}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), 1, int64(10000)).
					Return(&domain.DepositIntent{
						ID:          "intent-1",
						Status:      domain.DepositIntentPending,
						AmountCents: 10000,
					}, nil)
			},
			expectedCode: http.StatusAccepted,
		},
		{
			name: "Non-positive amount",
			body: `{"amount_cents":0}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), 1, int64(0)).
					Return(nil, walletservice.ErrInvalidAmount)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Wallet not found",
			body: `{"amount_cents":10000}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), 1, int64(10000)).
					Return(nil, walletservice.ErrWalletNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			w := httptest.NewRecorder()
			handler.Deposit(w, authedRequest(http.MethodPost, "/api/wallet/deposit", []byte(tt.body)))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestConfirmDepositHandler(t *testing.T) {
	to := "KVT-000000"

	tests := []struct {
		name         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Deposit confirmed",
			prepareMock: func(service *MockService) {
				service.EXPECT().ConfirmDeposit(gomock.Any(), "intent-1").
					Return(&domain.Transaction{
						ID:          "tx-1",
						Type:        domain.TransactionDeposit,
						AmountCents: 10000,
						ToWalletID:  &to,
						CreatedAt:   time.Now(),
					}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Intent not found",
			prepareMock: func(service *MockService) {
				service.EXPECT().ConfirmDeposit(gomock.Any(), "intent-1").
					Return(nil, walletservice.ErrDepositNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Recorded transaction missing",
			prepareMock: func(service *MockService) {
				service.EXPECT().ConfirmDeposit(gomock.Any(), "intent-1").Return(nil, nil)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := httptest.NewRequest(http.MethodPost, "/api/wallet/deposit/intent-1/confirm", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("intentID", "intent-1")
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ConfirmDeposit(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestGetTransactionsHandler(t *testing.T) {
	from := "KVT-000000"
	to := "KVT-394759"

	tests := []struct {
		name         string
		prepareMock  func(service *MockService)
		expectedCode int
		expectedLen  int
	}{
		{
			name: "History returned",
			prepareMock: func(service *MockService) {
				service.EXPECT().Transactions(gomock.Any(), 1, 2, 10).
					Return([]domain.Transaction{
						{ID: "tx-1", Type: domain.TransactionTransferOut, AmountCents: 2500,
							FromWalletID: &from, ToWalletID: &to, CreatedAt: time.Now()},
					}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  1,
		},
		{
			name: "Empty history",
			prepareMock: func(service *MockService) {
				service.EXPECT().Transactions(gomock.Any(), 1, 2, 10).Return(nil, nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name: "Wallet not found",
			prepareMock: func(service *MockService) {
				service.EXPECT().Transactions(gomock.Any(), 1, 2, 10).
					Return(nil, walletservice.ErrWalletNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			w := httptest.NewRecorder()
			handler.GetTransactions(w, authedRequest(http.MethodGet, "/api/wallet/transactions?page=2&limit=10", nil))
			assert.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedCode == http.StatusOK {
				var body []dto.TransactionResponseDTO
				_ = json.NewDecoder(w.Body).Decode(&body)
				assert.Len(t, body, tt.expectedLen)
				assert.Equal(t, "KVT-000000", body[0].FromWalletID)
			}
		})
	}
}
