package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/dto"
	"github.com/kittyvault/kittyvault/internal/service/walletservice"
	"github.com/kittyvault/kittyvault/pkg/auth"
	"github.com/kittyvault/kittyvault/pkg/utils"
)

type Service interface {
	Setup(ctx context.Context, userID int) (*domain.WalletAccount, error)
	SetPin(ctx context.Context, userID int, pin string) error
	Transfer(ctx context.Context, req walletservice.TransferRequest) (*walletservice.TransferOutcome, error)
	Deposit(ctx context.Context, userID int, amountCents int64) (*domain.DepositIntent, error)
	ConfirmDeposit(ctx context.Context, intentID string) (*domain.Transaction, error)
	Transactions(ctx context.Context, userID, page, limit int) ([]domain.Transaction, error)
}

type WalletHandler struct {
	walletService Service
}

func New(walletService Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// Setup godoc
//
//	@Summary		Create a wallet
//	@Description	Create the authenticated user's wallet and issue its id.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.SetupWalletResponseDTO	"Created wallet"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		409	{object}	utils.Response				"Wallet already exists"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/wallet/setup [post]
func (h *WalletHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	wallet, err := h.walletService.Setup(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, walletservice.ErrWalletExists):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.SetupWalletResponseDTO{
		WalletID:     wallet.WalletID,
		BalanceCents: wallet.BalanceCents,
	})
}

// SetPin godoc
//
//	@Summary		Set the wallet PIN
//	@Description	Hash and store the wallet PIN. Weak or malformed PINs are rejected.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SetPinRequestDTO	true	"PIN payload"
//	@Success		200		{object}	utils.Response			"PIN stored"
//	@Failure		400		{object}	utils.Response			"Invalid request body"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		404		{object}	utils.Response			"Wallet not found"
//	@Failure		422		{object}	utils.Response			"Weak PIN"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/wallet/pin/set [post]
func (h *WalletHandler) SetPin(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.SetPinRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.walletService.SetPin(r.Context(), userID, req.Pin)
	if err != nil {
		switch {
		case errors.Is(err, walletservice.ErrWeakPin):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, walletservice.ErrWalletNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "pin set"})
}

// Transfer godoc
//
//	@Summary		Transfer money to another wallet
//	@Description	Run a PIN-authenticated, limit-bounded, risk-screened transfer. A high risk score returns a step-up response instead of executing.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.TransferRequestDTO				true	"Transfer payload"
//	@Success		200		{object}	dto.TransferResponseDTO				"Transfer executed"
//	@Failure		400		{object}	utils.Response						"Invalid request"
//	@Failure		401		{object}	utils.Response						"Invalid PIN or not authorized"
//	@Failure		402		{object}	utils.Response						"Insufficient balance"
//	@Failure		404		{object}	utils.Response						"Recipient not found"
//	@Failure		409		{object}	dto.HighRiskTransferResponseDTO		"Risk acknowledgement required"
//	@Failure		422		{object}	utils.Response						"Limit exceeded or malformed wallet id"
//	@Failure		423		{object}	utils.Response						"Wallet locked"
//	@Failure		503		{object}	utils.Response						"Transient conflict, retry"
//	@Router			/api/wallet/transfer [post]
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.TransferRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.walletService.Transfer(r.Context(), walletservice.TransferRequest{
		FromUserID:       userID,
		ToWalletID:       req.ToWalletID,
		AmountCents:      req.AmountCents,
		Pin:              req.Pin,
		IdempotencyKey:   req.IdempotencyKey,
		Description:      req.Description,
		RiskAcknowledged: req.RiskAcknowledged,
	})
	if err != nil {
		h.respondTransferError(w, err)
		return
	}

	if outcome.Status == walletservice.StatusNeedsRiskAck {
		utils.RespondWithJSON(w, http.StatusConflict, dto.HighRiskTransferResponseDTO{
			Error:     "high_risk_transfer",
			RiskScore: outcome.RiskScore,
			RiskFlags: outcome.RiskFlags,
		})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dto.TransferResponseDTO{
		TransactionID:   outcome.TransactionID,
		NewBalanceCents: outcome.NewBalanceCents,
	})
}

func (h *WalletHandler) respondTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, walletservice.ErrInvalidAmount),
		errors.Is(err, walletservice.ErrMissingIdempotencyKey),
		errors.Is(err, walletservice.ErrSelfTransfer):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, walletservice.ErrInvalidWalletID),
		errors.Is(err, walletservice.ErrPerTxLimitExceeded),
		errors.Is(err, walletservice.ErrDailyLimitExceeded):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, walletservice.ErrInvalidPin),
		errors.Is(err, walletservice.ErrPinNotSet):
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, walletservice.ErrWalletLocked):
		utils.RespondWithError(w, http.StatusLocked, err.Error())
	case errors.Is(err, walletservice.ErrInsufficientBalance):
		utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, walletservice.ErrWalletNotFound),
		errors.Is(err, walletservice.ErrRecipientNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, walletservice.ErrRetryable):
		utils.RespondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Deposit godoc
//
//	@Summary		Start a deposit
//	@Description	Record a pending external-payment intent. The balance is credited once the processor confirms.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.DepositRequestDTO	true	"Deposit payload"
//	@Success		202		{object}	dto.DepositResponseDTO	"Pending intent"
//	@Failure		400		{object}	utils.Response			"Invalid request"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		404		{object}	utils.Response			"Wallet not found"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/wallet/deposit [post]
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.DepositRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := h.walletService.Deposit(r.Context(), userID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, walletservice.ErrInvalidAmount):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, walletservice.ErrWalletNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, dto.DepositResponseDTO{
		IntentID:    intent.ID,
		Status:      intent.Status,
		AmountCents: intent.AmountCents,
	})
}

// ConfirmDeposit godoc
//
//	@Summary		Confirm a deposit (processor callback)
//	@Description	Credit the wallet for a confirmed external payment. Idempotent.
//	@Tags			Wallet
//	@Accept			json
//	@Produce		json
//	@Param			intentID	path		string						true	"Deposit intent id"
//	@Success		200			{object}	dto.TransactionResponseDTO	"Recorded deposit"
//	@Failure		404			{object}	utils.Response				"Intent not found"
//	@Failure		500			{object}	utils.Response				"Internal server error"
//	@Router			/api/wallet/deposit/{intentID}/confirm [post]
func (h *WalletHandler) ConfirmDeposit(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "intentID")

	transaction, err := h.walletService.ConfirmDeposit(r.Context(), intentID)
	if err != nil {
		switch {
		case errors.Is(err, walletservice.ErrDepositNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	if transaction == nil {
		utils.RespondWithError(w, http.StatusNotFound, "deposit transaction not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toTransactionDTO(*transaction))
}

// GetTransactions godoc
//
//	@Summary		Get transaction history
//	@Description	Paginated transaction history for the authenticated user's wallet, newest first.
//	@Tags			Wallet
//	@Security		BearerAuth
//	@Produce		json
//	@Param			page	query		int							false	"Page number"
//	@Param			limit	query		int							false	"Page size"
//	@Success		200		{array}		dto.TransactionResponseDTO	"Transactions"
//	@Success		204		{object}	utils.Response				"No transactions"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		404		{object}	utils.Response				"Wallet not found"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/wallet/transactions [get]
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transactions, err := h.walletService.Transactions(r.Context(), userID, page, limit)
	if err != nil {
		switch {
		case errors.Is(err, walletservice.ErrWalletNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		}
		return
	}

	if len(transactions) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Transactions not found")
		return
	}

	response := make([]dto.TransactionResponseDTO, len(transactions))
	for i, t := range transactions {
		response[i] = toTransactionDTO(t)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func toTransactionDTO(t domain.Transaction) dto.TransactionResponseDTO {
	out := dto.TransactionResponseDTO{
		TransactionID: t.ID,
		Type:          t.Type,
		AmountCents:   t.AmountCents,
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
	}
	if t.FromWalletID != nil {
		out.FromWalletID = *t.FromWalletID
	}
	if t.ToWalletID != nil {
		out.ToWalletID = *t.ToWalletID
	}
	return out
}
