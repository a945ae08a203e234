package dto

import "time"

type SetupWalletResponseDTO struct {
	WalletID     string `json:"wallet_id" example:"KVT-394759"`
	BalanceCents int64  `json:"balance_cents" example:"0"`
}

type SetPinRequestDTO struct {
	Pin string `json:"pin" example:"4827"`
}

type TransferRequestDTO struct {
	ToWalletID       string `json:"to_wallet_id" example:"KVT-394759"`
	AmountCents      int64  `json:"amount_cents" example:"2500"`
	Pin              string `json:"pin" example:"4827"`
	IdempotencyKey   string `json:"idempotency_key" example:"c4a7e0e2-1b2f-4f3a-9d1e-8c6b5a4d3f2e"`
	Description      string `json:"description,omitempty" example:"friday game"`
	RiskAcknowledged bool   `json:"risk_acknowledged,omitempty"`
}

type TransferResponseDTO struct {
	TransactionID   string `json:"transaction_id"`
	NewBalanceCents int64  `json:"new_balance_cents" example:"7500"`
}

type HighRiskTransferResponseDTO struct {
	Error     string   `json:"error" example:"high_risk_transfer"`
	RiskScore int      `json:"risk_score" example:"75"`
	RiskFlags []string `json:"risk_flags" example:"new_recipient,unusual_amount"`
}

type DepositRequestDTO struct {
	AmountCents int64 `json:"amount_cents" example:"10000"`
}

type DepositResponseDTO struct {
	IntentID    string `json:"intent_id"`
	Status      string `json:"status" example:"pending"`
	AmountCents int64  `json:"amount_cents" example:"10000"`
}

type TransactionResponseDTO struct {
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type" example:"transfer_out"`
	AmountCents   int64     `json:"amount_cents" example:"2500"`
	FromWalletID  string    `json:"from_wallet_id,omitempty"`
	ToWalletID    string    `json:"to_wallet_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
