package dto

import "time"

type PlayerResultDTO struct {
	UserID   int   `json:"user_id" example:"1"`
	NetCents int64 `json:"net_cents" example:"15000"`
}

type SettleGameRequestDTO struct {
	ChipsDistributed int64             `json:"chips_distributed" example:"5000"`
	ChipsReturned    int64             `json:"chips_returned" example:"5000"`
	Players          []PlayerResultDTO `json:"players"`
}

type LedgerEntryResponseDTO struct {
	LedgerID    int        `json:"ledger_id"`
	GameID      int        `json:"game_id"`
	FromUserID  int        `json:"from_user_id"`
	ToUserID    int        `json:"to_user_id"`
	AmountCents int64      `json:"amount_cents" example:"8000"`
	Status      string     `json:"status" example:"unpaid"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}
