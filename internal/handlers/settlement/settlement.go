package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kittyvault/kittyvault/internal/domain"
	"github.com/kittyvault/kittyvault/internal/dto"
	"github.com/kittyvault/kittyvault/internal/service/settlementservice"
	"github.com/kittyvault/kittyvault/pkg/auth"
	"github.com/kittyvault/kittyvault/pkg/utils"
)

type Service interface {
	SettleGame(ctx context.Context, gameID, actorUserID int, players []domain.PlayerResult, chipsDistributed, chipsReturned int64) ([]domain.LedgerEntry, error)
	MarkPaid(ctx context.Context, ledgerID, actorUserID int) (*domain.LedgerEntry, error)
	GetSettlement(ctx context.Context, gameID int) ([]domain.LedgerEntry, error)
}

type SettlementHandler struct {
	settlementService Service
}

func New(settlementService Service) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// SettleGame godoc
//
//	@Summary		Settle a finished game
//	@Description	Verify chip integrity, net player results into a minimal set of debts and record them as unpaid ledger entries.
//	@Tags			Settlement
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			gameID	path		int							true	"Game id"
//	@Param			request	body		dto.SettleGameRequestDTO	true	"Final player results and chip counts"
//	@Success		200		{array}		dto.LedgerEntryResponseDTO	"Created ledger entries"
//	@Failure		400		{object}	utils.Response				"Invalid request"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		409		{object}	utils.Response				"Game already settled"
//	@Failure		422		{object}	utils.Response				"Chip count mismatch"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/games/{gameID}/settle [post]
func (h *SettlementHandler) SettleGame(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	var req dto.SettleGameRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Players) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "players are required")
		return
	}

	players := make([]domain.PlayerResult, len(req.Players))
	for i, p := range req.Players {
		players[i] = domain.PlayerResult{UserID: p.UserID, NetCents: p.NetCents}
	}

	entries, err := h.settlementService.SettleGame(r.Context(), gameID, userID, players, req.ChipsDistributed, req.ChipsReturned)
	if err != nil {
		switch {
		case errors.Is(err, settlementservice.ErrChipMismatch):
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, settlementservice.ErrGameAlreadySettled):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toLedgerDTOs(entries))
}

// GetSettlement godoc
//
//	@Summary		Get a game's settlement
//	@Description	Return the ledger entries recorded for a game.
//	@Tags			Settlement
//	@Security		BearerAuth
//	@Produce		json
//	@Param			gameID	path		int							true	"Game id"
//	@Success		200		{array}		dto.LedgerEntryResponseDTO	"Ledger entries"
//	@Failure		400		{object}	utils.Response				"Invalid game id"
//	@Failure		401		{object}	utils.Response				"User not authorized"
//	@Failure		404		{object}	utils.Response				"No settlement for this game"
//	@Failure		500		{object}	utils.Response				"Internal server error"
//	@Router			/api/games/{gameID}/settlement [get]
func (h *SettlementHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	entries, err := h.settlementService.GetSettlement(r.Context(), gameID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(entries) == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "no settlement for this game")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toLedgerDTOs(entries))
}

// ConfirmPayment godoc
//
//	@Summary		Mark a ledger entry as paid
//	@Description	Confirm that the debt behind a ledger entry has been paid. Paid entries cannot be re-confirmed.
//	@Tags			Settlement
//	@Security		BearerAuth
//	@Produce		json
//	@Param			ledgerID	path		int							true	"Ledger entry id"
//	@Success		200			{object}	dto.LedgerEntryResponseDTO	"Updated entry"
//	@Failure		400			{object}	utils.Response				"Invalid ledger id"
//	@Failure		401			{object}	utils.Response				"User not authorized"
//	@Failure		404			{object}	utils.Response				"Ledger entry not found"
//	@Failure		409			{object}	utils.Response				"Entry already paid"
//	@Failure		500			{object}	utils.Response				"Internal server error"
//	@Router			/api/settlements/{ledgerID}/confirm [post]
func (h *SettlementHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	ledgerID, err := strconv.Atoi(chi.URLParam(r, "ledgerID"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid ledger id")
		return
	}

	entry, err := h.settlementService.MarkPaid(r.Context(), ledgerID, userID)
	if err != nil {
		switch {
		case errors.Is(err, settlementservice.ErrLedgerNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, settlementservice.ErrAlreadyPaid):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toLedgerDTO(*entry))
}

func toLedgerDTO(e domain.LedgerEntry) dto.LedgerEntryResponseDTO {
	return dto.LedgerEntryResponseDTO{
		LedgerID:    e.ID,
		GameID:      e.GameID,
		FromUserID:  e.FromUserID,
		ToUserID:    e.ToUserID,
		AmountCents: e.AmountCents,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
		PaidAt:      e.PaidAt,
	}
}

func toLedgerDTOs(entries []domain.LedgerEntry) []dto.LedgerEntryResponseDTO {
	out := make([]dto.LedgerEntryResponseDTO, len(entries))
	for i, e := range entries {
		out[i] = toLedgerDTO(e)
	}
	return out
}
