package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/kittyvault/kittyvault/docs"
	settlementhandlers "github.com/kittyvault/kittyvault/internal/handlers/settlement"
	wallethandlers "github.com/kittyvault/kittyvault/internal/handlers/wallet"
	"github.com/kittyvault/kittyvault/internal/metrics"
	"github.com/kittyvault/kittyvault/internal/service"
	"github.com/kittyvault/kittyvault/pkg/auth"
)

type WalletHandler interface {
	Setup(w http.ResponseWriter, r *http.Request)
	SetPin(w http.ResponseWriter, r *http.Request)
	Transfer(w http.ResponseWriter, r *http.Request)
	Deposit(w http.ResponseWriter, r *http.Request)
	ConfirmDeposit(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
}

type SettlementHandler interface {
	SettleGame(w http.ResponseWriter, r *http.Request)
	GetSettlement(w http.ResponseWriter, r *http.Request)
	ConfirmPayment(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	WalletHandler     WalletHandler
	SettlementHandler SettlementHandler
}

func New(s *service.Services) *Handlers {
	return &Handlers{
		WalletHandler:     wallethandlers.New(s.WalletService),
		SettlementHandler: settlementhandlers.New(s.SettlementService),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Processor callback, authenticated out of band by the processor.
	r.Post("/api/wallet/deposit/{intentID}/confirm", h.WalletHandler.ConfirmDeposit)

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)
		r.Route("/api/wallet", func(r chi.Router) {
			r.Post("/setup", h.WalletHandler.Setup)
			r.Post("/pin/set", h.WalletHandler.SetPin)
			r.Post("/transfer", h.WalletHandler.Transfer)
			r.Post("/deposit", h.WalletHandler.Deposit)
			r.Get("/transactions", h.WalletHandler.GetTransactions)
		})
		r.Route("/api/games/{gameID}", func(r chi.Router) {
			r.Post("/settle", h.SettlementHandler.SettleGame)
			r.Get("/settlement", h.SettlementHandler.GetSettlement)
		})
		r.Post("/api/settlements/{ledgerID}/confirm", h.SettlementHandler.ConfirmPayment)
	})

	return r
}
