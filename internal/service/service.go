package service

import (
	"github.com/kittyvault/kittyvault/internal/config"
	"github.com/kittyvault/kittyvault/internal/handlers/settlement"
	"github.com/kittyvault/kittyvault/internal/handlers/wallet"
	"github.com/kittyvault/kittyvault/internal/pg"
	"github.com/kittyvault/kittyvault/internal/repo"
	"github.com/kittyvault/kittyvault/internal/service/riskservice"
	"github.com/kittyvault/kittyvault/internal/service/settlementservice"
	"github.com/kittyvault/kittyvault/internal/service/walletservice"
	pkgauth "github.com/kittyvault/kittyvault/pkg/auth"
)

type Services struct {
	WalletService     wallet.Service
	SettlementService settlement.Service
	RiskService       *riskservice.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, velocity riskservice.VelocityCache, cfg *config.Config) *Services {
	riskService := riskservice.New(repo.RiskTxRepo, velocity)
	walletService := walletservice.New(repo.WalletRepo, repo.TransactionRepo, repo.DepositRepo, repo.AuditRepo,
		riskService, &pkgauth.HashService{}, txManager, cfg.RiskThreshold)
	settlementService := settlementservice.New(repo.LedgerRepo, repo.AuditRepo, walletService, txManager)

	return &Services{
		WalletService:     walletService,
		SettlementService: settlementService,
		RiskService:       riskService,
	}
}
