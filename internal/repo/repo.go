package repo

import (
	"github.com/kittyvault/kittyvault/internal/payments"
	"github.com/kittyvault/kittyvault/internal/pg"
	auditrepo "github.com/kittyvault/kittyvault/internal/repo/audit-repo"
	depositrepo "github.com/kittyvault/kittyvault/internal/repo/deposit-repo"
	ledgerrepo "github.com/kittyvault/kittyvault/internal/repo/ledger-repo"
	transactionrepo "github.com/kittyvault/kittyvault/internal/repo/transaction-repo"
	walletrepo "github.com/kittyvault/kittyvault/internal/repo/wallet-repo"
	"github.com/kittyvault/kittyvault/internal/service/riskservice"
	"github.com/kittyvault/kittyvault/internal/service/settlementservice"
	"github.com/kittyvault/kittyvault/internal/service/walletservice"
)

type Repositories struct {
	WalletRepo      walletservice.WalletRepo
	TransactionRepo walletservice.TransactionRepo
	DepositRepo     walletservice.DepositRepo
	AuditRepo       walletservice.AuditRepo
	LedgerRepo      settlementservice.LedgerRepo
	RiskTxRepo      riskservice.TransactionRepo
	DepositPoller   payments.DepositRepo
}

func New(conn pg.Database) *Repositories {
	walletRepo := walletrepo.New(conn)
	transactionRepo := transactionrepo.New(conn)
	depositRepo := depositrepo.New(conn)
	auditRepo := auditrepo.New(conn)
	ledgerRepo := ledgerrepo.New(conn)

	return &Repositories{
		WalletRepo:      walletRepo,
		TransactionRepo: transactionRepo,
		DepositRepo:     depositRepo,
		AuditRepo:       auditRepo,
		LedgerRepo:      ledgerRepo,
		RiskTxRepo:      transactionRepo,
		DepositPoller:   depositRepo,
	}
}
