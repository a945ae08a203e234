package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TransfersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kittyvault_transfers_completed_total",
		Help: "Wallet transfers executed successfully.",
	})

	TransfersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kittyvault_transfers_rejected_total",
		Help: "Wallet transfers rejected before execution, by reason.",
	}, []string{"reason"})

	TransfersStepUp = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kittyvault_transfers_risk_stepup_total",
		Help: "Transfers returned for explicit risk acknowledgement.",
	})

	SettlementsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kittyvault_settlements_created_total",
		Help: "Games settled into ledger entries.",
	})

	DepositsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kittyvault_deposits_confirmed_total",
		Help: "Deposit intents confirmed and credited.",
	})
)

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
