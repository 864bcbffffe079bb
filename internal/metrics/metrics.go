package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorline_scans_total",
			Help: "Door scan decisions by status and decision",
		},
		[]string{"status", "decision"},
	)

	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "doorline_tokens_issued_total",
			Help: "Access tokens issued",
		},
	)

	SplitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorline_splits_total",
			Help: "Applied revenue splits",
		},
		[]string{"type"}, // ACCESS_PASS|VENUE_CHARGE
	)

	LedgerAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorline_ledger_amount_minor_total",
			Help: "Minor units credited to beneficiaries by splits",
		},
		[]string{"beneficiary_type"},
	)

	PayoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorline_payouts_total",
			Help: "Settle outcomes",
		},
		[]string{"status"}, // NoBalance|Settled|AlreadySettled|RailError|Failed
	)

	WalletOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doorline_wallet_ops_total",
			Help: "Wallet operations by type and result",
		},
		[]string{"type", "result"},
	)

	SweepQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "doorline_sweep_queue_depth",
			Help: "Beneficiaries waiting in the payout sweep",
		},
	)

	registerOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ScansTotal)
		prometheus.MustRegister(TokensIssued)
		prometheus.MustRegister(SplitsTotal)
		prometheus.MustRegister(LedgerAmount)
		prometheus.MustRegister(PayoutsTotal)
		prometheus.MustRegister(WalletOps)
		prometheus.MustRegister(SweepQueueDepth)
	})
}
