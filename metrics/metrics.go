package metrics

import (
	"context"
	"sync"

	"cryptoledger/events"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	LedgerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_total",
			Help: "Committed ledger events by type",
		},
		[]string{"event_type"},
	)

	BalanceChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_balance_changes_total",
			Help: "Committed balance changes by transaction type",
		},
		[]string{"transaction_type"},
	)

	AccrualSweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_roi_accrual_sweeps_total",
			Help: "ROI accrual sweeps by outcome",
		},
		[]string{"outcome"},
	)

	AccrualInvestments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_roi_accrual_investments_total",
			Help: "Investments visited by ROI accrual sweeps",
		},
		[]string{"outcome"},
	)

	AccrualSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_roi_accrual_sweep_duration_seconds",
			Help:    "Duration of ROI accrual sweeps",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	registerOnce sync.Once
)

// Register adds every ledger collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestDuration,
			LedgerEvents,
			BalanceChanges,
			AccrualSweeps,
			AccrualInvestments,
			AccrualSweepDuration,
		)
	})
}

// EventHandler counts events as they are flushed from committed transactions
func EventHandler() events.Handler {
	return func(ctx context.Context, event events.Event) {
		LedgerEvents.WithLabelValues(string(event.Type())).Inc()
		if change, ok := event.(events.BalanceChangeEvent); ok {
			BalanceChanges.WithLabelValues(string(change.TransactionType)).Inc()
		}
	}
}
