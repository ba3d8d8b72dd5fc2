package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualRun represents one sweep of the ROI accrual worker
type AccrualRun struct {
	ID                   int64           `db:"id"`
	StartedAt            time.Time       `db:"started_at"`
	FinishedAt           time.Time       `db:"finished_at"`
	InvestmentsProcessed int             `db:"investments_processed"`
	InvestmentsFailed    int             `db:"investments_failed"`
	TotalROIAccrued      decimal.Decimal `db:"total_roi_accrued"`
	ExecutionSummary     map[string]any  `db:"execution_summary"`
	CreatedAt            time.Time       `db:"created_at"`
}

// Duration returns how long the sweep took
func (r *AccrualRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
