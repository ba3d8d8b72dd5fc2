package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentStatus represents the lifecycle state of an investment
type InvestmentStatus string

const (
	InvestmentStatusActive InvestmentStatus = "active"
)

// Investment represents principal committed to a mining pool
type Investment struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	UserID         uuid.UUID        `db:"user_id" json:"-"`
	Amount         decimal.Decimal  `db:"amount" json:"amount"`
	Currency       Currency         `db:"currency" json:"currency"`
	ROIRate        decimal.Decimal  `db:"roi_rate" json:"roiRate"`
	MiningHashrate int              `db:"mining_hashrate" json:"miningHashrate"`
	StartDate      time.Time        `db:"start_date" json:"startDate"`
	LastROIUpdate  time.Time        `db:"last_roi_update" json:"lastRoiUpdate"`
	Status         InvestmentStatus `db:"status" json:"status"`
}

// ROIHistory is one append-only accrual sample for an investment
type ROIHistory struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	InvestmentID      uuid.UUID       `db:"investment_id" json:"investmentId"`
	ROIAmount         decimal.Decimal `db:"roi_amount" json:"roiAmount"`
	MiningPerformance int             `db:"mining_performance" json:"miningPerformance"`
	RecordedAt        time.Time       `db:"recorded_at" json:"recordedAt"`
}
