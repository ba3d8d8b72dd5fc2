package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ROISnapshot holds the ROI figures computed for an investment at a point in time
type ROISnapshot struct {
	CurrentROI decimal.Decimal `json:"currentROI"`
	TotalValue decimal.Decimal `json:"totalValue"`
	DailyRate  decimal.Decimal `json:"dailyRate"`
	Efficiency decimal.Decimal `json:"efficiency"`
}

// InvestmentSummary is an investment together with its current ROI figures
type InvestmentSummary struct {
	*Investment
	ROISnapshot
}

// InvestmentDetail is an investment summary together with its ROI history, newest first
type InvestmentDetail struct {
	Investment InvestmentSummary `json:"investment"`
	ROIHistory []*ROIHistory     `json:"roiHistory"`
}

// ROIUpdateResult contains the result of persisting an ROI update
type ROIUpdateResult struct {
	InvestmentID uuid.UUID       `json:"investmentId"`
	CurrentROI   decimal.Decimal `json:"currentROI"`
	Accrued      decimal.Decimal `json:"accrued"`
	TotalValue   decimal.Decimal `json:"totalValue"`
}
