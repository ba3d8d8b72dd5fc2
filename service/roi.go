package service

import (
	"time"

	"cryptoledger/models"

	"github.com/shopspring/decimal"
)

// MiningProfile describes the mining performance backing a currency
type MiningProfile struct {
	Hashrate   int
	Efficiency decimal.Decimal
}

var (
	miningProfiles = map[models.Currency]MiningProfile{
		models.CurrencyBTC:   {Hashrate: 450, Efficiency: decimal.RequireFromString("0.95")},
		models.CurrencyETH:   {Hashrate: 1200, Efficiency: decimal.RequireFromString("0.88")},
		models.CurrencyBNB:   {Hashrate: 850, Efficiency: decimal.RequireFromString("0.92")},
		models.CurrencyADA:   {Hashrate: 650, Efficiency: decimal.RequireFromString("0.89")},
		models.CurrencySOL:   {Hashrate: 950, Efficiency: decimal.RequireFromString("0.91")},
		models.CurrencyDOT:   {Hashrate: 720, Efficiency: decimal.RequireFromString("0.87")},
		models.CurrencyDOGE:  {Hashrate: 580, Efficiency: decimal.RequireFromString("0.86")},
		models.CurrencyAVAX:  {Hashrate: 780, Efficiency: decimal.RequireFromString("0.90")},
		models.CurrencyLUNA:  {Hashrate: 690, Efficiency: decimal.RequireFromString("0.88")},
		models.CurrencyMATIC: {Hashrate: 820, Efficiency: decimal.RequireFromString("0.93")},
	}

	defaultMiningProfile = MiningProfile{Hashrate: 500, Efficiency: decimal.RequireFromString("0.85")}

	hashrateScale = decimal.NewFromInt(1000)
	dailyFactor   = decimal.RequireFromString("0.001")
	nanosPerDay   = decimal.NewFromInt(int64(24 * time.Hour))
)

// GetMiningProfile returns the mining profile for a currency, falling back to the default
func GetMiningProfile(currency models.Currency) MiningProfile {
	if profile, ok := miningProfiles[currency]; ok {
		return profile
	}
	return defaultMiningProfile
}

// DailyRate returns the fraction of principal accrued per day for a profile
func (p MiningProfile) DailyRate() decimal.Decimal {
	baseROI := decimal.NewFromInt(int64(p.Hashrate)).Mul(p.Efficiency).Div(hashrateScale)
	return baseROI.Mul(dailyFactor)
}

// ElapsedDays returns the fractional number of days between from and to
func ElapsedDays(from, to time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(to.Sub(from))).Div(nanosPerDay)
}

// ROIAt returns the ROI accrued on principal between start and now, never negative
func ROIAt(principal decimal.Decimal, currency models.Currency, start, now time.Time) decimal.Decimal {
	roi := principal.Mul(GetMiningProfile(currency).DailyRate()).Mul(ElapsedDays(start, now))
	if roi.IsNegative() {
		return decimal.Zero
	}
	return roi.Round(AmountPrecision)
}

// CalculateROI computes the current ROI figures of an investment at now
func CalculateROI(investment *models.Investment, now time.Time) models.ROISnapshot {
	profile := GetMiningProfile(investment.Currency)
	currentROI := ROIAt(investment.Amount, investment.Currency, investment.StartDate, now)

	return models.ROISnapshot{
		CurrentROI: currentROI,
		TotalValue: investment.Amount.Add(currentROI),
		DailyRate:  profile.DailyRate(),
		Efficiency: profile.Efficiency,
	}
}

// AccruedSince returns the ROI accrued between the last persisted update and now.
// Because ROIAt is linear in time, summing these increments never counts a window twice.
func AccruedSince(investment *models.Investment, now time.Time) decimal.Decimal {
	if !now.After(investment.LastROIUpdate) {
		return decimal.Zero
	}
	current := ROIAt(investment.Amount, investment.Currency, investment.StartDate, now)
	previous := ROIAt(investment.Amount, investment.Currency, investment.StartDate, investment.LastROIUpdate)
	accrued := current.Sub(previous)
	if accrued.IsNegative() {
		return decimal.Zero
	}
	return accrued
}
