package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"cryptoledger/database"
	"cryptoledger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// WalletAddress is a well-formed 42 character address
var WalletAddress = "0x" + strings.Repeat("1", 40)

// TxHash is a well-formed 66 character transaction hash
var TxHash = "0x" + strings.Repeat("f", 64)

// CreateTestUser inserts a user with the given balance and returns it
func CreateTestUser(t *testing.T, db *database.DB, balance string) *models.User {
	t.Helper()
	ctx := context.Background()

	email := "user-" + uuid.NewString()[:8] + "@example.com"
	user := &models.User{}
	err := db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, balance)
		VALUES ($1, $2, $3)
		RETURNING id, email, balance, total_invested, total_roi, created_at, updated_at
	`, email, "not-a-real-hash", decimal.RequireFromString(balance)).Scan(
		&user.ID,
		&user.Email,
		&user.Balance,
		&user.TotalInvested,
		&user.TotalROI,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	require.NoError(t, err)
	return user
}

// NewTestDeposit creates a pending deposit for userID
func NewTestDeposit(userID uuid.UUID, amount string) *models.Deposit {
	return &models.Deposit{
		UserID:        userID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      models.CurrencyBTC,
		WalletAddress: WalletAddress,
		Status:        models.DepositStatusPending,
	}
}

// NewTestInvestment creates an active BTC investment for userID started at start
func NewTestInvestment(userID uuid.UUID, amount string, start time.Time) *models.Investment {
	return &models.Investment{
		UserID:         userID,
		Amount:         decimal.RequireFromString(amount),
		Currency:       models.CurrencyBTC,
		ROIRate:        decimal.Zero,
		MiningHashrate: 450,
		StartDate:      start,
		LastROIUpdate:  start,
		Status:         models.InvestmentStatusActive,
	}
}

// NewTestWithdrawal creates a pending withdrawal for userID
func NewTestWithdrawal(userID uuid.UUID, amount string) *models.Withdrawal {
	return &models.Withdrawal{
		UserID:        userID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      models.CurrencyETH,
		WalletAddress: WalletAddress,
		Status:        models.WithdrawalStatusPending,
	}
}

// NewTestAccrualRun creates a finished accrual run starting at start
func NewTestAccrualRun(start time.Time, processed int, accrued string) *models.AccrualRun {
	return &models.AccrualRun{
		StartedAt:            start,
		FinishedAt:           start.Add(1500 * time.Millisecond),
		InvestmentsProcessed: processed,
		InvestmentsFailed:    0,
		TotalROIAccrued:      decimal.RequireFromString(accrued),
		ExecutionSummary: map[string]any{
			"active_investments": processed,
			"failures":           []any{},
		},
	}
}
