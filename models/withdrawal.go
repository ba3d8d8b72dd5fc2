package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the lifecycle state of a withdrawal
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

// IsTerminal returns true if no further status change is accepted
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusRejected
}

// Withdrawal represents an outbound transfer request
type Withdrawal struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	UserID        uuid.UUID        `db:"user_id" json:"-"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	Currency      Currency         `db:"currency" json:"currency"`
	WalletAddress string           `db:"wallet_address" json:"walletAddress"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	ProcessedAt   *time.Time       `db:"processed_at" json:"processedAt"`
	TxHash        *string          `db:"tx_hash" json:"txHash"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
}
