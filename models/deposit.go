package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus represents the lifecycle state of a deposit
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusConfirmed DepositStatus = "confirmed"
	DepositStatusFailed    DepositStatus = "failed"
)

// Deposit represents an inbound transfer awaiting or past confirmation
type Deposit struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"-"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Currency      Currency        `db:"currency" json:"currency"`
	WalletAddress string          `db:"wallet_address" json:"walletAddress"`
	TxHash        *string         `db:"tx_hash" json:"txHash"`
	Status        DepositStatus   `db:"status" json:"status"`
	ConfirmedAt   *time.Time      `db:"confirmed_at" json:"confirmedAt"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// IsPending returns true while the deposit can still be confirmed or failed
func (d *Deposit) IsPending() bool {
	return d.Status == DepositStatusPending
}
