package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account holder and its running balances
type User struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Email         string          `db:"email" json:"email"`
	PasswordHash  string          `db:"password_hash" json:"-"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	TotalInvested decimal.Decimal `db:"total_invested" json:"totalInvested"`
	TotalROI      decimal.Decimal `db:"total_roi" json:"totalRoi"`
	WalletAddress *string         `db:"wallet_address" json:"walletAddress,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}
