package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeInvestment TransactionType = "investment"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeDeposit    RelatedType = "deposit"
	RelatedTypeInvestment RelatedType = "investment"
	RelatedTypeWithdrawal RelatedType = "withdrawal"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              uuid.UUID       `db:"user_id"`
	BalanceBefore       decimal.Decimal `db:"balance_before"`
	BalanceAfter        decimal.Decimal `db:"balance_after"`
	ChangeAmount        decimal.Decimal `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *uuid.UUID      `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
