package service

import (
	"net/mail"
	"strings"

	"cryptoledger/models"

	"github.com/shopspring/decimal"
)

const (
	// AmountPrecision is the number of fractional digits accepted on money input
	AmountPrecision = 8

	// WalletAddressLength is the exact length of an accepted wallet address
	WalletAddressLength = 42

	// TxHashLength is the exact length of an accepted transaction hash
	TxHashLength = 66

	// MinPasswordLength is the shortest accepted password
	MinPasswordLength = 8

	// MaxPasswordLength is the longest password bcrypt can hash
	MaxPasswordLength = 72
)

// MaxAmount is the exclusive upper bound of NUMERIC(20,8) money columns
var MaxAmount = decimal.New(1, 12)

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewError(ErrValidation, "amount must be a positive number")
	}
	if !amount.Equal(amount.Truncate(AmountPrecision)) {
		return NewError(ErrValidation, "amount must have no more than %d decimal places", AmountPrecision)
	}
	if !amount.LessThan(MaxAmount) {
		return NewError(ErrValidation, "amount must be less than %s", MaxAmount.String())
	}
	return nil
}

func validateCurrency(currency models.Currency) error {
	if currency.IsValid() {
		return nil
	}
	names := make([]string, len(models.SupportedCurrencies))
	for i, c := range models.SupportedCurrencies {
		names[i] = string(c)
	}
	return NewError(ErrValidation, "currency must be one of [%s]", strings.Join(names, ", "))
}

func validateWalletAddress(address string) error {
	if len(address) != WalletAddressLength {
		return NewError(ErrValidation, "walletAddress length must be %d characters long", WalletAddressLength)
	}
	return nil
}

// validateTxHash accepts a nil hash since it is optional on every transition
func validateTxHash(txHash *string) error {
	if txHash != nil && len(*txHash) != TxHashLength {
		return NewError(ErrValidation, "txHash length must be %d characters long", TxHashLength)
	}
	return nil
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, " <>") {
		return NewError(ErrValidation, "email must be a valid email")
	}
	if len(password) < MinPasswordLength {
		return NewError(ErrValidation, "password length must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return NewError(ErrValidation, "password length must be at most %d bytes long", MaxPasswordLength)
	}
	return nil
}

// normalizeEmail lowercases and trims an email so lookups are case insensitive
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
