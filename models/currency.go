package models

// Currency is one of the supported crypto asset symbols
type Currency string

const (
	CurrencyBTC   Currency = "BTC"
	CurrencyETH   Currency = "ETH"
	CurrencyBNB   Currency = "BNB"
	CurrencyADA   Currency = "ADA"
	CurrencySOL   Currency = "SOL"
	CurrencyDOT   Currency = "DOT"
	CurrencyDOGE  Currency = "DOGE"
	CurrencyAVAX  Currency = "AVAX"
	CurrencyLUNA  Currency = "LUNA"
	CurrencyMATIC Currency = "MATIC"
)

// SupportedCurrencies lists every accepted currency in display order
var SupportedCurrencies = []Currency{
	CurrencyBTC,
	CurrencyETH,
	CurrencyBNB,
	CurrencyADA,
	CurrencySOL,
	CurrencyDOT,
	CurrencyDOGE,
	CurrencyAVAX,
	CurrencyLUNA,
	CurrencyMATIC,
}

// IsValid reports whether c is a supported currency
func (c Currency) IsValid() bool {
	for _, supported := range SupportedCurrencies {
		if c == supported {
			return true
		}
	}
	return false
}
