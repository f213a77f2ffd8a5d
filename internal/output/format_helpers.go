package output

import (
	pkgdecimal "github.com/kakutei/tax-calculator/pkg/decimal"
	"github.com/shopspring/decimal"
)

// FormatYen formats an amount for display, e.g. "¥1,234,567".
func FormatYen(amount decimal.Decimal) string {
	return pkgdecimal.NewMoneyFromDecimal(amount).Format()
}

// FormatSignedYen is FormatYen with an explicit sign for deltas.
func FormatSignedYen(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + FormatYen(amount)
	}
	return FormatYen(amount)
}

// FormatISO renders the amount in ISO form, e.g. "JPY 1234567".
func FormatISO(amount decimal.Decimal) string {
	return pkgdecimal.NewMoneyFromDecimal(amount).String()
}

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }
