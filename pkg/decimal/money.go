package decimal

import (
	"github.com/govalues/money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyCode is the ISO 4217 code for every amount handled by this package.
const CurrencyCode = "JPY"

// Money represents a yen amount. Yen has no minor unit, so whole-yen values
// are what every tax figure reduces to.
type Money struct {
	decimal.Decimal
}

// NewMoney creates a new Money instance from whole yen
func NewMoney(yen int64) Money {
	return Money{decimal.NewFromInt(yen)}
}

// NewMoneyFromDecimal creates a new Money instance from a decimal.Decimal
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// Amount converts to a govalues money.Amount in JPY. Fractional yen are
// floored first since JPY carries no minor unit.
func (m Money) Amount() (money.Amount, error) {
	return money.NewAmountFromMinorUnits(CurrencyCode, m.Decimal.Floor().IntPart())
}

// String returns the ISO form, e.g. "JPY 1234".
func (m Money) String() string {
	a, err := m.Amount()
	if err != nil {
		return CurrencyCode + " " + m.Decimal.Floor().String()
	}
	return a.String()
}

var yenPrinter = message.NewPrinter(language.Japanese)

// Format renders the amount for display: "¥1,234,567". Fractions are floored.
func (m Money) Format() string {
	n := m.Decimal.Floor().IntPart()
	if n < 0 {
		return "-¥" + yenPrinter.Sprintf("%d", -n)
	}
	return "¥" + yenPrinter.Sprintf("%d", n)
}
