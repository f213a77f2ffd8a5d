package decimal

import (
	"testing"

	stddec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	m := NewMoney(12345)
	assert.True(t, m.Decimal.Equal(stddec.NewFromInt(12345)))

	d := stddec.RequireFromString("10.5")
	assert.True(t, NewMoneyFromDecimal(d).Decimal.Equal(d))
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "¥0"},
		{999, "¥999"},
		{1000, "¥1,000"},
		{1234567, "¥1,234,567"},
		{12345678, "¥12,345,678"},
		{-5287, "-¥5,287"},
		{-50000, "-¥50,000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NewMoney(c.in).Format())
	}
	assert.Equal(t, "¥1,234", NewMoneyFromDecimal(stddec.RequireFromString("1234.9")).Format(), "fractions are floored")
}

func TestAmount(t *testing.T) {
	a, err := NewMoneyFromDecimal(stddec.RequireFromString("150000.7")).Amount()
	require.NoError(t, err)
	assert.Equal(t, CurrencyCode, a.Curr().Code())
	assert.Contains(t, NewMoney(150000).String(), "JPY")
	assert.Contains(t, NewMoney(150000).String(), "150000")
}
