package output

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatYen(t *testing.T) {
	cases := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.NewFromInt(0), "¥0"},
		{decimal.NewFromInt(999), "¥999"},
		{decimal.NewFromInt(1234567), "¥1,234,567"},
		{decimal.RequireFromString("12300.75"), "¥12,300"},
		{decimal.NewFromInt(-50000), "-¥50,000"},
	}
	for _, c := range cases {
		if got := FormatYen(c.in); got != c.want {
			t.Errorf("FormatYen(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatSignedYen(t *testing.T) {
	if got := FormatSignedYen(decimal.NewFromInt(72504)); got != "+¥72,504" {
		t.Errorf("positive delta = %q", got)
	}
	if got := FormatSignedYen(decimal.NewFromInt(-5287)); got != "-¥5,287" {
		t.Errorf("negative delta = %q", got)
	}
	if got := FormatSignedYen(decimal.Zero); got != "¥0" {
		t.Errorf("zero delta = %q", got)
	}
}

func TestFormatPercentage(t *testing.T) {
	v := decimal.NewFromFloat(12.3456)
	got := FormatPercentage(v)
	want := "12.35%"
	if got != want {
		t.Errorf("FormatPercentage(%v) = %q, want %q", v, got, want)
	}
}

func TestFormatISO(t *testing.T) {
	got := FormatISO(decimal.NewFromInt(153633))
	if !strings.Contains(got, "JPY") || !strings.Contains(got, "153633") {
		t.Errorf("FormatISO = %q", got)
	}
}
