package calculation

import (
	"fmt"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
)

// Bracket is one segment of a progressive curve. A value v that falls in the
// segment evaluates to floor(v*Rate + Offset). Offset is signed: the salary
// deduction curve adds a fixed amount while the income tax table subtracts one.
type Bracket struct {
	UpTo      decimal.Decimal // inclusive upper bound, ignored when Unbounded
	Unbounded bool
	Rate      decimal.Decimal
	Offset    decimal.Decimal
}

// BracketTable is an ascending list of brackets whose last row is unbounded.
type BracketTable []Bracket

func bracket(upTo int64, rate string, offset int64) Bracket {
	return Bracket{
		UpTo:   decimal.NewFromInt(upTo),
		Rate:   decimal.RequireFromString(rate),
		Offset: decimal.NewFromInt(offset),
	}
}

func topBracket(rate string, offset int64) Bracket {
	return Bracket{
		Unbounded: true,
		Rate:      decimal.RequireFromString(rate),
		Offset:    decimal.NewFromInt(offset),
	}
}

// DefaultSalaryDeductionBrackets is the employment income deduction curve.
// The first two rows cover the 100% and 55% bands.
func DefaultSalaryDeductionBrackets() BracketTable {
	return BracketTable{
		bracket(650000, "1", 0),
		bracket(1625000, "0.55", 0),
		bracket(1800000, "0.4", 427500),
		bracket(3600000, "0.3", 636000),
		bracket(6600000, "0.2", 1536000),
		bracket(8500000, "0.1", 2196000),
		topBracket("0", 2955000),
	}
}

// DefaultIncomeTaxBrackets is the national income tax quick-calculation table.
func DefaultIncomeTaxBrackets() BracketTable {
	return BracketTable{
		bracket(1950000, "0.05", 0),
		bracket(3300000, "0.10", -97500),
		bracket(6950000, "0.20", -427500),
		bracket(9000000, "0.23", -636000),
		bracket(18000000, "0.33", -1536000),
		bracket(40000000, "0.40", -2796000),
		topBracket("0.45", -4796000),
	}
}

// DefaultBusinessTaxBrackets applies to income above the business tax
// exemption: 5% on the first 4,000,000 and 4.8% on the rest.
func DefaultBusinessTaxBrackets() BracketTable {
	return BracketTable{
		bracket(4000000, "0.05", 0),
		topBracket("0.048", 8000),
	}
}

// Validate checks that the table is non-empty, strictly ascending, has rates
// in [0, 1] and ends with a single unbounded row.
func (t BracketTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty table", ErrInvalidBrackets)
	}
	for i, b := range t {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: row %d rate %s outside [0, 1]", ErrInvalidBrackets, i, b.Rate)
		}
		last := i == len(t)-1
		if b.Unbounded != last {
			if last {
				return fmt.Errorf("%w: last row must be unbounded", ErrInvalidBrackets)
			}
			return fmt.Errorf("%w: row %d is unbounded but not last", ErrInvalidBrackets, i)
		}
		if b.Unbounded {
			continue
		}
		if !b.UpTo.IsPositive() {
			return fmt.Errorf("%w: row %d threshold %s must be positive", ErrInvalidBrackets, i, b.UpTo)
		}
		if i > 0 && !b.UpTo.GreaterThan(t[i-1].UpTo) {
			return fmt.Errorf("%w: row %d threshold %s not above %s", ErrInvalidBrackets, i, b.UpTo, t[i-1].UpTo)
		}
	}
	return nil
}

// Evaluate finds the first bracket whose threshold is >= v and returns
// floor(v*Rate + Offset). Values <= 0 evaluate to 0 without a lookup.
func (t BracketTable) Evaluate(v decimal.Decimal) (decimal.Decimal, error) {
	if !v.IsPositive() {
		return decimal.Zero, nil
	}
	for _, b := range t {
		if b.Unbounded || v.LessThanOrEqual(b.UpTo) {
			return v.Mul(b.Rate).Add(b.Offset).Floor(), nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: no bracket covers %s", ErrInvalidBrackets, v)
}

// BracketsFromConfig converts a configured table. A nil UpTo marks the
// unbounded row. The result is validated.
func BracketsFromConfig(rows []domain.BracketConfig) (BracketTable, error) {
	t := make(BracketTable, 0, len(rows))
	for _, r := range rows {
		b := Bracket{Rate: r.Rate, Offset: r.Offset}
		if r.UpTo == nil {
			b.Unbounded = true
		} else {
			b.UpTo = *r.UpTo
		}
		t = append(t, b)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Config converts the table back to its configuration form.
func (t BracketTable) Config() []domain.BracketConfig {
	out := make([]domain.BracketConfig, 0, len(t))
	for _, b := range t {
		row := domain.BracketConfig{Rate: b.Rate, Offset: b.Offset}
		if !b.Unbounded {
			upTo := b.UpTo
			row.UpTo = &upTo
		}
		out = append(out, row)
	}
	return out
}
