package calculation

import (
	"testing"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalaryDeduction(t *testing.T) {
	ic := NewIncomeCalculator()

	tests := []struct {
		name   string
		salary int64
		want   int64
	}{
		{"below floor", 500000, 500000},
		{"exactly 650,000", 650000, 650000},
		{"55% band", 1000000, 550000},
		{"55% band top", 1625000, 893750},
		{"40% band", 1800000, 1147500},
		{"30% band", 3000000, 1536000},
		{"20% band", 6000000, 2736000},
		{"10% band", 8000000, 2996000},
		{"ceiling", 12000000, 2955000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ic.CalculateSalaryDeduction(yen(tt.salary))
			require.NoError(t, err)
			assertYen(t, tt.want, got)
		})
	}
}

func TestCalculateTotalIncome_Salary(t *testing.T) {
	ic := NewIncomeCalculator()

	b, err := ic.CalculateTotalIncome(
		map[domain.IncomeCategory]decimal.Decimal{domain.IncomeSalary: yen(3000000)},
		nil, domain.FilingWhite)
	require.NoError(t, err)
	assertYen(t, 1464000, b.Salary)
	assertYen(t, 1464000, b.Total)

	b, err = ic.CalculateTotalIncome(
		map[domain.IncomeCategory]decimal.Decimal{domain.IncomeSalary: yen(650000)},
		nil, domain.FilingWhite)
	require.NoError(t, err)
	assertYen(t, 0, b.Salary, "650,000 of salary is fully deducted")
}

func TestCalculateTotalIncome_Business(t *testing.T) {
	ic := NewIncomeCalculator()
	income := map[domain.IncomeCategory]decimal.Decimal{domain.IncomeBusiness: yen(5000000)}
	expenses := map[domain.ExpenseCategory]decimal.Decimal{domain.ExpenseOutsourcing: yen(1000000)}

	tests := []struct {
		name   string
		filing domain.FilingType
		want   int64
	}{
		{"blue filing takes the special deduction", domain.FilingBlue, 3350000},
		{"white filing", domain.FilingWhite, 4000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ic.CalculateTotalIncome(income, expenses, tt.filing)
			require.NoError(t, err)
			assertYen(t, tt.want, b.Business)
			assertYen(t, tt.want, b.Total)
		})
	}
}

func TestBusinessExpenses_ExcludePersonalCategories(t *testing.T) {
	expenses := map[domain.ExpenseCategory]decimal.Decimal{
		domain.ExpenseOutsourcing:   yen(1000000),
		domain.ExpenseSupplies:      yen(50000),
		domain.ExpenseCommunication: yen(120000),
		domain.ExpenseMedical:       yen(300000),
		domain.ExpenseDonation:      yen(10000),
		domain.ExpenseEntertainment: yen(30000),
		domain.ExpenseDepreciation:  yen(200000),
		domain.ExpenseOther:         yen(5000),
	}
	assertYen(t, 1405000, BusinessExpenses(expenses))
	assertYen(t, 200000, RentalExpenses(expenses))
	assertYen(t, 0, BusinessExpenses(nil))
}

func TestCalculateTotalIncome_RentalAndPassThrough(t *testing.T) {
	ic := NewIncomeCalculator()
	income := map[domain.IncomeCategory]decimal.Decimal{
		domain.IncomeRental:      yen(1200000),
		domain.IncomeDividend:    yen(80000),
		domain.IncomeInterest:    yen(1200),
		domain.IncomeCapitalGain: yen(300000),
		domain.IncomePension:     yen(900000),
		domain.IncomeOther:       yen(45000),
	}
	expenses := map[domain.ExpenseCategory]decimal.Decimal{
		domain.ExpenseOfficeRent:   yen(300000),
		domain.ExpenseUtilities:    yen(50000),
		domain.ExpenseDepreciation: yen(100000),
		domain.ExpenseSupplies:     yen(20000),
	}

	b, err := ic.CalculateTotalIncome(income, expenses, domain.FilingBlue)
	require.NoError(t, err)
	assertYen(t, 750000, b.Rental, "supplies are not a rental expense")
	assertYen(t, 0, b.Business, "expenses without revenue never go negative")
	assertYen(t, 80000, b.Dividend)
	assertYen(t, 1200, b.Interest)
	assertYen(t, 300000, b.CapitalGain)
	assertYen(t, 900000, b.Pension)
	assertYen(t, 45000, b.Other)
	assertYen(t, 2076200, b.Total)
	assert.True(t, b.Total.Equal(b.SumCategories()))
}

func TestCalculateTotalIncome_Empty(t *testing.T) {
	b, err := NewIncomeCalculator().CalculateTotalIncome(nil, nil, domain.FilingBlue)
	require.NoError(t, err)
	assertYen(t, 0, b.Total)
}

func TestCalculateTotalIncome_RejectsNegative(t *testing.T) {
	ic := NewIncomeCalculator()
	_, err := ic.CalculateTotalIncome(
		map[domain.IncomeCategory]decimal.Decimal{domain.IncomeSalary: yen(-1)}, nil, domain.FilingBlue)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ic.CalculateTotalIncome(nil,
		map[domain.ExpenseCategory]decimal.Decimal{domain.ExpenseTravel: yen(-1)}, domain.FilingBlue)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestNewIncomeCalculatorWithRules(t *testing.T) {
	ic, err := NewIncomeCalculatorWithRules(nil)
	require.NoError(t, err)
	assert.Len(t, ic.SalaryDeductionBrackets, 7)

	flat := &domain.TaxRules{SalaryDeductionBrackets: []domain.BracketConfig{
		{Rate: decimal.Zero, Offset: yen(550000)},
	}}
	ic, err = NewIncomeCalculatorWithRules(flat)
	require.NoError(t, err)
	got, err := ic.CalculateSalaryDeduction(yen(3000000))
	require.NoError(t, err)
	assertYen(t, 550000, got)

	_, err = NewIncomeCalculatorWithRules(&domain.TaxRules{SalaryDeductionBrackets: []domain.BracketConfig{
		{Rate: decimal.RequireFromString("2")},
	}})
	assert.ErrorIs(t, err, ErrInvalidBrackets)
}
