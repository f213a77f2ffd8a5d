package calculation

import (
	"fmt"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
)

// IncomeCalculator turns gross per-category totals into net income per category.
type IncomeCalculator struct {
	SalaryDeductionBrackets BracketTable
	BlueReturnDeduction     decimal.Decimal
}

// NewIncomeCalculator creates an income calculator with the statutory tables
func NewIncomeCalculator() *IncomeCalculator {
	return &IncomeCalculator{
		SalaryDeductionBrackets: DefaultSalaryDeductionBrackets(),
		BlueReturnDeduction:     decimal.NewFromInt(650000),
	}
}

// NewIncomeCalculatorWithRules creates an income calculator using the salary
// deduction table from rules when one is given.
func NewIncomeCalculatorWithRules(rules *domain.TaxRules) (*IncomeCalculator, error) {
	ic := NewIncomeCalculator()
	if rules == nil || len(rules.SalaryDeductionBrackets) == 0 {
		return ic, nil
	}
	t, err := BracketsFromConfig(rules.SalaryDeductionBrackets)
	if err != nil {
		return nil, fmt.Errorf("salary deduction brackets: %w", err)
	}
	ic.SalaryDeductionBrackets = t
	return ic, nil
}

// CalculateSalaryDeduction evaluates the employment income deduction curve.
func (ic *IncomeCalculator) CalculateSalaryDeduction(salary decimal.Decimal) (decimal.Decimal, error) {
	return ic.SalaryDeductionBrackets.Evaluate(salary)
}

// CalculateBusinessIncome nets revenue against expenses and, for blue filers,
// the blue-return special deduction.
func (ic *IncomeCalculator) CalculateBusinessIncome(revenue, expenses decimal.Decimal, filing domain.FilingType) decimal.Decimal {
	net := revenue.Sub(expenses)
	if filing == domain.FilingBlue {
		net = net.Sub(ic.BlueReturnDeduction)
	}
	return decimal.Max(decimal.Zero, net)
}

func (ic *IncomeCalculator) CalculateRentalIncome(revenue, expenses decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, revenue.Sub(expenses))
}

// BusinessExpenses sums every expense category that is not a personal
// deduction. Each category is counted once.
func BusinessExpenses(expenses map[domain.ExpenseCategory]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range domain.ExpenseCategories() {
		if !c.IsPersonal() {
			total = total.Add(expenses[c])
		}
	}
	return total
}

// RentalExpenses sums the categories deductible against rental revenue.
func RentalExpenses(expenses map[domain.ExpenseCategory]decimal.Decimal) decimal.Decimal {
	return expenses[domain.ExpenseOfficeRent].
		Add(expenses[domain.ExpenseUtilities]).
		Add(expenses[domain.ExpenseDepreciation])
}

// CalculateTotalIncome applies the per-category rules. Total is the sum of
// the eight category figures.
func (ic *IncomeCalculator) CalculateTotalIncome(
	income map[domain.IncomeCategory]decimal.Decimal,
	expenses map[domain.ExpenseCategory]decimal.Decimal,
	filing domain.FilingType,
) (domain.IncomeBreakdown, error) {
	var b domain.IncomeBreakdown
	for c, v := range income {
		if v.IsNegative() {
			return b, fmt.Errorf("%w: %s income %s", ErrNegativeAmount, c, v)
		}
	}
	for c, v := range expenses {
		if v.IsNegative() {
			return b, fmt.Errorf("%w: %s expense %s", ErrNegativeAmount, c, v)
		}
	}

	for _, c := range domain.IncomeCategories() {
		gross := income[c]
		switch c {
		case domain.IncomeSalary:
			ded, err := ic.CalculateSalaryDeduction(gross)
			if err != nil {
				return b, fmt.Errorf("salary deduction: %w", err)
			}
			b.Salary = decimal.Max(decimal.Zero, gross.Sub(ded))
		case domain.IncomeBusiness:
			b.Business = ic.CalculateBusinessIncome(gross, BusinessExpenses(expenses), filing)
		case domain.IncomeRental:
			b.Rental = ic.CalculateRentalIncome(gross, RentalExpenses(expenses))
		case domain.IncomeDividend:
			b.Dividend = gross
		case domain.IncomeInterest:
			b.Interest = gross
		case domain.IncomeCapitalGain:
			b.CapitalGain = gross
		case domain.IncomePension:
			b.Pension = gross
		case domain.IncomeOther:
			b.Other = gross
		default:
			return b, fmt.Errorf("%w: income category %d", ErrUnknownCategory, int(c))
		}
	}
	b.Total = b.SumCategories()
	return b, nil
}
