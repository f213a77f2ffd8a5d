package calculation

import (
	"fmt"
	"strings"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Every tax figure is floored to whole yen; nothing is rounded.
// 2. Reconstruction surtax is 2.1% of income tax before the home loan credit.
// 3. Resident tax is 10% of taxable income plus a 5,000 per-capita levy.
// 4. Business tax exempts the first 2,900,000 of business income.
// 5. Consumption tax is 10% of gross business revenue once revenue exceeds
//    10,000,000; input tax credits are not modelled.
// 6. Withholding and prepayments are recognised from expense descriptions
//    containing the markers below.

const (
	WithholdingMarker = "源泉"
	PrepaymentMarker  = "予定納税"
)

// TaxCalculator holds the rates and tables for the taxes levied on income.
type TaxCalculator struct {
	IncomeTaxBrackets       BracketTable
	BusinessTaxBrackets     BracketTable
	ReconstructionRate      decimal.Decimal
	ResidentRate            decimal.Decimal
	ResidentPerCapita       decimal.Decimal
	BusinessTaxExemption    decimal.Decimal
	ConsumptionTaxThreshold decimal.Decimal
	ConsumptionTaxRate      decimal.Decimal
}

// NewTaxCalculator creates a tax calculator with the statutory rates
func NewTaxCalculator() *TaxCalculator {
	return &TaxCalculator{
		IncomeTaxBrackets:       DefaultIncomeTaxBrackets(),
		BusinessTaxBrackets:     DefaultBusinessTaxBrackets(),
		ReconstructionRate:      decimal.RequireFromString("0.021"),
		ResidentRate:            decimal.RequireFromString("0.10"),
		ResidentPerCapita:       decimal.NewFromInt(5000),
		BusinessTaxExemption:    decimal.NewFromInt(2900000),
		ConsumptionTaxThreshold: decimal.NewFromInt(10000000),
		ConsumptionTaxRate:      decimal.RequireFromString("0.10"),
	}
}

// NewTaxCalculatorWithRules creates a tax calculator using the income tax
// table from rules when one is given.
func NewTaxCalculatorWithRules(rules *domain.TaxRules) (*TaxCalculator, error) {
	tc := NewTaxCalculator()
	if rules == nil || len(rules.IncomeTaxBrackets) == 0 {
		return tc, nil
	}
	t, err := BracketsFromConfig(rules.IncomeTaxBrackets)
	if err != nil {
		return nil, fmt.Errorf("income tax brackets: %w", err)
	}
	tc.IncomeTaxBrackets = t
	return tc, nil
}

// CalculateIncomeTax applies the national brackets to taxable income.
func (tc *TaxCalculator) CalculateIncomeTax(taxableIncome decimal.Decimal) (decimal.Decimal, error) {
	tax, err := tc.IncomeTaxBrackets.Evaluate(taxableIncome)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Max(decimal.Zero, tax), nil
}

func (tc *TaxCalculator) CalculateReconstructionTax(incomeTax decimal.Decimal) decimal.Decimal {
	return incomeTax.Mul(tc.ReconstructionRate).Floor()
}

// CalculateResidentTax is zero when there is no taxable income.
func (tc *TaxCalculator) CalculateResidentTax(taxableIncome decimal.Decimal) decimal.Decimal {
	if !taxableIncome.IsPositive() {
		return decimal.Zero
	}
	return taxableIncome.Mul(tc.ResidentRate).Add(tc.ResidentPerCapita).Floor()
}

// CalculateBusinessTax taxes business income above the exemption.
func (tc *TaxCalculator) CalculateBusinessTax(businessIncome decimal.Decimal) (decimal.Decimal, error) {
	if businessIncome.LessThanOrEqual(tc.BusinessTaxExemption) {
		return decimal.Zero, nil
	}
	return tc.BusinessTaxBrackets.Evaluate(businessIncome.Sub(tc.BusinessTaxExemption))
}

// CalculateConsumptionTax is levied on gross business revenue, not net income.
func (tc *TaxCalculator) CalculateConsumptionTax(businessRevenue decimal.Decimal) decimal.Decimal {
	if businessRevenue.LessThanOrEqual(tc.ConsumptionTaxThreshold) {
		return decimal.Zero
	}
	return businessRevenue.Mul(tc.ConsumptionTaxRate).Floor()
}

// ApplyHomeLoanCredit reduces income tax by the credit, never below zero.
// It returns the remaining tax and the part of the credit actually used.
func (tc *TaxCalculator) ApplyHomeLoanCredit(incomeTax, credit decimal.Decimal) (final, applied decimal.Decimal) {
	applied = decimal.Min(decimal.Max(decimal.Zero, credit), incomeTax)
	return incomeTax.Sub(applied), applied
}

// CalculateEstimatedQuarterlyTax splits the annual income tax evenly. The
// quarters are not floored and no remainder is redistributed.
func (tc *TaxCalculator) CalculateEstimatedQuarterlyTax(annualIncomeTax decimal.Decimal) [4]decimal.Decimal {
	q := annualIncomeTax.Div(decimal.NewFromInt(4))
	return [4]decimal.Decimal{q, q, q, q}
}

// PaidTaxes sums withholding and prepayments recorded as tax-related expenses.
// A description carrying both markers counts toward both totals.
func (tc *TaxCalculator) PaidTaxes(transactions []domain.Transaction) (withholding, prepaid decimal.Decimal) {
	for _, t := range transactions {
		if !t.IsExpense() || !t.TaxRelated {
			continue
		}
		if strings.Contains(t.Description, WithholdingMarker) {
			withholding = withholding.Add(t.Amount)
		}
		if strings.Contains(t.Description, PrepaymentMarker) {
			prepaid = prepaid.Add(t.Amount)
		}
	}
	return withholding, prepaid
}

// Reconcile compares the liability with what was already paid. At most one of
// the two results is non-zero.
func (tc *TaxCalculator) Reconcile(totalTax, paid decimal.Decimal) (due, refund decimal.Decimal) {
	if totalTax.GreaterThan(paid) {
		return totalTax.Sub(paid), decimal.Zero
	}
	return decimal.Zero, paid.Sub(totalTax)
}

// HomeLoanDeductionCap derives the annual home loan credit from the year-end
// loan balance: 0.7% of the balance, at most 350,000.
func HomeLoanDeductionCap(balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(balance.Mul(decimal.RequireFromString("0.007")), decimal.NewFromInt(350000)).Floor()
}
