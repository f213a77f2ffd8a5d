package domain

import "github.com/shopspring/decimal"

// IncomeBreakdown carries net income per category after category-specific
// deductions. Total is the sum of the category fields only.
type IncomeBreakdown struct {
	Salary      decimal.Decimal `yaml:"salary_income" json:"salary_income"`
	Business    decimal.Decimal `yaml:"business_income" json:"business_income"`
	Rental      decimal.Decimal `yaml:"rental_income" json:"rental_income"`
	Dividend    decimal.Decimal `yaml:"dividend_income" json:"dividend_income"`
	Interest    decimal.Decimal `yaml:"interest_income" json:"interest_income"`
	CapitalGain decimal.Decimal `yaml:"capital_gain" json:"capital_gain"`
	Pension     decimal.Decimal `yaml:"pension_income" json:"pension_income"`
	Other       decimal.Decimal `yaml:"other_income" json:"other_income"`
	Total       decimal.Decimal `yaml:"total_income" json:"total_income"`
}

// Net returns the net figure for a category.
func (b IncomeBreakdown) Net(c IncomeCategory) decimal.Decimal {
	switch c {
	case IncomeSalary:
		return b.Salary
	case IncomeBusiness:
		return b.Business
	case IncomeRental:
		return b.Rental
	case IncomeDividend:
		return b.Dividend
	case IncomeInterest:
		return b.Interest
	case IncomeCapitalGain:
		return b.CapitalGain
	case IncomePension:
		return b.Pension
	case IncomeOther:
		return b.Other
	}
	return decimal.Zero
}

// SumCategories adds up the category fields, ignoring Total.
func (b IncomeBreakdown) SumCategories() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range IncomeCategories() {
		sum = sum.Add(b.Net(c))
	}
	return sum
}

// AsMap flattens the breakdown for read-only consumers such as reports.
func (b IncomeBreakdown) AsMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, 9)
	for _, c := range IncomeCategories() {
		m[c.String()] = b.Net(c)
	}
	m["total"] = b.Total
	return m
}

// DeductionBreakdown carries each income deduction. HomeLoan is reported for
// reference only: it is a tax credit and is not part of Total.
type DeductionBreakdown struct {
	Basic               decimal.Decimal `yaml:"basic_deduction" json:"basic_deduction"`
	Spouse              decimal.Decimal `yaml:"spouse_deduction" json:"spouse_deduction"`
	Dependent           decimal.Decimal `yaml:"dependent_deduction" json:"dependent_deduction"`
	SocialInsurance     decimal.Decimal `yaml:"social_insurance_deduction" json:"social_insurance_deduction"`
	LifeInsurance       decimal.Decimal `yaml:"life_insurance_deduction" json:"life_insurance_deduction"`
	EarthquakeInsurance decimal.Decimal `yaml:"earthquake_insurance_deduction" json:"earthquake_insurance_deduction"`
	Donation            decimal.Decimal `yaml:"donation_deduction" json:"donation_deduction"`
	Medical             decimal.Decimal `yaml:"medical_deduction" json:"medical_deduction"`
	HomeLoan            decimal.Decimal `yaml:"home_loan_deduction" json:"home_loan_deduction"`
	Total               decimal.Decimal `yaml:"total_deductions" json:"total_deductions"`
}

// SumIncomeDeductions adds every field except HomeLoan and Total.
func (d DeductionBreakdown) SumIncomeDeductions() decimal.Decimal {
	return d.Basic.Add(d.Spouse).Add(d.Dependent).Add(d.SocialInsurance).
		Add(d.LifeInsurance).Add(d.EarthquakeInsurance).Add(d.Donation).Add(d.Medical)
}

func (d DeductionBreakdown) AsMap() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"basic":                d.Basic,
		"spouse":               d.Spouse,
		"dependent":            d.Dependent,
		"social_insurance":     d.SocialInsurance,
		"life_insurance":       d.LifeInsurance,
		"earthquake_insurance": d.EarthquakeInsurance,
		"donation":             d.Donation,
		"medical":              d.Medical,
		"home_loan":            d.HomeLoan,
		"total":                d.Total,
	}
}

// TaxCalculationResult is rebuilt wholesale on every calculation.
// IncomeTax is the post-credit figure; IncomeTaxBeforeCredit is the bracket result.
type TaxCalculationResult struct {
	TotalIncome              decimal.Decimal    `yaml:"total_income" json:"total_income"`
	TotalExpense             decimal.Decimal    `yaml:"total_expense" json:"total_expense"`
	NetIncome                decimal.Decimal    `yaml:"net_income" json:"net_income"`
	TotalDeductions          decimal.Decimal    `yaml:"total_deductions" json:"total_deductions"`
	TaxableIncome            decimal.Decimal    `yaml:"taxable_income" json:"taxable_income"`
	IncomeTaxBeforeCredit    decimal.Decimal    `yaml:"income_tax_before_credit" json:"income_tax_before_credit"`
	IncomeTax                decimal.Decimal    `yaml:"income_tax" json:"income_tax"`
	ReconstructionTax        decimal.Decimal    `yaml:"reconstruction_tax" json:"reconstruction_tax"`
	ResidentTax              decimal.Decimal    `yaml:"resident_tax" json:"resident_tax"`
	BusinessTax              decimal.Decimal    `yaml:"business_tax" json:"business_tax"`
	ConsumptionTax           decimal.Decimal    `yaml:"consumption_tax" json:"consumption_tax"`
	TotalTax                 decimal.Decimal    `yaml:"total_tax" json:"total_tax"`
	WithholdingTax           decimal.Decimal    `yaml:"withholding_tax" json:"withholding_tax"`
	PrepaidTax               decimal.Decimal    `yaml:"prepaid_tax" json:"prepaid_tax"`
	TaxDue                   decimal.Decimal    `yaml:"tax_due" json:"tax_due"`
	RefundAmount             decimal.Decimal    `yaml:"refund_amount" json:"refund_amount"`
	// HomeLoanDeductionApplied is the part of the credit used against income
	// tax, at most IncomeTaxBeforeCredit. The full credit claimed is in
	// DeductionBreakdown.HomeLoan.
	HomeLoanDeductionApplied decimal.Decimal    `yaml:"home_loan_deduction_applied" json:"home_loan_deduction_applied"`
	EffectiveTaxRate         decimal.Decimal    `yaml:"effective_tax_rate" json:"effective_tax_rate"` // percent of total income
	EstimatedQuarterlyTax    [4]decimal.Decimal `yaml:"estimated_quarterly_tax" json:"estimated_quarterly_tax"`
	IncomeBreakdown          IncomeBreakdown    `yaml:"income_breakdown" json:"income_breakdown"`
	DeductionBreakdown       DeductionBreakdown `yaml:"deduction_breakdown" json:"deduction_breakdown"`
}

// PaidTax is the total already settled through withholding and prepayment.
func (r *TaxCalculationResult) PaidTax() decimal.Decimal {
	return r.WithholdingTax.Add(r.PrepaidTax)
}

// Balance is positive when tax is owed and negative when a refund is due.
func (r *TaxCalculationResult) Balance() decimal.Decimal {
	return r.TaxDue.Sub(r.RefundAmount)
}
