package calculation

import (
	"fmt"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
)

// DeductionCalculator evaluates the income deductions. Amounts are yen.
type DeductionCalculator struct {
	BasicAmount               decimal.Decimal
	SpouseAmount              decimal.Decimal
	SpouseIncomeLimit         decimal.Decimal
	SpouseTaxpayerIncomeCap   decimal.Decimal
	DependentAmount           decimal.Decimal
	ElderlyDependentAmount    decimal.Decimal // age 70 and over
	SpecificDependentAmount   decimal.Decimal // age 19 to 22
	EarthquakeInsuranceCap    decimal.Decimal
	DonationFloor             decimal.Decimal
	MedicalThresholdRate      decimal.Decimal
	MedicalThresholdCap       decimal.Decimal
	LifeInsuranceDeductionCap decimal.Decimal
}

// NewDeductionCalculator creates a deduction calculator with the statutory amounts
func NewDeductionCalculator() *DeductionCalculator {
	return &DeductionCalculator{
		BasicAmount:               decimal.NewFromInt(480000),
		SpouseAmount:              decimal.NewFromInt(380000),
		SpouseIncomeLimit:         decimal.NewFromInt(480000),
		SpouseTaxpayerIncomeCap:   decimal.NewFromInt(10000000),
		DependentAmount:           decimal.NewFromInt(380000),
		ElderlyDependentAmount:    decimal.NewFromInt(580000),
		SpecificDependentAmount:   decimal.NewFromInt(630000),
		EarthquakeInsuranceCap:    decimal.NewFromInt(50000),
		DonationFloor:             decimal.NewFromInt(2000),
		MedicalThresholdRate:      decimal.NewFromFloat(0.05),
		MedicalThresholdCap:       decimal.NewFromInt(100000),
		LifeInsuranceDeductionCap: decimal.NewFromInt(40000),
	}
}

// CalculateBasicDeduction phases the basic deduction out above 24,000,000.
func (dc *DeductionCalculator) CalculateBasicDeduction(totalIncome decimal.Decimal) decimal.Decimal {
	switch {
	case totalIncome.LessThanOrEqual(decimal.NewFromInt(24000000)):
		return dc.BasicAmount
	case totalIncome.LessThanOrEqual(decimal.NewFromInt(24500000)):
		return decimal.NewFromInt(320000)
	case totalIncome.LessThanOrEqual(decimal.NewFromInt(25000000)):
		return decimal.NewFromInt(160000)
	default:
		return decimal.Zero
	}
}

// CalculateSpouseDeduction steps the spouse deduction down by the filer's
// total income and disallows it once the spouse earns above the limit.
func (dc *DeductionCalculator) CalculateSpouseDeduction(spouseIncome, totalIncome decimal.Decimal) decimal.Decimal {
	if spouseIncome.GreaterThan(dc.SpouseIncomeLimit) || totalIncome.GreaterThan(dc.SpouseTaxpayerIncomeCap) {
		return decimal.Zero
	}

	var base decimal.Decimal
	switch {
	case totalIncome.LessThanOrEqual(decimal.NewFromInt(9000000)):
		base = dc.SpouseAmount
	case totalIncome.LessThanOrEqual(decimal.NewFromInt(9500000)):
		base = decimal.NewFromInt(260000)
	default:
		base = decimal.NewFromInt(130000)
	}

	excess := decimal.Max(decimal.Zero, spouseIncome.Sub(dc.SpouseIncomeLimit))
	return decimal.Max(decimal.Zero, base.Sub(excess))
}

// CalculateDependentDeduction sums the per-dependent amounts by age band.
func (dc *DeductionCalculator) CalculateDependentDeduction(dependents []domain.Dependent) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, d := range dependents {
		switch {
		case d.Age < 0:
			return decimal.Zero, fmt.Errorf("%w: dependent %d has negative age %d", ErrInvalidInput, i, d.Age)
		case d.Age >= 70:
			total = total.Add(dc.ElderlyDependentAmount)
		case d.Age >= 19 && d.Age <= 22:
			total = total.Add(dc.SpecificDependentAmount)
		default:
			total = total.Add(dc.DependentAmount)
		}
	}
	return total, nil
}

func (dc *DeductionCalculator) CalculateSocialInsuranceDeduction(premium decimal.Decimal) decimal.Decimal {
	return premium
}

// CalculateLifeInsuranceDeduction applies the tiered premium formula.
func (dc *DeductionCalculator) CalculateLifeInsuranceDeduction(premium decimal.Decimal) decimal.Decimal {
	switch {
	case premium.LessThanOrEqual(decimal.NewFromInt(20000)):
		return premium
	case premium.LessThanOrEqual(decimal.NewFromInt(40000)):
		return premium.Mul(decimal.NewFromFloat(0.5)).Add(decimal.NewFromInt(10000))
	case premium.LessThanOrEqual(decimal.NewFromInt(80000)):
		return premium.Mul(decimal.NewFromFloat(0.25)).Add(decimal.NewFromInt(20000))
	default:
		return dc.LifeInsuranceDeductionCap
	}
}

func (dc *DeductionCalculator) CalculateEarthquakeInsuranceDeduction(premium decimal.Decimal) decimal.Decimal {
	return decimal.Min(premium, dc.EarthquakeInsuranceCap)
}

func (dc *DeductionCalculator) CalculateDonationDeduction(donation decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, donation.Sub(dc.DonationFloor))
}

// CalculateMedicalDeduction deducts expenses above min(5% of total income, 100,000).
func (dc *DeductionCalculator) CalculateMedicalDeduction(expense, totalIncome decimal.Decimal) decimal.Decimal {
	threshold := decimal.Min(totalIncome.Mul(dc.MedicalThresholdRate), dc.MedicalThresholdCap)
	return decimal.Max(decimal.Zero, expense.Sub(threshold))
}

// CalculateTotalDeductions evaluates every deduction for the return. HomeLoan
// is copied through for reporting; it is applied later as a tax credit and is
// excluded from Total.
func (dc *DeductionCalculator) CalculateTotalDeductions(tr *domain.TaxReturnData, totalIncome decimal.Decimal) (domain.DeductionBreakdown, error) {
	var b domain.DeductionBreakdown
	d := tr.Deductions

	if d.BasicDeduction {
		b.Basic = dc.CalculateBasicDeduction(totalIncome)
	}
	if d.SpouseDeduction {
		b.Spouse = dc.CalculateSpouseDeduction(tr.PersonalInfo.SpouseIncome, totalIncome)
	}

	dep, err := dc.CalculateDependentDeduction(tr.PersonalInfo.Dependents)
	if err != nil {
		return b, err
	}
	b.Dependent = dep
	b.SocialInsurance = dc.CalculateSocialInsuranceDeduction(d.SocialInsurancePremium)
	b.LifeInsurance = dc.CalculateLifeInsuranceDeduction(d.LifeInsurancePremium)
	b.EarthquakeInsurance = dc.CalculateEarthquakeInsuranceDeduction(d.EarthquakeInsurancePremium)
	b.Donation = dc.CalculateDonationDeduction(d.Donation)
	b.Medical = dc.CalculateMedicalDeduction(d.MedicalExpense, totalIncome)
	b.HomeLoan = d.HomeLoanDeduction
	b.Total = b.SumIncomeDeductions()
	return b, nil
}
