package calculation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/kakutei/tax-calculator/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// maxConcurrentScenarios bounds the goroutines used by RunScenarios.
const maxConcurrentScenarios = 10

// CalculationEngine sequences income, deduction and tax calculation for a
// return. It holds no per-call state and is safe for concurrent use.
type CalculationEngine struct {
	IncomeCalc    *IncomeCalculator
	DeductionCalc *DeductionCalculator
	TaxCalc       *TaxCalculator
	Logger        Logger

	// Now is used to timestamp scenario snapshots; tests may pin it.
	Now func() time.Time
}

// NewCalculationEngine creates a new calculation engine with the statutory tables
func NewCalculationEngine() *CalculationEngine {
	return &CalculationEngine{
		IncomeCalc:    NewIncomeCalculator(),
		DeductionCalc: NewDeductionCalculator(),
		TaxCalc:       NewTaxCalculator(),
		Logger:        NopLogger{},
		Now:           time.Now,
	}
}

// NewCalculationEngineWithRules creates a calculation engine whose bracket
// tables are overridden by rules. A nil rules value yields the defaults.
func NewCalculationEngineWithRules(rules *domain.TaxRules) (*CalculationEngine, error) {
	ic, err := NewIncomeCalculatorWithRules(rules)
	if err != nil {
		return nil, err
	}
	tc, err := NewTaxCalculatorWithRules(rules)
	if err != nil {
		return nil, err
	}
	ce := NewCalculationEngine()
	ce.IncomeCalc = ic
	ce.TaxCalc = tc
	return ce, nil
}

// SetLogger sets the logger for the calculation engine. If nil is provided, a no-op logger is used.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

// CalculateAllTaxes computes the full result for one return snapshot. The
// input is not modified; attach the result with TaxReturnData.WithResult.
func (ce *CalculationEngine) CalculateAllTaxes(tr *domain.TaxReturnData) (*domain.TaxCalculationResult, error) {
	if tr == nil {
		return nil, fmt.Errorf("%w: nil tax return", ErrInvalidInput)
	}
	if err := ValidateTaxReturn(tr); err != nil {
		return nil, err
	}
	for _, t := range tr.Transactions {
		if !dateutil.InTaxYear(t.Date, tr.TaxSettings.TaxYear) {
			ce.Logger.Warnf("transaction %s dated %s falls outside tax year %d and is still counted",
				t.ID, t.Date.Format("2006-01-02"), tr.TaxSettings.TaxYear)
		}
	}

	incomeByCategory, err := tr.IncomeByCategory()
	if err != nil {
		return nil, err
	}
	expenseByCategory, err := tr.ExpenseByCategory()
	if err != nil {
		return nil, err
	}

	income, err := ce.IncomeCalc.CalculateTotalIncome(incomeByCategory, expenseByCategory, tr.TaxSettings.FilingType)
	if err != nil {
		return nil, fmt.Errorf("income: %w", err)
	}
	deductions, err := ce.DeductionCalc.CalculateTotalDeductions(tr, income.Total)
	if err != nil {
		return nil, fmt.Errorf("deductions: %w", err)
	}

	tc := ce.TaxCalc
	taxable := decimal.Max(decimal.Zero, income.Total.Sub(deductions.Total))

	incomeTax, err := tc.CalculateIncomeTax(taxable)
	if err != nil {
		return nil, fmt.Errorf("income tax: %w", err)
	}
	businessTax, err := tc.CalculateBusinessTax(income.Business)
	if err != nil {
		return nil, fmt.Errorf("business tax: %w", err)
	}
	reconstructionTax := tc.CalculateReconstructionTax(incomeTax)
	residentTax := tc.CalculateResidentTax(taxable)
	consumptionTax := tc.CalculateConsumptionTax(incomeByCategory[domain.IncomeBusiness])

	finalIncomeTax, creditApplied := tc.ApplyHomeLoanCredit(incomeTax, deductions.HomeLoan)
	totalTax := finalIncomeTax.Add(reconstructionTax).Add(residentTax).Add(businessTax).Add(consumptionTax)

	withholding, prepaid := tc.PaidTaxes(tr.Transactions)
	due, refund := tc.Reconcile(totalTax, withholding.Add(prepaid))

	totalExpense := tr.TotalExpense()
	result := &domain.TaxCalculationResult{
		TotalIncome:              income.Total,
		TotalExpense:             totalExpense,
		NetIncome:                income.Total.Sub(totalExpense),
		TotalDeductions:          deductions.Total,
		TaxableIncome:            taxable,
		IncomeTaxBeforeCredit:    incomeTax,
		IncomeTax:                finalIncomeTax,
		ReconstructionTax:        reconstructionTax,
		ResidentTax:              residentTax,
		BusinessTax:              businessTax,
		ConsumptionTax:           consumptionTax,
		TotalTax:                 totalTax,
		WithholdingTax:           withholding,
		PrepaidTax:               prepaid,
		TaxDue:                   due,
		RefundAmount:             refund,
		HomeLoanDeductionApplied: creditApplied,
		EffectiveTaxRate:         effectiveTaxRate(totalTax, income.Total),
		EstimatedQuarterlyTax:    tc.CalculateEstimatedQuarterlyTax(finalIncomeTax),
		IncomeBreakdown:          income,
		DeductionBreakdown:       deductions,
	}

	ce.Logger.Debugf("tax year %d: income=%s deductions=%s taxable=%s total_tax=%s due=%s refund=%s",
		tr.TaxSettings.TaxYear, income.Total, deductions.Total, taxable, totalTax, due, refund)
	return result, nil
}

// effectiveTaxRate is total tax as a percentage of total income, to two places.
func effectiveTaxRate(totalTax, totalIncome decimal.Decimal) decimal.Decimal {
	if !totalIncome.IsPositive() {
		return decimal.Zero
	}
	return totalTax.Div(totalIncome).Mul(decimal.NewFromInt(100)).Round(2)
}

// ValidateTaxReturn rejects input the engine cannot compute: unknown
// vocabulary, negative amounts and negative dependent ages. Categories are
// only checked on tax-related transactions, the ones aggregation reads.
func ValidateTaxReturn(tr *domain.TaxReturnData) error {
	switch tr.TaxSettings.FilingType {
	case domain.FilingBlue, domain.FilingWhite:
	default:
		return fmt.Errorf("%w: filing type %s", ErrInvalidInput, tr.TaxSettings.FilingType)
	}

	for _, t := range tr.Transactions {
		if t.Amount.IsNegative() {
			return fmt.Errorf("%w: transaction %s amount %s", ErrNegativeAmount, t.ID, t.Amount)
		}
		var err error
		switch t.Type {
		case domain.TransactionTypeIncome:
			if t.TaxRelated {
				_, err = t.IncomeCategory()
			}
		case domain.TransactionTypeExpense:
			if t.TaxRelated {
				_, err = t.ExpenseCategory()
			}
		default:
			return fmt.Errorf("%w: transaction %s has type %s", ErrInvalidInput, t.ID, t.Type)
		}
		if err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}

	d := tr.Deductions
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"social_insurance_premium", d.SocialInsurancePremium},
		{"life_insurance_premium", d.LifeInsurancePremium},
		{"earthquake_insurance_premium", d.EarthquakeInsurancePremium},
		{"donation", d.Donation},
		{"medical_expense", d.MedicalExpense},
		{"home_loan_deduction", d.HomeLoanDeduction},
		{"spouse_income", tr.PersonalInfo.SpouseIncome},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return fmt.Errorf("%w: %s %s", ErrNegativeAmount, a.name, a.value)
		}
	}
	if err := ValidateHomeLoanBalance(d.HomeLoanBalance); err != nil {
		return err
	}

	for i, dep := range tr.PersonalInfo.Dependents {
		if dep.Age < 0 {
			return fmt.Errorf("%w: dependent %d has negative age %d", ErrInvalidInput, i, dep.Age)
		}
	}
	return nil
}

// ValidateHomeLoanBalance rejects a negative year-end loan balance. A nil
// balance means none was given.
func ValidateHomeLoanBalance(balance *decimal.Decimal) error {
	if balance != nil && balance.IsNegative() {
		return fmt.Errorf("%w: home_loan_balance %s", ErrNegativeAmount, balance)
	}
	return nil
}

// RunScenarios computes the baseline return and every scenario in cfg. Each
// run works on its own snapshot, so they execute concurrently. The first
// error encountered in input order is returned.
func (ce *CalculationEngine) RunScenarios(ctx context.Context, cfg *domain.Configuration) (*domain.ScenarioComparison, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil configuration", ErrInvalidInput)
	}
	now := time.Now
	if ce.Now != nil {
		now = ce.Now
	}

	base := &cfg.TaxReturn
	inputs := make([]*domain.TaxReturnData, len(cfg.Scenarios)+1)
	inputs[0] = base
	for i, s := range cfg.Scenarios {
		inputs[i+1] = s.Apply(base, now())
	}

	results := make([]*domain.TaxCalculationResult, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentScenarios)

	for i := range inputs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = ce.CalculateAllTaxes(inputs[idx])
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if i == 0 {
			return nil, fmt.Errorf("baseline: %w", err)
		}
		return nil, fmt.Errorf("scenario %q: %w", cfg.Scenarios[i-1].Name, err)
	}

	baseline := results[0]
	comparison := &domain.ScenarioComparison{
		Baseline:  baseline,
		Scenarios: make([]domain.ScenarioResult, 0, len(cfg.Scenarios)),
	}
	lowest := baseline.TotalTax
	for i, s := range cfg.Scenarios {
		r := results[i+1]
		comparison.Scenarios = append(comparison.Scenarios, domain.ScenarioResult{
			Name:          s.Name,
			Result:        r,
			TotalTaxDelta: r.TotalTax.Sub(baseline.TotalTax),
			BalanceDelta:  r.Balance().Sub(baseline.Balance()),
		})
		if r.TotalTax.LessThan(lowest) {
			lowest = r.TotalTax
			comparison.LowestTaxScenario = s.Name
		}
	}

	ce.Logger.Infof("computed baseline and %d scenarios", len(cfg.Scenarios))
	return comparison, nil
}
