package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BracketConfig is one (threshold, rate, offset) row of a progressive table.
// A nil UpTo marks the unbounded top row.
type BracketConfig struct {
	UpTo   *decimal.Decimal `yaml:"up_to,omitempty" json:"up_to,omitempty"`
	Rate   decimal.Decimal  `yaml:"rate" json:"rate"`
	Offset decimal.Decimal  `yaml:"offset" json:"offset"`
}

// TaxRules overrides the statutory tables. Empty tables fall back to defaults.
type TaxRules struct {
	SalaryDeductionBrackets []BracketConfig `yaml:"salary_deduction_brackets,omitempty" json:"salary_deduction_brackets,omitempty"`
	IncomeTaxBrackets       []BracketConfig `yaml:"income_tax_brackets,omitempty" json:"income_tax_brackets,omitempty"`
}

// Scenario is a named what-if variant of the base return. Nil fields keep the
// base value.
type Scenario struct {
	Name                  string           `yaml:"name" json:"name"`
	FilingType            *FilingType      `yaml:"filing_type,omitempty" json:"filing_type,omitempty"`
	Deductions            *Deductions      `yaml:"deductions,omitempty" json:"deductions,omitempty"`
	SpouseIncome          *decimal.Decimal `yaml:"spouse_income,omitempty" json:"spouse_income,omitempty"`
	Dependents            []Dependent      `yaml:"dependents,omitempty" json:"dependents,omitempty"`
	AddTransactions       []Transaction    `yaml:"add_transactions,omitempty" json:"add_transactions,omitempty"`
	ExcludeTransactionIDs []string         `yaml:"exclude_transaction_ids,omitempty" json:"exclude_transaction_ids,omitempty"`
}

// Apply builds the scenario's snapshot of base. base itself is left untouched.
func (s Scenario) Apply(base *TaxReturnData, now time.Time) *TaxReturnData {
	c := base.Clone()
	c.CalculationResult = nil
	if s.FilingType != nil {
		c.TaxSettings.FilingType = *s.FilingType
	}
	if s.Deductions != nil {
		c.Deductions = *s.Deductions
	}
	if s.SpouseIncome != nil {
		c.PersonalInfo.SpouseIncome = *s.SpouseIncome
	}
	if s.Dependents != nil {
		c.PersonalInfo.Dependents = append([]Dependent(nil), s.Dependents...)
	}
	for _, id := range s.ExcludeTransactionIDs {
		c = c.RemoveTransaction(id, now)
	}
	for _, t := range s.AddTransactions {
		c = c.AddTransaction(t, now)
	}
	return c
}

// Configuration is the input document: one return plus optional scenarios and rule overrides.
type Configuration struct {
	TaxReturn TaxReturnData `yaml:"tax_return" json:"tax_return"`
	Scenarios []Scenario    `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`
	TaxRules  *TaxRules     `yaml:"tax_rules,omitempty" json:"tax_rules,omitempty"`
}

// ScenarioResult is the outcome of one scenario with deltas against the baseline.
type ScenarioResult struct {
	Name          string                `yaml:"name" json:"name"`
	Result        *TaxCalculationResult `yaml:"result" json:"result"`
	TotalTaxDelta decimal.Decimal       `yaml:"total_tax_delta" json:"total_tax_delta"`
	BalanceDelta  decimal.Decimal       `yaml:"balance_delta" json:"balance_delta"`
}

// ScenarioComparison holds the baseline and every scenario outcome in input order.
type ScenarioComparison struct {
	Baseline  *TaxCalculationResult `yaml:"baseline" json:"baseline"`
	Scenarios []ScenarioResult      `yaml:"scenarios" json:"scenarios"`
	// LowestTaxScenario is empty when no scenario beats the baseline.
	LowestTaxScenario string `yaml:"lowest_tax_scenario,omitempty" json:"lowest_tax_scenario,omitempty"`
}
