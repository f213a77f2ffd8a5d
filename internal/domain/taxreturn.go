package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kakutei/tax-calculator/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// Dependent is a person claimed for the dependent deduction. Age is the age at
// the end of the tax year; the input layer derives it from BirthDate when absent.
type Dependent struct {
	Name         string     `yaml:"name,omitempty" json:"name,omitempty"`
	Relationship string     `yaml:"relationship,omitempty" json:"relationship,omitempty"`
	Age          int        `yaml:"age" json:"age"`
	BirthDate    *time.Time `yaml:"birth_date,omitempty" json:"birth_date,omitempty"`
}

type dependentFields Dependent

// UnmarshalJSON accepts the same birth_date forms as a transaction date.
func (d *Dependent) UnmarshalJSON(data []byte) error {
	var fields dependentFields
	doc := struct {
		*dependentFields
		BirthDate *string `json:"birth_date"`
	}{dependentFields: &fields}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.BirthDate != nil && *doc.BirthDate != "" {
		born, err := ParseDate(*doc.BirthDate)
		if err != nil {
			return fmt.Errorf("birth_date: %w", err)
		}
		fields.BirthDate = &born
	}
	*d = Dependent(fields)
	return nil
}

// PersonalInfo holds the filer's identity and household data
type PersonalInfo struct {
	Name         string          `yaml:"name" json:"name"`
	NameKana     string          `yaml:"name_kana,omitempty" json:"name_kana,omitempty"`
	Address      string          `yaml:"address,omitempty" json:"address,omitempty"`
	PostalCode   string          `yaml:"postal_code,omitempty" json:"postal_code,omitempty"`
	Phone        string          `yaml:"phone,omitempty" json:"phone,omitempty"`
	BirthDate    string          `yaml:"birth_date,omitempty" json:"birth_date,omitempty"`
	Occupation   string          `yaml:"occupation,omitempty" json:"occupation,omitempty"`
	MyNumber     string          `yaml:"my_number,omitempty" json:"my_number,omitempty"`
	SpouseName   string          `yaml:"spouse_name,omitempty" json:"spouse_name,omitempty"`
	SpouseIncome decimal.Decimal `yaml:"spouse_income" json:"spouse_income"`
	Dependents   []Dependent     `yaml:"dependents,omitempty" json:"dependents,omitempty"`
}

// BankAccount is the refund destination. It is not used in the computation.
type BankAccount struct {
	BankName      string `yaml:"bank_name,omitempty" json:"bank_name,omitempty"`
	BranchName    string `yaml:"branch_name,omitempty" json:"branch_name,omitempty"`
	AccountType   string `yaml:"account_type,omitempty" json:"account_type,omitempty"`
	AccountNumber string `yaml:"account_number,omitempty" json:"account_number,omitempty"`
	AccountHolder string `yaml:"account_holder,omitempty" json:"account_holder,omitempty"`
}

// TaxSettings describes the filing for a tax year
type TaxSettings struct {
	TaxYear          int              `yaml:"tax_year" json:"tax_year"`
	FilingType       FilingType       `yaml:"filing_type" json:"filing_type"`
	BusinessType     string           `yaml:"business_type,omitempty" json:"business_type,omitempty"`
	StartDate        *time.Time       `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	AccountingMethod AccountingMethod `yaml:"accounting_method,omitempty" json:"accounting_method,omitempty"`
}

// Deductions holds the filer's elections and raw premium/expense amounts.
// The booleans gate whether a deduction is evaluated at all.
type Deductions struct {
	BasicDeduction             bool            `yaml:"basic_deduction" json:"basic_deduction"`
	SpouseDeduction            bool            `yaml:"spouse_deduction" json:"spouse_deduction"`
	SocialInsurancePremium     decimal.Decimal `yaml:"social_insurance_premium" json:"social_insurance_premium"`
	LifeInsurancePremium       decimal.Decimal `yaml:"life_insurance_premium" json:"life_insurance_premium"`
	EarthquakeInsurancePremium decimal.Decimal `yaml:"earthquake_insurance_premium" json:"earthquake_insurance_premium"`
	Donation                   decimal.Decimal `yaml:"donation" json:"donation"`
	MedicalExpense             decimal.Decimal `yaml:"medical_expense" json:"medical_expense"`
	// HomeLoanDeduction is the pre-capped credit amount; it is applied against income tax.
	HomeLoanDeduction decimal.Decimal `yaml:"home_loan_deduction" json:"home_loan_deduction"`
	// HomeLoanBalance is optional; the input layer derives HomeLoanDeduction from it.
	HomeLoanBalance *decimal.Decimal `yaml:"home_loan_balance,omitempty" json:"home_loan_balance,omitempty"`
}

// TaxReturnData is the aggregate root for one year's return. Methods never
// mutate the receiver; the ones that change content return a new snapshot.
type TaxReturnData struct {
	PersonalInfo      PersonalInfo          `yaml:"personal_info" json:"personal_info"`
	BankAccount       BankAccount           `yaml:"bank_account,omitempty" json:"bank_account,omitempty"`
	TaxSettings       TaxSettings           `yaml:"tax_settings" json:"tax_settings"`
	Deductions        Deductions            `yaml:"deductions" json:"deductions"`
	Transactions      []Transaction         `yaml:"transactions" json:"transactions"`
	CalculationResult *TaxCalculationResult `yaml:"calculation_result,omitempty" json:"calculation_result,omitempty"`
	CreatedAt         time.Time             `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt         time.Time             `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Clone returns a copy that shares no slices with the receiver.
func (tr *TaxReturnData) Clone() *TaxReturnData {
	c := *tr
	c.Transactions = append([]Transaction(nil), tr.Transactions...)
	c.PersonalInfo.Dependents = append([]Dependent(nil), tr.PersonalInfo.Dependents...)
	if tr.CalculationResult != nil {
		r := *tr.CalculationResult
		c.CalculationResult = &r
	}
	return &c
}

// AddTransaction returns a snapshot with t appended.
func (tr *TaxReturnData) AddTransaction(t Transaction, now time.Time) *TaxReturnData {
	c := tr.Clone()
	c.Transactions = append(c.Transactions, t)
	c.UpdatedAt = now
	return c
}

// RemoveTransaction returns a snapshot without the transaction with the given ID.
func (tr *TaxReturnData) RemoveTransaction(id string, now time.Time) *TaxReturnData {
	c := tr.Clone()
	kept := c.Transactions[:0]
	for _, t := range c.Transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	c.Transactions = kept
	c.UpdatedAt = now
	return c
}

// ReplaceTransaction returns a snapshot where the transaction sharing t's ID is replaced.
func (tr *TaxReturnData) ReplaceTransaction(t Transaction, now time.Time) (*TaxReturnData, error) {
	c := tr.Clone()
	for i := range c.Transactions {
		if c.Transactions[i].ID == t.ID {
			c.Transactions[i] = t
			c.UpdatedAt = now
			return c, nil
		}
	}
	return nil, fmt.Errorf("transaction %q not found", t.ID)
}

// WithResult returns a snapshot carrying the given calculation result.
func (tr *TaxReturnData) WithResult(r *TaxCalculationResult) *TaxReturnData {
	c := tr.Clone()
	c.CalculationResult = r
	return c
}

func (tr *TaxReturnData) TransactionsByType(typ TransactionType) []Transaction {
	var out []Transaction
	for _, t := range tr.Transactions {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

func (tr *TaxReturnData) TransactionsByCategory(category string) []Transaction {
	var out []Transaction
	for _, t := range tr.Transactions {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// TransactionsByDateRange returns transactions dated within [start, end].
func (tr *TaxReturnData) TransactionsByDateRange(start, end time.Time) []Transaction {
	var out []Transaction
	for _, t := range tr.Transactions {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out
}

// TotalByCategory sums tax-related transactions carrying the category string.
func (tr *TaxReturnData) TotalByCategory(category string) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tr.TransactionsByCategory(category) {
		if t.TaxRelated {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalIncome is the gross of tax-related income transactions
func (tr *TaxReturnData) TotalIncome() decimal.Decimal {
	return tr.totalOfType(TransactionTypeIncome)
}

// TotalExpense is the gross of tax-related expense transactions
func (tr *TaxReturnData) TotalExpense() decimal.Decimal {
	return tr.totalOfType(TransactionTypeExpense)
}

func (tr *TaxReturnData) totalOfType(typ TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tr.TransactionsByType(typ) {
		if t.TaxRelated {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// IncomeByCategory totals tax-related income per category. An unknown
// category is an input error.
func (tr *TaxReturnData) IncomeByCategory() (map[IncomeCategory]decimal.Decimal, error) {
	out := make(map[IncomeCategory]decimal.Decimal)
	for _, t := range tr.Transactions {
		if !t.IsIncome() || !t.TaxRelated {
			continue
		}
		c, err := t.IncomeCategory()
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		out[c] = out[c].Add(t.Amount)
	}
	return out, nil
}

// ExpenseByCategory totals tax-related expenses per category.
func (tr *TaxReturnData) ExpenseByCategory() (map[ExpenseCategory]decimal.Decimal, error) {
	out := make(map[ExpenseCategory]decimal.Decimal)
	for _, t := range tr.Transactions {
		if !t.IsExpense() || !t.TaxRelated {
			continue
		}
		c, err := t.ExpenseCategory()
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		out[c] = out[c].Add(t.Amount)
	}
	return out, nil
}

// PeriodSummary is the income/expense/net total of one period.
type PeriodSummary struct {
	Period  string          `yaml:"period" json:"period"`
	Income  decimal.Decimal `yaml:"income" json:"income"`
	Expense decimal.Decimal `yaml:"expense" json:"expense"`
	Net     decimal.Decimal `yaml:"net" json:"net"`
}

// MonthlySummary groups tax-related transactions by "YYYY-MM", sorted ascending.
func (tr *TaxReturnData) MonthlySummary() []PeriodSummary {
	return tr.summarize(dateutil.MonthKey)
}

// QuarterlySummary groups tax-related transactions by "YYYY-Qn", sorted ascending.
func (tr *TaxReturnData) QuarterlySummary() []PeriodSummary {
	return tr.summarize(dateutil.QuarterKey)
}

func (tr *TaxReturnData) summarize(key func(time.Time) string) []PeriodSummary {
	byKey := make(map[string]*PeriodSummary)
	for _, t := range tr.Transactions {
		if !t.TaxRelated {
			continue
		}
		k := key(t.Date)
		s, ok := byKey[k]
		if !ok {
			s = &PeriodSummary{Period: k}
			byKey[k] = s
		}
		switch t.Type {
		case TransactionTypeIncome:
			s.Income = s.Income.Add(t.Amount)
		case TransactionTypeExpense:
			s.Expense = s.Expense.Add(t.Amount)
		}
		s.Net = s.Income.Sub(s.Expense)
	}
	out := make([]PeriodSummary, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
