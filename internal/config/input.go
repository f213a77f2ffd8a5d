package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kakutei/tax-calculator/internal/calculation"
	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/kakutei/tax-calculator/pkg/dateutil"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Format is an input or output document encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// FormatFromFilename picks the encoding from the file extension. Anything
// other than .json is read as YAML.
func FormatFromFilename(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// InputParser handles parsing of input configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads configuration from a YAML or JSON file. The document may
// be a full configuration with a tax_return key or a bare tax return.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data, FormatFromFilename(filename))
}

// LoadTaxReturn loads only the return from a configuration file.
func (ip *InputParser) LoadTaxReturn(filename string) (*domain.TaxReturnData, error) {
	config, err := ip.LoadFromFile(filename)
	if err != nil {
		return nil, err
	}
	return &config.TaxReturn, nil
}

// Parse decodes, normalizes and validates a configuration document.
func (ip *InputParser) Parse(data []byte, format Format) (*domain.Configuration, error) {
	config, err := ip.Decode(data, format)
	if err != nil {
		return nil, err
	}
	ip.Normalize(config)
	if err := ip.ValidateConfiguration(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Decode reads a configuration document without normalizing or validating it.
func (ip *InputParser) Decode(data []byte, format Format) (*domain.Configuration, error) {
	var config domain.Configuration

	switch format {
	case FormatJSON:
		var top map[string]json.RawMessage
		if err := json.Unmarshal(data, &top); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		if _, ok := top["tax_return"]; ok {
			err := json.Unmarshal(data, &config)
			if err != nil {
				return nil, fmt.Errorf("failed to parse JSON: %w", err)
			}
		} else if err := json.Unmarshal(data, &config.TaxReturn); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		var top map[string]yaml.Node
		if err := yaml.Unmarshal(data, &top); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if _, ok := top["tax_return"]; ok {
			err := yaml.Unmarshal(data, &config)
			if err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &config.TaxReturn); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	return &config, nil
}

// Normalize fills in values the input may leave out: the filing type
// defaults to blue, transactions get IDs, dependents with a birth date get
// their age at year end, and a home-loan balance becomes the capped credit.
func (ip *InputParser) Normalize(config *domain.Configuration) {
	tr := &config.TaxReturn
	if tr.TaxSettings.FilingType == 0 {
		tr.TaxSettings.FilingType = domain.FilingBlue
	}
	year := tr.TaxSettings.TaxYear

	assignIDs(tr.Transactions)
	deriveAges(tr.PersonalInfo.Dependents, year)
	deriveHomeLoanDeduction(&tr.Deductions)

	for i := range config.Scenarios {
		s := &config.Scenarios[i]
		assignIDs(s.AddTransactions)
		deriveAges(s.Dependents, year)
		if s.Deductions != nil {
			deriveHomeLoanDeduction(s.Deductions)
		}
	}
}

func assignIDs(txs []domain.Transaction) {
	for i := range txs {
		if strings.TrimSpace(txs[i].ID) == "" {
			txs[i].ID = uuid.NewString()
		}
	}
}

func deriveAges(deps []domain.Dependent, taxYear int) {
	for i := range deps {
		if deps[i].Age == 0 && deps[i].BirthDate != nil && taxYear > 0 {
			deps[i].Age = dateutil.AgeAtYearEnd(*deps[i].BirthDate, taxYear)
		}
	}
}

func deriveHomeLoanDeduction(d *domain.Deductions) {
	if d.HomeLoanDeduction.IsZero() && d.HomeLoanBalance != nil {
		d.HomeLoanDeduction = calculation.HomeLoanDeductionCap(*d.HomeLoanBalance)
	}
}

// ValidateConfiguration validates the loaded configuration
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if err := ip.validateTaxReturn(&config.TaxReturn); err != nil {
		return fmt.Errorf("tax return: %w", err)
	}

	if rules := config.TaxRules; rules != nil {
		if err := validateBrackets(rules.SalaryDeductionBrackets); err != nil {
			return fmt.Errorf("tax_rules.salary_deduction_brackets: %w", err)
		}
		if err := validateBrackets(rules.IncomeTaxBrackets); err != nil {
			return fmt.Errorf("tax_rules.income_tax_brackets: %w", err)
		}
	}

	known := make(map[string]bool, len(config.TaxReturn.Transactions))
	for _, t := range config.TaxReturn.Transactions {
		known[t.ID] = true
	}
	names := make(map[string]bool, len(config.Scenarios))
	for i, scenario := range config.Scenarios {
		if err := ip.validateScenario(&scenario, known); err != nil {
			return fmt.Errorf("scenario %d validation failed: %w", i, err)
		}
		if names[scenario.Name] {
			return fmt.Errorf("%w: duplicate scenario name %q", calculation.ErrInvalidInput, scenario.Name)
		}
		names[scenario.Name] = true
	}

	return nil
}

// validateBrackets accepts an empty table, which means the statutory default.
func validateBrackets(rows []domain.BracketConfig) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := calculation.BracketsFromConfig(rows)
	return err
}

func (ip *InputParser) validateTaxReturn(tr *domain.TaxReturnData) error {
	if tr.TaxSettings.TaxYear <= 0 {
		return fmt.Errorf("%w: tax_settings.tax_year is required", calculation.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(tr.Transactions))
	for i, t := range tr.Transactions {
		if err := validateTransaction(t); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate transaction id %s", calculation.ErrInvalidInput, t.ID)
		}
		seen[t.ID] = true
	}

	return calculation.ValidateTaxReturn(tr)
}

func validateTransaction(t domain.Transaction) error {
	if t.Date.IsZero() {
		return fmt.Errorf("%w: transaction %s has no date", calculation.ErrInvalidInput, t.ID)
	}
	return nil
}

func (ip *InputParser) validateScenario(scenario *domain.Scenario, known map[string]bool) error {
	if strings.TrimSpace(scenario.Name) == "" {
		return fmt.Errorf("%w: scenario name is required", calculation.ErrInvalidInput)
	}
	for _, id := range scenario.ExcludeTransactionIDs {
		if !known[id] {
			return fmt.Errorf("%w: exclude_transaction_ids references unknown transaction %s", calculation.ErrInvalidInput, id)
		}
	}
	for _, t := range scenario.AddTransactions {
		if err := validateTransaction(t); err != nil {
			return err
		}
	}
	if scenario.Deductions != nil {
		if err := calculation.ValidateHomeLoanBalance(scenario.Deductions.HomeLoanBalance); err != nil {
			return err
		}
	}
	if scenario.SpouseIncome != nil && scenario.SpouseIncome.IsNegative() {
		return fmt.Errorf("%w: spouse_income %s", calculation.ErrNegativeAmount, scenario.SpouseIncome)
	}
	for i, dep := range scenario.Dependents {
		if dep.Age < 0 {
			return fmt.Errorf("%w: dependent %d has negative age %d", calculation.ErrInvalidInput, i, dep.Age)
		}
	}
	// category, amount and deduction checks run again on the applied snapshot
	return nil
}

// WriteConfiguration encodes cfg to w in the given format.
func (ip *InputParser) WriteConfiguration(w io.Writer, config *domain.Configuration, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(config)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return err
	}
	return enc.Close()
}

// CreateExampleConfiguration creates an example configuration for testing
func (ip *InputParser) CreateExampleConfiguration() *domain.Configuration {
	day := func(month time.Month, d int) time.Time {
		return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
	}
	yen := decimal.NewFromInt
	childBirth := time.Date(2004, time.June, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC)
	loanBalance := yen(28000000)

	tx := func(id string, date time.Time, typ domain.TransactionType, category string, amount int64, desc string) domain.Transaction {
		return domain.Transaction{
			ID:          id,
			Date:        date,
			Type:        typ,
			Category:    category,
			Amount:      yen(amount),
			Description: desc,
			TaxRelated:  true,
		}
	}
	income, expense := domain.TransactionTypeIncome, domain.TransactionTypeExpense

	white := domain.FilingWhite
	noLoan := domain.Deductions{
		BasicDeduction:             true,
		SpouseDeduction:            true,
		SocialInsurancePremium:     yen(420000),
		LifeInsurancePremium:       yen(80000),
		EarthquakeInsurancePremium: yen(20000),
		Donation:                   yen(30000),
		MedicalExpense:             yen(60000),
	}
	withLoan := noLoan
	withLoan.HomeLoanBalance = &loanBalance

	return &domain.Configuration{
		TaxReturn: domain.TaxReturnData{
			PersonalInfo: domain.PersonalInfo{
				Name:         "山田 太郎",
				NameKana:     "ヤマダ タロウ",
				Address:      "東京都千代田区丸の内1-1-1",
				PostalCode:   "100-0005",
				Occupation:   "ソフトウェア開発",
				SpouseName:   "山田 花子",
				SpouseIncome: yen(400000),
				Dependents: []domain.Dependent{
					{Name: "山田 一郎", Relationship: "子", BirthDate: &childBirth},
				},
			},
			BankAccount: domain.BankAccount{
				BankName:      "みずほ銀行",
				BranchName:    "丸の内支店",
				AccountType:   "普通",
				AccountNumber: "1234567",
				AccountHolder: "ヤマダ タロウ",
			},
			TaxSettings: domain.TaxSettings{
				TaxYear:          2024,
				FilingType:       domain.FilingBlue,
				BusinessType:     "ソフトウェア開発業",
				StartDate:        &start,
				AccountingMethod: domain.AccountingAccrual,
			},
			Deductions: noLoan,
			Transactions: []domain.Transaction{
				tx("sal-2024", day(time.December, 25), income, "salary", 3000000, "給与収入(年間)"),
				tx("biz-q1", day(time.March, 31), income, "business", 1800000, "受託開発 第1四半期"),
				tx("biz-q2", day(time.June, 30), income, "business", 1800000, "受託開発 第2四半期"),
				tx("biz-q3", day(time.September, 30), income, "business", 1400000, "受託開発 第3四半期"),
				tx("exp-out", day(time.May, 15), expense, "outsourcing", 600000, "デザイン外注"),
				tx("exp-comm", day(time.December, 31), expense, "communication", 96000, "回線・携帯"),
				tx("exp-sup", day(time.February, 10), expense, "supplies", 180000, "ノートPC"),
				tx("exp-travel", day(time.October, 3), expense, "travel", 45000, "客先訪問交通費"),
				tx("wh-2024", day(time.December, 25), expense, "other", 120000, "源泉徴収税額"),
			},
		},
		Scenarios: []domain.Scenario{
			{Name: "白色申告の場合", FilingType: &white},
			{Name: "住宅ローン控除あり", Deductions: &withLoan},
			{Name: "外注なし", ExcludeTransactionIDs: []string{"exp-out"}},
		},
	}
}
