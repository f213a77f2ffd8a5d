package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kakutei/tax-calculator/internal/calculation"
	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), pattern)
	require.NoError(t, err)
	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func TestFormatFromFilename(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromFilename("return.json"))
	assert.Equal(t, FormatJSON, FormatFromFilename("RETURN.JSON"))
	assert.Equal(t, FormatYAML, FormatFromFilename("return.yaml"))
	assert.Equal(t, FormatYAML, FormatFromFilename("return.yml"))
	assert.Equal(t, FormatYAML, FormatFromFilename("return"))
}

func TestLoadFromFile_Success(t *testing.T) {
	testConfig := `tax_return:
  personal_info:
    name: 山田 太郎
    spouse_income: 0
    dependents:
      - name: 長男
        birth_date: 2004-06-01
  tax_settings:
    tax_year: 2024
  deductions:
    basic_deduction: true
    social_insurance_premium: 400000
    home_loan_balance: 30000000
  transactions:
    - date: 2024-01-25
      type: income
      category: 給与所得
      amount: 3000000
      description: 給与
    - id: wh
      date: 2024-12-25
      type: expense
      category: other
      amount: 50000
      description: 源泉徴収
scenarios:
  - name: white
    filing_type: white
`
	path := writeTemp(t, "test_config_*.yaml", testConfig)

	parser := NewInputParser()
	config, err := parser.LoadFromFile(path)
	require.NoError(t, err)

	tr := config.TaxReturn
	assert.Equal(t, 2024, tr.TaxSettings.TaxYear)
	assert.Equal(t, domain.FilingBlue, tr.TaxSettings.FilingType, "filing type defaults to blue")
	require.Len(t, tr.Transactions, 2)
	assert.NotEmpty(t, tr.Transactions[0].ID, "missing IDs are generated")
	assert.Equal(t, "wh", tr.Transactions[1].ID)
	assert.True(t, tr.Transactions[0].TaxRelated)

	require.Len(t, tr.PersonalInfo.Dependents, 1)
	assert.Equal(t, 20, tr.PersonalInfo.Dependents[0].Age, "age is taken at the end of the tax year")
	assert.Equal(t, "210000", tr.Deductions.HomeLoanDeduction.String())

	require.Len(t, config.Scenarios, 1)
	require.NotNil(t, config.Scenarios[0].FilingType)
	assert.Equal(t, domain.FilingWhite, *config.Scenarios[0].FilingType)
}

func TestLoadFromFile_BareTaxReturnJSON(t *testing.T) {
	testConfig := `{
  "tax_settings": {"tax_year": 2024, "filing_type": "白色申告"},
  "deductions": {"basic_deduction": true, "home_loan_deduction": 120000, "home_loan_balance": 30000000},
  "transactions": [
    {"id": "s1", "date": "2024-01-25T00:00:00Z", "type": "income", "category": "salary", "amount": "3000000", "description": "給与"},
    {"id": "s2", "date": "2024-02-26", "type": "income", "category": "salary", "amount": "300000", "description": "給与"}
  ]
}`
	path := writeTemp(t, "test_return_*.json", testConfig)

	parser := NewInputParser()
	tr, err := parser.LoadTaxReturn(path)
	require.NoError(t, err)
	assert.Equal(t, domain.FilingWhite, tr.TaxSettings.FilingType)
	assert.Equal(t, "120000", tr.Deductions.HomeLoanDeduction.String(), "an explicit credit wins over the balance")
	require.Len(t, tr.Transactions, 2)
	assert.Equal(t, "3000000", tr.Transactions[0].Amount.String())
	assert.Equal(t, time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), tr.Transactions[1].Date, "plain dates are accepted in JSON")
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "bad_*.yaml", "tax_return: [unclosed")
	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_UnknownVocabulary(t *testing.T) {
	parser := NewInputParser()

	_, err := parser.Parse([]byte(`
tax_settings:
  tax_year: 2024
transactions:
  - id: x
    date: 2024-02-01
    type: income
    category: lottery
    amount: 1000
`), FormatYAML)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	assert.Contains(t, err.Error(), "configuration validation failed")

	_, err = parser.Parse([]byte(`
tax_settings:
  tax_year: 2024
  filing_type: purple
`), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_NegativeHomeLoanBalance(t *testing.T) {
	parser := NewInputParser()

	_, err := parser.Parse([]byte(`
tax_settings:
  tax_year: 2024
deductions:
  home_loan_balance: -50000000
`), FormatYAML)
	require.Error(t, err)
	assert.ErrorIs(t, err, calculation.ErrNegativeAmount)
	assert.Contains(t, err.Error(), "home_loan_balance")

	_, err = parser.Parse([]byte(`
tax_return:
  tax_settings:
    tax_year: 2024
scenarios:
  - name: ローン
    deductions:
      home_loan_balance: -50000000
`), FormatYAML)
	require.Error(t, err)
	assert.ErrorIs(t, err, calculation.ErrNegativeAmount)
	assert.Contains(t, err.Error(), "scenario 0")
}

func TestValidateConfiguration(t *testing.T) {
	parser := NewInputParser()

	tests := []struct {
		name    string
		mutate  func(c *domain.Configuration)
		wantErr error
	}{
		{"example is valid", func(c *domain.Configuration) {}, nil},
		{"missing tax year", func(c *domain.Configuration) { c.TaxReturn.TaxSettings.TaxYear = 0 }, calculation.ErrInvalidInput},
		{"negative amount", func(c *domain.Configuration) {
			c.TaxReturn.Transactions[0].Amount = c.TaxReturn.Transactions[0].Amount.Neg()
		}, calculation.ErrNegativeAmount},
		{"duplicate transaction id", func(c *domain.Configuration) {
			c.TaxReturn.Transactions[1].ID = c.TaxReturn.Transactions[0].ID
		}, calculation.ErrInvalidInput},
		{"transaction without date", func(c *domain.Configuration) {
			c.TaxReturn.Transactions[0].Date = time.Time{}
		}, calculation.ErrInvalidInput},
		{"scenario without name", func(c *domain.Configuration) { c.Scenarios[0].Name = " " }, calculation.ErrInvalidInput},
		{"duplicate scenario name", func(c *domain.Configuration) { c.Scenarios[1].Name = c.Scenarios[0].Name }, calculation.ErrInvalidInput},
		{"exclusion of unknown transaction", func(c *domain.Configuration) {
			c.Scenarios[2].ExcludeTransactionIDs = []string{"nope"}
		}, calculation.ErrInvalidInput},
		{"invalid rule table", func(c *domain.Configuration) {
			c.TaxRules = &domain.TaxRules{IncomeTaxBrackets: []domain.BracketConfig{{}, {}}}
		}, calculation.ErrInvalidBrackets},
		{"empty rule tables fall back", func(c *domain.Configuration) { c.TaxRules = &domain.TaxRules{} }, nil},
		{"negative dependent age", func(c *domain.Configuration) {
			c.TaxReturn.PersonalInfo.Dependents[0].Age = -1
		}, calculation.ErrInvalidInput},
		{"negative home loan balance", func(c *domain.Configuration) {
			balance := decimal.NewFromInt(-1)
			c.TaxReturn.Deductions.HomeLoanBalance = &balance
		}, calculation.ErrNegativeAmount},
		{"negative scenario home loan balance", func(c *domain.Configuration) {
			balance := decimal.NewFromInt(-28000000)
			c.Scenarios[1].Deductions.HomeLoanBalance = &balance
		}, calculation.ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := parser.CreateExampleConfiguration()
			parser.Normalize(config)
			tt.mutate(config)
			err := parser.ValidateConfiguration(config)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateExampleConfiguration_RoundTrip(t *testing.T) {
	parser := NewInputParser()

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, parser.WriteConfiguration(&buf, parser.CreateExampleConfiguration(), format))

			config, err := parser.Parse(buf.Bytes(), format)
			require.NoError(t, err)
			assert.Equal(t, 2024, config.TaxReturn.TaxSettings.TaxYear)
			assert.Len(t, config.TaxReturn.Transactions, 9)
			assert.Len(t, config.Scenarios, 3)
			assert.Equal(t, 20, config.TaxReturn.PersonalInfo.Dependents[0].Age)
			assert.Equal(t, "196000", config.Scenarios[1].Deductions.HomeLoanDeduction.String())
		})
	}
}
