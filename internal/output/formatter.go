package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kakutei/tax-calculator/internal/domain"
)

// ErrUnsupportedFormat is returned for a format name no formatter answers to.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Report is what every formatter renders: the baseline result of one return
// and, when scenarios were run, their outcomes.
type Report struct {
	TaxYear    int                        `yaml:"tax_year" json:"tax_year"`
	Name       string                     `yaml:"name,omitempty" json:"name,omitempty"`
	FilingType domain.FilingType          `yaml:"filing_type" json:"filing_type"`
	Comparison *domain.ScenarioComparison `yaml:"comparison" json:"comparison"`
}

// NewReport builds a report for tr. A nil comparison is not allowed; wrap a
// single result with NewResultReport instead.
func NewReport(tr *domain.TaxReturnData, cmp *domain.ScenarioComparison) *Report {
	return &Report{
		TaxYear:    tr.TaxSettings.TaxYear,
		Name:       tr.PersonalInfo.Name,
		FilingType: tr.TaxSettings.FilingType,
		Comparison: cmp,
	}
}

// NewResultReport builds a report for a single calculation without scenarios.
func NewResultReport(tr *domain.TaxReturnData, result *domain.TaxCalculationResult) *Report {
	return NewReport(tr, &domain.ScenarioComparison{Baseline: result, Scenarios: []domain.ScenarioResult{}})
}

// Result is the baseline calculation.
func (r *Report) Result() *domain.TaxCalculationResult {
	return r.Comparison.Baseline
}

// Formatter defines a pluggable output formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic formatting).
type Formatter interface {
	Format(report *Report) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
}

// FormatterFunc adapter to allow ordinary functions to act as a Formatter.
type FormatterFunc struct {
	ID string
	F  func(*Report) ([]byte, error)
}

func (ff FormatterFunc) Format(r *Report) ([]byte, error) { return ff.F(r) }
func (ff FormatterFunc) Name() string                     { return ff.ID }

// WriteFormatted runs a formatter and writes the output to a timestamped file in dir.
func WriteFormatted(f Formatter, report *Report, dir string, now time.Time) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", err
	}
	filename := filepath.Join(dir, fmt.Sprintf("tax_report_%d_%s.%s", report.TaxYear, now.Format("20060102_150405"), Extension(f)))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// Extension is the file extension used for a formatter's output.
func Extension(f Formatter) string {
	switch f.Name() {
	case "console", "summary":
		return "txt"
	default:
		return f.Name()
	}
}

// builtInFormatters stores available formatters.
var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	SummaryFormatter{},
	CSVFormatter{},
	HTMLFormatter{},
	JSONFormatter{},
	YAMLFormatter{},
}

// GetFormatterByName fetches a registered formatter.
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// LookupFormatter is GetFormatterByName with an error listing the choices.
func LookupFormatter(name string) (Formatter, error) {
	if f := GetFormatterByName(name); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, name,
		strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"text":        "console",
	"txt":         "console",
	"verbose":     "console",
	"lite":        "summary",
	"csv-summary": "csv",
	"html-report": "html",
	"json-pretty": "json",
	"yml":         "yaml",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// AvailableFormatterNames returns the canonical formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the supported alias keys.
func AvailableFormatAliases() []string {
	keys := make([]string, 0, len(aliasMap))
	for k := range aliasMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
