package output

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
)

// HTMLFormatter produces a standalone HTML report.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"yen":    FormatYen,
	"signed": FormatSignedYen,
	"pct":    FormatPercentage,
	"add":    func(i, j int) int { return i + j },
}).Parse(htmlTemplateSource))

type htmlRow struct {
	Label string
	Value decimal.Decimal
}

func (h HTMLFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Comparison == nil || report.Comparison.Baseline == nil {
		return nil, fmt.Errorf("html: empty report")
	}
	r := report.Result()

	var income []htmlRow
	for _, cat := range domain.IncomeCategories() {
		if v := r.IncomeBreakdown.Net(cat); !v.IsZero() {
			income = append(income, htmlRow{cat.Label(), v})
		}
	}
	d := r.DeductionBreakdown
	deductions := []htmlRow{
		{"基礎控除", d.Basic},
		{"配偶者控除", d.Spouse},
		{"扶養控除", d.Dependent},
		{"社会保険料控除", d.SocialInsurance},
		{"生命保険料控除", d.LifeInsurance},
		{"地震保険料控除", d.EarthquakeInsurance},
		{"寄附金控除", d.Donation},
		{"医療費控除", d.Medical},
	}
	taxes := []htmlRow{
		{"所得税(控除前)", r.IncomeTaxBeforeCredit},
		{"住宅ローン控除", r.HomeLoanDeductionApplied.Neg()},
		{"所得税", r.IncomeTax},
		{"復興特別所得税", r.ReconstructionTax},
		{"住民税", r.ResidentTax},
		{"事業税", r.BusinessTax},
		{"消費税", r.ConsumptionTax},
	}

	data := struct {
		*Report
		Result     *domain.TaxCalculationResult
		Income     []htmlRow
		Deductions []htmlRow
		Taxes      []htmlRow
	}{report, r, income, deductions, taxes}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
