package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// ConsoleFormatter renders the detailed Japanese report: income by category,
// each deduction, each tax, the reconciliation and any scenario comparison.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

type line struct {
	label string
	value decimal.Decimal
}

func writeLines(buf *bytes.Buffer, lines []line) {
	col := 0
	for _, l := range lines {
		if w := displayWidth(l.label); w > col {
			col = w
		}
	}
	for _, l := range lines {
		pad := strings.Repeat(" ", col-displayWidth(l.label))
		fmt.Fprintf(buf, "  %s%s  %15s\n", l.label, pad, FormatYen(l.value))
	}
}

// displayWidth counts East Asian wide characters as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Comparison == nil || report.Comparison.Baseline == nil {
		return nil, fmt.Errorf("console: empty report")
	}
	r := report.Result()
	var buf bytes.Buffer

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(&buf, rule)
	fmt.Fprintf(&buf, "確定申告 税額計算結果 (%d年分)\n", report.TaxYear)
	fmt.Fprintln(&buf, rule)
	if report.Name != "" {
		fmt.Fprintf(&buf, "氏名: %s\n", report.Name)
	}
	fmt.Fprintf(&buf, "申告区分: %s\n", report.FilingType.Label())
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "【所得】")
	var income []line
	for _, cat := range domain.IncomeCategories() {
		if v := r.IncomeBreakdown.Net(cat); !v.IsZero() {
			income = append(income, line{cat.Label(), v})
		}
	}
	income = append(income, line{"合計所得金額", r.TotalIncome})
	writeLines(&buf, income)
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "【所得控除】")
	d := r.DeductionBreakdown
	writeLines(&buf, []line{
		{"基礎控除", d.Basic},
		{"配偶者控除", d.Spouse},
		{"扶養控除", d.Dependent},
		{"社会保険料控除", d.SocialInsurance},
		{"生命保険料控除", d.LifeInsurance},
		{"地震保険料控除", d.EarthquakeInsurance},
		{"寄附金控除", d.Donation},
		{"医療費控除", d.Medical},
		{"所得控除合計", r.TotalDeductions},
	})
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "【税額】")
	taxes := []line{
		{"課税所得金額", r.TaxableIncome},
		{"所得税(控除前)", r.IncomeTaxBeforeCredit},
	}
	if r.HomeLoanDeductionApplied.IsPositive() {
		taxes = append(taxes, line{"住宅ローン控除", r.HomeLoanDeductionApplied.Neg()})
	}
	taxes = append(taxes,
		line{"所得税", r.IncomeTax},
		line{"復興特別所得税", r.ReconstructionTax},
		line{"住民税", r.ResidentTax},
		line{"事業税", r.BusinessTax},
		line{"消費税", r.ConsumptionTax},
		line{"税額合計", r.TotalTax},
	)
	writeLines(&buf, taxes)
	fmt.Fprintf(&buf, "  実効税率: %s\n", FormatPercentage(r.EffectiveTaxRate))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "【精算】")
	settle := []line{
		{"源泉徴収税額", r.WithholdingTax},
		{"予定納税額", r.PrepaidTax},
	}
	if r.RefundAmount.IsPositive() {
		settle = append(settle, line{"還付税額", r.RefundAmount})
	} else {
		settle = append(settle, line{"納付税額", r.TaxDue})
	}
	writeLines(&buf, settle)
	fmt.Fprintf(&buf, "  差引: %s (%s)\n", FormatSignedYen(r.Balance()), FormatISO(r.Balance()))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "【予定納税額(四半期)】")
	for i, q := range r.EstimatedQuarterlyTax {
		fmt.Fprintf(&buf, "  第%d四半期  %15s\n", i+1, FormatYen(q))
	}

	if len(report.Comparison.Scenarios) > 0 {
		fmt.Fprintln(&buf)
		writeScenarioTable(&buf, report.Comparison)
	}
	return buf.Bytes(), nil
}

func writeScenarioTable(buf *bytes.Buffer, cmp *domain.ScenarioComparison) {
	fmt.Fprintln(buf, "【シナリオ比較】")
	col := displayWidth("ベースライン")
	for _, s := range cmp.Scenarios {
		if w := displayWidth(s.Name); w > col {
			col = w
		}
	}
	row := func(name, total, delta, balance string) {
		fmt.Fprintf(buf, "  %s%s  %15s  %15s  %15s\n", name, strings.Repeat(" ", col-displayWidth(name)), total, delta, balance)
	}
	row("シナリオ", "税額合計", "差額", "差引")
	row("ベースライン", FormatYen(cmp.Baseline.TotalTax), "-", FormatSignedYen(cmp.Baseline.Balance()))
	for _, s := range cmp.Scenarios {
		row(s.Name, FormatYen(s.Result.TotalTax), FormatSignedYen(s.TotalTaxDelta), FormatSignedYen(s.Result.Balance()))
	}
	if cmp.LowestTaxScenario != "" {
		fmt.Fprintf(buf, "\n最も税額が低いシナリオ: %s\n", cmp.LowestTaxScenario)
	} else {
		fmt.Fprintln(buf, "\nベースラインより税額が低いシナリオはありません")
	}
}
