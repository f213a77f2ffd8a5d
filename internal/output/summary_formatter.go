package output

import (
	"bytes"
	"fmt"
)

// SummaryFormatter provides a concise one-line-per-run summary.
type SummaryFormatter struct{}

func (s SummaryFormatter) Name() string { return "summary" }

func (s SummaryFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Comparison == nil || report.Comparison.Baseline == nil {
		return nil, fmt.Errorf("summary: empty report")
	}
	cmp := report.Comparison
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d年分 %s\n", report.TaxYear, report.FilingType.Label())
	b := cmp.Baseline
	fmt.Fprintf(&buf, "baseline: total_tax=%s balance=%s rate=%s\n",
		FormatYen(b.TotalTax), FormatSignedYen(b.Balance()), FormatPercentage(b.EffectiveTaxRate))
	for _, sc := range cmp.Scenarios {
		fmt.Fprintf(&buf, "%s: total_tax=%s delta=%s balance=%s\n",
			sc.Name, FormatYen(sc.Result.TotalTax), FormatSignedYen(sc.TotalTaxDelta), FormatSignedYen(sc.Result.Balance()))
	}
	if cmp.LowestTaxScenario != "" {
		fmt.Fprintf(&buf, "lowest: %s\n", cmp.LowestTaxScenario)
	}
	return buf.Bytes(), nil
}
