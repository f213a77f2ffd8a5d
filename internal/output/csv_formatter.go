package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/kakutei/tax-calculator/internal/domain"
	"github.com/shopspring/decimal"
)

// CSVFormatter writes one row for the baseline and one per scenario, in input order.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

var csvHeader = []string{
	"scenario", "total_income", "total_deductions", "taxable_income",
	"income_tax", "reconstruction_tax", "resident_tax", "business_tax", "consumption_tax",
	"total_tax", "withholding_tax", "prepaid_tax", "tax_due", "refund_amount",
	"effective_tax_rate", "total_tax_delta",
}

func csvRow(name string, r *domain.TaxCalculationResult, delta decimal.Decimal) []string {
	return []string{
		name,
		r.TotalIncome.String(),
		r.TotalDeductions.String(),
		r.TaxableIncome.String(),
		r.IncomeTax.String(),
		r.ReconstructionTax.String(),
		r.ResidentTax.String(),
		r.BusinessTax.String(),
		r.ConsumptionTax.String(),
		r.TotalTax.String(),
		r.WithholdingTax.String(),
		r.PrepaidTax.String(),
		r.TaxDue.String(),
		r.RefundAmount.String(),
		r.EffectiveTaxRate.StringFixed(2),
		delta.String(),
	}
}

func (c CSVFormatter) Format(report *Report) ([]byte, error) {
	if report == nil || report.Comparison == nil || report.Comparison.Baseline == nil {
		return nil, fmt.Errorf("csv: empty report")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	if err := w.Write(csvRow("baseline", report.Comparison.Baseline, decimal.Zero)); err != nil {
		return nil, err
	}
	for _, sc := range report.Comparison.Scenarios {
		if err := w.Write(csvRow(sc.Name, sc.Result, sc.TotalTaxDelta)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
