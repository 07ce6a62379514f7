package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/drawplan/drawplan/internal/domain"
)

// CSVFormatter emits one row per plan year plus a totals row. A provisional
// status travels in its own column so downstream consumers cannot mistake a
// time-limited plan for an optimal one.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(plan *domain.Plan) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{
		"Age", "Status",
		"TaxableBalance", "TaxableWithdrawal",
		"IRABalance", "IRAWithdrawal",
		"RothBalance", "RothWithdrawal",
		"IRAToRothConversion", "CapGainDistribution",
		"MarginalTaxRate", "TaxPaid", "NetSpend", "ExtraSpend",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	status := plan.Status.String()
	for _, yr := range plan.Years {
		row := []string{
			strconv.Itoa(yr.Age),
			status,
			yr.TaxableBalance.StringFixed(0),
			yr.TaxableWithdrawal.StringFixed(0),
			yr.IRABalance.StringFixed(0),
			yr.IRAWithdrawal.StringFixed(0),
			yr.RothBalance.StringFixed(0),
			yr.RothWithdrawal.StringFixed(0),
			yr.IRAToRothConversion.StringFixed(0),
			yr.CapGainDistribution.StringFixed(0),
			yr.MarginalTaxRate.StringFixed(4),
			yr.TaxPaid.StringFixed(0),
			yr.NetSpend.StringFixed(0),
			yr.ExtraSpend.StringFixed(0),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	totals := []string{
		"total", status,
		"", "", "", "", "", "", "", "",
		plan.AverageTaxRate.StringFixed(4),
		plan.TotalTax.StringFixed(0),
		plan.TotalSpend.StringFixed(0),
		"",
	}
	if err := w.Write(totals); err != nil {
		return nil, err
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
