package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/drawplan/drawplan/internal/domain"
)

// ConsoleFormatter renders the year-by-year ledger as a fixed-width table
// with horizon totals, all values in today's dollars.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(plan *domain.Plan) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "RETIREMENT DRAWDOWN PLAN")
	fmt.Fprintf(&buf, "Mode: %s    Status: %s\n", plan.Mode, plan.Status)
	if plan.Provisional() {
		fmt.Fprintln(&buf, "NOTE: time budget expired; this plan is feasible but NOT proven optimal.")
	}
	fmt.Fprintf(&buf, "Spending floor: %s per year (today's dollars)\n", FormatCurrency(plan.SpendingFloor))
	fmt.Fprintln(&buf)

	header := fmt.Sprintf("%4s %12s %10s %12s %10s %12s %10s %10s %8s %6s %10s %10s %10s",
		"Age", "Taxable", "WD", "IRA", "WD", "Roth", "WD", "Convert", "CGD", "Rate", "Tax", "Spend", "Extra")
	fmt.Fprintln(&buf, header)
	fmt.Fprintln(&buf, strings.Repeat("-", len(header)))

	for _, yr := range plan.Years {
		fmt.Fprintf(&buf, "%4d %12s %10s %12s %10s %12s %10s %10s %8s %6s %10s %10s %10s\n",
			yr.Age,
			FormatCurrency(yr.TaxableBalance),
			FormatCurrency(yr.TaxableWithdrawal),
			FormatCurrency(yr.IRABalance),
			FormatCurrency(yr.IRAWithdrawal),
			FormatCurrency(yr.RothBalance),
			FormatCurrency(yr.RothWithdrawal),
			FormatCurrency(yr.IRAToRothConversion),
			FormatCurrency(yr.CapGainDistribution),
			FormatPercent(yr.MarginalTaxRate),
			FormatCurrency(yr.TaxPaid),
			FormatCurrency(yr.NetSpend),
			FormatCurrency(yr.ExtraSpend),
		)
	}

	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "Total spend: %s    Total tax: %s    Average tax rate: %s\n",
		FormatCurrency(plan.TotalSpend),
		FormatCurrency(plan.TotalTax),
		FormatPercent(plan.AverageTaxRate))

	return buf.Bytes(), nil
}
