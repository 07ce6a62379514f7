package output

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawplan/drawplan/internal/domain"
)

func samplePlan(status domain.SolveStatus) *domain.Plan {
	d := func(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
	return &domain.Plan{
		Status:        status,
		Mode:          domain.ModeMaxSpend,
		SpendingFloor: d(165500),
		Years: []domain.YearLedger{
			{
				Age:             65,
				IRABalance:      d(500000),
				IRAWithdrawal:   d(250000),
				MarginalTaxRate: d(0.40),
				TaxPaid:         d(84500),
				NetSpend:        d(165500),
			},
			{
				Age:             66,
				IRABalance:      d(250000),
				IRAWithdrawal:   d(250000),
				MarginalTaxRate: d(0.40),
				TaxPaid:         d(84500),
				NetSpend:        d(165500),
			},
		},
		TotalSpend:     d(331000),
		TotalTax:       d(169000),
		AverageTaxRate: d(0.338),
	}
}

func TestConsoleFormat(t *testing.T) {
	out, err := (ConsoleFormatter{}).Format(samplePlan(domain.StatusOptimal))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Spending floor: $165,500")
	assert.Contains(t, text, "$500,000")
	assert.Contains(t, text, "40%")
	assert.Contains(t, text, "Total tax: $169,000")
	assert.NotContains(t, text, "NOT proven optimal")
}

func TestConsoleFlagsProvisionalPlan(t *testing.T) {
	out, err := (ConsoleFormatter{}).Format(samplePlan(domain.StatusTimeLimit))
	require.NoError(t, err)
	assert.Contains(t, string(out), "NOT proven optimal")
}

func TestCSVFormat(t *testing.T) {
	out, err := (CSVFormatter{}).Format(samplePlan(domain.StatusTimeLimit))
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)

	// header + 2 years + totals
	require.Len(t, records, 4)
	assert.Equal(t, "Age", records[0][0])
	assert.Equal(t, "65", records[1][0])
	assert.Equal(t, "time-limited", records[1][1])
	assert.Equal(t, "total", records[3][0])
	assert.Equal(t, "169000", records[3][11])
}

func TestFormatCurrency(t *testing.T) {
	d := func(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
	assert.Equal(t, "$0", FormatCurrency(d(0)))
	assert.Equal(t, "$999", FormatCurrency(d(999)))
	assert.Equal(t, "$1,234,567", FormatCurrency(d(1234567)))
	assert.Equal(t, "-$42,000", FormatCurrency(d(-42000)))
}

func TestForFormat(t *testing.T) {
	f, err := ForFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", f.Name())

	f, err = ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, "console", f.Name())

	_, err = ForFormat("xml")
	assert.Error(t, err)
}
