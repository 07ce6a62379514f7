// Package output renders a solved plan as a console table or CSV. Rendering
// is presentation only; every number is computed upstream by the planner.
package output

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/drawplan/drawplan/internal/domain"
)

// Formatter renders a plan in one output format.
type Formatter interface {
	Name() string
	Format(plan *domain.Plan) ([]byte, error)
}

// ForFormat returns the formatter registered under the given name.
func ForFormat(format string) (Formatter, error) {
	switch format {
	case "console", "":
		return ConsoleFormatter{}, nil
	case "csv":
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// FormatCurrency renders a whole-dollar amount with a thousands separator.
func FormatCurrency(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().Round(0).String()
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-$" + string(out)
	}
	return "$" + string(out)
}

// FormatPercent renders a fraction as a percentage with one decimal place.
func FormatPercent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).Round(1).String() + "%"
}
