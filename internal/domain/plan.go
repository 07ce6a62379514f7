package domain

import (
	"github.com/shopspring/decimal"
)

// SolveStatus is the outcome of a solve attempt.
type SolveStatus int

const (
	StatusOptimal SolveStatus = iota
	// StatusTimeLimit means the time budget expired and the best incumbent
	// was returned. The plan is valid but not proven optimal.
	StatusTimeLimit
	StatusInfeasible
	StatusError
)

func (s SolveStatus) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusTimeLimit:
		return "time-limited"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "error"
	}
}

// ObjectiveMode selects which goal function is installed on the shared
// constraint graph.
type ObjectiveMode int

const (
	// ModeMaxSpend maximizes the guaranteed yearly spending floor.
	ModeMaxSpend ObjectiveMode = iota
	// ModeMinTaxes fixes the floor and minimizes lifetime tax.
	ModeMinTaxes
	// ModeRothFloor maximizes the spending floor subject to a terminal
	// Roth balance target.
	ModeRothFloor
)

func (m ObjectiveMode) String() string {
	switch m {
	case ModeMaxSpend:
		return "max-spend"
	case ModeMinTaxes:
		return "min-taxes"
	case ModeRothFloor:
		return "roth-floor"
	default:
		return "unknown"
	}
}

// YearLedger is one solved planning year. All money values are rounded to
// whole currency units and reported in today's dollars.
type YearLedger struct {
	Age int

	TaxableBalance    decimal.Decimal
	TaxableWithdrawal decimal.Decimal
	IRABalance        decimal.Decimal
	IRAWithdrawal     decimal.Decimal
	RothBalance       decimal.Decimal
	RothWithdrawal    decimal.Decimal

	IRAToRothConversion decimal.Decimal
	CapGainDistribution decimal.Decimal

	MarginalTaxRate decimal.Decimal
	TaxPaid         decimal.Decimal
	NetSpend        decimal.Decimal
	ExtraSpend      decimal.Decimal
}

// Plan is the decoded result of a solve: the per-year ledger plus horizon
// totals, all inflation-adjusted to today's dollars.
type Plan struct {
	Status SolveStatus
	Mode   ObjectiveMode

	SpendingFloor decimal.Decimal
	Years         []YearLedger

	TotalSpend     decimal.Decimal
	TotalTax       decimal.Decimal
	AverageTaxRate decimal.Decimal
}

// Provisional reports whether the plan came from a time-limited solve and is
// therefore not proven optimal.
func (p *Plan) Provisional() bool {
	return p.Status == StatusTimeLimit
}
