package planner

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/drawplan/drawplan/internal/domain"
)

func TestCompileSchedules(t *testing.T) {
	config := baseConfig(60, 64)
	config.Assumptions.InflationRate = dec(0.10)
	config.Accounts.Taxable.Balance = dec(200000)
	config.Accounts.Taxable.Basis = dec(150000)
	config.Income = []domain.CashFlow{
		{Name: "salary", Amount: dec(1000), StartAge: 60, EndAge: 61, Taxable: true},
		{Name: "gift", Amount: dec(500), StartAge: 62, EndAge: 63, Inflation: true},
	}
	config.Expenses = []domain.CashFlow{
		{Name: "travel", Amount: dec(300), StartAge: 61, EndAge: 63},
	}

	s := Compile(config)

	assert.Equal(t, 4, s.Years)
	assert.InDelta(t, 1.0, s.IMul[0], 1e-12)
	assert.InDelta(t, 1.331, s.IMul[3], 1e-9)
	assert.InDelta(t, 0.75, s.BasisFraction, 1e-12)

	assert.InDelta(t, 1000, s.NetIncome[0], 1e-9)
	assert.InDelta(t, 700, s.NetIncome[1], 1e-9)
	assert.InDelta(t, 500*1.21-300, s.NetIncome[2], 1e-9)
	assert.InDelta(t, 500*1.331-300, s.NetIncome[3], 1e-9)

	// Only the flagged stream is taxable, and the untaxed gift never
	// reaches the taxed schedule.
	assert.InDelta(t, 1000, s.TaxedIncome[0], 1e-9)
	assert.Zero(t, s.TaxedIncome[2])
}

func TestCompileBasisFractionCapped(t *testing.T) {
	config := baseConfig(60, 62)
	config.Accounts.Taxable.Balance = dec(1000)
	config.Accounts.Taxable.Basis = dec(1000)
	s := Compile(config)
	assert.InDelta(t, 1.0, s.BasisFraction, 1e-12)

	config.Accounts.Taxable.Balance = decimal.Zero
	config.Accounts.Taxable.Basis = decimal.Zero
	s = Compile(config)
	assert.Zero(t, s.BasisFraction)
}

func TestCompileBigMDominatesResources(t *testing.T) {
	config := baseConfig(60, 90)
	config.Assumptions.ReturnRate = dec(0.07)
	config.Accounts.IRA.Balance = dec(2000000)
	config.Income = []domain.CashFlow{
		{Name: "ss", Amount: dec(40000), StartAge: 70, EndAge: 89},
	}

	s := Compile(config)

	resources := (2000000.0) * pow(1.07, 30)
	assert.Greater(t, s.BigM, resources)

	// A surtax threshold above the plan's resources still has to be
	// dominated, or its indicator rows would bind spuriously.
	small := baseConfig(60, 62)
	small.Taxes.NIIThreshold = dec(900000)
	s = Compile(small)
	assert.GreaterOrEqual(t, s.BigM, 1800000.0)
}

func TestCompileBumpWindow(t *testing.T) {
	config := baseConfig(60, 70)
	config.Taxes.Bump = &domain.BracketBump{StartOffset: 4, RateDelta: dec(0.03)}

	s := Compile(config)

	assert.InDelta(t, 0.10, s.ordinaryRate(3, 0), 1e-12)
	assert.InDelta(t, 0.13, s.ordinaryRate(4, 0), 1e-12)

	// A bump scheduled past the horizon never applies.
	config.Taxes.Bump.StartOffset = 10
	s = Compile(config)
	assert.InDelta(t, 0.10, s.ordinaryRate(9, 0), 1e-12)
}

func pow(base float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= base
	}
	return out
}
