package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawplan/drawplan/internal/domain"
)

const sampleYAML = `
household:
  start_age: 60
  end_age: 90
assumptions:
  inflation_rate: 0.025
  return_rate: 0.06
taxes:
  standard_deduction: 27700
accounts:
  taxable:
    balance: 200000
    basis: 150000
    distribution_rate: 0.02
  ira:
    balance: 800000
  roth:
    balance: 100000
    contributions:
      - age: 55
        amount: 30000
income:
  - name: social security
    amount: 40000
    start_age: 70
    end_age: 90
    inflation: true
    taxable: true
expenses:
  - name: mortgage
    amount: 18000
    start_age: 60
    end_age: 65
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	parser := NewInputParser()
	config, err := parser.LoadFromFile(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 60, config.Household.StartAge)
	assert.Equal(t, 30, config.Household.Years())
	assert.True(t, config.Assumptions.ReturnRate.Equal(decimal.NewFromFloat(0.06)))
	assert.True(t, config.Accounts.Taxable.Basis.Equal(decimal.NewFromInt(150000)))
	require.Len(t, config.Income, 1)
	assert.Equal(t, "social security", config.Income[0].Name)
	assert.True(t, config.Income[0].Taxable)
}

func TestLoadFromFileMissing(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.Load([]byte("household: [not a map"))
	assert.Error(t, err)
}

func TestDefaultsApplied(t *testing.T) {
	parser := NewInputParser()
	config, err := parser.Load([]byte(`
household:
  start_age: 65
  end_age: 85
accounts:
  ira:
    balance: 500000
`))
	require.NoError(t, err)

	assert.Len(t, config.Taxes.OrdinaryBrackets, 7)
	assert.True(t, config.Taxes.StandardDeduction.Equal(decimal.NewFromInt(27700)))
	assert.Len(t, config.Taxes.CapitalGainsBrackets, 3)
	require.Len(t, config.Taxes.StateBrackets, 1)
	assert.True(t, config.Taxes.StateBrackets[0].Rate.IsZero())
	assert.True(t, config.Taxes.NIIThreshold.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, 59, config.Taxes.PenaltyAge)
	assert.Equal(t, 73, config.RMD.StartAge)
	assert.True(t, config.RMD.Divisors[75].Equal(decimal.NewFromFloat(24.6)))
}

func TestExplicitBracketsKeepExplicitDeduction(t *testing.T) {
	parser := NewInputParser()
	config, err := parser.Load([]byte(`
household:
  start_age: 65
  end_age: 70
taxes:
  ordinary_brackets:
    - {threshold: 0, rate: 0.20}
accounts:
  ira:
    balance: 100000
`))
	require.NoError(t, err)
	assert.True(t, config.Taxes.StandardDeduction.IsZero())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Configuration)
		field  string
	}{
		{
			name:   "end age before start age",
			mutate: func(c *domain.Configuration) { c.Household.EndAge = c.Household.StartAge },
			field:  "household.end_age",
		},
		{
			name:   "negative inflation",
			mutate: func(c *domain.Configuration) { c.Assumptions.InflationRate = decimal.NewFromFloat(-0.01) },
			field:  "assumptions.inflation_rate",
		},
		{
			name: "non increasing thresholds",
			mutate: func(c *domain.Configuration) {
				c.Taxes.OrdinaryBrackets[2].Threshold = c.Taxes.OrdinaryBrackets[1].Threshold
			},
			field: "taxes.ordinary_brackets",
		},
		{
			name: "decreasing rates",
			mutate: func(c *domain.Configuration) {
				c.Taxes.OrdinaryBrackets[3].Rate = decimal.NewFromFloat(0.05)
			},
			field: "taxes.ordinary_brackets",
		},
		{
			name: "first threshold nonzero",
			mutate: func(c *domain.Configuration) {
				c.Taxes.OrdinaryBrackets[0].Threshold = decimal.NewFromInt(100)
			},
			field: "taxes.ordinary_brackets",
		},
		{
			name:   "basis exceeds balance",
			mutate: func(c *domain.Configuration) { c.Accounts.Taxable.Basis = decimal.NewFromInt(999999999) },
			field:  "accounts.taxable.basis",
		},
		{
			name:   "negative ira balance",
			mutate: func(c *domain.Configuration) { c.Accounts.IRA.Balance = decimal.NewFromInt(-1) },
			field:  "accounts.ira.balance",
		},
		{
			name: "missing rmd divisor",
			mutate: func(c *domain.Configuration) {
				delete(c.RMD.Divisors, 80)
			},
			field: "rmd.divisors",
		},
		{
			name: "cash flow ends before it starts",
			mutate: func(c *domain.Configuration) {
				c.Income[0].EndAge = c.Income[0].StartAge - 1
			},
			field: "income[0].end_age",
		},
		{
			name: "penalty rate out of range",
			mutate: func(c *domain.Configuration) {
				c.Taxes.EarlyWithdrawalPenalty = decimal.NewFromInt(2)
			},
			field: "taxes.early_withdrawal_penalty",
		},
	}

	parser := NewInputParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := parser.Load([]byte(sampleYAML))
			require.NoError(t, err)

			tt.mutate(config)
			err = parser.ValidateConfiguration(config)
			require.Error(t, err)

			var cfgErr *domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestBracketBumpValidation(t *testing.T) {
	parser := NewInputParser()
	config, err := parser.Load([]byte(sampleYAML))
	require.NoError(t, err)

	config.Taxes.Bump = &domain.BracketBump{StartOffset: 3, RateDelta: decimal.NewFromFloat(0.02)}
	assert.NoError(t, parser.ValidateConfiguration(config))

	config.Taxes.Bump.RateDelta = decimal.NewFromFloat(0.90)
	err = parser.ValidateConfiguration(config)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "taxes.bracket_bump.rate_delta", cfgErr.Field)
}

func TestUniformLifetimeTableCoversHorizon(t *testing.T) {
	table := UniformLifetimeTable()
	for age := RMDStartAge; age <= 120; age++ {
		d, ok := table[age]
		require.True(t, ok, "age %d", age)
		assert.True(t, d.GreaterThan(decimal.Zero))
	}
}
