package domain

import (
	"github.com/shopspring/decimal"
)

// Configuration is the root of the planner input file.
type Configuration struct {
	Household   Household   `yaml:"household"`
	Assumptions Assumptions `yaml:"assumptions"`
	Taxes       TaxPolicy   `yaml:"taxes"`
	RMD         RMDPolicy   `yaml:"rmd"`
	Accounts    Accounts    `yaml:"accounts"`
	Income      []CashFlow  `yaml:"income"`
	Expenses    []CashFlow  `yaml:"expenses"`
}

// Household defines the planning horizon. The plan covers ages
// [StartAge, EndAge): EndAge is the first age with no spending year.
type Household struct {
	StartAge int `yaml:"start_age"`
	EndAge   int `yaml:"end_age"`
}

// Years returns the number of planning years in the horizon.
func (h Household) Years() int {
	return h.EndAge - h.StartAge
}

// Assumptions holds the deterministic economic assumptions. Rates are
// fractions (0.06 means 6%).
type Assumptions struct {
	InflationRate decimal.Decimal `yaml:"inflation_rate"`
	ReturnRate    decimal.Decimal `yaml:"return_rate"`
}

// TaxBracket is one rung of a marginal-rate ladder. Threshold is the lower
// bound of taxable income at which Rate starts to apply.
type TaxBracket struct {
	Threshold decimal.Decimal `yaml:"threshold"`
	Rate      decimal.Decimal `yaml:"rate"`
}

// BracketBump models a scheduled tax-law change: starting StartOffset years
// into the plan, every bracket rate is increased by RateDelta.
type BracketBump struct {
	StartOffset int             `yaml:"start_offset"`
	RateDelta   decimal.Decimal `yaml:"rate_delta"`
}

// TaxPolicy carries the bracket ladders plus the threshold-triggered pieces
// of the tax code the model linearizes.
type TaxPolicy struct {
	OrdinaryBrackets     []TaxBracket `yaml:"ordinary_brackets"`
	CapitalGainsBrackets []TaxBracket `yaml:"capital_gains_brackets"`
	StateBrackets        []TaxBracket `yaml:"state_brackets"`

	StandardDeduction      decimal.Decimal `yaml:"standard_deduction"`
	StateStandardDeduction decimal.Decimal `yaml:"state_standard_deduction"`

	// State treats IRA withdrawals as ordinary income when true.
	StateTaxesRetirementIncome *bool `yaml:"state_taxes_retirement_income"`

	NIIThreshold decimal.Decimal `yaml:"nii_threshold"`
	NIIRate      decimal.Decimal `yaml:"nii_rate"`

	EarlyWithdrawalPenalty decimal.Decimal `yaml:"early_withdrawal_penalty"`
	PenaltyAge             int             `yaml:"penalty_age"`

	Bump *BracketBump `yaml:"bracket_bump"`
}

// RMDPolicy is the age-indexed divisor schedule for required minimum
// distributions. Divisors maps age to the IRS life-expectancy divisor.
type RMDPolicy struct {
	StartAge int                     `yaml:"start_age"`
	Divisors map[int]decimal.Decimal `yaml:"divisors"`
}

// Accounts holds the three account variants.
type Accounts struct {
	Taxable TaxableAccount `yaml:"taxable"`
	IRA     IRAAccount     `yaml:"ira"`
	Roth    RothAccount    `yaml:"roth"`
}

// TaxableAccount is the brokerage account. Basis is the already-taxed part of
// Balance at plan start; DistributionRate is the yearly capital-gains
// distribution as a fraction of year-end balance.
type TaxableAccount struct {
	Balance          decimal.Decimal `yaml:"balance"`
	Basis            decimal.Decimal `yaml:"basis"`
	DistributionRate decimal.Decimal `yaml:"distribution_rate"`
}

// IRAAccount is the tax-deferred account.
type IRAAccount struct {
	Balance decimal.Decimal `yaml:"balance"`
}

// RothAccount is the tax-exempt account. Contributions records when basis
// entered the account; only aged basis may be withdrawn before the
// penalty-free age.
type RothAccount struct {
	Balance       decimal.Decimal    `yaml:"balance"`
	Contributions []RothContribution `yaml:"contributions"`
}

// RothContribution is one (age, amount) entry of the contribution history.
// Read-only input; never mutated by the solver.
type RothContribution struct {
	Age    int             `yaml:"age"`
	Amount decimal.Decimal `yaml:"amount"`
}

// CashFlow is a scheduled income or expense stream active over an inclusive
// age range. Taxable/StateTaxable select which tax bases the amount joins;
// Social Security is expressed as an income entry with a fixed taxable flag.
type CashFlow struct {
	Name      string          `yaml:"name"`
	Amount    decimal.Decimal `yaml:"amount"`
	StartAge  int             `yaml:"start_age"`
	EndAge    int             `yaml:"end_age"`
	Inflation bool            `yaml:"inflation"`
	Taxable   bool            `yaml:"taxable"`
	// nil means "follow Taxable".
	StateTaxable *bool `yaml:"state_taxable"`
}

// ActiveAt reports whether the stream pays out at the given age.
func (c CashFlow) ActiveAt(age int) bool {
	end := c.EndAge
	if end == 0 {
		end = c.StartAge
	}
	return age >= c.StartAge && age <= end
}

// StateTaxableAt returns the effective state-taxable flag.
func (c CashFlow) StateTaxableAt() bool {
	if c.StateTaxable != nil {
		return *c.StateTaxable
	}
	return c.Taxable
}
