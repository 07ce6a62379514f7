package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/drawplan/drawplan/internal/domain"
)

// InputParser handles parsing of plan configuration files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a configuration from a YAML file, fills defaults, and
// validates it. Validation failures are domain.ConfigError and are fatal
// before any model assembly.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Load(data)
}

// Load parses raw YAML bytes.
func (ip *InputParser) Load(data []byte) (*domain.Configuration, error) {
	var config domain.Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ApplyDefaults(&config)

	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills unset policy fields with the built-in federal tables
// and IRS schedules.
func ApplyDefaults(config *domain.Configuration) {
	taxes := &config.Taxes
	if len(taxes.OrdinaryBrackets) == 0 {
		taxes.OrdinaryBrackets = DefaultOrdinaryBrackets()
		if taxes.StandardDeduction.IsZero() {
			taxes.StandardDeduction = DefaultStandardDeduction()
		}
	}
	if len(taxes.CapitalGainsBrackets) == 0 {
		taxes.CapitalGainsBrackets = DefaultCapitalGainsBrackets()
	}
	if len(taxes.StateBrackets) == 0 {
		taxes.StateBrackets = []domain.TaxBracket{{Threshold: decimal.Zero, Rate: decimal.Zero}}
	}
	if taxes.StateStandardDeduction.IsZero() {
		taxes.StateStandardDeduction = taxes.StandardDeduction
	}
	if taxes.NIIThreshold.IsZero() {
		taxes.NIIThreshold = decimal.NewFromInt(250000)
	}
	if taxes.NIIRate.IsZero() {
		taxes.NIIRate = decimal.NewFromFloat(0.038)
	}
	if taxes.EarlyWithdrawalPenalty.IsZero() {
		taxes.EarlyWithdrawalPenalty = decimal.NewFromFloat(0.10)
	}
	if taxes.PenaltyAge == 0 {
		taxes.PenaltyAge = 59
	}

	if config.RMD.StartAge == 0 {
		config.RMD.StartAge = RMDStartAge
	}
	if len(config.RMD.Divisors) == 0 {
		config.RMD.Divisors = UniformLifetimeTable()
	}
}

// ValidateConfiguration validates the loaded configuration. No invalid
// financial input is silently replaced with a default.
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if err := ip.validateHousehold(&config.Household); err != nil {
		return err
	}
	if err := ip.validateAssumptions(&config.Assumptions); err != nil {
		return err
	}
	if err := ip.validateTaxes(&config.Taxes); err != nil {
		return err
	}
	if err := ip.validateRMD(config); err != nil {
		return err
	}
	if err := ip.validateAccounts(&config.Accounts); err != nil {
		return err
	}
	if err := ip.validateCashFlows("income", config.Income); err != nil {
		return err
	}
	if err := ip.validateCashFlows("expenses", config.Expenses); err != nil {
		return err
	}
	return nil
}

func (ip *InputParser) validateHousehold(h *domain.Household) error {
	if h.StartAge <= 0 {
		return domain.NewConfigError("household.start_age", "must be positive")
	}
	if h.EndAge <= h.StartAge {
		return domain.NewConfigError("household.end_age",
			fmt.Sprintf("must be greater than start_age %d", h.StartAge))
	}
	if h.EndAge > 121 {
		return domain.NewConfigError("household.end_age", "must be at most 121")
	}
	return nil
}

func (ip *InputParser) validateAssumptions(a *domain.Assumptions) error {
	one := decimal.NewFromInt(1)
	if a.InflationRate.LessThan(decimal.Zero) || a.InflationRate.GreaterThanOrEqual(one) {
		return domain.NewConfigError("assumptions.inflation_rate", "must be in [0, 1)")
	}
	if a.ReturnRate.LessThanOrEqual(one.Neg()) || a.ReturnRate.GreaterThanOrEqual(one) {
		return domain.NewConfigError("assumptions.return_rate", "must be in (-1, 1)")
	}
	return nil
}

func (ip *InputParser) validateTaxes(t *domain.TaxPolicy) error {
	if err := validateBrackets("taxes.ordinary_brackets", t.OrdinaryBrackets); err != nil {
		return err
	}
	if err := validateBrackets("taxes.capital_gains_brackets", t.CapitalGainsBrackets); err != nil {
		return err
	}
	if err := validateBrackets("taxes.state_brackets", t.StateBrackets); err != nil {
		return err
	}
	if t.StandardDeduction.LessThan(decimal.Zero) {
		return domain.NewConfigError("taxes.standard_deduction", "must not be negative")
	}
	if t.StateStandardDeduction.LessThan(decimal.Zero) {
		return domain.NewConfigError("taxes.state_standard_deduction", "must not be negative")
	}
	if t.NIIThreshold.LessThan(decimal.Zero) {
		return domain.NewConfigError("taxes.nii_threshold", "must not be negative")
	}
	if !validRate(t.NIIRate) {
		return domain.NewConfigError("taxes.nii_rate", "must be in [0, 1)")
	}
	if !validRate(t.EarlyWithdrawalPenalty) {
		return domain.NewConfigError("taxes.early_withdrawal_penalty", "must be in [0, 1)")
	}
	if t.PenaltyAge < 0 {
		return domain.NewConfigError("taxes.penalty_age", "must not be negative")
	}
	if t.Bump != nil {
		if t.Bump.StartOffset < 0 {
			return domain.NewConfigError("taxes.bracket_bump.start_offset", "must not be negative")
		}
		if t.Bump.RateDelta.LessThan(decimal.Zero) {
			return domain.NewConfigError("taxes.bracket_bump.rate_delta", "must not be negative")
		}
		top := t.OrdinaryBrackets[len(t.OrdinaryBrackets)-1].Rate.Add(t.Bump.RateDelta)
		if top.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return domain.NewConfigError("taxes.bracket_bump.rate_delta", "bumped top rate reaches 100%")
		}
	}
	return nil
}

// validateBrackets enforces the structural requirements of a marginal-rate
// ladder: strictly increasing thresholds and non-decreasing rates. The
// monotone-rate requirement is what lets the bracket allocation stay exact
// without binary ordering variables; a non-monotone table would make the
// linearized tax computation unsound, so it is rejected outright.
func validateBrackets(field string, brackets []domain.TaxBracket) error {
	if len(brackets) == 0 {
		return domain.NewConfigError(field, "at least one bracket is required")
	}
	if !brackets[0].Threshold.IsZero() {
		return domain.NewConfigError(field, "first bracket threshold must be 0")
	}
	for i, b := range brackets {
		if !validRate(b.Rate) {
			return domain.NewConfigError(field, fmt.Sprintf("bracket %d rate must be in [0, 1)", i))
		}
		if i == 0 {
			continue
		}
		if !b.Threshold.GreaterThan(brackets[i-1].Threshold) {
			return domain.NewConfigError(field,
				fmt.Sprintf("bracket %d threshold must exceed bracket %d (zero-width segment)", i, i-1))
		}
		if b.Rate.LessThan(brackets[i-1].Rate) {
			return domain.NewConfigError(field,
				fmt.Sprintf("bracket %d rate is below bracket %d; marginal rates must be non-decreasing", i, i-1))
		}
	}
	return nil
}

func (ip *InputParser) validateRMD(config *domain.Configuration) error {
	rmd := &config.RMD
	if rmd.StartAge <= 0 {
		return domain.NewConfigError("rmd.start_age", "must be positive")
	}
	for age := rmd.StartAge; age < config.Household.EndAge; age++ {
		d, ok := rmd.Divisors[age]
		if !ok {
			return domain.NewConfigError("rmd.divisors",
				fmt.Sprintf("missing divisor for age %d inside the horizon", age))
		}
		if d.LessThanOrEqual(decimal.Zero) {
			return domain.NewConfigError("rmd.divisors",
				fmt.Sprintf("divisor for age %d must be positive", age))
		}
	}
	return nil
}

func (ip *InputParser) validateAccounts(a *domain.Accounts) error {
	if a.Taxable.Balance.LessThan(decimal.Zero) {
		return domain.NewConfigError("accounts.taxable.balance", "must not be negative")
	}
	if a.Taxable.Basis.LessThan(decimal.Zero) {
		return domain.NewConfigError("accounts.taxable.basis", "must not be negative")
	}
	if a.Taxable.Basis.GreaterThan(a.Taxable.Balance) {
		return domain.NewConfigError("accounts.taxable.basis", "cannot exceed balance")
	}
	if !validRate(a.Taxable.DistributionRate) {
		return domain.NewConfigError("accounts.taxable.distribution_rate", "must be in [0, 1)")
	}
	if a.IRA.Balance.LessThan(decimal.Zero) {
		return domain.NewConfigError("accounts.ira.balance", "must not be negative")
	}
	if a.Roth.Balance.LessThan(decimal.Zero) {
		return domain.NewConfigError("accounts.roth.balance", "must not be negative")
	}
	for i, c := range a.Roth.Contributions {
		if c.Age <= 0 {
			return domain.NewConfigError(fmt.Sprintf("accounts.roth.contributions[%d].age", i), "must be positive")
		}
		if c.Amount.LessThan(decimal.Zero) {
			return domain.NewConfigError(fmt.Sprintf("accounts.roth.contributions[%d].amount", i), "must not be negative")
		}
	}
	return nil
}

func (ip *InputParser) validateCashFlows(field string, flows []domain.CashFlow) error {
	for i, f := range flows {
		if f.Amount.LessThan(decimal.Zero) {
			return domain.NewConfigError(fmt.Sprintf("%s[%d].amount", field, i), "must not be negative")
		}
		if f.StartAge <= 0 {
			return domain.NewConfigError(fmt.Sprintf("%s[%d].start_age", field, i), "must be positive")
		}
		if f.EndAge != 0 && f.EndAge < f.StartAge {
			return domain.NewConfigError(fmt.Sprintf("%s[%d].end_age", field, i), "must not precede start_age")
		}
	}
	return nil
}

func validRate(r decimal.Decimal) bool {
	return !r.LessThan(decimal.Zero) && r.LessThan(decimal.NewFromInt(1))
}
