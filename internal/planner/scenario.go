package planner

import (
	"math"

	"github.com/drawplan/drawplan/internal/domain"
)

// bracket is one rung of a compiled marginal-rate ladder, thresholds in
// today's dollars.
type bracket struct {
	Low  float64
	Rate float64
}

// rothContribution is a compiled (age, amount) basis entry.
type rothContribution struct {
	Age    int
	Amount float64
}

// Scenario is the configuration compiled to the float64 values the model
// builder consumes. Compilation happens once per solve; everything derived
// from decimal inputs, schedules, and the horizon is precomputed here so
// constraint emission is pure arithmetic.
type Scenario struct {
	StartAge int
	Years    int

	// Growth is 1 + yearly return rate.
	Growth float64
	// IMul[t] is the inflation multiplier (1+inflation)^t.
	IMul []float64

	SaveBalance float64
	// BasisFraction is the already-taxed share of the taxable balance,
	// fixed at plan start and never recomputed. A deliberate approximation.
	BasisFraction float64
	DistRate      float64
	IRABalance    float64
	RothBalance   float64
	RothContribs  []rothContribution

	// NetIncome[t] is scheduled income minus scheduled expenses, nominal.
	NetIncome []float64
	// TaxedIncome[t] is the federally taxable slice of scheduled income.
	TaxedIncome []float64
	// StateTaxedIncome[t] is the state-taxable slice.
	StateTaxedIncome []float64

	OrdinaryBrackets []bracket
	CapGainsBrackets []bracket
	StateBrackets    []bracket

	StdDeduction      float64
	StateStdDeduction float64

	StateTaxesIRA bool

	NIIThreshold float64
	NIIRate      float64

	PenaltyRate float64
	PenaltyAge  int

	RMDStartAge int
	RMDDivisors map[int]float64

	// BumpYear is the first plan year with bumped ordinary rates;
	// Years means never. BumpDelta is added to every ordinary rate from
	// that year on.
	BumpYear  int
	BumpDelta float64

	// BigM dominates every money quantity the model can produce. It is
	// derived from total plan resources, not a fixed constant, to keep the
	// indicator relaxations numerically tight.
	BigM float64
}

// Age returns the household age in plan year t.
func (s *Scenario) Age(t int) int { return s.StartAge + t }

// ordinaryRate returns the effective marginal rate of ordinary bracket j in
// plan year t, including any scheduled bump.
func (s *Scenario) ordinaryRate(t, j int) float64 {
	r := s.OrdinaryBrackets[j].Rate
	if t >= s.BumpYear {
		r += s.BumpDelta
	}
	return r
}

// Compile flattens a validated configuration into a Scenario.
func Compile(config *domain.Configuration) *Scenario {
	years := config.Household.Years()

	s := &Scenario{
		StartAge: config.Household.StartAge,
		Years:    years,
		Growth:   1 + toF(config.Assumptions.ReturnRate),
		IMul:     make([]float64, years),

		SaveBalance: toF(config.Accounts.Taxable.Balance),
		DistRate:    toF(config.Accounts.Taxable.DistributionRate),
		IRABalance:  toF(config.Accounts.IRA.Balance),
		RothBalance: toF(config.Accounts.Roth.Balance),

		NetIncome:        make([]float64, years),
		TaxedIncome:      make([]float64, years),
		StateTaxedIncome: make([]float64, years),

		OrdinaryBrackets: compileBrackets(config.Taxes.OrdinaryBrackets),
		CapGainsBrackets: compileBrackets(config.Taxes.CapitalGainsBrackets),
		StateBrackets:    compileBrackets(config.Taxes.StateBrackets),

		StdDeduction:      toF(config.Taxes.StandardDeduction),
		StateStdDeduction: toF(config.Taxes.StateStandardDeduction),

		NIIThreshold: toF(config.Taxes.NIIThreshold),
		NIIRate:      toF(config.Taxes.NIIRate),

		PenaltyRate: toF(config.Taxes.EarlyWithdrawalPenalty),
		PenaltyAge:  config.Taxes.PenaltyAge,

		RMDStartAge: config.RMD.StartAge,
		RMDDivisors: make(map[int]float64, len(config.RMD.Divisors)),

		BumpYear: years,
	}

	if config.Taxes.StateTaxesRetirementIncome != nil {
		s.StateTaxesIRA = *config.Taxes.StateTaxesRetirementIncome
	}

	if bal := s.SaveBalance; bal > 0 {
		s.BasisFraction = math.Min(1, toF(config.Accounts.Taxable.Basis)/bal)
	}

	for _, c := range config.Accounts.Roth.Contributions {
		s.RothContribs = append(s.RothContribs, rothContribution{
			Age:    c.Age,
			Amount: toF(c.Amount),
		})
	}

	for age, d := range config.RMD.Divisors {
		s.RMDDivisors[age] = toF(d)
	}

	if b := config.Taxes.Bump; b != nil && b.StartOffset < years {
		s.BumpYear = b.StartOffset
		s.BumpDelta = toF(b.RateDelta)
	}

	inflation := 1 + toF(config.Assumptions.InflationRate)
	mul := 1.0
	for t := 0; t < years; t++ {
		s.IMul[t] = mul
		mul *= inflation
	}

	for t := 0; t < years; t++ {
		age := s.Age(t)
		for _, f := range config.Income {
			if !f.ActiveAt(age) {
				continue
			}
			amount := toF(f.Amount)
			if f.Inflation {
				amount *= s.IMul[t]
			}
			s.NetIncome[t] += amount
			if f.Taxable {
				s.TaxedIncome[t] += amount
			}
			if f.StateTaxableAt() {
				s.StateTaxedIncome[t] += amount
			}
		}
		for _, f := range config.Expenses {
			if !f.ActiveAt(age) {
				continue
			}
			amount := toF(f.Amount)
			if f.Inflation {
				amount *= s.IMul[t]
			}
			s.NetIncome[t] -= amount
		}
	}

	s.BigM = s.bigM()
	return s
}

// bigM bounds every money flow the plan can produce: all starting balances
// plus all scheduled income, each compounded at the growth rate to the end
// of the horizon, doubled for slack.
func (s *Scenario) bigM() float64 {
	horizon := math.Pow(s.Growth, float64(s.Years))
	total := (s.SaveBalance + s.IRABalance + s.RothBalance) * horizon
	for t := 0; t < s.Years; t++ {
		if s.NetIncome[t] > 0 {
			total += s.NetIncome[t] * math.Pow(s.Growth, float64(s.Years-t))
		}
	}
	m := 2 * total
	if m < 1e6 {
		m = 1e6
	}
	// The NII excess encoding needs M to dominate the threshold itself,
	// not just the money the plan can move.
	if m < 2*s.NIIThreshold {
		m = 2 * s.NIIThreshold
	}
	return m
}

func compileBrackets(in []domain.TaxBracket) []bracket {
	out := make([]bracket, len(in))
	for i, b := range in {
		out[i] = bracket{Low: toF(b.Threshold), Rate: toF(b.Rate)}
	}
	return out
}
