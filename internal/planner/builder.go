package planner

import (
	"fmt"

	"github.com/drawplan/drawplan/internal/milp"
)

// planVars records the model handles the extractor reads back after a solve.
type planVars struct {
	floor milp.Var

	wSave []milp.Var
	wIRA  []milp.Var
	wRoth []milp.Var
	conv  []milp.Var

	balSave []milp.Var
	balIRA  []milp.Var
	balRoth []milp.Var

	cgd        []milp.Var
	totalGains []milp.Var
	ordIncome  []milp.Var
	fedTax     []milp.Var
	totalTax   []milp.Var
	excess     []milp.Var

	// ordBracket[t][j] is the income allocated to ordinary bracket j in
	// year t; the extractor derives the marginal rate from the highest
	// occupied rung.
	ordBracket [][]milp.Var
}

// buildOptions are the per-solve toggles that shape the constraint graph
// before an objective is installed.
type buildOptions struct {
	noConversions bool
}

// Build assembles the full constraint graph for the scenario. Every year's
// constraints are emitted from an explicit year value; there is no ambient
// build state beyond the model's append-only registries. The objective is
// installed separately by applyMode.
func Build(s *Scenario, opts buildOptions) (*milp.Model, *planVars) {
	m := milp.New()
	v := newPlanVars(m, s, opts)

	for t := 0; t < s.Years; t++ {
		yr := planningYear{s: s, v: v, m: m, t: t}
		yr.balances()
		yr.capitalGains()
		yr.federalTax()
		yr.stateTax()
		yr.spending()
		yr.requiredMinimum()
		yr.rothAging()
	}

	return m, v
}

func newPlanVars(m *milp.Model, s *Scenario, opts buildOptions) *planVars {
	n := s.Years
	v := &planVars{
		floor:      m.Continuous("spending_floor", 0),
		wSave:      yearVars(m, "w_save", n),
		wIRA:       yearVars(m, "w_ira", n),
		wRoth:      yearVars(m, "w_roth", n),
		conv:       yearVars(m, "ira_to_roth", n),
		balSave:    yearVars(m, "bal_save", n),
		balIRA:     yearVars(m, "bal_ira", n),
		balRoth:    yearVars(m, "bal_roth", n),
		cgd:        yearVars(m, "cgd", n),
		totalGains: yearVars(m, "total_cap_gains", n),
		ordIncome:  yearVars(m, "ordinary_income", n),
		totalTax:   yearVars(m, "total_tax", n),
		excess:     yearVars(m, "excess", n),
		ordBracket: make([][]milp.Var, n),
	}
	if opts.noConversions {
		for t := 0; t < n; t++ {
			m.SetUpper(v.conv[t], 0)
		}
	}
	return v
}

func yearVars(m *milp.Model, prefix string, n int) []milp.Var {
	out := make([]milp.Var, n)
	for t := 0; t < n; t++ {
		out[t] = m.Continuous(fmt.Sprintf("%s_%d", prefix, t), 0)
	}
	return out
}

// planningYear carries one year's context through constraint emission.
type planningYear struct {
	s *Scenario
	v *planVars
	m *milp.Model
	t int
}

func (y planningYear) name(kind string) string {
	return fmt.Sprintf("%s_%d", kind, y.t)
}

// balances links each account's beginning-of-year balance to the prior year's
// flows, with growth applied after flows, and bounds every withdrawal by the
// balance it draws from.
func (y planningYear) balances() {
	s, v, m, t := y.s, y.v, y.m, y.t
	g := s.Growth

	if t == 0 {
		m.AddEQ(y.name("init_save"), milp.VarExpr(v.balSave[0]), s.SaveBalance)
		m.AddEQ(y.name("init_ira"), milp.VarExpr(v.balIRA[0]), s.IRABalance)
		m.AddEQ(y.name("init_roth"), milp.VarExpr(v.balRoth[0]), s.RothBalance)
	} else {
		// bal_save[t] = (bal_save[t-1] - w_save[t-1])*g - cgd[t-1] + excess[t-1]
		m.AddEQ(y.name("save_bal"),
			milp.NewExpr().
				Plus(1, v.balSave[t]).
				Plus(-g, v.balSave[t-1]).
				Plus(g, v.wSave[t-1]).
				Plus(1, v.cgd[t-1]).
				Plus(-1, v.excess[t-1]),
			0)
		// bal_ira[t] = (bal_ira[t-1] - w_ira[t-1] - conv[t-1])*g
		m.AddEQ(y.name("ira_bal"),
			milp.NewExpr().
				Plus(1, v.balIRA[t]).
				Plus(-g, v.balIRA[t-1]).
				Plus(g, v.wIRA[t-1]).
				Plus(g, v.conv[t-1]),
			0)
		// bal_roth[t] = (bal_roth[t-1] - w_roth[t-1] + conv[t-1])*g
		m.AddEQ(y.name("roth_bal"),
			milp.NewExpr().
				Plus(1, v.balRoth[t]).
				Plus(-g, v.balRoth[t-1]).
				Plus(g, v.wRoth[t-1]).
				Plus(-g, v.conv[t-1]),
			0)
	}

	m.AddLE(y.name("save_limit"), milp.NewExpr().Plus(1, v.wSave[t]).Plus(-1, v.balSave[t]), 0)
	m.AddLE(y.name("ira_limit"),
		milp.NewExpr().Plus(1, v.wIRA[t]).Plus(1, v.conv[t]).Plus(-1, v.balIRA[t]), 0)
	m.AddLE(y.name("roth_limit"), milp.NewExpr().Plus(1, v.wRoth[t]).Plus(-1, v.balRoth[t]), 0)
}

// capitalGains ties the year-end distribution to the post-withdrawal balance
// and sums it with the recognized gain on taxable sales. The distribution is
// taxed this year but only spendable next year.
func (y planningYear) capitalGains() {
	s, v, m, t := y.s, y.v, y.m, y.t

	// cgd[t] = (bal_save[t] - w_save[t]) * g * dist_rate
	k := s.Growth * s.DistRate
	m.AddEQ(y.name("cgd"),
		milp.NewExpr().
			Plus(1, v.cgd[t]).
			Plus(-k, v.balSave[t]).
			Plus(k, v.wSave[t]),
		0)

	// total_cap_gains[t] = cgd[t] + w_save[t]*(1 - basis_fraction)
	taxablePart := 1 - s.BasisFraction
	m.AddEQ(y.name("total_gains"),
		milp.NewExpr().
			Plus(1, v.totalGains[t]).
			Plus(-1, v.cgd[t]).
			Plus(-taxablePart, v.wSave[t]),
		0)
}

// federalTax emits the ordinary bracket ladder, the deduction split, the
// capital-gains stacking chain, the NII surtax, and the early-withdrawal
// penalty, and defines this year's federal liability.
func (y planningYear) federalTax() {
	s, v, m, t := y.s, y.v, y.m, y.t
	iMul := s.IMul[t]
	bigM := s.BigM

	// ordinary_income[t] = w_ira + conv + taxable scheduled income
	m.AddEQ(y.name("ord_income"),
		milp.NewExpr().
			Plus(1, v.ordIncome[t]).
			Plus(-1, v.wIRA[t]).
			Plus(-1, v.conv[t]),
		s.TaxedIncome[t])

	// Deduction split: the income portion is the exact min of the inflated
	// deduction and ordinary income; gains may shelter in whatever is left.
	// The min must be exact here: a slack income portion would both inflate
	// the bracket ladder and free deduction room for gains.
	dedIncome := m.Continuous(y.name("ded_income"), 0)
	dedGains := m.Continuous(y.name("ded_gains"), 0)
	ded := s.StdDeduction * iMul
	milp.AddMin(m, y.name("ded_split"), dedIncome,
		milp.NewExpr().PlusConst(ded), milp.VarExpr(v.ordIncome[t]), bigM)
	m.AddLE(y.name("ded_gains_room"),
		milp.NewExpr().Plus(1, dedGains).Plus(1, dedIncome), ded)

	// Ordinary ladder: bracket rungs bounded by inflated widths; the
	// deduction portion plus all rungs must account for ordinary income
	// exactly. Fill order needs no constraints: rates are validated
	// non-decreasing, so a tax-averse optimum always packs lower rungs
	// first.
	rungs := make([]milp.Var, len(s.OrdinaryBrackets))
	ladder := milp.NewExpr().Plus(1, dedIncome).Plus(-1, v.ordIncome[t])
	taxExpr := milp.NewExpr()
	for j := range s.OrdinaryBrackets {
		rungs[j] = m.Continuous(fmt.Sprintf("ord_bracket_%d_%d", y.t, j), 0)
		m.SetUpper(rungs[j], bracketWidth(s.OrdinaryBrackets, j, iMul, bigM))
		ladder.Plus(1, rungs[j])
		taxExpr.Plus(s.ordinaryRate(t, j), rungs[j])
	}
	m.AddEQ(y.name("ord_ladder"), ladder, 0)
	v.ordBracket[t] = rungs

	// Capital-gains stacking: ordinary income above the deduction fills CG
	// brackets from the bottom; gains are taxed only in the room left.
	effIncome := milp.NewExpr().Plus(1, v.ordIncome[t]).Plus(-1, dedIncome)
	gainsLadder := milp.NewExpr().Plus(1, dedGains).Plus(-1, v.totalGains[t])
	for j := range s.CapGainsBrackets {
		low := s.CapGainsBrackets[j].Low * iMul
		size := bracketWidth(s.CapGainsBrackets, j, iMul, bigM)

		// over = max(0, effIncome - low); one-sided is enough because a
		// larger over only shrinks the gains room.
		over := m.Continuous(fmt.Sprintf("cg_over_%d_%d", y.t, j), 0)
		m.AddGE(fmt.Sprintf("cg_over_%d_%d", y.t, j),
			milp.NewExpr().Plus(1, over).PlusExpr(negExpr(effIncome)), -low)

		// incomePortion = min(over, size) must be exact: overstating it
		// would pretend the bracket is fuller than income makes it.
		incomePortion := m.Continuous(fmt.Sprintf("cg_inc_%d_%d", y.t, j), 0)
		milp.AddMin(m, fmt.Sprintf("cg_inc_%d_%d", y.t, j), incomePortion,
			milp.VarExpr(over), milp.NewExpr().PlusConst(size), bigM)

		cgPortion := m.Continuous(fmt.Sprintf("cg_amt_%d_%d", y.t, j), 0)
		m.AddLE(fmt.Sprintf("cg_room_%d_%d", y.t, j),
			milp.NewExpr().Plus(1, cgPortion).Plus(1, incomePortion), size)

		gainsLadder.Plus(1, cgPortion)
		taxExpr.Plus(s.CapGainsBrackets[j].Rate, cgPortion)
	}
	m.AddEQ(y.name("cg_ladder"), gainsLadder, 0)

	// NII surtax on min(excess of MAGI over the threshold, investment
	// income). The excess is an exact max in both directions, so the
	// liability is right regardless of objective pressure.
	niiOver := m.Continuous(y.name("nii_over"), 0)
	milp.AddMax(m, y.name("nii_over"), niiOver,
		milp.NewExpr().
			Plus(1, v.ordIncome[t]).
			Plus(1, v.totalGains[t]).
			PlusConst(-s.NIIThreshold),
		milp.NewExpr(), bigM)
	niiBase := m.Continuous(y.name("nii_base"), 0)
	milp.AddMin(m, y.name("nii_base"), niiBase,
		milp.VarExpr(niiOver), milp.VarExpr(v.totalGains[t]), bigM)
	taxExpr.Plus(s.NIIRate, niiBase)

	// Age gate is plan data, so the penalty folds in at build time.
	if s.Age(t) < s.PenaltyAge {
		taxExpr.Plus(s.PenaltyRate, v.wIRA[t])
	}

	fedTax := m.Continuous(y.name("fed_tax"), 0)
	m.AddEQ(y.name("fed_tax"), taxExpr.Plus(-1, fedTax), 0)

	// total_tax is completed by stateTax.
	y.v.fedTax = append(y.v.fedTax, fedTax)
}

// stateTax emits the state ladder over the state income base and closes the
// year's total-tax identity.
func (y planningYear) stateTax() {
	s, v, m, t := y.s, y.v, y.m, y.t
	iMul := s.IMul[t]
	bigM := s.BigM

	// State base: conversions, the recognized gain on taxable sales, the
	// distribution, state-taxable scheduled income, and (where the state
	// taxes retirement income) IRA withdrawals.
	stateIncome := m.Continuous(y.name("state_income"), 0)
	base := milp.NewExpr().
		Plus(1, stateIncome).
		Plus(-1, v.conv[t]).
		Plus(-(1 - s.BasisFraction), v.wSave[t]).
		Plus(-1, v.cgd[t])
	if s.StateTaxesIRA {
		base.Plus(-1, v.wIRA[t])
	}
	m.AddEQ(y.name("state_income"), base, s.StateTaxedIncome[t])

	// One-sided deduction min: using less deduction only raises the tax,
	// so the optimizer maxes it out on its own.
	dedUsed := m.Continuous(y.name("state_ded"), 0)
	m.AddLE(y.name("state_ded_cap"),
		milp.NewExpr().Plus(1, dedUsed), s.StateStdDeduction*iMul)
	m.AddLE(y.name("state_ded_income"),
		milp.NewExpr().Plus(1, dedUsed).Plus(-1, stateIncome), 0)

	ladder := milp.NewExpr().Plus(1, dedUsed).Plus(-1, stateIncome)
	stateTaxExpr := milp.NewExpr()
	for j := range s.StateBrackets {
		rung := m.Continuous(fmt.Sprintf("state_bracket_%d_%d", y.t, j), 0)
		m.SetUpper(rung, bracketWidth(s.StateBrackets, j, iMul, bigM))
		ladder.Plus(1, rung)
		stateTaxExpr.Plus(s.StateBrackets[j].Rate, rung)
	}
	m.AddEQ(y.name("state_ladder"), ladder, 0)

	stateTax := m.Continuous(y.name("state_tax"), 0)
	m.AddEQ(y.name("state_tax"), stateTaxExpr.Plus(-1, stateTax), 0)

	// total_tax[t] = fed_tax[t] + state_tax[t]
	m.AddEQ(y.name("total_tax"),
		milp.NewExpr().
			Plus(1, v.totalTax[t]).
			Plus(-1, v.fedTax[t]).
			Plus(-1, stateTax),
		0)
}

// spending enforces the floor and defines the reinvested surplus. Last
// year's distribution is spendable cash this year; this year's is not.
func (y planningYear) spending() {
	s, v, m, t := y.s, y.v, y.m, y.t

	spendable := milp.NewExpr().
		Plus(1, v.wSave[t]).
		Plus(1, v.wIRA[t]).
		Plus(1, v.wRoth[t]).
		PlusConst(s.NetIncome[t])
	if t > 0 {
		spendable.Plus(1, v.cgd[t-1])
	}

	// excess[t] = spendable - tax - floor*iMul; the floor itself is
	// enforced by excess never going negative.
	m.AddEQ(y.name("excess"),
		spendable.
			Plus(-1, v.totalTax[t]).
			Plus(-s.IMul[t], v.floor).
			Plus(-1, v.excess[t]),
		0)
}

// requiredMinimum emits the RMD floor on the beginning-of-year IRA balance
// once the household reaches the configured start age. Conversions do not
// count toward the minimum.
func (y planningYear) requiredMinimum() {
	s, v, m, t := y.s, y.v, y.m, y.t

	age := s.Age(t)
	if age < s.RMDStartAge {
		return
	}
	divisor := s.RMDDivisors[age]
	if divisor <= 0 {
		return
	}

	// w_ira[t] >= bal_ira[t] / divisor
	m.AddGE(y.name("rmd"),
		milp.NewExpr().
			Plus(1, v.wIRA[t]).
			Plus(-1/divisor, v.balIRA[t]),
		0)
}

// rothAging caps early Roth withdrawals at the aged basis: contributions at
// least five years old plus conversions made at least five years ago, less
// everything already withdrawn. The gate lifts once the household is past
// the penalty-free age and the account has been open five years.
func (y planningYear) rothAging() {
	s, v, m, t := y.s, y.v, y.m, y.t

	age := s.Age(t)
	openAge := s.StartAge
	for _, c := range s.RothContribs {
		if c.Age < openAge {
			openAge = c.Age
		}
	}
	if age >= s.PenaltyAge && age-openAge >= 5 {
		return
	}

	agedBasis := 0.0
	for _, c := range s.RothContribs {
		if age-c.Age >= 5 {
			agedBasis += c.Amount
		}
	}

	// w_roth[t] - sum(conv[y] for y <= t-5) + sum(w_roth[y] for y < t) <= agedBasis
	limit := milp.NewExpr().Plus(1, v.wRoth[t])
	for y2 := 0; y2 <= t-5; y2++ {
		limit.Plus(-1, v.conv[y2])
	}
	for y2 := 0; y2 < t; y2++ {
		limit.Plus(1, v.wRoth[y2])
	}
	m.AddLE(y.name("roth_basis"), limit, agedBasis)
}

// bracketWidth returns the inflated width of bracket j, with the open-ended
// top bracket widened to the model's big-M.
func bracketWidth(table []bracket, j int, iMul, bigM float64) float64 {
	if j == len(table)-1 {
		return bigM
	}
	return (table[j+1].Low - table[j].Low) * iMul
}

func negExpr(e *milp.Expr) *milp.Expr {
	out := milp.NewExpr().PlusConst(-e.Offset)
	for _, term := range e.Terms {
		out.Plus(-term.Coef, term.Var)
	}
	return out
}

