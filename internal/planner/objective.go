package planner

import (
	"fmt"

	"github.com/drawplan/drawplan/internal/domain"
	"github.com/drawplan/drawplan/internal/milp"
)

// taxTiebreak is the weight of the inflation-adjusted tax sum inside the
// floor-maximizing objectives. It is small enough that no realistic tax
// saving can buy back a single dollar of floor; it only picks the
// lowest-tax plan among floor-equivalent optima, making results
// deterministic.
const taxTiebreak = 1e-7

// applyMode installs the requested objective on the shared constraint graph
// and adds the mode's optional constraint. The graph itself is identical
// across modes.
func applyMode(m *milp.Model, v *planVars, s *Scenario, req Request) error {
	switch req.Mode {
	case domain.ModeMaxSpend:
		m.Maximize(floorObjective(v, s))

	case domain.ModeMinTaxes:
		m.AddEQ("fixed_floor", milp.VarExpr(v.floor), toF(req.Spend))
		obj := milp.NewExpr()
		for t := 0; t < s.Years; t++ {
			obj.Plus(1/s.IMul[t], v.totalTax[t])
		}
		m.Minimize(obj)

	case domain.ModeRothFloor:
		// Terminal end-of-year Roth balance, in nominal dollars, must
		// cover the inflation-adjusted target.
		last := s.Years - 1
		m.AddGE("terminal_roth",
			milp.NewExpr().
				Plus(s.Growth, v.balRoth[last]).
				Plus(-s.Growth, v.wRoth[last]).
				Plus(s.Growth, v.conv[last]),
			toF(req.RothTarget)*s.IMul[last])
		m.Maximize(floorObjective(v, s))

	default:
		return fmt.Errorf("unknown objective mode %d", req.Mode)
	}
	return nil
}

func floorObjective(v *planVars, s *Scenario) *milp.Expr {
	obj := milp.VarExpr(v.floor)
	for t := 0; t < s.Years; t++ {
		obj.Plus(-taxTiebreak/s.IMul[t], v.totalTax[t])
	}
	return obj
}
