package planner

import (
	"github.com/shopspring/decimal"

	"github.com/drawplan/drawplan/internal/domain"
	"github.com/drawplan/drawplan/internal/solve"
)

// Extract decodes a solver result into the year-by-year plan. Every money
// value is deflated to today's dollars and rounded to whole currency units;
// derived columns (marginal rate, net spend, totals) are computed here, not
// in the model.
func Extract(s *Scenario, v *planVars, res *solve.Result) *domain.Plan {
	plan := &domain.Plan{
		Status: extractStatus(res.Status),
		Years:  make([]domain.YearLedger, s.Years),
	}

	floor := res.Values[v.floor]
	plan.SpendingFloor = money(floor)

	var totalSpend, totalTax float64
	for t := 0; t < s.Years; t++ {
		iMul := s.IMul[t]
		extra := res.Values[v.excess[t]] / iMul
		tax := res.Values[v.totalTax[t]] / iMul
		netSpend := floor + extra

		plan.Years[t] = domain.YearLedger{
			Age: s.Age(t),

			TaxableBalance:    money(res.Values[v.balSave[t]] / iMul),
			TaxableWithdrawal: money(res.Values[v.wSave[t]] / iMul),
			IRABalance:        money(res.Values[v.balIRA[t]] / iMul),
			IRAWithdrawal:     money(res.Values[v.wIRA[t]] / iMul),
			RothBalance:       money(res.Values[v.balRoth[t]] / iMul),
			RothWithdrawal:    money(res.Values[v.wRoth[t]] / iMul),

			IRAToRothConversion: money(res.Values[v.conv[t]] / iMul),
			CapGainDistribution: money(res.Values[v.cgd[t]] / iMul),

			MarginalTaxRate: marginalRate(s, v, res, t),
			TaxPaid:         money(tax),
			NetSpend:        money(netSpend),
			ExtraSpend:      money(extra),
		}

		totalSpend += netSpend
		totalTax += tax
	}

	plan.TotalSpend = money(totalSpend)
	plan.TotalTax = money(totalTax)
	if gross := totalSpend + totalTax; gross > 0 {
		plan.AverageTaxRate = decimal.NewFromFloat(totalTax / gross).Round(4)
	}
	return plan
}

// marginalRate reads the highest occupied rung of the year's ordinary
// ladder. Occupancy below half a currency unit is solver noise, not income.
func marginalRate(s *Scenario, v *planVars, res *solve.Result, t int) decimal.Decimal {
	rate := 0.0
	for j, rung := range v.ordBracket[t] {
		if res.Values[rung] > 0.5 {
			rate = s.ordinaryRate(t, j)
		}
	}
	return decimal.NewFromFloat(rate)
}

func extractStatus(st solve.Status) domain.SolveStatus {
	switch st {
	case solve.Optimal:
		return domain.StatusOptimal
	case solve.TimeLimitFeasible:
		return domain.StatusTimeLimit
	case solve.Infeasible:
		return domain.StatusInfeasible
	default:
		return domain.StatusError
	}
}

func money(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(0)
}

func toF(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
