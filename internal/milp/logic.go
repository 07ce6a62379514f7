package milp

// Big-M encodings of threshold logic. Each helper allocates its own binary
// indicator; M must dominate every value the linked expressions can take,
// and should be as tight as the caller can prove to keep the relaxation
// numerically sound.

// AddMin constrains result = min(a, b).
//
//	result <= a, result <= b
//	a <= result + M*z, b <= result + M*(1-z)
//
// The pair of big-M rows forces result up to one of its arguments, so the
// equality holds at every feasible point, independent of objective direction.
func AddMin(m *Model, name string, result Var, a, b *Expr, bigM float64) {
	z := m.Binary(name + "_min_ind")
	m.AddLE(name+"_min_le_a", NewExpr().Plus(1, result).PlusExpr(negate(a)), 0)
	m.AddLE(name+"_min_le_b", NewExpr().Plus(1, result).PlusExpr(negate(b)), 0)
	m.AddLE(name+"_min_ge_a", copyExpr(a).Plus(-1, result).Plus(-bigM, z), 0)
	m.AddLE(name+"_min_ge_b", copyExpr(b).Plus(-1, result).Plus(bigM, z), bigM)
}

// AddMax constrains result = max(a, b), the mirror of AddMin.
func AddMax(m *Model, name string, result Var, a, b *Expr, bigM float64) {
	z := m.Binary(name + "_max_ind")
	m.AddGE(name+"_max_ge_a", NewExpr().Plus(1, result).PlusExpr(negate(a)), 0)
	m.AddGE(name+"_max_ge_b", NewExpr().Plus(1, result).PlusExpr(negate(b)), 0)
	// z=1 selects a, z=0 selects b.
	m.AddLE(name+"_max_link1", copyExpr(b).PlusExpr(negate(a)).Plus(bigM, z), bigM)
	m.AddLE(name+"_max_link2", copyExpr(a).PlusExpr(negate(b)).Plus(-bigM, z), 0)
	m.AddLE(name+"_max_le_a", NewExpr().Plus(1, result).PlusExpr(negate(a)).Plus(bigM, z), bigM)
	m.AddLE(name+"_max_le_b", NewExpr().Plus(1, result).PlusExpr(negate(b)).Plus(-bigM, z), 0)
}

func copyExpr(e *Expr) *Expr {
	out := &Expr{Offset: e.Offset, Terms: make([]Term, len(e.Terms))}
	copy(out.Terms, e.Terms)
	return out
}

func negate(e *Expr) *Expr {
	out := &Expr{Offset: -e.Offset, Terms: make([]Term, len(e.Terms))}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: t.Var, Coef: -t.Coef}
	}
	return out
}
