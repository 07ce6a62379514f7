// Package milp holds an abstract mixed-integer linear program: typed
// variables with bounds, linear constraints, and one linear objective. The
// model is an append-only registry built incrementally by the planner and
// handed to a solve backend.
package milp

import (
	"fmt"
	"math"
)

// VarKind distinguishes continuous decision variables from 0/1 indicators.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
)

// Var is an opaque handle into the model's variable registry.
type Var int

// Term is one coefficient*variable entry of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression: sum of terms plus a constant offset.
// The zero value is usable.
type Expr struct {
	Terms  []Term
	Offset float64
}

// NewExpr returns an empty expression.
func NewExpr() *Expr { return &Expr{} }

// Plus appends coef*v and returns the expression for chaining.
func (e *Expr) Plus(coef float64, v Var) *Expr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// PlusConst adds a constant and returns the expression for chaining.
func (e *Expr) PlusConst(c float64) *Expr {
	e.Offset += c
	return e
}

// PlusExpr appends every term of other (and its offset).
func (e *Expr) PlusExpr(other *Expr) *Expr {
	e.Terms = append(e.Terms, other.Terms...)
	e.Offset += other.Offset
	return e
}

// VarExpr is shorthand for an expression holding a single variable.
func VarExpr(v Var) *Expr { return NewExpr().Plus(1, v) }

// Sense is the comparison direction of a constraint.
type Sense int

const (
	LE Sense = iota
	EQ
	GE
)

// Constraint is expr (sense) rhs. The offset of expr is folded into the
// right-hand side by the backend.
type Constraint struct {
	Name  string
	Expr  *Expr
	Sense Sense
	RHS   float64
}

// Model is the program under assembly.
type Model struct {
	names []string
	kinds []VarKind
	lower []float64
	upper []float64

	cons []Constraint

	objective *Expr
	maximize  bool
}

// New returns an empty model.
func New() *Model {
	return &Model{objective: NewExpr()}
}

// Continuous adds a continuous variable with the given lower bound and no
// upper bound.
func (m *Model) Continuous(name string, lower float64) Var {
	return m.addVar(name, Continuous, lower, math.Inf(1))
}

// Free adds a continuous variable unbounded in both directions.
func (m *Model) Free(name string) Var {
	return m.addVar(name, Continuous, math.Inf(-1), math.Inf(1))
}

// Binary adds a 0/1 indicator variable.
func (m *Model) Binary(name string) Var {
	return m.addVar(name, Binary, 0, 1)
}

func (m *Model) addVar(name string, kind VarKind, lower, upper float64) Var {
	m.names = append(m.names, name)
	m.kinds = append(m.kinds, kind)
	m.lower = append(m.lower, lower)
	m.upper = append(m.upper, upper)
	return Var(len(m.names) - 1)
}

// SetUpper tightens the upper bound of a variable.
func (m *Model) SetUpper(v Var, upper float64) {
	m.upper[v] = upper
}

// AddLE adds expr <= rhs.
func (m *Model) AddLE(name string, expr *Expr, rhs float64) {
	m.cons = append(m.cons, Constraint{Name: name, Expr: expr, Sense: LE, RHS: rhs})
}

// AddGE adds expr >= rhs.
func (m *Model) AddGE(name string, expr *Expr, rhs float64) {
	m.cons = append(m.cons, Constraint{Name: name, Expr: expr, Sense: GE, RHS: rhs})
}

// AddEQ adds expr == rhs.
func (m *Model) AddEQ(name string, expr *Expr, rhs float64) {
	m.cons = append(m.cons, Constraint{Name: name, Expr: expr, Sense: EQ, RHS: rhs})
}

// Maximize installs a maximization objective, replacing any previous one.
func (m *Model) Maximize(expr *Expr) {
	m.objective = expr
	m.maximize = true
}

// Minimize installs a minimization objective, replacing any previous one.
func (m *Model) Minimize(expr *Expr) {
	m.objective = expr
	m.maximize = false
}

// NumVars returns the number of registered variables.
func (m *Model) NumVars() int { return len(m.names) }

// NumConstraints returns the number of registered constraints.
func (m *Model) NumConstraints() int { return len(m.cons) }

// Constraints exposes the constraint registry to backends.
func (m *Model) Constraints() []Constraint { return m.cons }

// Objective returns the objective expression and whether it is maximized.
func (m *Model) Objective() (*Expr, bool) { return m.objective, m.maximize }

// Kind returns the kind of a variable.
func (m *Model) Kind(v Var) VarKind { return m.kinds[v] }

// Bounds returns the lower and upper bound of a variable.
func (m *Model) Bounds(v Var) (float64, float64) { return m.lower[v], m.upper[v] }

// Name returns the registered name of a variable.
func (m *Model) Name(v Var) string { return m.names[v] }

// Binaries returns the handles of all binary variables.
func (m *Model) Binaries() []Var {
	var out []Var
	for i, k := range m.kinds {
		if k == Binary {
			out = append(out, Var(i))
		}
	}
	return out
}

// String summarizes the model size.
func (m *Model) String() string {
	bins := len(m.Binaries())
	return fmt.Sprintf("milp: %d vars (%d binary), %d constraints",
		len(m.names), bins, len(m.cons))
}
