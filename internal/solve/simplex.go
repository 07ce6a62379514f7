package solve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/drawplan/drawplan/internal/milp"
)

// BranchAndBound is the default backend: depth-first branch and bound on the
// model's binary variables, with every relaxation solved by gonum's simplex
// in standard form.
type BranchAndBound struct{}

// NewBranchAndBound returns the default backend.
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{}
}

type bbNode struct {
	lower []float64
	upper []float64
}

// Solve optimizes the model. On time-limit expiry the best incumbent found so
// far is returned with TimeLimitFeasible status; with no incumbent the solve
// fails. A relaxation that fails numerically aborts the whole solve rather
// than pruning its subtree: a pruned node must be provably infeasible or
// provably dominated, never merely unsolved.
func (bb *BranchAndBound) Solve(ctx context.Context, m *milp.Model, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = time.Now().Add(opts.TimeLimit)
	}

	obj, maximize := m.Objective()

	root := bbNode{lower: make([]float64, m.NumVars()), upper: make([]float64, m.NumVars())}
	for i := 0; i < m.NumVars(); i++ {
		root.lower[i], root.upper[i] = m.Bounds(milp.Var(i))
	}

	stack := []bbNode{root}
	var bestX []float64
	bestF := math.Inf(1)
	haveBest := false
	nodes := 0
	timedOut := false

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			timedOut = true
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			timedOut = true
			break
		}
		if nodes >= opts.MaxNodes {
			opts.Logger.Warnf("solve: node limit %d reached", opts.MaxNodes)
			timedOut = true
			break
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		x, f, err := solveRelaxation(m, obj, maximize, node.lower, node.upper, opts.Tol)
		if err != nil {
			// solveRelaxation only reports infeasibility once a retry at a
			// looser tolerance agrees, so the prune here is safe.
			if errors.Is(err, lp.ErrInfeasible) {
				continue
			}
			if errors.Is(err, lp.ErrUnbounded) {
				return &Result{Status: Error, Nodes: nodes}, fmt.Errorf("relaxation is unbounded: %w", err)
			}
			return &Result{Status: Error, Nodes: nodes}, fmt.Errorf("simplex failed: %w", err)
		}

		// Bound: the relaxation value can only get worse deeper down.
		if haveBest && f >= bestF-1e-9 {
			continue
		}

		branch := fractionalBinary(m, x, opts.IntTol)
		if branch < 0 {
			bestX = x
			bestF = f
			haveBest = true
			if opts.Verbose {
				opts.Logger.Debugf("solve: incumbent %.6g at node %d", trueObjective(f, maximize), nodes)
			}
			continue
		}

		zero := bbNode{lower: cloneBounds(node.lower), upper: cloneBounds(node.upper)}
		zero.upper[branch] = 0
		one := bbNode{lower: cloneBounds(node.lower), upper: cloneBounds(node.upper)}
		one.lower[branch] = 1

		// Explore the side the relaxation leans toward first.
		if x[branch] >= 0.5 {
			stack = append(stack, zero, one)
		} else {
			stack = append(stack, one, zero)
		}

		if opts.Verbose && nodes%1000 == 0 {
			opts.Logger.Debugf("solve: %d nodes, %d open", nodes, len(stack))
		}
	}

	switch {
	case timedOut && haveBest:
		opts.Logger.Infof("solve: time budget expired after %d nodes, returning incumbent", nodes)
		return &Result{Status: TimeLimitFeasible, Objective: trueObjective(bestF, maximize), Values: bestX, Nodes: nodes}, nil
	case timedOut:
		return &Result{Status: Error, Nodes: nodes}, errors.New("time budget expired with no feasible incumbent")
	case haveBest:
		return &Result{Status: Optimal, Objective: trueObjective(bestF, maximize), Values: bestX, Nodes: nodes}, nil
	default:
		return &Result{Status: Infeasible, Nodes: nodes}, nil
	}
}

func trueObjective(f float64, maximize bool) float64 {
	if maximize {
		return -f
	}
	return f
}

func cloneBounds(b []float64) []float64 {
	out := make([]float64, len(b))
	copy(out, b)
	return out
}

// fractionalBinary returns the binary variable whose relaxed value is
// furthest from integral, or -1 when all binaries are integral.
func fractionalBinary(m *milp.Model, x []float64, intTol float64) milp.Var {
	best := milp.Var(-1)
	bestDist := intTol
	for _, v := range m.Binaries() {
		frac := x[v] - math.Floor(x[v])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best = v
			bestDist = dist
		}
	}
	return best
}

// stdRow is one assembled constraint row over the standard-form columns.
type stdRow struct {
	coefs []float64
	rhs   float64
}

const (
	// fixTol pins a variable whose bounds have collapsed.
	fixTol = 1e-9
	// feasTol accepts a constant row as satisfied. Relative to the
	// right-hand side, which is money-scale in the emitted programs.
	feasTol = 1e-6
)

// solveRelaxation converts the model plus node bounds to standard form
// (minimize c'x, Ax = b, x >= 0) and runs gonum's simplex. It returns the
// solution mapped back to model-variable space and the minimized objective
// value (the negated objective when the model maximizes).
//
// Three transformations keep the simplex numerically sound on programs that
// mix unit coefficients with big-M rows:
//   - variables pinned by their bounds (branched binaries, hard-zeroed
//     conversions) are substituted out as constants instead of carried as
//     degenerate bound rows;
//   - rows that reduce to constants are feasibility-checked and dropped;
//   - the matrix is equilibrated by geometric-mean row and column scaling
//     before the solve, and the solution unscaled afterwards.
func solveRelaxation(m *milp.Model, obj *milp.Expr, maximize bool, lower, upper []float64, tol float64) ([]float64, float64, error) {
	n := m.NumVars()

	// Column layout: shifted variables first, free variables take a
	// positive and a negative column, slack columns appended per LE row.
	// Pinned variables take no column at all.
	fixed := make([]bool, n)
	colOf := make([]int, n)
	negColOf := make([]int, n)
	shift := make([]float64, n)
	ncols := 0
	for j := 0; j < n; j++ {
		lo, up := lower[j], upper[j]
		switch {
		case !math.IsInf(lo, -1) && up-lo <= fixTol:
			if up < lo-fixTol {
				return nil, 0, lp.ErrInfeasible
			}
			fixed[j] = true
			shift[j] = lo
			colOf[j], negColOf[j] = -1, -1
		case math.IsInf(lo, -1):
			colOf[j], negColOf[j] = ncols, ncols+1
			ncols += 2
		default:
			colOf[j], negColOf[j] = ncols, -1
			shift[j] = lo
			ncols++
		}
	}

	var leRows, eqRows []stdRow

	appendRow := func(dst *[]stdRow, e *milp.Expr, negateRow bool, rhs float64, eq bool) error {
		coefs := make([]float64, ncols)
		r := rhs - e.Offset
		for _, term := range e.Terms {
			r -= term.Coef * shift[term.Var]
			if fixed[term.Var] {
				continue
			}
			coefs[colOf[term.Var]] += term.Coef
			if negColOf[term.Var] >= 0 {
				coefs[negColOf[term.Var]] -= term.Coef
			}
		}
		if negateRow {
			for i := range coefs {
				coefs[i] = -coefs[i]
			}
			r = -r
		}
		empty := true
		for _, v := range coefs {
			if v != 0 {
				empty = false
				break
			}
		}
		if empty {
			// Constant row: either trivially satisfied, or this node
			// contradicts its pinned variables.
			slop := feasTol * (1 + math.Abs(rhs))
			if eq && math.Abs(r) > slop {
				return lp.ErrInfeasible
			}
			if !eq && r < -slop {
				return lp.ErrInfeasible
			}
			return nil
		}
		*dst = append(*dst, stdRow{coefs, r})
		return nil
	}

	for _, c := range m.Constraints() {
		var err error
		switch c.Sense {
		case milp.LE:
			err = appendRow(&leRows, c.Expr, false, c.RHS, false)
		case milp.GE:
			err = appendRow(&leRows, c.Expr, true, c.RHS, false)
		case milp.EQ:
			err = appendRow(&eqRows, c.Expr, false, c.RHS, true)
		}
		if err != nil {
			return nil, 0, err
		}
	}

	// Finite upper bounds of surviving variables become LE rows on the
	// shifted column.
	for j := 0; j < n; j++ {
		if fixed[j] || math.IsInf(upper[j], 1) {
			continue
		}
		coefs := make([]float64, ncols)
		coefs[colOf[j]] = 1
		if negColOf[j] >= 0 {
			coefs[negColOf[j]] = -1
		}
		leRows = append(leRows, stdRow{coefs, upper[j] - shift[j]})
	}

	cRaw := make([]float64, ncols)
	objConst := obj.Offset
	for _, term := range obj.Terms {
		objConst += term.Coef * shift[term.Var]
		if fixed[term.Var] {
			continue
		}
		coef := term.Coef
		if maximize {
			coef = -coef
		}
		cRaw[colOf[term.Var]] += coef
		if negColOf[term.Var] >= 0 {
			cRaw[negColOf[term.Var]] -= coef
		}
	}
	if maximize {
		objConst = -objConst
	}

	nLE := len(leRows)
	nRows := nLE + len(eqRows)
	if nRows == 0 {
		// Bounds-only program: every surviving column may grow without
		// limit, so any improving coefficient means unbounded and the
		// optimum otherwise sits at the lower bounds.
		for _, coef := range cRaw {
			if coef < -fixTol {
				return nil, 0, lp.ErrUnbounded
			}
		}
		x := make([]float64, n)
		copy(x, shift)
		return x, objConst, nil
	}

	rows := make([]stdRow, 0, nRows)
	rows = append(rows, leRows...)
	rows = append(rows, eqRows...)

	rowScale := geometricRowScale(rows)
	colScale := geometricColScale(rows, rowScale, ncols)

	total := ncols + nLE
	a := mat.NewDense(nRows, total, nil)
	b := make([]float64, nRows)
	for i, r := range rows {
		for jc, v := range r.coefs {
			if v != 0 {
				a.Set(i, jc, v*rowScale[i]*colScale[jc])
			}
		}
		if i < nLE {
			a.Set(i, ncols+i, 1) // slack, absorbed the row scale
		}
		b[i] = r.rhs * rowScale[i]
	}

	c := make([]float64, total)
	for jc := 0; jc < ncols; jc++ {
		c[jc] = cRaw[jc] * colScale[jc]
	}

	optF, xStd, err := lp.Simplex(c, a, b, tol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrUnbounded) {
			return nil, 0, lp.ErrUnbounded
		}
		// Retry once at a looser tolerance before trusting the verdict: an
		// ill-conditioned basis can masquerade as infeasibility, and a
		// pruned subtree on a false verdict would certify a wrong optimum.
		retryTol := math.Max(tol*100, 1e-7)
		optF2, xStd2, err2 := lp.Simplex(c, a, b, retryTol, nil)
		switch {
		case err2 == nil:
			optF, xStd = optF2, xStd2
		case errors.Is(err2, lp.ErrUnbounded):
			return nil, 0, lp.ErrUnbounded
		case errors.Is(err, lp.ErrInfeasible) && errors.Is(err2, lp.ErrInfeasible):
			return nil, 0, lp.ErrInfeasible
		default:
			return nil, 0, fmt.Errorf("relaxation did not solve cleanly: %w", err2)
		}
	}

	x := make([]float64, n)
	for j := 0; j < n; j++ {
		x[j] = shift[j]
		if fixed[j] {
			continue
		}
		x[j] += colScale[colOf[j]] * xStd[colOf[j]]
		if negColOf[j] >= 0 {
			x[j] -= colScale[negColOf[j]] * xStd[negColOf[j]]
		}
	}
	return x, optF + objConst, nil
}

// geometricRowScale equilibrates each row by the geometric mean of its
// extreme magnitudes, pulling big-M coefficients toward unit scale.
func geometricRowScale(rows []stdRow) []float64 {
	scale := make([]float64, len(rows))
	for i, r := range rows {
		maxA, minA := 0.0, math.Inf(1)
		for _, v := range r.coefs {
			if v == 0 {
				continue
			}
			av := math.Abs(v)
			if av > maxA {
				maxA = av
			}
			if av < minA {
				minA = av
			}
		}
		if maxA == 0 {
			scale[i] = 1
			continue
		}
		scale[i] = 1 / math.Sqrt(maxA*minA)
	}
	return scale
}

// geometricColScale equilibrates columns after row scaling, the second half
// of one Curtis-Reid-style sweep.
func geometricColScale(rows []stdRow, rowScale []float64, ncols int) []float64 {
	maxA := make([]float64, ncols)
	minA := make([]float64, ncols)
	for j := range minA {
		minA[j] = math.Inf(1)
	}
	for i, r := range rows {
		for j, v := range r.coefs {
			if v == 0 {
				continue
			}
			av := math.Abs(v) * rowScale[i]
			if av > maxA[j] {
				maxA[j] = av
			}
			if av < minA[j] {
				minA[j] = av
			}
		}
	}
	scale := make([]float64, ncols)
	for j := range scale {
		if maxA[j] == 0 {
			scale[j] = 1
			continue
		}
		scale[j] = 1 / math.Sqrt(maxA[j]*minA[j])
	}
	return scale
}
