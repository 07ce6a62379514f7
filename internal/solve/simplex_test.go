package solve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawplan/drawplan/internal/milp"
)

func solveModel(t *testing.T, m *milp.Model) *Result {
	t.Helper()
	res, err := NewBranchAndBound().Solve(context.Background(), m, Options{})
	require.NoError(t, err)
	return res
}

func TestSimplexKnownOptimum(t *testing.T) {
	// max 3x + 4y
	// s.t. x + 2y <= 14, 3x - y >= 0, x - y <= 2
	// optimum 34 at (6, 4)
	m := milp.New()
	x := m.Continuous("x", 0)
	y := m.Continuous("y", 0)
	m.AddLE("c1", milp.NewExpr().Plus(1, x).Plus(2, y), 14)
	m.AddGE("c2", milp.NewExpr().Plus(3, x).Plus(-1, y), 0)
	m.AddLE("c3", milp.NewExpr().Plus(1, x).Plus(-1, y), 2)
	m.Maximize(milp.NewExpr().Plus(3, x).Plus(4, y))

	res := solveModel(t, m)

	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 34, res.Objective, 1e-6)
	assert.InDelta(t, 6, res.Values[x], 1e-6)
	assert.InDelta(t, 4, res.Values[y], 1e-6)
}

func TestSimplexFreeVariable(t *testing.T) {
	// min y s.t. y >= x - 3, y >= -x + 1; optimum y = -1 at x = 2.
	m := milp.New()
	x := m.Continuous("x", 0)
	y := m.Free("y")
	m.AddGE("c1", milp.NewExpr().Plus(1, y).Plus(-1, x), -3)
	m.AddGE("c2", milp.NewExpr().Plus(1, y).Plus(1, x), 1)
	m.Minimize(milp.VarExpr(y))

	res := solveModel(t, m)

	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, -1, res.Objective, 1e-6)
	assert.InDelta(t, -1, res.Values[y], 1e-6)
}

func TestKnapsackBinaries(t *testing.T) {
	// max 5a + 4b + 3c s.t. 2a + 3b + c <= 4, binary; optimum 8 at a=c=1.
	m := milp.New()
	a := m.Binary("a")
	b := m.Binary("b")
	c := m.Binary("c")
	m.AddLE("weight", milp.NewExpr().Plus(2, a).Plus(3, b).Plus(1, c), 4)
	m.Maximize(milp.NewExpr().Plus(5, a).Plus(4, b).Plus(3, c))

	res := solveModel(t, m)

	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 8, res.Objective, 1e-6)
	assert.InDelta(t, 1, res.Values[a], 1e-6)
	assert.InDelta(t, 0, res.Values[b], 1e-6)
	assert.InDelta(t, 1, res.Values[c], 1e-6)
	assert.Greater(t, res.Nodes, 0)
}

func TestInfeasibleModel(t *testing.T) {
	m := milp.New()
	x := m.Continuous("x", 0)
	m.AddGE("hi", milp.VarExpr(x), 5)
	m.AddLE("lo", milp.VarExpr(x), 3)
	m.Minimize(milp.VarExpr(x))

	res, err := NewBranchAndBound().Solve(context.Background(), m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Infeasible, res.Status)
}

func TestUnboundedModelErrors(t *testing.T) {
	m := milp.New()
	x := m.Continuous("x", 0)
	m.Maximize(milp.VarExpr(x))

	res, err := NewBranchAndBound().Solve(context.Background(), m, Options{})
	require.Error(t, err)
	assert.Equal(t, Error, res.Status)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := milp.New()
	x := m.Continuous("x", 0)
	m.AddLE("cap", milp.VarExpr(x), 1)
	m.Maximize(milp.VarExpr(x))

	_, err := NewBranchAndBound().Solve(ctx, m, Options{})
	// No incumbent exists when cancelled before the first node.
	assert.Error(t, err)
}

func TestMinEncodingExactBothDirections(t *testing.T) {
	// Maximizing r would break a one-sided min; the encoding must hold it
	// down to the true minimum anyway.
	m := milp.New()
	a := m.Continuous("a", 0)
	b := m.Continuous("b", 0)
	r := m.Continuous("r", 0)
	m.AddEQ("fix_a", milp.VarExpr(a), 7)
	m.AddEQ("fix_b", milp.VarExpr(b), 12)
	milp.AddMin(m, "r", r, milp.VarExpr(a), milp.VarExpr(b), 1000)
	m.Maximize(milp.VarExpr(r))

	res := solveModel(t, m)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 7, res.Values[r], 1e-6)
}

func TestMaxEncodingExactBothDirections(t *testing.T) {
	m := milp.New()
	a := m.Continuous("a", 0)
	b := m.Continuous("b", 0)
	r := m.Continuous("r", 0)
	m.AddEQ("fix_a", milp.VarExpr(a), 7)
	m.AddEQ("fix_b", milp.VarExpr(b), 12)
	milp.AddMax(m, "r", r, milp.VarExpr(a), milp.VarExpr(b), 1000)
	// Minimizing r would break a one-sided max.
	m.Minimize(milp.VarExpr(r))

	res := solveModel(t, m)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 12, res.Values[r], 1e-6)
}

func TestMinEncodingWithPinnedInputs(t *testing.T) {
	// Inputs pinned by collapsed bounds leave the matrix as constants; the
	// big-M rows of the min encoding must still solve cleanly around them.
	m := milp.New()
	a := m.Continuous("a", 7)
	m.SetUpper(a, 7)
	b := m.Continuous("b", 12)
	m.SetUpper(b, 12)
	r := m.Continuous("r", 0)
	milp.AddMin(m, "r", r, milp.VarExpr(a), milp.VarExpr(b), 1e6)
	m.Maximize(milp.VarExpr(r))

	res := solveModel(t, m)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 7, res.Values[r], 1e-6)
	assert.InDelta(t, 7, res.Values[a], 1e-6)
}

func TestMixedScaleCoefficients(t *testing.T) {
	// Coefficients six orders of magnitude apart in one row; equilibration
	// must keep the basis well conditioned.
	m := milp.New()
	x := m.Continuous("x", 0)
	y := m.Continuous("y", 0)
	m.SetUpper(y, 100)
	m.AddLE("c1", milp.NewExpr().Plus(1e6, x).Plus(1, y), 1e6)
	m.Maximize(milp.NewExpr().Plus(1, x).Plus(0.001, y))

	res := solveModel(t, m)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 1.0999, res.Objective, 1e-6)
	assert.InDelta(t, 100, res.Values[y], 1e-4)
}

func TestBoundOnlyModel(t *testing.T) {
	// No constraint rows at all: the optimum sits on the lower bound.
	m := milp.New()
	x := m.Continuous("x", 2)
	m.Minimize(milp.VarExpr(x))

	res := solveModel(t, m)
	require.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 2, res.Objective, 1e-9)
	assert.InDelta(t, 2, res.Values[x], 1e-9)
}

func TestPinnedInfeasibilityDetectedWithoutSimplex(t *testing.T) {
	// Both variables of a constraint pinned in contradiction: the constant
	// row is rejected during assembly, not handed to the simplex.
	m := milp.New()
	x := m.Continuous("x", 4)
	m.SetUpper(x, 4)
	m.AddLE("cap", milp.VarExpr(x), 3)
	m.Minimize(milp.VarExpr(x))

	res, err := NewBranchAndBound().Solve(context.Background(), m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Infeasible, res.Status)
}

func TestTimeLimitLeavesFastSolveOptimal(t *testing.T) {
	// A generous budget must not demote a solve that finishes in time.
	m := milp.New()
	x := m.Continuous("x", 0)
	m.AddLE("cap", milp.VarExpr(x), 9)
	m.Maximize(milp.VarExpr(x))

	res, err := NewBranchAndBound().Solve(context.Background(), m, Options{
		TimeLimit: time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, Optimal, res.Status)
	assert.InDelta(t, 9, res.Objective, 1e-6)
}
