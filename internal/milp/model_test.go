package milp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelRegistries(t *testing.T) {
	m := New()

	x := m.Continuous("x", 0)
	y := m.Free("y")
	z := m.Binary("z")

	assert.Equal(t, 3, m.NumVars())
	assert.Equal(t, Continuous, m.Kind(x))
	assert.Equal(t, Binary, m.Kind(z))
	assert.Equal(t, []Var{z}, m.Binaries())

	lo, hi := m.Bounds(x)
	assert.Zero(t, lo)
	assert.True(t, math.IsInf(hi, 1))

	lo, hi = m.Bounds(y)
	assert.True(t, math.IsInf(lo, -1))
	assert.True(t, math.IsInf(hi, 1))

	lo, hi = m.Bounds(z)
	assert.Zero(t, lo)
	assert.Equal(t, 1.0, hi)

	m.SetUpper(x, 42)
	_, hi = m.Bounds(x)
	assert.Equal(t, 42.0, hi)

	m.AddLE("cap", NewExpr().Plus(1, x).Plus(2, y), 10)
	m.AddEQ("tie", VarExpr(x), 5)
	assert.Equal(t, 2, m.NumConstraints())
	assert.Equal(t, LE, m.Constraints()[0].Sense)
	assert.Equal(t, "cap", m.Constraints()[0].Name)

	m.Maximize(VarExpr(x))
	obj, maximize := m.Objective()
	assert.True(t, maximize)
	assert.Len(t, obj.Terms, 1)
}

func TestExprChaining(t *testing.T) {
	m := New()
	x := m.Continuous("x", 0)
	y := m.Continuous("y", 0)

	e := NewExpr().Plus(2, x).PlusConst(3).PlusExpr(VarExpr(y))
	assert.Equal(t, 3.0, e.Offset)
	assert.Equal(t, []Term{{x, 2}, {y, 1}}, e.Terms)
}
