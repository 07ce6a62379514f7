// Package solve is the boundary between the abstract MILP and the engine
// that optimizes it. The default backend runs a branch-and-bound search over
// LP relaxations solved with gonum's simplex.
package solve

import (
	"context"
	"time"

	"github.com/drawplan/drawplan/internal/milp"
)

// Status is the engine-level outcome of a solve call.
type Status int

const (
	Optimal Status = iota
	// TimeLimitFeasible is a best-incumbent result returned after the time
	// budget expired. Valid, but not proven optimal.
	TimeLimitFeasible
	Infeasible
	Error
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case TimeLimitFeasible:
		return "TimeLimitFeasible"
	case Infeasible:
		return "Infeasible"
	default:
		return "Error"
	}
}

// Result carries the solve outcome. Values holds one entry per model
// variable and is only populated when Status is Optimal or
// TimeLimitFeasible.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
	// Nodes is the number of branch-and-bound nodes explored.
	Nodes int
}

// Logger is the minimal logging surface the solver needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options controls a single solve attempt. A zero value means defaults.
type Options struct {
	// TimeLimit is the wall-clock budget. Zero means no limit.
	TimeLimit time.Duration
	// Verbose routes per-node progress to the logger.
	Verbose bool
	Logger  Logger

	// Tol is the simplex convergence tolerance.
	Tol float64
	// IntTol is the integrality tolerance for binaries.
	IntTol float64
	// MaxNodes caps the branch-and-bound tree. Zero means the default.
	MaxNodes int
}

func (o Options) withDefaults() Options {
	if o.Tol == 0 {
		o.Tol = 1e-10
	}
	if o.IntTol == 0 {
		o.IntTol = 1e-6
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = 200000
	}
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	return o
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Backend optimizes an assembled model. A single attempt either proves
// optimality, returns a time-limited incumbent, reports infeasibility, or
// fails; callers do not retry.
type Backend interface {
	Solve(ctx context.Context, m *milp.Model, opts Options) (*Result, error)
}
