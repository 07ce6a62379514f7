// Package planner compiles a household configuration into a mixed-integer
// linear program, solves it, and decodes the optimal withdrawal and
// conversion schedule. It is the core of the system: everything nonlinear
// in the tax code (progressive brackets, the NII threshold, penalties, RMD
// floors) is encoded here with linear and binary-indicator constructs.
package planner

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drawplan/drawplan/internal/domain"
	"github.com/drawplan/drawplan/internal/solve"
)

// Request selects the objective mode and its parameters for one solve.
type Request struct {
	Mode domain.ObjectiveMode

	// Spend fixes the floor in min-taxes mode, today's dollars.
	Spend decimal.Decimal
	// RothTarget is the terminal Roth reserve in roth-floor mode, today's
	// dollars.
	RothTarget decimal.Decimal

	// NoConversions hard-zeroes every IRA-to-Roth conversion.
	NoConversions bool

	// TimeLimit is the solver wall-clock budget. Zero means no limit.
	TimeLimit time.Duration
	Verbose   bool
}

// Planner runs the compile/build/solve/extract pipeline. It is a pure
// function of its inputs given a fixed time budget; there is no state
// between calls.
type Planner struct {
	backend solve.Backend
	logger  solve.Logger
}

// New returns a planner on the given backend. A nil backend selects the
// built-in branch-and-bound engine.
func New(backend solve.Backend, logger solve.Logger) *Planner {
	if backend == nil {
		backend = solve.NewBranchAndBound()
	}
	return &Planner{backend: backend, logger: logger}
}

// Plan solves the drawdown program for the configuration. Infeasibility is
// returned as domain.InfeasibleError with no partial plan; a time-limited
// incumbent comes back as a valid plan flagged StatusTimeLimit.
func (p *Planner) Plan(ctx context.Context, config *domain.Configuration, req Request) (*domain.Plan, error) {
	scenario := Compile(config)

	model, vars := Build(scenario, buildOptions{noConversions: req.NoConversions})
	if err := applyMode(model, vars, scenario, req); err != nil {
		return nil, &domain.BackendError{Operation: "build", Err: err}
	}
	if p.logger != nil {
		p.logger.Debugf("assembled %s over %d years", model, scenario.Years)
	}

	res, err := p.backend.Solve(ctx, model, solve.Options{
		TimeLimit: req.TimeLimit,
		Verbose:   req.Verbose,
		Logger:    p.logger,
	})
	if err != nil {
		return nil, &domain.BackendError{Operation: "solve", Err: err}
	}

	switch res.Status {
	case solve.Infeasible:
		return nil, &domain.InfeasibleError{Mode: req.Mode}
	case solve.Error:
		return nil, &domain.BackendError{Operation: "solve", Err: errNoSolution}
	}

	plan := Extract(scenario, vars, res)
	plan.Mode = req.Mode
	return plan, nil
}

type planError string

func (e planError) Error() string { return string(e) }

const errNoSolution planError = "engine returned no solution"
