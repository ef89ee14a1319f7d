// Package milp models small mixed-integer linear programs and solves them.
//
// A Model is built from variables, linear constraints and a linear objective
// (always minimized). Any Solver can solve it; BranchAndBound is the built-in
// backend.
package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInfeasible is returned when no assignment satisfies every constraint.
	ErrInfeasible = errors.New("milp: problem is infeasible")
	// ErrUnbounded is returned when the objective can decrease without limit.
	ErrUnbounded = errors.New("milp: problem is unbounded")
	// ErrTimeLimit is returned when the wall clock budget ran out.
	ErrTimeLimit = errors.New("milp: time limit reached")
	// ErrNodeLimit is returned when the branch-and-bound node budget ran out.
	ErrNodeLimit = errors.New("milp: node limit reached")
)

// Sense is the relation of a constraint's left side to its right side.
type Sense int

const (
	LessOrEqual Sense = iota
	GreaterOrEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Var is a decision variable of a Model.
type Var struct {
	index   int
	name    string
	lower   float64
	upper   float64
	integer bool
}

// Index returns the position of the variable in Result.Values.
func (v *Var) Index() int { return v.index }

func (v *Var) Name() string { return v.name }
func (v *Var) Lower() float64 { return v.lower }
func (v *Var) Upper() float64 { return v.upper }
func (v *Var) IsInteger() bool { return v.integer }

// Term is a coefficient applied to a variable.
type Term struct {
	Coef float64
	Var  *Var
}

// Constraint is a linear relation sum(terms) <sense> rhs.
type Constraint struct {
	name  string
	sense Sense
	rhs   float64
	terms []Term
}

// AddTerm appends coef*v to the left side. Zero coefficients are ignored.
func (c *Constraint) AddTerm(coef float64, v *Var) *Constraint {
	if coef != 0 {
		c.terms = append(c.terms, Term{Coef: coef, Var: v})
	}
	return c
}

func (c *Constraint) Name() string { return c.name }
func (c *Constraint) Sense() Sense { return c.sense }
func (c *Constraint) RHS() float64 { return c.rhs }
func (c *Constraint) Terms() []Term { return c.terms }

// Objective is a linear expression to minimize.
type Objective struct {
	terms    []Term
	constant float64
}

// AddTerm appends coef*v to the objective.
func (o *Objective) AddTerm(coef float64, v *Var) *Objective {
	if coef != 0 {
		o.terms = append(o.terms, Term{Coef: coef, Var: v})
	}
	return o
}

// SetConstant sets the constant offset of the objective.
func (o *Objective) SetConstant(c float64) *Objective {
	o.constant = c
	return o
}

// Model is a mixed-integer linear program.
type Model struct {
	name        string
	vars        []*Var
	constraints []*Constraint
	objective   Objective
	start       []float64
}

func NewModel(name string) *Model {
	return &Model{name: name}
}

func (m *Model) Name() string { return m.name }

// NewVar adds a variable with bounds [lower, upper]. The lower bound must be
// finite; upper may be math.Inf(1).
func (m *Model) NewVar(name string, lower, upper float64, integer bool) *Var {
	v := &Var{index: len(m.vars), name: name, lower: lower, upper: upper, integer: integer}
	m.vars = append(m.vars, v)
	return v
}

// NewInt adds an integer variable.
func (m *Model) NewInt(name string, lower, upper float64) *Var {
	return m.NewVar(name, lower, upper, true)
}

// NewFloat adds a continuous variable.
func (m *Model) NewFloat(name string, lower, upper float64) *Var {
	return m.NewVar(name, lower, upper, false)
}

// NewConstraint adds an empty constraint; fill it with AddTerm.
func (m *Model) NewConstraint(name string, sense Sense, rhs float64) *Constraint {
	c := &Constraint{name: name, sense: sense, rhs: rhs}
	m.constraints = append(m.constraints, c)
	return c
}

// Objective returns the objective to be minimized.
func (m *Model) Objective() *Objective { return &m.objective }

func (m *Model) Vars() []*Var { return m.vars }
func (m *Model) Constraints() []*Constraint { return m.constraints }
func (m *Model) NumVars() int { return len(m.vars) }
func (m *Model) NumConstraints() int { return len(m.constraints) }

// SetStart records a known feasible assignment, indexed like Vars. Solvers
// may use it as the first incumbent; an infeasible start is ignored.
func (m *Model) SetStart(values []float64) {
	m.start = append([]float64(nil), values...)
}

// Start returns the assignment recorded by SetStart, or nil.
func (m *Model) Start() []float64 { return m.start }

// Evaluate returns the objective value of an assignment.
func (m *Model) Evaluate(values []float64) float64 {
	total := m.objective.constant
	for _, t := range m.objective.terms {
		total += t.Coef * values[t.Var.index]
	}
	return total
}

// Check reports the first bound, integrality or constraint violated by
// values beyond tol, or nil.
func (m *Model) Check(values []float64, tol float64) error {
	if len(values) != len(m.vars) {
		return fmt.Errorf("milp: %d values for %d variables", len(values), len(m.vars))
	}
	for _, v := range m.vars {
		x := values[v.index]
		if x < v.lower-tol || x > v.upper+tol {
			return fmt.Errorf("milp: %s = %g outside [%g, %g]", v.name, x, v.lower, v.upper)
		}
		if v.integer && math.Abs(x-math.Round(x)) > tol {
			return fmt.Errorf("milp: %s = %g is not integral", v.name, x)
		}
	}
	for _, c := range m.constraints {
		lhs := 0.0
		for _, t := range c.terms {
			lhs += t.Coef * values[t.Var.index]
		}
		ok := true
		switch c.sense {
		case LessOrEqual:
			ok = lhs <= c.rhs+tol
		case GreaterOrEqual:
			ok = lhs >= c.rhs-tol
		case Equal:
			ok = math.Abs(lhs-c.rhs) <= tol
		}
		if !ok {
			return fmt.Errorf("milp: constraint %s violated: %g %s %g", c.name, lhs, c.sense, c.rhs)
		}
	}
	return nil
}

// Status is the outcome of a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusLimit // a budget ran out; Values holds the best assignment found, if any
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// Result is what a Solver returns.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
}

// Value returns the value of v in the result.
func (r Result) Value(v *Var) float64 {
	if r.Values == nil {
		return 0
	}
	return r.Values[v.index]
}

// IntValue returns the value of v rounded to the nearest integer.
func (r Result) IntValue(v *Var) int {
	return int(math.Round(r.Value(v)))
}

// HasSolution reports whether the result carries an assignment.
func (r Result) HasSolution() bool {
	return r.Values != nil
}

// Solver solves a Model. A non-optimal outcome is also reported as one of
// the package errors, so callers can switch on errors.Is.
type Solver interface {
	Solve(ctx context.Context, m *Model) (Result, error)
}
