package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// BranchAndBound is a depth-first branch-and-bound Solver on top of LP
// relaxations. It branches on the most fractional integer variable and
// explores the rounded-down child first.
type BranchAndBound struct {
	timeLimit time.Duration
	nodeLimit int
	tolerance float64
}

// Option configures a BranchAndBound solver.
type Option func(*BranchAndBound)

// WithTimeLimit bounds the wall clock time of one Solve call. Zero disables it.
func WithTimeLimit(d time.Duration) Option {
	return func(b *BranchAndBound) { b.timeLimit = d }
}

// WithNodeLimit bounds the number of explored nodes. Zero disables it.
func WithNodeLimit(n int) Option {
	return func(b *BranchAndBound) { b.nodeLimit = n }
}

// WithTolerance sets the integrality and pruning tolerance.
func WithTolerance(tol float64) Option {
	return func(b *BranchAndBound) {
		if tol > 0 {
			b.tolerance = tol
		}
	}
}

func NewBranchAndBound(opts ...Option) *BranchAndBound {
	b := &BranchAndBound{tolerance: 1e-6}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type node struct {
	lo, hi []float64
}

// Solve implements Solver.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (Result, error) {
	if b.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeLimit)
		defer cancel()
	}

	n := len(m.vars)
	root := node{lo: make([]float64, n), hi: make([]float64, n)}
	for j, v := range m.vars {
		root.lo[j], root.hi[j] = v.lower, v.upper
		if v.integer {
			root.lo[j] = math.Ceil(v.lower - b.tolerance)
			if !math.IsInf(v.upper, 1) {
				root.hi[j] = math.Floor(v.upper + b.tolerance)
			}
		}
	}
	integral := b.integralObjective(m)

	var (
		best      []float64
		incumbent = math.Inf(1)
		nodes     int
		stack     = []node{root}
	)
	if start := m.Start(); start != nil && m.Check(start, checkTol) == nil {
		best = append([]float64(nil), start...)
		for j, v := range m.vars {
			if v.integer {
				best[j] = math.Round(best[j])
			}
		}
		incumbent = m.Evaluate(best)
	}

	result := func(status Status) Result {
		r := Result{Status: status, Values: best, Nodes: nodes}
		if best != nil {
			r.Objective = m.Evaluate(best)
		}
		return r
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return result(StatusLimit), ErrTimeLimit
			}
			return result(StatusLimit), err
		}
		if b.nodeLimit > 0 && nodes >= b.nodeLimit {
			return result(StatusLimit), ErrNodeLimit
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		obj, x, status, err := relaxation(m, cur.lo, cur.hi, b.tolerance)
		if err != nil {
			return result(StatusUnknown), err
		}
		switch status {
		case relaxInfeasible:
			continue
		case relaxUnbounded:
			return result(StatusUnbounded), ErrUnbounded
		}

		bound := obj
		if integral {
			bound = math.Ceil(obj - b.tolerance)
		}
		if bound >= incumbent-b.tolerance {
			continue
		}

		branch, frac := -1, 0.0
		for j, v := range m.vars {
			if !v.integer {
				continue
			}
			f := math.Abs(x[j] - math.Round(x[j]))
			if f > b.tolerance && f > frac {
				branch, frac = j, f
			}
		}

		if branch < 0 {
			for j, v := range m.vars {
				if v.integer {
					x[j] = math.Round(x[j])
				}
			}
			if val := m.Evaluate(x); val < incumbent {
				best, incumbent = x, val
			}
			continue
		}

		down := node{lo: cur.lo, hi: append([]float64(nil), cur.hi...)}
		down.hi[branch] = math.Floor(x[branch])
		up := node{lo: append([]float64(nil), cur.lo...), hi: cur.hi}
		up.lo[branch] = math.Ceil(x[branch])
		stack = append(stack, up, down)
	}

	if best == nil {
		return result(StatusInfeasible), ErrInfeasible
	}
	if err := m.Check(best, checkTol); err != nil {
		return result(StatusUnknown), fmt.Errorf("milp: solution check failed: %w", err)
	}
	return result(StatusOptimal), nil
}

// integralObjective reports whether every feasible integer assignment has an
// integral objective value, which allows rounding node bounds up.
func (b *BranchAndBound) integralObjective(m *Model) bool {
	if m.objective.constant != math.Round(m.objective.constant) {
		return false
	}
	for _, t := range m.objective.terms {
		if !t.Var.integer || t.Coef != math.Round(t.Coef) {
			return false
		}
	}
	return true
}

// checkTol is the slack allowed when verifying the final assignment.
const checkTol = 1e-6
