package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// relaxStatus is the outcome of one LP relaxation.
type relaxStatus int

const (
	relaxOptimal relaxStatus = iota
	relaxInfeasible
	relaxUnbounded
)

// dependentTol is the residual below which an equality row is treated as a
// combination of earlier rows.
const dependentTol = 1e-9

// row is a constraint over the shifted variables y = x - lo.
type row struct {
	coefs []float64
	sense Sense
	rhs   float64
}

// relaxation solves the LP relaxation of m with variable bounds lo..hi.
//
// The model is brought to the form min c'z, Az = b, z >= 0 that lp.Simplex
// expects: variables are shifted to their lower bound, every inequality gets
// its own slack column, finite upper bounds become rows unless an existing
// nonnegative <= row already implies them, linearly dependent equality rows
// are dropped and variables that appear nowhere are fixed at their bound.
// Each inequality row owns a slack column, so the system has full row rank
// as long as the equality rows do.
func relaxation(m *Model, lo, hi []float64, tol float64) (float64, []float64, relaxStatus, error) {
	n := len(m.vars)
	for j := 0; j < n; j++ {
		if math.IsInf(lo[j], 0) || math.IsNaN(lo[j]) {
			return 0, nil, relaxInfeasible, fmt.Errorf("milp: variable %s needs a finite lower bound", m.vars[j].name)
		}
		if lo[j] > hi[j]+tol {
			return 0, nil, relaxInfeasible, nil
		}
	}

	cost := make([]float64, n)
	constant := m.objective.constant
	for _, t := range m.objective.terms {
		cost[t.Var.index] += t.Coef
		constant += t.Coef * lo[t.Var.index]
	}

	rows := make([]row, 0, len(m.constraints)+n)
	for _, c := range m.constraints {
		r := row{coefs: make([]float64, n), sense: c.sense, rhs: c.rhs}
		for _, t := range c.terms {
			r.coefs[t.Var.index] += t.Coef
			r.rhs -= t.Coef * lo[t.Var.index]
		}
		rows = append(rows, r)
	}

	for j := 0; j < n; j++ {
		if math.IsInf(hi[j], 1) {
			continue
		}
		span := math.Max(hi[j]-lo[j], 0)
		if impliedUpper(rows, j, span) {
			continue
		}
		r := row{coefs: make([]float64, n), sense: LessOrEqual, rhs: span}
		r.coefs[j] = 1
		rows = append(rows, r)
	}

	rows, feasible := dropDependentEqualities(rows)
	if !feasible {
		return 0, nil, relaxInfeasible, nil
	}

	// Columns that appear in no row sit at their lower bound unless the
	// objective rewards increasing them.
	active := make([]int, 0, n)
	for j := 0; j < n; j++ {
		used := false
		for _, r := range rows {
			if r.coefs[j] != 0 {
				used = true
				break
			}
		}
		if used {
			active = append(active, j)
			continue
		}
		if cost[j] < 0 {
			return 0, nil, relaxUnbounded, nil
		}
	}

	x := make([]float64, n)
	copy(x, lo)
	if len(rows) == 0 {
		return constant, x, relaxOptimal, nil
	}

	slacks := 0
	for _, r := range rows {
		if r.sense != Equal {
			slacks++
		}
	}
	cols := len(active) + slacks

	A := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	c := make([]float64, cols)
	for k, j := range active {
		c[k] = cost[j]
	}
	slack := len(active)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, j := range active {
			if r.coefs[j] != 0 {
				A.Set(i, k, sign*r.coefs[j])
			}
		}
		switch r.sense {
		case LessOrEqual:
			A.Set(i, slack, sign)
			slack++
		case GreaterOrEqual:
			A.Set(i, slack, -sign)
			slack++
		}
		b[i] = sign * r.rhs
	}

	opt, z, err := lp.Simplex(c, A, b, simplexTol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return 0, nil, relaxInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return 0, nil, relaxUnbounded, nil
	case err != nil:
		return 0, nil, relaxInfeasible, fmt.Errorf("milp: simplex: %w", err)
	}

	for k, j := range active {
		x[j] = lo[j] + math.Max(z[k], 0)
	}
	return opt + constant, x, relaxOptimal, nil
}

// simplexTol is passed to lp.Simplex as its pivoting tolerance.
const simplexTol = 1e-10

// impliedUpper reports whether some <= row with nonnegative coefficients
// already bounds column j by span.
func impliedUpper(rows []row, j int, span float64) bool {
	for _, r := range rows {
		if r.sense != LessOrEqual || r.coefs[j] <= 0 || r.rhs < 0 {
			continue
		}
		nonneg := true
		for _, a := range r.coefs {
			if a < 0 {
				nonneg = false
				break
			}
		}
		if nonneg && r.rhs/r.coefs[j] <= span+dependentTol {
			return true
		}
	}
	return false
}

// dropDependentEqualities removes equality rows that are linear combinations
// of earlier equality rows. It reports false if such a row contradicts them.
func dropDependentEqualities(rows []row) ([]row, bool) {
	type basisRow struct {
		coefs []float64
		rhs   float64
		pivot int
	}
	var basis []basisRow
	out := rows[:0:0]
	for _, r := range rows {
		if r.sense != Equal {
			out = append(out, r)
			continue
		}
		red := append([]float64(nil), r.coefs...)
		rhs := r.rhs
		for _, br := range basis {
			f := red[br.pivot] / br.coefs[br.pivot]
			if f == 0 {
				continue
			}
			for k := range red {
				red[k] -= f * br.coefs[k]
			}
			rhs -= f * br.rhs
		}

		pivot, largest := -1, 0.0
		for k, a := range red {
			if math.Abs(a) > largest {
				pivot, largest = k, math.Abs(a)
			}
		}
		if largest <= dependentTol {
			if math.Abs(rhs) > dependentTol*math.Max(1, math.Abs(r.rhs)) {
				return nil, false
			}
			continue
		}
		basis = append(basis, basisRow{coefs: red, rhs: rhs, pivot: pivot})
		out = append(out, r)
	}
	return out, true
}
