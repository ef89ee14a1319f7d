package gcode

import (
	"fmt"
	"math"

	"github.com/piwi3910/BarCut/internal/model"
)

// Issue is a problem found in a saw program.
type Issue struct {
	Line    int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// positionTol is the largest accepted cut position error in machine units.
const positionTol = 1e-3

// Check parses program and verifies it against bar: the blade plunges
// exactly at the expected cut positions in order, never moves along X while
// below the safe height, and never plunges shallower than the blade depth.
func (g *Generator) Check(program string, bar model.CutBar) []Issue {
	return g.check(Parse(program), g.CutPositions(bar))
}

// CheckPlan verifies a program produced by GeneratePlan.
func (g *Generator) CheckPlan(program string, plan model.Plan) []Issue {
	var want []float64
	for _, bar := range plan.Expand() {
		want = append(want, g.CutPositions(bar)...)
	}
	return g.check(Parse(program), want)
}

func (g *Generator) check(moves []Move, want []float64) []Issue {
	var (
		issues []Issue
		cuts   int
	)
	for _, m := range moves {
		if m.FromX != m.ToX && m.FromZ < g.Settings.SafeZ-positionTol {
			issues = append(issues, Issue{m.Line, fmt.Sprintf("X move at Z%.3f below safe height", m.FromZ)})
		}
		if m.Type != MovePlunge {
			continue
		}
		if m.ToZ > -g.Settings.BladeDepth+positionTol {
			issues = append(issues, Issue{m.Line, fmt.Sprintf("plunge to Z%.3f does not cut through", m.ToZ)})
		}
		if cuts >= len(want) {
			issues = append(issues, Issue{m.Line, fmt.Sprintf("unexpected cut at X%.3f", m.ToX)})
		} else if math.Abs(m.ToX-want[cuts]) > positionTol {
			issues = append(issues, Issue{m.Line, fmt.Sprintf("cut %d at X%.3f, want X%.3f", cuts+1, m.ToX, want[cuts])})
		}
		cuts++
	}
	if cuts < len(want) {
		issues = append(issues, Issue{0, fmt.Sprintf("%d cuts missing", len(want)-cuts)})
	}
	return issues
}
