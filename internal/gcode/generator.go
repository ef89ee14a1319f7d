// Package gcode generates saw-stop programs for cutting plans and checks
// generated programs against the plan.
package gcode

import (
	"fmt"
	"strings"

	"github.com/piwi3910/BarCut/internal/model"
)

// Generator produces programs that feed a bar along X and plunge the blade
// at the end of every piece.
type Generator struct {
	Settings model.SawSettings
	Unit     string // Plan length unit, for comments
	profile  Profile
}

func New(settings model.SawSettings, unit string) *Generator {
	return NewWithProfile(settings, unit, GetProfile(settings.Profile))
}

// NewWithProfile uses profile instead of looking up settings.Profile.
func NewWithProfile(settings model.SawSettings, unit string, profile Profile) *Generator {
	if settings.UnitScale <= 0 {
		settings.UnitScale = 1
	}
	if profile.DecimalPlaces < 0 {
		profile.DecimalPlaces = 0
	}
	return &Generator{
		Settings: settings,
		Unit:     unit,
		profile:  profile,
	}
}

// Profile returns the post-processor in use.
func (g *Generator) Profile() Profile { return g.profile }

// CutPositions returns the X positions, in machine units, where the blade
// plunges on bar. The end of the last piece is skipped when it coincides
// with the end of the bar.
func (g *Generator) CutPositions(bar model.CutBar) []float64 {
	stock := bar.Stock.InexactFloat64() * g.Settings.UnitScale
	var out []float64
	for _, off := range bar.Offsets() {
		x := model.CleanFloat(off.InexactFloat64() * g.Settings.UnitScale)
		if x >= stock {
			continue
		}
		out = append(out, x)
	}
	return out
}

// GenerateBar produces a complete program for one physical bar.
func (g *Generator) GenerateBar(bar model.CutBar, total int) string {
	var b strings.Builder
	g.writeHeader(&b, fmt.Sprintf("bar %d of %d", bar.Index, total))
	g.writeBar(&b, bar)
	g.writeFooter(&b)
	return b.String()
}

// GenerateAll produces one program per physical bar of plan.
func (g *Generator) GenerateAll(plan model.Plan) []string {
	bars := plan.Expand()
	codes := make([]string, len(bars))
	for i, bar := range bars {
		codes[i] = g.GenerateBar(bar, len(bars))
	}
	return codes
}

// GeneratePlan produces a single program for the whole plan with an
// operator pause before each bar.
func (g *Generator) GeneratePlan(plan model.Plan) string {
	bars := plan.Expand()
	var b strings.Builder
	g.writeHeader(&b, fmt.Sprintf("plan %s, %d bars", plan.ID, len(bars)))
	for _, bar := range bars {
		b.WriteString(g.comment(fmt.Sprintf("Load bar %d: %s %s", bar.Index, bar.Stock.String(), g.Unit)))
		if g.profile.PauseCode != "" {
			b.WriteString(g.profile.PauseCode + "\n")
		}
		g.writeBar(&b, bar)
	}
	g.writeFooter(&b)
	return b.String()
}

func (g *Generator) writeHeader(b *strings.Builder, title string) {
	p := g.profile
	b.WriteString(g.comment("BarCut saw program, " + title))
	b.WriteString(g.comment(fmt.Sprintf("Feed: %s, Blade depth: %s, Safe Z: %s",
		g.format(g.Settings.FeedRate), g.format(g.Settings.BladeDepth), g.format(g.Settings.SafeZ))))
	b.WriteString(g.comment("Profile: " + p.Name))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}
	if p.SpindleStart != "" {
		fmt.Fprintf(b, p.SpindleStart+"\n", g.Settings.SpindleSpeed)
	}
	fmt.Fprintf(b, "%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ))
	fmt.Fprintf(b, "%s X%s\n", p.RapidMove, g.format(0))
	b.WriteString("\n")
}

func (g *Generator) writeBar(b *strings.Builder, bar model.CutBar) {
	p := g.profile
	b.WriteString(g.comment(fmt.Sprintf("--- Bar %d: %s %s, pieces %s, waste %s ---",
		bar.Index, bar.Stock.String(), g.Unit, joinLengths(bar), bar.Waste.String())))
	for i, x := range g.CutPositions(bar) {
		b.WriteString(g.comment(fmt.Sprintf("Cut %d", i+1)))
		fmt.Fprintf(b, "%s X%s\n", p.RapidMove, g.format(x))
		fmt.Fprintf(b, "%s Z%s F%s\n", p.FeedMove, g.format(-g.Settings.BladeDepth), g.format(g.Settings.FeedRate))
		fmt.Fprintf(b, "%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ))
	}
	b.WriteString("\n")
}

func (g *Generator) writeFooter(b *strings.Builder) {
	p := g.profile
	b.WriteString(g.comment("=== Job complete ==="))
	if p.SpindleStop != "" {
		b.WriteString(p.SpindleStop + "\n")
	}
	for _, code := range p.EndCode {
		b.WriteString(strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ)) + "\n")
	}
}

func (g *Generator) comment(text string) string {
	return g.profile.CommentPrefix + " " + text + g.profile.CommentSuffix + "\n"
}

// format formats a coordinate with the profile's decimal places.
func (g *Generator) format(v float64) string {
	return fmt.Sprintf("%.*f", g.profile.DecimalPlaces, v)
}

func joinLengths(bar model.CutBar) string {
	parts := make([]string, len(bar.Pieces))
	for i, p := range bar.Pieces {
		parts[i] = p.String()
	}
	return strings.Join(parts, " + ")
}
