package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/piwi3910/BarCut/internal/export"
	"github.com/piwi3910/BarCut/internal/milp"
	"github.com/piwi3910/BarCut/internal/model"
)

var discardLogger = slog.New(slog.DiscardHandler)

// SolveEvent describes one finished solve, for metrics.
type SolveEvent struct {
	Strategy model.Strategy
	Outcome  string // "ok" or the failure Kind
	Duration time.Duration
	Patterns int
	Nodes    int
}

// Optimizer runs the cutting pipeline: parse, normalize, generate patterns,
// choose usage with the configured strategy and build the plan. It holds no
// per-request state and is safe for concurrent use.
type Optimizer struct {
	Settings model.Settings

	logger  *slog.Logger
	solver  milp.Solver
	observe func(SolveEvent)
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger for stage-boundary events.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSolver replaces the integer-programming backend.
func WithSolver(s milp.Solver) Option {
	return func(o *Optimizer) { o.solver = s }
}

// WithObserver registers a callback invoked after every solve.
func WithObserver(fn func(SolveEvent)) Option {
	return func(o *Optimizer) { o.observe = fn }
}

func New(settings model.Settings, opts ...Option) *Optimizer {
	o := &Optimizer{Settings: settings, logger: discardLogger}
	for _, opt := range opts {
		opt(o)
	}
	if o.solver == nil {
		o.solver = milp.NewBranchAndBound(
			milp.WithTimeLimit(settings.TimeLimit),
			milp.WithNodeLimit(settings.NodeLimit),
			milp.WithTolerance(settings.Tolerance),
		)
	}
	return o
}

// Strategy returns the implementation of the named strategy.
func (o *Optimizer) Strategy(name model.Strategy) (Strategy, error) {
	switch name {
	case model.StrategyIP, "":
		return &IPStrategy{Solver: o.solver, Logger: o.logger}, nil
	case model.StrategyGreedy:
		return GreedyStrategy{}, nil
	case model.StrategyDivisor:
		return DivisorStrategy{}, nil
	default:
		return nil, newError(KindUnsupported, fmt.Sprintf(MsgUnknownStrategy, name), nil)
	}
}

// Run solves a form request and returns either the text plan or the error
// message, never both.
func (o *Optimizer) Run(ctx context.Context, form map[string]string) string {
	plan, err := o.Solve(ctx, form)
	if err != nil {
		return Message(err)
	}
	return export.FormatPlan(plan)
}

// Solve solves a form request with the configured strategy.
func (o *Optimizer) Solve(ctx context.Context, form map[string]string) (model.Plan, error) {
	raw, err := ParseForm(form)
	if err != nil {
		o.finish(o.Settings.Strategy, time.Now(), 0, 0, err)
		return model.Plan{}, err
	}
	return o.SolveInput(ctx, raw)
}

// SolveInput validates raw input and solves it with the configured strategy.
func (o *Optimizer) SolveInput(ctx context.Context, raw model.RawInput) (model.Plan, error) {
	req, err := Normalize(raw)
	if err != nil {
		o.logger.Info("input rejected", "reason", Message(err))
		o.finish(o.Settings.Strategy, time.Now(), 0, 0, err)
		return model.Plan{}, err
	}
	return o.SolveRequest(ctx, req, o.Settings.Strategy)
}

// SolveRequest solves a validated request with the named strategy.
func (o *Optimizer) SolveRequest(ctx context.Context, req model.Request, name model.Strategy) (plan model.Plan, err error) {
	started := time.Now()
	patterns, nodes := 0, 0
	defer func() {
		if err != nil {
			o.logger.Warn("solve failed", "strategy", name, "kind", KindOf(err).String(), "error", err)
		}
		o.finish(name, started, patterns, nodes, err)
	}()

	strategy, err := o.Strategy(name)
	if err != nil {
		return model.Plan{}, err
	}
	o.logger.Info("input accepted",
		"strategy", strategy.Name(),
		"stock_lengths", len(req.Stock),
		"demand_lengths", len(req.Demand))

	set, err := GeneratePatternSet(ctx, req, o.Settings.Workers, o.Settings.MaxPatterns)
	if err != nil {
		return model.Plan{}, err
	}
	patterns = set.Size()
	perStock := make([]int, len(set))
	for i, ps := range set {
		perStock[i] = len(ps)
	}
	o.logger.Info("patterns generated", "total", patterns, "per_stock", perStock)

	sol, err := strategy.Solve(ctx, req, set)
	if err != nil {
		return model.Plan{}, err
	}
	nodes = sol.Nodes
	if verr := verifySolution(req, set, sol); verr != nil {
		return model.Plan{}, newError(KindInvariant, MsgInvariant, verr)
	}

	plan = BuildPlan(req, set, sol, strategy.Name(), o.Settings.Unit)
	plan.Stats.Duration = time.Since(started)
	o.logger.Info("plan ready",
		"plan_id", plan.ID,
		"bars", plan.BarsUsed(),
		"waste", plan.TotalWaste.String(),
		"waste_percent", plan.WastePercent(),
		"duration", plan.Stats.Duration)
	return plan, nil
}

func (o *Optimizer) finish(name model.Strategy, started time.Time, patterns, nodes int, err error) {
	if o.observe == nil {
		return
	}
	if name == "" {
		name = model.StrategyIP
	}
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	o.observe(SolveEvent{
		Strategy: name,
		Outcome:  outcome,
		Duration: time.Since(started),
		Patterns: patterns,
		Nodes:    nodes,
	})
}
