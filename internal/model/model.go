package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawItem is one (length, quantity) pair exactly as it was entered, before
// aggregation and validation. Values may be negative or zero.
type RawItem struct {
	Length   decimal.Decimal `json:"length"`
	Quantity int             `json:"quantity"`
}

// RawInput holds the unvalidated stock and demand lists of one request.
type RawInput struct {
	Stock  []RawItem `json:"stock"`
	Demand []RawItem `json:"demand"`
}

// StockItem is a distinct stock bar length with its available quantity.
type StockItem struct {
	Length   decimal.Decimal `json:"length"`
	Quantity int             `json:"quantity"`
}

// DemandItem is a distinct required piece length with its quantity.
type DemandItem struct {
	Length   decimal.Decimal `json:"length"`
	Quantity int             `json:"quantity"`
}

// Request is a validated cutting problem. Stock and demand lengths are unique
// and every quantity is positive.
type Request struct {
	Stock  []StockItem  `json:"stock"`
	Demand []DemandItem `json:"demand"`
}

// StockLengths returns the stock lengths in request order.
func (r Request) StockLengths() []decimal.Decimal {
	out := make([]decimal.Decimal, len(r.Stock))
	for i, s := range r.Stock {
		out[i] = s.Length
	}
	return out
}

// DemandLengths returns the demand lengths in request order.
func (r Request) DemandLengths() []decimal.Decimal {
	out := make([]decimal.Decimal, len(r.Demand))
	for i, d := range r.Demand {
		out[i] = d.Length
	}
	return out
}

// MaxStockLength returns the longest stock length, or zero for an empty request.
func (r Request) MaxStockLength() decimal.Decimal {
	maxLen := decimal.Zero
	for _, s := range r.Stock {
		if s.Length.GreaterThan(maxLen) {
			maxLen = s.Length
		}
	}
	return maxLen
}

// Pattern is one way to cut a single stock bar. Pieces is indexed by demand
// order; Waste is what remains of the bar.
type Pattern struct {
	Pieces []int           `json:"pieces"`
	Waste  decimal.Decimal `json:"waste"`
}

// PieceCount returns the total number of pieces the pattern produces.
func (p Pattern) PieceCount() int {
	n := 0
	for _, q := range p.Pieces {
		n += q
	}
	return n
}

// IsEmpty reports whether the pattern cuts nothing.
func (p Pattern) IsEmpty() bool {
	return p.PieceCount() == 0
}

// PatternSet holds the patterns of every stock length, indexed like
// Request.Stock.
type PatternSet [][]Pattern

// Size returns the total number of patterns over all stock lengths.
func (ps PatternSet) Size() int {
	n := 0
	for _, patterns := range ps {
		n += len(patterns)
	}
	return n
}

// Solution is the result of an optimization stage. Usage[i][j] is how many
// bars of stock i are cut with pattern j.
type Solution struct {
	Usage  [][]int         `json:"usage"`
	Waste  decimal.Decimal `json:"waste"`
	Spread float64         `json:"spread"`
	Nodes  int             `json:"nodes"`
}

// Used returns the number of bars of stock i the solution consumes.
func (s Solution) Used(i int) int {
	n := 0
	for _, x := range s.Usage[i] {
		n += x
	}
	return n
}

// Strategy selects how pattern usage is chosen.
type Strategy string

const (
	StrategyIP      Strategy = "ip"      // Two-stage integer program (exact)
	StrategyGreedy  Strategy = "greedy"  // Waste-sorted fill (fast, approximate)
	StrategyDivisor Strategy = "divisor" // Zero-waste divisor matching for a single piece length
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyIP, StrategyGreedy, StrategyDivisor}

// Valid reports whether s names a supported strategy.
func (s Strategy) Valid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}

// SawSettings configures saw-stop program generation.
type SawSettings struct {
	Profile      string  `json:"profile"`       // Post-processor profile name
	FeedRate     float64 `json:"feed_rate"`     // Blade feed rate, machine units/min
	SafeZ        float64 `json:"safe_z"`        // Blade retract height
	BladeDepth   float64 `json:"blade_depth"`   // Plunge depth through the bar
	SpindleSpeed int     `json:"spindle_speed"` // Blade RPM
	UnitScale    float64 `json:"unit_scale"`    // Plan unit to machine unit factor (m -> mm = 1000)
}

// Settings holds optimizer and output configuration.
type Settings struct {
	Strategy    Strategy        `json:"strategy"`
	TimeLimit   time.Duration   `json:"time_limit"`   // Wall clock budget per solver call
	NodeLimit   int             `json:"node_limit"`   // Branch-and-bound node budget per solver call
	Tolerance   float64         `json:"tolerance"`    // Integrality and pruning tolerance
	Workers     int             `json:"workers"`      // Parallel pattern generation workers
	MaxPatterns int             `json:"max_patterns"` // Upper bound on generated patterns
	Unit        string          `json:"unit"`         // Length unit shown in reports
	MinOffcut   decimal.Decimal `json:"min_offcut"`   // Shortest remnant worth keeping
	Saw         SawSettings     `json:"saw"`
}

func DefaultSettings() Settings {
	return Settings{
		Strategy:    StrategyIP,
		TimeLimit:   30 * time.Second,
		NodeLimit:   200000,
		Tolerance:   1e-6,
		Workers:     4,
		MaxPatterns: 50000,
		Unit:        "m",
		MinOffcut:   decimal.RequireFromString("0.5"),
		Saw: SawSettings{
			Profile:      "Generic",
			FeedRate:     300,
			SafeZ:        5,
			BladeDepth:   60,
			SpindleSpeed: 3000,
			UnitScale:    1000,
		},
	}
}
