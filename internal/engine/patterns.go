package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxPlaces caps the decimal places kept when lengths are scaled to integers.
const maxPlaces = 6

// scale converts decimal lengths to integer units of 10^-places.
type scale struct {
	places int32
}

// newScale picks the fewest decimal places that represent every length
// exactly, up to maxPlaces.
func newScale(lengths ...decimal.Decimal) scale {
	var places int32
	for _, l := range lengths {
		for p := places; p < maxPlaces; p++ {
			shifted := l.Shift(p)
			if shifted.Equal(shifted.Truncate(0)) {
				break
			}
			places = p + 1
		}
	}
	return scale{places: places}
}

// representable reports whether l is a whole number of 10^-maxPlaces units.
func representable(l decimal.Decimal) bool {
	shifted := l.Shift(maxPlaces)
	return shifted.Equal(shifted.Truncate(0))
}

// checkLengths rejects lengths the integer scale cannot hold exactly.
func checkLengths(lengths ...decimal.Decimal) error {
	for _, l := range lengths {
		if !l.IsPositive() {
			return inputError(MsgZeroLength)
		}
		if !representable(l) {
			return inputError(MsgTooPrecise, maxPlaces)
		}
	}
	return nil
}

func requestScale(req model.Request) scale {
	return newScale(append(req.StockLengths(), req.DemandLengths()...)...)
}

func (s scale) units(l decimal.Decimal) int64 {
	return l.Shift(s.places).Round(0).IntPart()
}

func (s scale) length(u int64) decimal.Decimal {
	return decimal.New(u, -s.places)
}

// patternCounter caps the number of patterns generated across goroutines.
type patternCounter struct {
	limit int64
	n     atomic.Int64
}

// add records one pattern and reports whether the limit still holds.
func (c *patternCounter) add() bool {
	if c == nil || c.limit <= 0 {
		return true
	}
	return c.n.Add(1) <= c.limit
}

// ctxCheckInterval is how many counter steps run between context checks.
const ctxCheckInterval = 1024

// enumerate lists every vector q with 0 <= q[k] <= stock/demand[k] and
// sum(q[k]*demand[k]) <= stock, in lexicographic order starting with the
// all-zero vector. It is a mixed-radix counter, last index fastest: when the
// running sum first exceeds stock at index p, no vector sharing q[0..p] can
// fit, so the counter skips straight to incrementing index p-1.
func enumerate(ctx context.Context, stock int64, demand []int64, counter *patternCounter) ([][]int, []int64, error) {
	n := len(demand)
	maxQ := make([]int, n)
	for k, d := range demand {
		maxQ[k] = int(stock / d)
	}

	var (
		vectors [][]int
		wastes  []int64
		q       = make([]int, n)
		steps   int
	)
	for {
		steps++
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		overflow := n
		var sum int64
		for k := 0; k < n; k++ {
			sum += int64(q[k]) * demand[k]
			if sum > stock {
				overflow = k
				break
			}
		}
		if overflow == n {
			if !counter.add() {
				return nil, nil, errTooComplex(counter.limit)
			}
			vectors = append(vectors, append([]int(nil), q...))
			wastes = append(wastes, stock-sum)
		}

		pos := overflow - 1
		for k := pos + 1; k < n; k++ {
			q[k] = 0
		}
		for pos >= 0 && q[pos] == maxQ[pos] {
			q[pos] = 0
			pos--
		}
		if pos < 0 {
			return vectors, wastes, nil
		}
		q[pos]++
	}
}

func errTooComplex(limit int64) *Error {
	return newError(KindTooComplex, fmt.Sprintf(MsgTooComplex, limit), nil)
}

func toPatterns(sc scale, vectors [][]int, wastes []int64) []model.Pattern {
	patterns := make([]model.Pattern, len(vectors))
	for i, v := range vectors {
		patterns[i] = model.Pattern{Pieces: v, Waste: sc.length(wastes[i])}
	}
	return patterns
}

// GeneratePatterns lists every way to cut one bar of the given stock length
// into the demand lengths. The all-zero pattern is always first, so a bar
// shorter than every piece still has its fully wasted pattern. A positive
// limit caps the number of patterns. Every length must be positive with at
// most maxPlaces decimal places.
func GeneratePatterns(ctx context.Context, stock decimal.Decimal, demand []decimal.Decimal, limit int) ([]model.Pattern, error) {
	if err := checkLengths(append([]decimal.Decimal{stock}, demand...)...); err != nil {
		return nil, err
	}
	sc := newScale(append([]decimal.Decimal{stock}, demand...)...)
	units := make([]int64, len(demand))
	for k, d := range demand {
		units[k] = sc.units(d)
	}
	counter := &patternCounter{limit: int64(limit)}
	vectors, wastes, err := enumerate(ctx, sc.units(stock), units, counter)
	if err != nil {
		return nil, err
	}
	return toPatterns(sc, vectors, wastes), nil
}

// GeneratePatternSet generates the patterns of every stock length of req.
// Stock lengths are independent, so up to workers of them run concurrently;
// results are stored by stock index. A positive maxPatterns caps the total.
func GeneratePatternSet(ctx context.Context, req model.Request, workers, maxPatterns int) (model.PatternSet, error) {
	if err := checkLengths(append(req.StockLengths(), req.DemandLengths()...)...); err != nil {
		return nil, err
	}
	sc := requestScale(req)
	demand := make([]int64, len(req.Demand))
	for k, d := range req.Demand {
		demand[k] = sc.units(d.Length)
	}

	if workers < 1 {
		workers = 1
	}
	counter := &patternCounter{limit: int64(maxPatterns)}
	set := make(model.PatternSet, len(req.Stock))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range req.Stock {
		g.Go(func() error {
			vectors, wastes, err := enumerate(gctx, sc.units(s.Length), demand, counter)
			if err != nil {
				return err
			}
			set[i] = toPatterns(sc, vectors, wastes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}
