// Package series synthesizes OHLC chart series for the dashboard.
//
// Two generators are provided: one derives candles from the hourly 7-day
// sparkline the market list already carries, the other fabricates a
// plausible week of hourly candles from a single current price when no
// real history is available. Randomness comes from an injectable source
// so tests can pin every value.
package series

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/seenimoa/cryptodash/pkg/models"
	"github.com/seenimoa/cryptodash/pkg/utils"
)

const (
	// FallbackPoints is the number of hourly points in a fallback series (7 days).
	FallbackPoints = 168

	// Volatility is the fraction of price used as the maximum wick length.
	Volatility = 0.02

	// MaxDrift bounds the fallback price drift to ±5% of the current price.
	MaxDrift = 0.05
)

// Rand is a source of uniformly distributed floats in [0, 1).
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewDefaultRand returns a source seeded from the clock.
func NewDefaultRand() Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

// Generator builds synthetic chart series. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd Rand
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the randomness source.
func WithRand(r Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

// WithClock sets the function used to read the current time.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator. Without options it uses a clock-seeded
// source and time.Now.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, o := range opts {
		o(g)
	}
	if g.rnd == nil {
		g.rnd = NewDefaultRand()
	}
	return g
}

// FromSparkline turns an hourly price sample (oldest first) into candles.
// The series ends one hour before now; each close is the sample itself and
// each open is the previous sample.
func (g *Generator) FromSparkline(prices []float64) []models.ChartPoint {
	n := len(prices)
	if n == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	points := make([]models.ChartPoint, 0, n)
	for i, price := range prices {
		open := price
		if i > 0 {
			open = prices[i-1]
		}
		ts := now.Add(-time.Duration(n-i) * time.Hour)
		points = append(points, g.candle(ts, price, open))
	}
	return points
}

// Fallback fabricates FallbackPoints hourly candles around currentPrice.
// Drift grows with the point index so older points stay closer to the
// current price than recent ones; each open chains to the previous close.
func (g *Generator) Fallback(currentPrice float64) []models.ChartPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	points := make([]models.ChartPoint, 0, FallbackPoints)

	var prevClose float64
	for i := 0; i < FallbackPoints; i++ {
		variation := (g.rnd.Float64() - 0.5) * 2 * MaxDrift
		price := currentPrice * (1 + variation*float64(i)/FallbackPoints)

		open := price
		if i > 0 {
			open = prevClose
		}
		ts := now.Add(-time.Duration(FallbackPoints-i) * time.Hour)
		p := g.candle(ts, price, open)
		points = append(points, p)
		prevClose = *p.Close
	}
	return points
}

// candle draws the wicks for one point and clamps them so that
// low <= min(open, close) and high >= max(open, close).
func (g *Generator) candle(ts time.Time, price, open float64) models.ChartPoint {
	vol := price * Volatility
	high := price + g.rnd.Float64()*vol
	low := price - g.rnd.Float64()*vol
	close := price

	p := NewPoint(ts.UnixMilli(), price)
	p.SetOHLC(open,
		math.Max(high, math.Max(open, close)),
		math.Min(low, math.Min(open, close)),
		close,
	)
	return p
}

// NewPoint builds a price-only point with display labels for ms.
func NewPoint(ms int64, price float64) models.ChartPoint {
	t := utils.FromMillis(ms)
	return models.ChartPoint{
		Timestamp: ms,
		Date:      utils.FormatChartDate(t),
		Time:      utils.FormatChartTime(t),
		Price:     price,
	}
}

// Validate reports the index of the first point whose OHLC values break
// low <= min(open, close) <= max(open, close) <= high, or -1.
// Points without OHLC are skipped.
func Validate(points []models.ChartPoint) int {
	for i, p := range points {
		if !p.HasOHLC() {
			continue
		}
		lo := math.Min(*p.Open, *p.Close)
		hi := math.Max(*p.Open, *p.Close)
		if *p.Low > lo || *p.High < hi {
			return i
		}
	}
	return -1
}
