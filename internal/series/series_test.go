package series

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/cryptodash/pkg/utils"
)

// seqRand replays a fixed sequence of draws, cycling when exhausted.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestMain(m *testing.M) {
	utils.DisplayLocation = time.UTC
	m.Run()
}

func TestFromSparklineExactValues(t *testing.T) {
	g := NewGenerator(WithRand(&seqRand{vals: []float64{0.5, 0.25}}), WithClock(fixedClock))

	points := g.FromSparkline([]float64{100, 110})
	require.Len(t, points, 2)

	// i=0: open=close=100, vol=2, high=100+0.5*2=101, low=100-0.25*2=99.5
	p0 := points[0]
	assert.Equal(t, fixedNow.Add(-2*time.Hour).UnixMilli(), p0.Timestamp)
	assert.Equal(t, 100.0, p0.Price)
	assert.Equal(t, 100.0, *p0.Open)
	assert.Equal(t, 101.0, *p0.High)
	assert.Equal(t, 99.5, *p0.Low)
	assert.Equal(t, 100.0, *p0.Close)
	assert.Equal(t, "5/1/2024", p0.Date)
	assert.Equal(t, "10:00 AM", p0.Time)

	// i=1: open=100, close=110, vol=2.2, high=111.1, raw low=109.45 clamped to open=100
	p1 := points[1]
	assert.Equal(t, fixedNow.Add(-time.Hour).UnixMilli(), p1.Timestamp)
	assert.Equal(t, 100.0, *p1.Open)
	assert.InDelta(t, 111.1, *p1.High, 1e-9)
	assert.Equal(t, 100.0, *p1.Low)
	assert.Equal(t, 110.0, *p1.Close)
}

func TestFromSparklineEmpty(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))
	assert.Nil(t, g.FromSparkline(nil))
	assert.Nil(t, g.FromSparkline([]float64{}))
}

func TestFromSparklineLengthAndTail(t *testing.T) {
	g := NewGenerator(WithRand(NewRand(7)), WithClock(fixedClock))

	prices := make([]float64, 167)
	for i := range prices {
		prices[i] = 60000 + float64(i)*3.5
	}
	points := g.FromSparkline(prices)

	require.Len(t, points, len(prices))
	assert.Equal(t, prices[len(prices)-1], *points[len(points)-1].Close)
	assert.Equal(t, -1, Validate(points))
	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i-1].Timestamp, points[i].Timestamp)
	}
}

func TestFallbackExactValues(t *testing.T) {
	// Every draw is 0.75: variation = +0.025 at full weight, wicks at 75% of volatility.
	g := NewGenerator(WithRand(&seqRand{vals: []float64{0.75}}), WithClock(fixedClock))

	points := g.Fallback(1000)
	require.Len(t, points, FallbackPoints)

	first := points[0]
	assert.Equal(t, 1000.0, first.Price)
	assert.Equal(t, 1000.0, *first.Open)
	assert.InDelta(t, 1015.0, *first.High, 1e-9)
	assert.InDelta(t, 985.0, *first.Low, 1e-9)
	assert.Equal(t, fixedNow.Add(-FallbackPoints*time.Hour).UnixMilli(), first.Timestamp)

	last := points[FallbackPoints-1]
	wantPrice := 1000 * (1 + 0.025*167.0/168.0)
	assert.InDelta(t, wantPrice, last.Price, 1e-9)
	assert.Equal(t, fixedNow.Add(-time.Hour).UnixMilli(), last.Timestamp)
}

func TestFallbackOpenChainsToPreviousClose(t *testing.T) {
	g := NewGenerator(WithRand(NewRand(42)), WithClock(fixedClock))

	points := g.Fallback(2500)
	require.Len(t, points, FallbackPoints)
	assert.Equal(t, points[0].Price, *points[0].Open)
	for i := 1; i < len(points); i++ {
		assert.Equal(t, *points[i-1].Close, *points[i].Open, "point %d", i)
	}
}

func TestFallbackStaysWithinDrift(t *testing.T) {
	g := NewGenerator(WithRand(NewRand(3)), WithClock(fixedClock))

	for _, p := range g.Fallback(50) {
		assert.GreaterOrEqual(t, p.Price, 50*(1-MaxDrift))
		assert.LessOrEqual(t, p.Price, 50*(1+MaxDrift))
	}
}

func TestSeededRandIsReproducible(t *testing.T) {
	a := NewGenerator(WithRand(NewRand(99)), WithClock(fixedClock)).Fallback(10)
	b := NewGenerator(WithRand(NewRand(99)), WithClock(fixedClock)).Fallback(10)
	assert.Equal(t, a, b)
}

func TestValidate(t *testing.T) {
	g := NewGenerator(WithClock(fixedClock))
	points := g.FromSparkline([]float64{1, 2, 3})
	assert.Equal(t, -1, Validate(points))

	badLow := *points[1].Close + 1
	points[1].Low = &badLow
	assert.Equal(t, 1, Validate(points))

	assert.Equal(t, -1, Validate(nil))
}

func TestOHLCInvariantProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sparkline candles keep low <= body <= high", prop.ForAll(
		func(seed uint64, prices []float64) bool {
			g := NewGenerator(WithRand(NewRand(seed)), WithClock(fixedClock))
			points := g.FromSparkline(prices)
			return len(points) == len(prices) && Validate(points) == -1 &&
				(len(prices) == 0 || *points[len(points)-1].Close == prices[len(prices)-1])
		},
		gen.UInt64(),
		gen.SliceOf(gen.Float64Range(0.000001, 1e6)),
	))

	properties.Property("fallback candles keep low <= body <= high", prop.ForAll(
		func(seed uint64, price float64) bool {
			g := NewGenerator(WithRand(NewRand(seed)), WithClock(fixedClock))
			points := g.Fallback(price)
			return len(points) == FallbackPoints && Validate(points) == -1
		},
		gen.UInt64(),
		gen.Float64Range(0.000001, 1e6),
	))

	properties.TestingRun(t)
}
