package odds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name     string
		american float64
		want     float64
	}{
		{name: "positive odds", american: 150, want: 2.50},
		{name: "negative odds", american: -150, want: 1.0 + 100.0/150.0},
		{name: "standard juice", american: -110, want: 1.0 + 100.0/110.0},
		{name: "even money plus", american: 100, want: 2.0},
		{name: "zero treated as even money", american: 0, want: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AmericanToDecimal(tt.american), 1e-9)
		})
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		name    string
		decimal float64
		want    float64
	}{
		{name: "plus odds", decimal: 2.50, want: 150},
		{name: "minus odds", decimal: 1.6667, want: -150},
		{name: "even money", decimal: 2.0, want: 100},
		{name: "invalid low", decimal: 1.0, want: 0},
		{name: "invalid sub-one", decimal: 0.5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DecimalToAmerican(tt.decimal), 1)
		})
	}
}

// Round trip American -> decimal -> American within one tick across a
// sampled range of quotes.
func TestConversionRoundTrip(t *testing.T) {
	for _, american := range []float64{-10000, -500, -150, -110, -101, 100, 110, 150, 500, 10000} {
		decimal := AmericanToDecimal(american)
		back := DecimalToAmerican(decimal)
		assert.InDeltaf(t, american, back, 1, "round trip for %v via %v", american, decimal)
	}
}

func TestImpliedProbability(t *testing.T) {
	assert.Equal(t, 0.0, ImpliedProbability(1.0))
	assert.Equal(t, 0.0, ImpliedProbability(0.0))
	assert.InDelta(t, 0.5, ImpliedProbability(2.0), 1e-9)

	// For any valid decimal odds d > 1, implied probability is in (0, 1].
	for d := 1.01; d < 100; d += 0.37 {
		p := ImpliedProbability(d)
		assert.Greater(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestExpectedValue(t *testing.T) {
	// Decimal 1.91 (about -110 American) with 55% cover probability:
	// EV = 0.55*0.91 - 0.45 = 0.0505, a positive edge.
	ev := ExpectedValue(0.55, 1.91)
	assert.InDelta(t, 0.0505, ev, 1e-9)

	// A fair coin at even money has zero EV.
	assert.InDelta(t, 0.0, ExpectedValue(0.5, 2.0), 1e-9)

	// Betting at the implied probability loses nothing and wins nothing.
	d := 2.4
	assert.InDelta(t, 0.0, ExpectedValue(ImpliedProbability(d), d), 1e-9)

	// Invalid odds return the sentinel, never NaN.
	assert.Equal(t, 0.0, ExpectedValue(0.9, 1.0))
	assert.False(t, math.IsNaN(ExpectedValue(0.9, 0.0)))
}
