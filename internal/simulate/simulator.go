// Package simulate draws synthetic outcome samples from a three-component
// Gaussian mixture and derives empirical cover probabilities from them.
//
// The mixture is a deliberate, simple approximation: half the samples come
// from the "average" scenario centered on mu, a quarter from an adverse
// scenario shifted down by a delta, and a quarter from a favorable scenario
// shifted up by the same delta. It is not a real statistical model of sports
// outcomes and is not meant to be.
package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
)

// DeltaPolicy determines the scenario spread for a market kind:
// delta = max(Floor, |mu| * Fraction), or sigma itself when UseSigma is set.
// The constants are tunable policy, not derived statistical quantities; their
// magnitude basis intentionally differs across market kinds.
type DeltaPolicy struct {
	Floor    float64 `mapstructure:"floor"`
	Fraction float64 `mapstructure:"fraction"`
	UseSigma bool    `mapstructure:"use_sigma"`
}

// Delta resolves the scenario spread for the given model parameters.
func (p DeltaPolicy) Delta(mu, sigma float64) float64 {
	if p.UseSigma {
		return sigma
	}
	return math.Max(p.Floor, math.Abs(mu)*p.Fraction)
}

// Config holds simulation tunables. Weights must sum to 1; the favorable
// component absorbs integer rounding so counts always total SampleCount.
type Config struct {
	SampleCount     int     `mapstructure:"sample_count"`
	WeightAverage   float64 `mapstructure:"weight_average"`
	WeightAdverse   float64 `mapstructure:"weight_adverse"`
	WeightFavorable float64 `mapstructure:"weight_favorable"`

	SpreadDelta DeltaPolicy `mapstructure:"spread_delta"`
	TotalDelta  DeltaPolicy `mapstructure:"total_delta"`
	PropDelta   DeltaPolicy `mapstructure:"prop_delta"`
}

// DefaultConfig returns the calibrated defaults: 50k samples, 50/25/25
// mixture, deltas of 3 points for spreads, 7 for totals, and sigma for props.
func DefaultConfig() Config {
	return Config{
		SampleCount:     50000,
		WeightAverage:   0.50,
		WeightAdverse:   0.25,
		WeightFavorable: 0.25,
		SpreadDelta:     DeltaPolicy{Floor: 3.0},
		TotalDelta:      DeltaPolicy{Floor: 7.0},
		PropDelta:       DeltaPolicy{UseSigma: true},
	}
}

// Params are the model parameters for one market's underlying statistic.
type Params struct {
	Mu    float64
	Sigma float64
}

// Simulator draws mixture samples. The random source is injectable so tests
// can assert exact sample statistics; a nil source falls back to a
// time-seeded generator, matching production behavior.
type Simulator struct {
	cfg Config
	rng *rand.Rand
}

// NewSimulator creates a simulator with the given config and random source.
func NewSimulator(cfg Config, rng *rand.Rand) *Simulator {
	if cfg.SampleCount == 0 {
		cfg.SampleCount = 50000
	}
	if cfg.WeightAverage == 0 && cfg.WeightAdverse == 0 && cfg.WeightFavorable == 0 {
		cfg.WeightAverage, cfg.WeightAdverse, cfg.WeightFavorable = 0.50, 0.25, 0.25
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{cfg: cfg, rng: rng}
}

// Run draws a full sample set for the given market kind and parameters.
// A non-positive sample count yields an empty result rather than a panic;
// the caller treats it as a zero-probability market.
func (s *Simulator) Run(kind models.MarketKind, params Params) models.SimulationResult {
	n := s.cfg.SampleCount
	if n <= 0 {
		return models.SimulationResult{}
	}

	start := time.Now()
	delta := s.deltaFor(kind, params)
	floorAtZero := kind == models.MarketKindProp

	nAverage := int(s.cfg.WeightAverage * float64(n))
	nAdverse := int(s.cfg.WeightAdverse * float64(n))
	nFavorable := n - nAverage - nAdverse

	samples := make([]float64, 0, n)
	samples = s.drawComponent(samples, nAverage, params.Mu, params.Sigma, floorAtZero)
	samples = s.drawComponent(samples, nAdverse, params.Mu-delta, params.Sigma, floorAtZero)
	samples = s.drawComponent(samples, nFavorable, params.Mu+delta, params.Sigma, floorAtZero)

	sum := 0.0
	for _, v := range samples {
		sum += v
	}

	metrics.RecordSimulation(time.Since(start).Seconds())

	return models.SimulationResult{
		Mean:        sum / float64(len(samples)),
		Samples:     samples,
		SampleCount: len(samples),
	}
}

func (s *Simulator) drawComponent(samples []float64, count int, mu, sigma float64, floorAtZero bool) []float64 {
	for i := 0; i < count; i++ {
		v := s.rng.NormFloat64()*sigma + mu
		if floorAtZero && v < 0 {
			v = 0
		}
		samples = append(samples, v)
	}
	return samples
}

func (s *Simulator) deltaFor(kind models.MarketKind, params Params) float64 {
	switch kind {
	case models.MarketKindSpread:
		return s.cfg.SpreadDelta.Delta(params.Mu, params.Sigma)
	case models.MarketKindTotal:
		return s.cfg.TotalDelta.Delta(params.Mu, params.Sigma)
	default:
		return s.cfg.PropDelta.Delta(params.Mu, params.Sigma)
	}
}

// CoverProbability returns the empirical fraction of samples on the winning
// side of the line. The comparison is strict in both directions: a sample
// landing exactly on the line is a push treated as a loss for Over and Under
// alike. Yes counts like Over, No like Under. An empty sample set yields 0.
func CoverProbability(samples []float64, line float64, side models.Side) float64 {
	if len(samples) == 0 {
		return 0
	}

	covers := 0
	switch side {
	case models.SideUnder, models.SideNo:
		for _, v := range samples {
			if v < line {
				covers++
			}
		}
	default:
		for _, v := range samples {
			if v > line {
				covers++
			}
		}
	}
	return float64(covers) / float64(len(samples))
}
