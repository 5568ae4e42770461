package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a discrete confidence bucket derived from EV and cover probability
type Tier string

const (
	TierTop  Tier = "top"
	TierMid  Tier = "mid"
	TierBase Tier = "base"
)

// SimulationResult holds the outcome of one mixture simulation run. It is
// consumed immediately by the EV stage and never persisted; the cache stores
// only the final scored market.
type SimulationResult struct {
	Mean        float64
	Samples     []float64
	SampleCount int
}

// EvaluatedMarket is a Market plus its derived scores. This is the unit
// returned to callers and the unit stored in the cache.
type EvaluatedMarket struct {
	Market Market `json:"market"`

	ImpliedProbability float64 `json:"implied_probability"`
	CoverProbability   float64 `json:"cover_probability"`
	ExpectedValue      float64 `json:"expected_value"`

	// ModelMean is the simulated distribution mean; nil when the market
	// took the implied-probability fallback path instead of simulation.
	ModelMean *float64 `json:"model_mean,omitempty"`

	Tier       Tier    `json:"tier"`
	TierLabel  string  `json:"tier_label"`
	TierWeight float64 `json:"tier_weight"`

	// Visible reports whether the caller's subscription level unlocks this
	// tier. Locked results are flagged and sorted last, never dropped.
	Visible bool `json:"visible"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// EvaluationSnapshot is a persisted copy of one evaluated board.
type EvaluationSnapshot struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	Sport     string            `db:"sport" json:"sport"`
	Scope     string            `db:"scope" json:"scope"`
	Results   []EvaluatedMarket `db:"results" json:"results"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}
