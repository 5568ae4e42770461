// Package tier maps (expected value, cover probability) pairs to discrete
// confidence buckets used for ranking and access gating.
package tier

import (
	"github.com/yourusername/prop-edge/internal/models"
)

// Threshold is one rung of the classifier. Both conditions must hold for the
// rung to match.
type Threshold struct {
	Tier     models.Tier `mapstructure:"tier"`
	Label    string      `mapstructure:"label"`
	Weight   float64     `mapstructure:"weight"`
	MinEV    float64     `mapstructure:"min_ev"`
	MinCover float64     `mapstructure:"min_cover"`
}

// Classifier assigns tiers by walking thresholds top-down; the first rung
// whose conditions hold wins. Thresholds must be ordered from strictest to
// loosest so the checks are mutually exclusive by construction.
type Classifier struct {
	thresholds []Threshold
	fallback   Threshold
}

// DefaultThresholds returns the calibrated rungs: Dime Plays at 10%+ EV with
// 60%+ cover, Nickel Plays at 5%+ EV with 55%+ cover.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Tier: models.TierTop, Label: "Dime Plays", Weight: 3, MinEV: 0.10, MinCover: 0.60},
		{Tier: models.TierMid, Label: "Nickel Plays", Weight: 2, MinEV: 0.05, MinCover: 0.55},
	}
}

// NewClassifier creates a classifier. Nil or empty thresholds fall back to
// the defaults. The base tier is implicit and always matches.
func NewClassifier(thresholds []Threshold) *Classifier {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds()
	}
	return &Classifier{
		thresholds: thresholds,
		fallback:   Threshold{Tier: models.TierBase, Label: "Standard Plays", Weight: 1},
	}
}

// Classify returns the tier for the given scores.
func (c *Classifier) Classify(ev, coverProb float64) Threshold {
	for _, t := range c.thresholds {
		if ev >= t.MinEV && coverProb >= t.MinCover {
			return t
		}
	}
	return c.fallback
}

// Visible reports whether a play in the given tier renders unblurred for the
// subscription level. Level 0 sees the base tier only, levels 1-2 add the
// mid tier, level 3 and above see everything; a negative level means no
// restriction (internal use). Locked plays are flagged, never dropped, so
// the frontend can blur them.
func Visible(subscriptionLevel int, t models.Tier) bool {
	if subscriptionLevel < 0 || subscriptionLevel >= 3 {
		return true
	}
	if subscriptionLevel >= 1 {
		return t == models.TierMid || t == models.TierBase
	}
	return t == models.TierBase
}
