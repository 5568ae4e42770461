package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/prop-edge/internal/models"
)

func TestClassifyDefaults(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name  string
		ev    float64
		cover float64
		want  models.Tier
	}{
		{"both top thresholds met", 0.12, 0.65, models.TierTop},
		{"exactly at top thresholds", 0.10, 0.60, models.TierTop},
		{"high ev but low cover", 0.15, 0.55, models.TierMid},
		{"mid thresholds met", 0.06, 0.56, models.TierMid},
		{"exactly at mid thresholds", 0.05, 0.55, models.TierMid},
		{"positive ev below mid", 0.03, 0.70, models.TierBase},
		{"negative ev", -0.02, 0.80, models.TierBase},
		{"zero everything", 0, 0, models.TierBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.ev, tt.cover)
			assert.Equal(t, tt.want, got.Tier)
		})
	}
}

// A 1.91-odds play with 55% cover probability sits just past the mid rung:
// EV = 0.55*0.91 - 0.45 = 0.0505.
func TestClassifyMidScenario(t *testing.T) {
	c := NewClassifier(nil)

	ev := 0.55*0.91 - 0.45
	got := c.Classify(ev, 0.55)
	assert.Equal(t, models.TierMid, got.Tier)
	assert.Equal(t, "Nickel Plays", got.Label)
	assert.Equal(t, 2.0, got.Weight)
}

func TestClassifyLabelsAndWeights(t *testing.T) {
	c := NewClassifier(nil)

	top := c.Classify(0.20, 0.70)
	assert.Equal(t, "Dime Plays", top.Label)
	assert.Equal(t, 3.0, top.Weight)

	base := c.Classify(0.0, 0.5)
	assert.Equal(t, "Standard Plays", base.Label)
	assert.Equal(t, 1.0, base.Weight)
}

// Raising either score never lowers the tier.
func TestClassifyMonotonic(t *testing.T) {
	c := NewClassifier(nil)

	rank := map[models.Tier]int{models.TierBase: 1, models.TierMid: 2, models.TierTop: 3}

	evs := []float64{0.0, 0.04, 0.05, 0.08, 0.10, 0.15}
	covers := []float64{0.50, 0.55, 0.58, 0.60, 0.70}

	for _, cover := range covers {
		prev := 0
		for _, ev := range evs {
			got := rank[c.Classify(ev, cover).Tier]
			assert.GreaterOrEqual(t, got, prev, "ev=%v cover=%v", ev, cover)
			prev = got
		}
	}
	for _, ev := range evs {
		prev := 0
		for _, cover := range covers {
			got := rank[c.Classify(ev, cover).Tier]
			assert.GreaterOrEqual(t, got, prev, "ev=%v cover=%v", ev, cover)
			prev = got
		}
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	c := NewClassifier([]Threshold{
		{Tier: models.TierTop, Label: "Premium", Weight: 5, MinEV: 0.20, MinCover: 0.70},
	})

	assert.Equal(t, "Premium", c.Classify(0.25, 0.75).Label)
	assert.Equal(t, models.TierBase, c.Classify(0.15, 0.75).Tier)
}

func TestVisible(t *testing.T) {
	tests := []struct {
		name  string
		level int
		tier  models.Tier
		want  bool
	}{
		{"free sees base", 0, models.TierBase, true},
		{"free locked out of mid", 0, models.TierMid, false},
		{"free locked out of top", 0, models.TierTop, false},
		{"level 1 sees mid", 1, models.TierMid, true},
		{"level 2 sees mid", 2, models.TierMid, true},
		{"level 2 locked out of top", 2, models.TierTop, false},
		{"level 3 sees everything", 3, models.TierTop, true},
		{"negative level unrestricted", -1, models.TierTop, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(tt.level, tt.tier))
		})
	}
}
