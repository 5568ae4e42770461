package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/provider"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func sampleEvent() provider.Event {
	return provider.Event{
		ID:           "ev-123",
		SportKey:     "americanfootball_nfl",
		CommenceTime: "2026-09-13T17:00:00Z",
		HomeTeam:     "Kansas City Chiefs",
		AwayTeam:     "Buffalo Bills",
		Bookmakers: []provider.Bookmaker{
			{
				Key: "draftkings",
				Markets: []provider.Market{
					{
						Key: "totals",
						Outcomes: []provider.Outcome{
							{Name: "Over", Price: dec(1.91), Point: decPtr(47.5)},
							{Name: "Under", Price: dec(1.91), Point: decPtr(47.5)},
						},
					},
					{
						Key: "player_pass_yds",
						Outcomes: []provider.Outcome{
							{Name: "Over", Description: "Patrick Mahomes", Price: dec(1.87), Point: decPtr(285.5)},
							{Name: "Under", Description: "Patrick Mahomes", Price: dec(1.95), Point: decPtr(285.5)},
						},
					},
				},
			},
		},
	}
}

func TestNormalizeEventFlattensOutcomes(t *testing.T) {
	n := NewNormalizer(Config{}, testLogger())
	event := sampleEvent()

	markets := n.NormalizeEvent("nfl", "americanfootball_nfl", &event)
	require.Len(t, markets, 4)

	total := markets[0]
	assert.Equal(t, "NFL", total.Sport)
	assert.Equal(t, "ev-123", total.EventID)
	assert.Equal(t, "Buffalo Bills @ Kansas City Chiefs", total.EventName)
	assert.Equal(t, models.MarketKindTotal, total.Kind)
	assert.Equal(t, models.SideOver, total.Side)
	require.True(t, total.HasLine())
	assert.Equal(t, 47.5, total.LineValue())
	assert.Equal(t, 1.91, total.DecimalOdds)

	prop := markets[2]
	assert.Equal(t, models.MarketKindProp, prop.Kind)
	assert.Equal(t, "Patrick Mahomes", prop.Entity)
	assert.Equal(t, models.SideOver, prop.Side)
}

func TestNormalizeSkipsInvalidPrice(t *testing.T) {
	n := NewNormalizer(Config{}, testLogger())
	event := sampleEvent()
	event.Bookmakers[0].Markets = []provider.Market{{
		Key: "totals",
		Outcomes: []provider.Outcome{
			{Name: "Over", Price: dec(1.0), Point: decPtr(47.5)},
			{Name: "Under", Price: dec(0), Point: decPtr(47.5)},
			{Name: "Over", Price: dec(1.91), Point: decPtr(48.5)},
		},
	}}

	markets := n.NormalizeEvent("nfl", "americanfootball_nfl", &event)
	require.Len(t, markets, 1)
	assert.Equal(t, 48.5, markets[0].LineValue())
}

func TestNormalizeSkipsMissingLine(t *testing.T) {
	n := NewNormalizer(Config{}, testLogger())
	event := sampleEvent()
	event.Bookmakers[0].Markets = []provider.Market{{
		Key: "player_pass_yds",
		Outcomes: []provider.Outcome{
			{Name: "Over", Description: "Patrick Mahomes", Price: dec(1.87)},
		},
	}}

	markets := n.NormalizeEvent("nfl", "americanfootball_nfl", &event)
	assert.Empty(t, markets)
}

func TestNormalizeYesNoMarketNeedsNoLine(t *testing.T) {
	n := NewNormalizer(Config{YesNoMarkets: map[string]bool{"player_anytime_td": true}}, testLogger())
	event := sampleEvent()
	event.Bookmakers[0].Markets = []provider.Market{{
		Key: "player_anytime_td",
		Outcomes: []provider.Outcome{
			{Name: "Yes", Description: "Travis Kelce", Price: dec(2.20)},
			{Name: "No", Description: "Travis Kelce", Price: dec(1.65)},
		},
	}}

	markets := n.NormalizeEvent("nfl", "americanfootball_nfl", &event)
	require.Len(t, markets, 2)
	assert.Equal(t, models.SideYes, markets[0].Side)
	assert.False(t, markets[0].HasLine())
	assert.Equal(t, models.SideNo, markets[1].Side)
}

func TestNormalizeAllowedMarketsFilter(t *testing.T) {
	n := NewNormalizer(Config{AllowedMarkets: map[string]bool{"totals": true}}, testLogger())
	event := sampleEvent()

	markets := n.NormalizeEvent("nfl", "americanfootball_nfl", &event)
	require.Len(t, markets, 2)
	for _, m := range markets {
		assert.Equal(t, "totals", m.MarketKey)
	}
}

func TestNormalizeNilEvent(t *testing.T) {
	n := NewNormalizer(Config{}, testLogger())
	assert.Nil(t, n.NormalizeEvent("nfl", "americanfootball_nfl", nil))
	assert.Nil(t, n.NormalizeEvent("nfl", "americanfootball_nfl", &provider.Event{}))
}

func TestClassifySide(t *testing.T) {
	yesNo := map[string]bool{"player_anytime_td": true}

	tests := []struct {
		name        string
		marketKey   string
		outcome     string
		description string
		want        models.Side
	}{
		{"over token", "totals", "Over", "", models.SideOver},
		{"under token", "totals", "Under", "", models.SideUnder},
		{"under beats over in combined text", "totals", "Over/Under", "under 47.5", models.SideUnder},
		{"ambiguous text falls back to over", "totals", "47.5", "", models.SideOver},
		{"yes side", "player_anytime_td", "Yes", "", models.SideYes},
		{"no side", "player_anytime_td", "No", "", models.SideNo},
		{"binary default is yes", "player_anytime_td", "Travis Kelce", "", models.SideYes},
		{"directional token in description", "player_pass_yds", "Patrick Mahomes", "Under 285.5", models.SideUnder},
		{"directional token in name", "player_pass_yds", "Under", "Patrick Mahomes", models.SideUnder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySide(tt.marketKey, tt.outcome, tt.description, yesNo)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildMarketIDDeterministic(t *testing.T) {
	line := 47.5
	a := BuildMarketID("americanfootball_nfl", "ev-123", "totals", "", &line, models.SideOver, "draftkings")
	b := BuildMarketID("americanfootball_nfl", "ev-123", "totals", "", &line, models.SideOver, "draftkings")

	assert.Equal(t, a, b)
	assert.Equal(t, "americanfootball_nfl|ev-123|totals||47.500|Over|draftkings", a)
}

func TestBuildMarketIDStripsDelimiter(t *testing.T) {
	id := BuildMarketID("l", "e", "m", "A|B", nil, models.SideYes, "book")
	assert.Equal(t, "l|e|m|A B|0.000|Yes|book", id)
}

func TestKindForMarketKey(t *testing.T) {
	tests := []struct {
		key  string
		want models.MarketKind
	}{
		{"spreads", models.MarketKindSpread},
		{"totals", models.MarketKindTotal},
		{"h2h", models.MarketKindMoneyline},
		{"player_pass_yds", models.MarketKindProp},
		{"batter_home_runs", models.MarketKindProp},
		{"pitcher_strikeouts", models.MarketKindProp},
		{"alternate_team_total", models.MarketKindTotal},
		{"some_new_market", models.MarketKindMoneyline},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindForMarketKey(tt.key), tt.key)
	}
}
