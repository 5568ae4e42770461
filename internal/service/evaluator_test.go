package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/cache"
	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/provider"
	"github.com/yourusername/prop-edge/internal/simulate"
)

// stubSource serves canned payloads and counts fetches.
type stubSource struct {
	gameEvents []provider.Event
	propEvents map[string]*provider.Event
	gameCalls  int
	propCalls  int
}

func (s *stubSource) FetchGameOdds(ctx context.Context, sportKey string, marketKeys []string) ([]provider.Event, error) {
	s.gameCalls++
	return s.gameEvents, nil
}

func (s *stubSource) FetchEvents(ctx context.Context, sportKey string) ([]provider.Event, error) {
	events := make([]provider.Event, 0, len(s.gameEvents))
	for _, e := range s.gameEvents {
		events = append(events, provider.Event{ID: e.ID, HomeTeam: e.HomeTeam, AwayTeam: e.AwayTeam})
	}
	return events, nil
}

func (s *stubSource) FetchEventProps(ctx context.Context, sportKey, eventID string, marketKeys []string) (*provider.Event, error) {
	s.propCalls++
	if e, ok := s.propEvents[eventID]; ok {
		return e, nil
	}
	return &provider.Event{ID: eventID}, nil
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "prop-edge", Environment: "development", LogLevel: "error"},
		Provider: config.ProviderConfig{
			MaxEvents: 5,
		},
		Engine: config.EngineConfig{
			Simulation: simulate.Config{
				SampleCount:     20000,
				WeightAverage:   0.50,
				WeightAdverse:   0.25,
				WeightFavorable: 0.25,
				SpreadDelta:     simulate.DeltaPolicy{Floor: 3.0},
				TotalDelta:      simulate.DeltaPolicy{Floor: 7.0},
				PropDelta:       simulate.DeltaPolicy{UseSigma: true},
			},
			MaxWorkers:        2,
			SpreadSigma:       map[string]float64{"NFL": 13.0},
			TotalSigma:        map[string]float64{"NFL": 10.0},
			PropSigmaFloor:    3.0,
			PropSigmaFraction: 0.25,
		},
		Cache: config.CacheConfig{Backend: "memory", TTLSeconds: 300},
		Sports: []config.SportConfig{
			{
				Label:        "NFL",
				ProviderKey:  "americanfootball_nfl",
				GameMarkets:  []string{"h2h", "spreads", "totals"},
				PropMarkets:  []string{"player_pass_yds"},
				YesNoMarkets: []string{"player_anytime_td"},
			},
		},
		Server: config.ServerConfig{Port: 8080, TimeoutSeconds: 30},
	}
}

func gameEvent() provider.Event {
	return provider.Event{
		ID:           "ev-1",
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
						Key: "h2h",
						Outcomes: []provider.Outcome{
							{Name: "Kansas City Chiefs", Price: dec(1.65)},
							{Name: "Buffalo Bills", Price: dec(2.30)},
						},
					},
				},
			},
			{
				Key: "fanduel",
				Markets: []provider.Market{
					{
						Key: "totals",
						Outcomes: []provider.Outcome{
							{Name: "Over", Price: dec(1.95), Point: decPtr(47.5)},
						},
					},
				},
			},
		},
	}
}

func newTestEvaluator(t *testing.T, source provider.OddsSource) (*Evaluator, *cache.MemoryStore) {
	t.Helper()

	cfg := testConfig()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := cache.NewMemoryStore(cfg.Cache.TTL(), nil)
	e := NewEvaluator(cfg, source, store, nil, log)

	var seed int64
	e.SetSimulatorFactory(func() *simulate.Simulator {
		seed++
		return simulate.NewSimulator(cfg.Engine.Simulation, rand.New(rand.NewSource(seed)))
	})
	return e, store
}

func TestEvaluateSportGameBoard(t *testing.T) {
	source := &stubSource{gameEvents: []provider.Event{gameEvent()}}
	e, _ := newTestEvaluator(t, source)

	results, err := e.EvaluateSport(context.Background(), "NFL", ScopeGame)
	require.NoError(t, err)

	// Five quotes collapse to four: the totals Over dedups to the best
	// price across books.
	require.Len(t, results, 4)

	byID := make(map[string]models.EvaluatedMarket, len(results))
	for _, r := range results {
		byID[r.Market.GroupKey()] = r
	}

	over, ok := byID["NFL|ev-1|totals||Over"]
	require.True(t, ok)
	assert.Equal(t, "fanduel", over.Market.Bookmaker)
	assert.Equal(t, 1.95, over.Market.DecimalOdds)
	require.NotNil(t, over.ModelMean)
	assert.InDelta(t, 47.5, *over.ModelMean, 0.5)
	assert.InDelta(t, 0.5, over.CoverProbability, 0.02)

	// Moneylines take the implied-probability path: no model mean and an
	// expected value pinned at zero.
	ml, ok := byID["NFL|ev-1|h2h|Kansas City Chiefs|Kansas City Chiefs"]
	require.True(t, ok)
	assert.Nil(t, ml.ModelMean)
	assert.InDelta(t, 1/1.65, ml.ImpliedProbability, 1e-9)
	assert.InDelta(t, ml.ImpliedProbability, ml.CoverProbability, 1e-9)
	assert.InDelta(t, 0, ml.ExpectedValue, 1e-9)
	assert.Equal(t, models.TierBase, ml.Tier)
}

func TestEvaluateSportServesFromCache(t *testing.T) {
	source := &stubSource{gameEvents: []provider.Event{gameEvent()}}
	e, _ := newTestEvaluator(t, source)

	first, err := e.EvaluateSport(context.Background(), "NFL", ScopeGame)
	require.NoError(t, err)

	second, err := e.EvaluateSport(context.Background(), "NFL", ScopeGame)
	require.NoError(t, err)

	assert.Equal(t, 1, source.gameCalls)
	assert.Equal(t, len(first), len(second))
}

func TestRefreshBypassesCache(t *testing.T) {
	source := &stubSource{gameEvents: []provider.Event{gameEvent()}}
	e, _ := newTestEvaluator(t, source)

	_, err := e.EvaluateSport(context.Background(), "NFL", ScopeGame)
	require.NoError(t, err)

	_, err = e.Refresh(context.Background(), "NFL", ScopeGame)
	require.NoError(t, err)

	assert.Equal(t, 2, source.gameCalls)

	// The refreshed board replaced the cached entry.
	_, err = e.EvaluateSport(context.Background(), "NFL", ScopeGame)
	require.NoError(t, err)
	assert.Equal(t, 2, source.gameCalls)
}

func TestEvaluateSportPropsScope(t *testing.T) {
	source := &stubSource{
		gameEvents: []provider.Event{gameEvent()},
		propEvents: map[string]*provider.Event{
			"ev-1": {
				ID:           "ev-1",
				CommenceTime: "2026-09-13T17:00:00Z",
				HomeTeam:     "Kansas City Chiefs",
				AwayTeam:     "Buffalo Bills",
				Bookmakers: []provider.Bookmaker{
					{
						Key: "draftkings",
						Markets: []provider.Market{
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
			},
		},
	}
	e, _ := newTestEvaluator(t, source)

	results, err := e.EvaluateSport(context.Background(), "NFL", ScopeProps)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, models.MarketKindProp, r.Market.Kind)
		assert.Equal(t, "Patrick Mahomes", r.Market.Entity)
		require.NotNil(t, r.ModelMean)
		// Prop sigma scales with the line: max(3, 285.5*0.25).
		assert.InDelta(t, 285.5, *r.ModelMean, 2.0)
	}
	assert.Equal(t, 1, source.propCalls)
}

func TestEvaluateSportUnknownSport(t *testing.T) {
	e, _ := newTestEvaluator(t, &stubSource{})

	_, err := e.EvaluateSport(context.Background(), "XFL", ScopeGame)
	require.ErrorIs(t, err, models.ErrUnknownSport)
}

func TestEvaluateSportUnknownScope(t *testing.T) {
	e, _ := newTestEvaluator(t, &stubSource{})

	_, err := e.EvaluateSport(context.Background(), "NFL", "live")
	require.ErrorIs(t, err, models.ErrUnknownScope)
}

func TestEvaluateSportEmptyBoard(t *testing.T) {
	e, _ := newTestEvaluator(t, &stubSource{})

	results, err := e.EvaluateSport(context.Background(), "NFL", ScopeGame)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEvaluateSportCancelledContext(t *testing.T) {
	source := &stubSource{gameEvents: []provider.Event{gameEvent()}}
	e, _ := newTestEvaluator(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.EvaluateSport(ctx, "NFL", ScopeGame)
	require.Error(t, err)
}

func TestRankForSubscriber(t *testing.T) {
	e, _ := newTestEvaluator(t, &stubSource{})

	board := []models.EvaluatedMarket{
		{Market: models.Market{ID: "top"}, Tier: models.TierTop, TierWeight: 3, ExpectedValue: 0.12, Visible: true},
		{Market: models.Market{ID: "mid"}, Tier: models.TierMid, TierWeight: 2, ExpectedValue: 0.06, Visible: true},
		{Market: models.Market{ID: "base-hi"}, Tier: models.TierBase, TierWeight: 1, ExpectedValue: 0.02, Visible: true},
		{Market: models.Market{ID: "base-lo"}, Tier: models.TierBase, TierWeight: 1, ExpectedValue: -0.01, Visible: true},
	}

	// Free tier: base plays lead, locked plays flagged but kept.
	free := e.RankForSubscriber(board, 0)
	require.Len(t, free, 4)
	assert.Equal(t, "base-hi", free[0].Market.ID)
	assert.True(t, free[0].Visible)
	assert.Equal(t, "base-lo", free[1].Market.ID)
	assert.Equal(t, "top", free[2].Market.ID)
	assert.False(t, free[2].Visible)
	assert.False(t, free[3].Visible)

	// Full access keeps the weight-then-EV order.
	full := e.RankForSubscriber(board, 3)
	assert.Equal(t, "top", full[0].Market.ID)
	assert.Equal(t, "mid", full[1].Market.ID)
	assert.Equal(t, "base-hi", full[2].Market.ID)

	// The input board is never mutated.
	assert.True(t, board[0].Visible)
	assert.Equal(t, "top", board[0].Market.ID)
}

func TestScoreTierAssignment(t *testing.T) {
	e, _ := newTestEvaluator(t, &stubSource{})
	sim := simulate.NewSimulator(testConfig().Engine.Simulation, rand.New(rand.NewSource(9)))

	line := 240.5
	m := models.Market{
		ID:          "m",
		Sport:       "NFL",
		Kind:        models.MarketKindProp,
		MarketKey:   "player_pass_yds",
		Entity:      "QB",
		Side:        models.SideOver,
		Line:        &line,
		Bookmaker:   "draftkings",
		DecimalOdds: 2.50,
	}

	scored := e.score(sim, m, time.Now())

	// Simulation centers on the line, so cover sits near 0.5 while the
	// generous 2.50 price pushes EV well past the top rung.
	assert.InDelta(t, 0.5, scored.CoverProbability, 0.02)
	assert.Greater(t, scored.ExpectedValue, 0.10)
	assert.Equal(t, models.TierBase, scored.Tier, "cover below 0.60 keeps it out of the upper rungs")
}
