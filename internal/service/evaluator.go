// Package service provides the board evaluation pipeline: fetch, normalize,
// deduplicate, simulate, score, rank and cache.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/cache"
	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/dedup"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/normalize"
	"github.com/yourusername/prop-edge/internal/odds"
	"github.com/yourusername/prop-edge/internal/provider"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/simulate"
	"github.com/yourusername/prop-edge/internal/tier"
)

// Board scopes. Game covers spreads, totals and moneylines; props covers
// player prop markets; all is the union.
const (
	ScopeGame  = "game"
	ScopeProps = "props"
	ScopeAll   = "all"
)

const (
	defaultSpreadSigma = 13.0
	defaultTotalSigma  = 12.0
)

// Evaluator orchestrates one full board evaluation per (sport, scope).
type Evaluator struct {
	cfg        *config.Config
	source     provider.OddsSource
	store      cache.Store
	classifier *tier.Classifier
	snapshots  repository.SnapshotRepository
	logger     *logrus.Logger

	// simFactory builds one simulator per worker so concurrent workers never
	// share a random source. Tests inject seeded factories.
	simFactory func() *simulate.Simulator
}

// NewEvaluator creates an evaluator. The snapshot repository may be nil,
// which disables persistence.
func NewEvaluator(
	cfg *config.Config,
	source provider.OddsSource,
	store cache.Store,
	snapshots repository.SnapshotRepository,
	logger *logrus.Logger,
) *Evaluator {
	simCfg := cfg.Engine.Simulation
	return &Evaluator{
		cfg:        cfg,
		source:     source,
		store:      store,
		classifier: tier.NewClassifier(cfg.Engine.Tiers),
		snapshots:  snapshots,
		logger:     logger,
		simFactory: func() *simulate.Simulator {
			return simulate.NewSimulator(simCfg, nil)
		},
	}
}

// SetSimulatorFactory overrides the per-worker simulator source.
func (e *Evaluator) SetSimulatorFactory(factory func() *simulate.Simulator) {
	e.simFactory = factory
}

// EvaluateSport returns the evaluated board for a sport and scope, serving
// from cache when a fresh entry exists.
func (e *Evaluator) EvaluateSport(ctx context.Context, sportLabel, scope string) ([]models.EvaluatedMarket, error) {
	scope, err := normalizeScope(scope)
	if err != nil {
		return nil, err
	}

	sportCfg, ok := e.cfg.SportByLabel(sportLabel)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSport, sportLabel)
	}

	key := cache.Key{Sport: sportCfg.Label, Scope: scope}
	if entry, hit := e.store.Get(ctx, key); hit {
		e.logger.WithFields(logrus.Fields{
			"sport": sportCfg.Label,
			"scope": scope,
		}).Debug("Serving board from cache")
		return entry.Results, nil
	}

	return e.evaluate(ctx, sportCfg, scope)
}

// Refresh re-evaluates a board unconditionally, replacing any cached entry.
// The scheduler uses this so a refresh cycle never short-circuits on its own
// previous result.
func (e *Evaluator) Refresh(ctx context.Context, sportLabel, scope string) ([]models.EvaluatedMarket, error) {
	scope, err := normalizeScope(scope)
	if err != nil {
		return nil, err
	}

	sportCfg, ok := e.cfg.SportByLabel(sportLabel)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSport, sportLabel)
	}

	return e.evaluate(ctx, sportCfg, scope)
}

func (e *Evaluator) evaluate(ctx context.Context, sportCfg *config.SportConfig, scope string) ([]models.EvaluatedMarket, error) {
	start := time.Now()

	markets, err := e.fetchMarkets(ctx, sportCfg, scope)
	if err != nil {
		return nil, err
	}

	markets = dedup.Deduplicate(markets)

	results, err := e.scoreAll(ctx, sportCfg.Label, markets)
	if err != nil {
		return nil, err
	}

	sortBoard(results)

	entry := cache.Entry{
		Results:   results,
		FetchedAt: time.Now(),
		TTL:       e.cfg.Cache.TTL(),
	}
	if err := e.store.Set(ctx, cache.Key{Sport: sportCfg.Label, Scope: scope}, entry); err != nil {
		e.logger.WithError(err).Warn("Failed to cache evaluated board")
	}

	e.persistSnapshot(ctx, sportCfg.Label, scope, results)

	metrics.RecordEvaluation(sportCfg.Label, time.Since(start).Seconds(), len(results))
	e.logger.WithFields(logrus.Fields{
		"sport":    sportCfg.Label,
		"scope":    scope,
		"markets":  len(markets),
		"duration": time.Since(start).String(),
	}).Info("Board evaluation complete")

	return results, nil
}

// fetchMarkets pulls raw payloads for the scope and normalizes them. An
// empty board is a valid result, not an error.
func (e *Evaluator) fetchMarkets(ctx context.Context, sportCfg *config.SportConfig, scope string) ([]models.Market, error) {
	normalizer := normalize.NewNormalizer(normalize.Config{
		YesNoMarkets: toSet(sportCfg.YesNoMarkets),
	}, e.logger)

	var markets []models.Market

	if scope == ScopeGame || scope == ScopeAll {
		events, err := e.source.FetchGameOdds(ctx, sportCfg.ProviderKey, sportCfg.GameMarkets)
		if err != nil {
			return nil, fmt.Errorf("fetch game odds: %w", err)
		}
		markets = append(markets, normalizer.NormalizeEvents(sportCfg.Label, sportCfg.ProviderKey, events)...)
	}

	if (scope == ScopeProps || scope == ScopeAll) && len(sportCfg.PropMarkets) > 0 {
		events, err := e.source.FetchEvents(ctx, sportCfg.ProviderKey)
		if err != nil {
			return nil, fmt.Errorf("fetch events: %w", err)
		}
		if limit := e.cfg.Provider.MaxEvents; limit > 0 && len(events) > limit {
			events = events[:limit]
		}
		for i := range events {
			event, err := e.source.FetchEventProps(ctx, sportCfg.ProviderKey, events[i].ID, sportCfg.PropMarkets)
			if err != nil {
				// One dark event should not empty the whole board.
				e.logger.WithError(err).WithField("event_id", events[i].ID).Warn("Skipping event props fetch")
				continue
			}
			markets = append(markets, normalizer.NormalizeEvent(sportCfg.Label, sportCfg.ProviderKey, event)...)
		}
	}

	return markets, nil
}

// scoreAll runs the simulation and scoring stage over a bounded worker pool.
// Each market is scored independently; order is preserved. Cancellation
// discards the partial board.
func (e *Evaluator) scoreAll(ctx context.Context, sport string, markets []models.Market) ([]models.EvaluatedMarket, error) {
	if len(markets) == 0 {
		return []models.EvaluatedMarket{}, nil
	}

	workers := e.cfg.Engine.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(markets) {
		workers = len(markets)
	}

	results := make([]models.EvaluatedMarket, len(markets))
	jobs := make(chan int)
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim := e.simFactory()
			for i := range jobs {
				results[i] = e.score(sim, markets[i], now)
			}
		}()
	}

feed:
	for i := range markets {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// score derives all scores for one market. Markets without a usable model
// take the implied-probability path: cover equals 1/odds, which pins their
// expected value at zero and keeps them in the base tier.
func (e *Evaluator) score(sim *simulate.Simulator, m models.Market, now time.Time) models.EvaluatedMarket {
	implied := odds.ImpliedProbability(m.DecimalOdds)

	var cover float64
	var modelMean *float64

	if params, ok := e.modelParams(m); ok {
		result := sim.Run(m.Kind, params)
		cover = simulate.CoverProbability(result.Samples, m.LineValue(), m.Side)
		mean := result.Mean
		modelMean = &mean
	} else {
		cover = implied
	}

	ev := odds.ExpectedValue(cover, m.DecimalOdds)
	threshold := e.classifier.Classify(ev, cover)

	return models.EvaluatedMarket{
		Market:             m,
		ImpliedProbability: implied,
		CoverProbability:   cover,
		ExpectedValue:      ev,
		ModelMean:          modelMean,
		Tier:               threshold.Tier,
		TierLabel:          threshold.Label,
		TierWeight:         threshold.Weight,
		Visible:            true,
		EvaluatedAt:        now,
	}
}

// modelParams selects the simulation parameters for a market, or reports
// that the market has no model and must take the fallback path.
func (e *Evaluator) modelParams(m models.Market) (simulate.Params, bool) {
	if !m.HasLine() {
		return simulate.Params{}, false
	}

	line := m.LineValue()
	switch m.Kind {
	case models.MarketKindSpread:
		return simulate.Params{
			Mu:    line,
			Sigma: sigmaFor(e.cfg.Engine.SpreadSigma, m.Sport, defaultSpreadSigma),
		}, true
	case models.MarketKindTotal:
		return simulate.Params{
			Mu:    line,
			Sigma: sigmaFor(e.cfg.Engine.TotalSigma, m.Sport, defaultTotalSigma),
		}, true
	case models.MarketKindProp:
		return simulate.Params{Mu: line, Sigma: e.propSigma(line)}, true
	default:
		return simulate.Params{}, false
	}
}

func (e *Evaluator) propSigma(line float64) float64 {
	floor := e.cfg.Engine.PropSigmaFloor
	if floor <= 0 {
		floor = 3.0
	}
	fraction := e.cfg.Engine.PropSigmaFraction
	if fraction <= 0 {
		fraction = 0.25
	}
	if s := line * fraction; s > floor || s < -floor {
		if s < 0 {
			return -s
		}
		return s
	}
	return floor
}

func sigmaFor(perSport map[string]float64, sport string, fallback float64) float64 {
	if s, ok := perSport[sport]; ok && s > 0 {
		return s
	}
	return fallback
}

// RankForSubscriber returns a copy of the board with visibility applied for
// the subscription level and the visible-first ordering restored. Locked
// plays are flagged and sorted last, never dropped.
func (e *Evaluator) RankForSubscriber(results []models.EvaluatedMarket, subscriptionLevel int) []models.EvaluatedMarket {
	out := make([]models.EvaluatedMarket, len(results))
	copy(out, results)
	for i := range out {
		out[i].Visible = tier.Visible(subscriptionLevel, out[i].Tier)
	}
	sortBoard(out)
	return out
}

// sortBoard orders results by visibility, then tier weight, then expected
// value, all descending. The sort is stable so equal plays keep their
// first-seen order.
func sortBoard(results []models.EvaluatedMarket) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Visible != results[j].Visible {
			return results[i].Visible
		}
		if results[i].TierWeight != results[j].TierWeight {
			return results[i].TierWeight > results[j].TierWeight
		}
		return results[i].ExpectedValue > results[j].ExpectedValue
	})
}

func (e *Evaluator) persistSnapshot(ctx context.Context, sport, scope string, results []models.EvaluatedMarket) {
	if e.snapshots == nil || len(results) == 0 {
		return
	}

	snapshot := &models.EvaluationSnapshot{
		Sport:   sport,
		Scope:   scope,
		Results: results,
	}
	if err := e.snapshots.Save(ctx, snapshot); err != nil {
		e.logger.WithError(err).Warn("Failed to persist board snapshot")
	}
}

func normalizeScope(scope string) (string, error) {
	switch scope {
	case "":
		return ScopeGame, nil
	case ScopeGame, ScopeProps, ScopeAll:
		return scope, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnknownScope, scope)
	}
}

func toSet(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
