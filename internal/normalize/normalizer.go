// Package normalize converts raw provider payloads into canonical Market
// records, one per priced outcome. The transform is pure: malformed input
// produces an empty slice, never an error, since upstream fetch failures are
// the provider client's concern.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/provider"
)

// Config controls market classification during normalization.
type Config struct {
	// YesNoMarkets lists market keys that are inherently binary
	// (e.g. player_anytime_td) rather than over/under.
	YesNoMarkets map[string]bool
	// AllowedMarkets restricts normalization to the listed market keys.
	// Empty means everything passes.
	AllowedMarkets map[string]bool
}

// Normalizer flattens provider events into canonical markets.
type Normalizer struct {
	cfg    Config
	logger *logrus.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(cfg Config, logger *logrus.Logger) *Normalizer {
	if cfg.YesNoMarkets == nil {
		cfg.YesNoMarkets = map[string]bool{"player_anytime_td": true}
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// NormalizeEvents flattens a batch of events.
func (n *Normalizer) NormalizeEvents(sport, league string, events []provider.Event) []models.Market {
	out := make([]models.Market, 0, len(events)*8)
	for i := range events {
		out = append(out, n.NormalizeEvent(sport, league, &events[i])...)
	}
	n.logger.WithFields(logrus.Fields{
		"sport":   sport,
		"events":  len(events),
		"markets": len(out),
	}).Debug("Normalized event batch")
	return out
}

// NormalizeEvent flattens one event's bookmakers/markets/outcomes. A nil or
// empty event yields an empty slice.
func (n *Normalizer) NormalizeEvent(sport, league string, event *provider.Event) []models.Market {
	if event == nil || event.ID == "" {
		return nil
	}

	commence := parseCommenceTime(event.CommenceTime)
	eventName := fmt.Sprintf("%s @ %s", event.AwayTeam, event.HomeTeam)

	var out []models.Market
	for _, bm := range event.Bookmakers {
		bookKey := bm.Key
		if bookKey == "" {
			bookKey = "unknown_book"
		}
		for _, market := range bm.Markets {
			if market.Key == "" {
				continue
			}
			if len(n.cfg.AllowedMarkets) > 0 && !n.cfg.AllowedMarkets[market.Key] {
				continue
			}
			kind := KindForMarketKey(market.Key)
			for _, outcome := range market.Outcomes {
				m, ok := n.normalizeOutcome(sport, league, event, eventName, commence, bookKey, market.Key, kind, outcome)
				if !ok {
					continue
				}
				metrics.RecordNormalizedMarket()
				out = append(out, m)
			}
		}
	}
	return out
}

func (n *Normalizer) normalizeOutcome(
	sport, league string,
	event *provider.Event,
	eventName string,
	commence time.Time,
	bookKey, marketKey string,
	kind models.MarketKind,
	outcome provider.Outcome,
) (models.Market, bool) {
	price, ok := decimalPrice(outcome)
	if !ok {
		metrics.RecordSkippedMarket("invalid_price")
		return models.Market{}, false
	}

	line := pointValue(outcome)
	if line == nil && requiresLine(kind, marketKey, n.cfg.YesNoMarkets) {
		metrics.RecordSkippedMarket("missing_line")
		return models.Market{}, false
	}

	var entity string
	var side models.Side
	switch kind {
	case models.MarketKindSpread, models.MarketKindMoneyline:
		// The outcome name is the team; the team itself is the side.
		entity = outcome.Name
		side = models.Side(outcome.Name)
	case models.MarketKindProp:
		entity = outcome.Description
		if entity == "" {
			entity = outcome.Name
		}
		side = ClassifySide(marketKey, outcome.Name, outcome.Description, n.cfg.YesNoMarkets)
	default: // totals
		side = ClassifySide(marketKey, outcome.Name, outcome.Description, n.cfg.YesNoMarkets)
	}

	if entity == "" && kind != models.MarketKindTotal {
		metrics.RecordSkippedMarket("missing_entity")
		return models.Market{}, false
	}

	m := models.Market{
		ID:           BuildMarketID(league, event.ID, marketKey, entity, line, side, bookKey),
		Sport:        strings.ToUpper(sport),
		League:       league,
		EventID:      event.ID,
		EventName:    eventName,
		CommenceTime: commence,
		HomeTeam:     event.HomeTeam,
		AwayTeam:     event.AwayTeam,
		Kind:         kind,
		MarketKey:    marketKey,
		Entity:       entity,
		Side:         side,
		Line:         line,
		Bookmaker:    bookKey,
		DecimalOdds:  price,
	}
	return m, true
}

// ClassifySide maps outcome text to a canonical side. Name and description
// are scanned together since feeds disagree on which field carries the
// directional token. The rules mirror the book feeds this engine was built
// against:
//   - binary markets: "no" substring wins, anything else is Yes
//   - "under" is checked before "over"
//   - no directional token at all falls back to Over
//
// The Over fallback on ambiguous text is a known source of mis-tagging and
// is kept deliberately as the documented behavior rather than guessed around.
func ClassifySide(marketKey, name, description string, yesNoMarkets map[string]bool) models.Side {
	text := strings.ToLower(name + " " + description)

	if yesNoMarkets[marketKey] {
		if strings.Contains(text, "no") {
			return models.SideNo
		}
		return models.SideYes
	}
	if strings.Contains(text, "under") {
		return models.SideUnder
	}
	if strings.Contains(text, "over") {
		return models.SideOver
	}
	return models.SideOver
}

// BuildMarketID builds the deterministic composite id for a market so that
// identical logical bets from repeated fetches produce identical ids.
func BuildMarketID(league, eventID, marketKey, entity string, line *float64, side models.Side, bookmaker string) string {
	lineValue := 0.0
	if line != nil {
		lineValue = *line
	}
	return strings.Join([]string{
		league,
		eventID,
		marketKey,
		strings.ReplaceAll(entity, "|", " "),
		fmt.Sprintf("%.3f", lineValue),
		string(side),
		bookmaker,
	}, "|")
}

// KindForMarketKey classifies a provider market key into a market kind.
// Unrecognized keys fall through to moneyline handling, which takes the
// implied-probability path downstream.
func KindForMarketKey(marketKey string) models.MarketKind {
	switch {
	case marketKey == "spreads" || strings.HasSuffix(marketKey, "_spread"):
		return models.MarketKindSpread
	case marketKey == "totals" || strings.HasSuffix(marketKey, "_total"):
		return models.MarketKindTotal
	case marketKey == "h2h" || marketKey == "h2h_lay":
		return models.MarketKindMoneyline
	case strings.HasPrefix(marketKey, "player_"),
		strings.HasPrefix(marketKey, "batter_"),
		strings.HasPrefix(marketKey, "pitcher_"):
		return models.MarketKindProp
	default:
		return models.MarketKindMoneyline
	}
}

func requiresLine(kind models.MarketKind, marketKey string, yesNo map[string]bool) bool {
	switch kind {
	case models.MarketKindSpread, models.MarketKindTotal:
		return true
	case models.MarketKindProp:
		return !yesNo[marketKey]
	default:
		return false
	}
}

// decimalPrice extracts a valid decimal price from the outcome. Prices at or
// below 1.0 pay nothing and are invalid by invariant.
func decimalPrice(outcome provider.Outcome) (float64, bool) {
	price, _ := outcome.Price.Float64()
	if price <= 1.0 {
		return 0, false
	}
	return price, true
}

func pointValue(outcome provider.Outcome) *float64 {
	if outcome.Point == nil {
		return nil
	}
	v, _ := outcome.Point.Float64()
	return &v
}

func parseCommenceTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
