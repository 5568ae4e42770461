// Package models defines the canonical market types shared across the engine.
package models

import (
	"fmt"
	"time"
)

// MarketKind represents the kind of market being priced
type MarketKind string

const (
	MarketKindSpread    MarketKind = "spread"
	MarketKindTotal     MarketKind = "total"
	MarketKindMoneyline MarketKind = "moneyline"
	MarketKindProp      MarketKind = "prop"
)

// Side represents the direction of a bet on a market
type Side string

const (
	SideOver  Side = "Over"
	SideUnder Side = "Under"
	SideYes   Side = "Yes"
	SideNo    Side = "No"
)

// Market is the canonical unit of evaluation: one outcome quoted by one
// bookmaker. It is immutable once normalized; derived results live on
// EvaluatedMarket and never mutate the source record.
type Market struct {
	ID           string     `db:"id" json:"id" validate:"required"`
	Sport        string     `db:"sport" json:"sport" validate:"required"`
	League       string     `db:"league" json:"league" validate:"required"`
	EventID      string     `db:"event_id" json:"event_id" validate:"required"`
	EventName    string     `db:"event_name" json:"event_name"`
	CommenceTime time.Time  `db:"commence_time" json:"commence_time"`
	HomeTeam     string     `db:"home_team" json:"home_team"`
	AwayTeam     string     `db:"away_team" json:"away_team"`
	Kind         MarketKind `db:"kind" json:"kind" validate:"required"`
	MarketKey    string     `db:"market_key" json:"market_key" validate:"required"`
	// Entity is the team name for game markets, the player name for props.
	Entity string `db:"entity" json:"entity"`
	Side   Side   `db:"side" json:"side" validate:"required"`
	// Line is nil for moneyline and other lineless markets.
	Line      *float64 `db:"line" json:"line"`
	Bookmaker string   `db:"bookmaker" json:"bookmaker" validate:"required"`
	// DecimalOdds is the canonical internal price representation.
	// Always > 1.0 for a valid market.
	DecimalOdds float64 `db:"decimal_odds" json:"decimal_odds" validate:"gt=1"`
}

// LineValue returns the line or 0 when the market has none.
func (m *Market) LineValue() float64 {
	if m.Line == nil {
		return 0
	}
	return *m.Line
}

// HasLine reports whether the market carries a numeric line.
func (m *Market) HasLine() bool {
	return m.Line != nil
}

// GroupKey returns the dedup identity for the market: same logical bet
// across bookmakers. Bookmaker and price are deliberately excluded.
func (m *Market) GroupKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", m.Sport, m.EventID, m.MarketKey, m.Entity, m.Side)
}
