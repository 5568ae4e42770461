// Package provider implements the odds provider HTTP client and the raw
// payload types it returns. The payload shape follows the provider's
// event -> bookmakers -> markets -> outcomes nesting.
package provider

import (
	"github.com/shopspring/decimal"
)

// Event is one fixture with per-bookmaker quotes attached.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one book's markets for an event.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market is one quoted market (spreads, totals, h2h, player_*).
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is a single priced side. Point and Price are optional in the wire
// format; absence is modeled as a nil/zero value, never an error. Some books
// quote prices as JSON strings, which decimal.Decimal accepts transparently.
type Outcome struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Point       *decimal.Decimal `json:"point,omitempty"`
	Price       decimal.Decimal  `json:"price"`
}
