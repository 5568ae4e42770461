// Package dedup collapses markets that represent the same logical bet across
// bookmakers down to a single best-priced representative, so downstream
// ranking is not dominated by one bet appearing once per book.
package dedup

import (
	"github.com/yourusername/prop-edge/internal/models"
)

// Deduplicate returns at most one market per identity group. The group key
// is (sport, event, market key, entity, side) and deliberately excludes
// bookmaker and price. Within a group the highest decimal odds win; on an
// exact price tie the first market seen is kept. Output order is stable by
// first appearance of each group.
func Deduplicate(markets []models.Market) []models.Market {
	if len(markets) == 0 {
		return nil
	}

	best := make(map[string]int, len(markets))
	order := make([]string, 0, len(markets))

	for i := range markets {
		key := markets[i].GroupKey()
		j, seen := best[key]
		if !seen {
			best[key] = i
			order = append(order, key)
			continue
		}
		if markets[i].DecimalOdds > markets[j].DecimalOdds {
			best[key] = i
		}
	}

	out := make([]models.Market, 0, len(order))
	for _, key := range order {
		out = append(out, markets[best[key]])
	}
	return out
}
