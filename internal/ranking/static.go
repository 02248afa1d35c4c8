package ranking

import (
	"context"
	"fmt"
	"sort"

	"momentum-trading-bot/internal/quotes"
	"momentum-trading-bot/internal/types"
)

// Static ranks a fixed universe of symbols. Change percent and volume
// come from the quote cache when a snapshot exists, so the ranking grows
// more informative as quotes flow; symbols without quotes rank last with
// zero change.
type Static struct {
	universe []string
	cache    *quotes.Cache
}

func NewStatic(universe []string, cache *quotes.Cache) *Static {
	return &Static{universe: universe, cache: cache}
}

// ChangePercentRank returns up to count universe symbols ordered by
// cached change percent.
func (s *Static) ChangePercentRank(ctx context.Context, count int) ([]types.RankEntry, error) {
	if count < 0 || count > MaxRankCount {
		return nil, fmt.Errorf("ranking: count must be within [0, %d], got %d", MaxRankCount, count)
	}
	if count == 0 {
		return nil, nil
	}

	entries := make([]types.RankEntry, 0, len(s.universe))
	for _, sym := range s.universe {
		entry := types.RankEntry{Code: sym}
		if q, ok := s.cache.Latest(sym); ok && q.Reference != 0 {
			entry.ChangePercent = (q.Last - q.Reference) / q.Reference * 100
			entry.Volume = q.Volume
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ChangePercent > entries[j].ChangePercent
	})
	if len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}
