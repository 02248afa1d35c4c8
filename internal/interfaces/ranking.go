package interfaces

import (
	"context"

	"momentum-trading-bot/internal/types"
)

// RankingProvider returns market movers ordered by change percent.
type RankingProvider interface {
	// ChangePercentRank returns up to count entries, best movers first.
	// count must be within [0, 200].
	ChangePercentRank(ctx context.Context, count int) ([]types.RankEntry, error)
}
