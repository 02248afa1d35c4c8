// Package accounts derives session positions from recorded fills.
package accounts

import (
	"context"
	"sort"

	"momentum-trading-bot/internal/interfaces"
	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/quotes"
	"momentum-trading-bot/internal/types"
)

// Manager computes holdings from the ledger's fill log. Buys add to a
// position, sells reduce it; average price covers the buy side only.
// Mark price comes from the quote cache when a snapshot exists, falling
// back to the average fill price.
type Manager struct {
	ledger *ledger.Ledger
	cache  *quotes.Cache
}

var _ interfaces.AccountManager = (*Manager)(nil)

func New(l *ledger.Ledger, cache *quotes.Cache) *Manager {
	return &Manager{ledger: l, cache: cache}
}

// ListPositions returns nonzero session positions sorted by symbol.
func (m *Manager) ListPositions(ctx context.Context) ([]types.Position, error) {
	type acc struct {
		quantity int
		cost     float64
		bought   int
	}
	bySymbol := make(map[string]*acc)

	for _, rec := range m.ledger.Orders() {
		fills := m.ledger.FillsFor(rec.OrderID)
		if len(fills) == 0 {
			continue
		}
		a := bySymbol[rec.Symbol]
		if a == nil {
			a = &acc{}
			bySymbol[rec.Symbol] = a
		}
		for _, fill := range fills {
			if rec.Side == types.SideSell {
				a.quantity -= fill.Quantity
				continue
			}
			a.quantity += fill.Quantity
			a.bought += fill.Quantity
			a.cost += fill.Price * float64(fill.Quantity)
		}
	}

	positions := make([]types.Position, 0, len(bySymbol))
	for symbol, a := range bySymbol {
		if a.quantity == 0 {
			continue
		}
		avg := 0.0
		if a.bought > 0 {
			avg = a.cost / float64(a.bought)
		}
		last := avg
		if q, ok := m.cache.Latest(symbol); ok {
			last = q.Last
		}
		positions = append(positions, types.Position{
			Symbol:        symbol,
			Quantity:      a.quantity,
			AveragePrice:  avg,
			LastPrice:     last,
			UnrealizedPnL: (last - avg) * float64(a.quantity) * types.LotSize,
		})
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
	return positions, nil
}

// TotalUnrealizedPnL sums unrealized PnL across positions.
func (m *Manager) TotalUnrealizedPnL(ctx context.Context) (float64, error) {
	positions, err := m.ListPositions(ctx)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, p := range positions {
		total += p.UnrealizedPnL
	}
	return total, nil
}
