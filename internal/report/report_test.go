package report

import (
	"context"
	"encoding/csv"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"momentum-trading-bot/internal/accounts"
	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/quotes"
	"momentum-trading-bot/internal/strategy"
	"momentum-trading-bot/internal/types"
)

func seededBuilder(t *testing.T) (*Builder, context.Context) {
	t.Helper()
	ctx := context.Background()

	strat, err := strategy.NewMomentum(6.0, 1000)
	require.NoError(t, err)
	require.NoError(t, strat.OnQuote(ctx, types.QuoteEvent{
		Symbol: "2330", Last: 107, Reference: 100, Volume: 2_000_000,
	}))

	led := ledger.New()
	led.AppendOrderStatus(ctx, types.OrderRecord{
		OrderID: "SIM-000001", Symbol: "2330", Side: types.SideBuy,
		Price: 107, Quantity: 1, Status: types.StatusFilled, FilledQuantity: 1,
	})
	led.AppendFill(ctx, types.FillRecord{OrderID: "SIM-000001", Price: 107, Quantity: 1})

	cache := quotes.NewCache()
	cache.Update(ctx, types.QuoteEvent{Symbol: "2330", Last: 110, Reference: 100})

	return NewBuilder(strat, led, accounts.New(led, cache)), ctx
}

func TestBuildSessionReport(t *testing.T) {
	b, ctx := seededBuilder(t)

	rep, err := b.Build(ctx, 5, 1)
	require.NoError(t, err)

	require.Equal(t, 1, rep.TotalSignals)
	require.Equal(t, 1, rep.TotalOrders)
	require.Equal(t, 5, rep.SubscribedStocks)
	require.Equal(t, 1, rep.FilledOrders)
	require.Equal(t, 1, rep.TimedOutOrders)
	require.Zero(t, rep.CancelledOrders)
	require.Len(t, rep.Positions, 1)
	require.InDelta(t, (110.0-107.0)*types.LotSize, rep.TotalUnrealizedPnL, 1e-6)
	require.NotEmpty(t, rep.Date)
}

func TestWriteCSV(t *testing.T) {
	b, ctx := seededBuilder(t)
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	rep, err := b.Build(ctx, 5, 0)
	require.NoError(t, err)

	path, err := WriteCSV(rep)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header, one order, total row
	require.Equal(t, "order_id", rows[0][0])
	require.Equal(t, "SIM-000001", rows[1][0])
	require.Equal(t, "TOTAL", rows[2][0])
}
