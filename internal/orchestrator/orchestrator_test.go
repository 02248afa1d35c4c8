package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"momentum-trading-bot/internal/events"
	"momentum-trading-bot/internal/gateway/sim"
	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/monitor"
	"momentum-trading-bot/internal/quotes"
	"momentum-trading-bot/internal/ranking"
	"momentum-trading-bot/internal/strategy"
	"momentum-trading-bot/internal/types"
)

// recordingFeed captures subscriptions; quotes are published directly on
// the bus by the test.
type recordingFeed struct {
	mu      sync.Mutex
	symbols []string
}

func (f *recordingFeed) Subscribe(ctx context.Context, symbols []string) error {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbols...)
	f.mu.Unlock()
	return nil
}

func (f *recordingFeed) subscribedSymbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

type testRig struct {
	orch     *Orchestrator
	bus      *events.Bus
	ledger   *ledger.Ledger
	strategy *strategy.Momentum
	feed     *recordingFeed
}

func newTestOrchestrator(t *testing.T) testRig {
	t.Helper()
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	bus := events.NewBus()
	cache := quotes.NewCache()
	led := ledger.New()

	strat, err := strategy.NewMomentum(6.0, 1000)
	require.NoError(t, err)

	gw := sim.NewGateway(bus)
	gw.FillLatency = 10 * time.Millisecond
	feed := &recordingFeed{}

	o, err := New(Params{
		Bus:                bus,
		Cache:              cache,
		Strategy:           strat,
		Ledger:             led,
		Monitor:            monitor.New(led),
		Gateway:            gw,
		Feed:               feed,
		Ranking:            ranking.NewStatic([]string{"2330", "2317"}, cache),
		RankCount:          10,
		SubscribeThreshold: -1, // subscribe the whole static universe
		RefreshInterval:    time.Hour,
		OrderQuantity:      1,
		PollInterval:       10 * time.Millisecond,
		MaxWait:            2 * time.Second,
	})
	require.NoError(t, err)
	return testRig{orch: o, bus: bus, ledger: led, strategy: strat, feed: feed}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestFullCycle(t *testing.T) {
	rig := newTestOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, rig.orch.Start(ctx))
	require.ElementsMatch(t, []string{"2330", "2317"}, rig.feed.subscribedSymbols())
	require.Equal(t, 2, rig.orch.SubscribedCount())

	// Qualifying quote: +6.5% on 2000 lots with thresholds 6.0 / 1000.
	rig.bus.Publish(ctx, events.KindQuote, types.QuoteEvent{
		Symbol:    "2330",
		Last:      106.5,
		Reference: 100,
		Volume:    2_000_000,
		Timestamp: time.Now(),
	})

	waitFor(t, 3*time.Second, func() bool {
		return rig.orch.OutcomeCount(types.OutcomeFilled) == 1
	}, "cycle never completed with a Filled outcome")

	orders := rig.ledger.Orders()
	require.Len(t, orders, 1)
	require.Equal(t, "2330", orders[0].Symbol)
	require.Equal(t, types.StatusFilled, orders[0].Status)
	require.Equal(t, 1, rig.ledger.TotalFilledQuantity(orders[0].OrderID))

	rig.orch.Stop()
	require.Equal(t, StateIdle, rig.orch.State())
}

func TestSymbolRearmsAfterCycle(t *testing.T) {
	rig := newTestOrchestrator(t)
	ctx := context.Background()
	require.NoError(t, rig.orch.Start(ctx))
	defer rig.orch.Stop()

	quote := types.QuoteEvent{
		Symbol: "2330", Last: 106.5, Reference: 100, Volume: 2_000_000, Timestamp: time.Now(),
	}

	rig.bus.Publish(ctx, events.KindQuote, quote)
	waitFor(t, 3*time.Second, func() bool {
		return rig.orch.OutcomeCount(types.OutcomeFilled) == 1 &&
			len(rig.strategy.ArmedSymbols()) == 0
	}, "first cycle never completed")

	// The armed flag was reset, so the same condition signals again.
	rig.bus.Publish(ctx, events.KindQuote, quote)
	waitFor(t, 3*time.Second, func() bool {
		return rig.orch.OutcomeCount(types.OutcomeFilled) == 2
	}, "second cycle never completed")

	require.Len(t, rig.ledger.Orders(), 2)
}

func TestOneOrderPerArmedSymbol(t *testing.T) {
	rig := newTestOrchestrator(t)
	ctx := context.Background()
	require.NoError(t, rig.orch.Start(ctx))
	defer rig.orch.Stop()

	// Burst of qualifying quotes before any cycle can finish.
	for i := 0; i < 5; i++ {
		rig.bus.Publish(ctx, events.KindQuote, types.QuoteEvent{
			Symbol: "2317", Last: 107, Reference: 100, Volume: 3_000_000, Timestamp: time.Now(),
		})
	}

	waitFor(t, 3*time.Second, func() bool {
		return rig.orch.OutcomeCount(types.OutcomeFilled) >= 1
	}, "cycle never completed")
	require.Len(t, rig.ledger.Orders(), 1, "burst must produce exactly one order")
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Params{})
	require.Error(t, err)
}
