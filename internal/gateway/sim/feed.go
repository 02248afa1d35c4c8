package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"momentum-trading-bot/internal/events"
	"momentum-trading-bot/internal/interfaces"
	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

// Feed synthesizes a quote stream for subscribed symbols. Each symbol
// gets a reference price and a drifting last price with an upward bias,
// so momentum conditions eventually trigger during a dry run.
type Feed struct {
	bus *events.Bus

	mu     sync.Mutex
	states map[string]*feedState

	// TickInterval spaces synthetic ticks. Tests shorten it.
	TickInterval time.Duration
}

type feedState struct {
	reference float64
	last      float64
	volume    int64
	cancel    context.CancelFunc
}

var _ interfaces.QuoteFeed = (*Feed)(nil)

func NewFeed(bus *events.Bus) *Feed {
	return &Feed{
		bus:          bus,
		states:       make(map[string]*feedState),
		TickInterval: time.Second,
	}
}

// Subscribe starts tick generation for each symbol. Already-subscribed
// symbols are skipped.
func (f *Feed) Subscribe(ctx context.Context, symbols []string) error {
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		f.mu.Lock()
		if _, ok := f.states[sym]; ok {
			f.mu.Unlock()
			continue
		}
		reference := 50 + rand.Float64()*450
		tickCtx, cancel := context.WithCancel(ctx)
		st := &feedState{
			reference: reference,
			last:      reference,
			cancel:    cancel,
		}
		f.states[sym] = st
		f.mu.Unlock()

		logger.Info(ctx, "Subscribed to simulated quotes", "symbol", sym, "reference", reference)
		go f.run(tickCtx, sym, st)
	}
	return nil
}

// Unsubscribe stops tick generation for a symbol.
func (f *Feed) Unsubscribe(symbol string) {
	f.mu.Lock()
	st, ok := f.states[symbol]
	if ok {
		delete(f.states, symbol)
	}
	f.mu.Unlock()
	if ok {
		st.cancel()
	}
}

// Subscribed returns the number of active symbol streams.
func (f *Feed) Subscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}

func (f *Feed) run(ctx context.Context, symbol string, st *feedState) {
	ticker := time.NewTicker(f.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.bus.Publish(ctx, events.KindQuote, f.tick(symbol, st))
		}
	}
}

// tick advances the symbol's price walk and accumulates volume. The walk
// drifts upward so momentum conditions eventually trigger.
func (f *Feed) tick(symbol string, st *feedState) types.QuoteEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	st.last *= 1 + (rand.Float64()-0.35)*0.01
	st.volume += int64(rand.Intn(200_000))
	return types.QuoteEvent{
		Symbol:    symbol,
		Last:      st.last,
		Reference: st.reference,
		Volume:    st.volume,
		Timestamp: time.Now(),
	}
}
