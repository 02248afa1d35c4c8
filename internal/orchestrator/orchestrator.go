// Package orchestrator drives the trading cycle: fetch the ranking,
// subscribe to quotes, wait for a signal, place the order and monitor it
// to completion.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"momentum-trading-bot/internal/events"
	"momentum-trading-bot/internal/interfaces"
	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/monitor"
	"momentum-trading-bot/internal/quotes"
	"momentum-trading-bot/internal/strategy"
	"momentum-trading-bot/internal/tradelog"
	"momentum-trading-bot/internal/types"
)

// CycleState tracks where the current trading cycle stands.
type CycleState string

const (
	StateIdle             CycleState = "Idle"
	StateRankingFetched   CycleState = "RankingFetched"
	StateSubscribedQuotes CycleState = "SubscribedQuotes"
	StateSignalReceived   CycleState = "SignalReceived"
	StateOrderPlaced      CycleState = "OrderPlaced"
	StateMonitoring       CycleState = "Monitoring"
)

// Params collects the orchestrator's collaborators and tuning.
type Params struct {
	Bus      *events.Bus
	Cache    *quotes.Cache
	Strategy *strategy.Momentum
	Ledger   *ledger.Ledger
	Monitor  *monitor.Monitor
	Gateway  interfaces.Gateway
	Feed     interfaces.QuoteFeed
	Ranking  interfaces.RankingProvider

	// RankCount limits the ranking request; SubscribeThreshold filters
	// which ranked symbols get quote subscriptions.
	RankCount          int
	SubscribeThreshold float64
	RefreshInterval    time.Duration

	OrderQuantity int
	PollInterval  time.Duration
	MaxWait       time.Duration
}

// Orchestrator owns the session lifecycle. One instance per session.
type Orchestrator struct {
	p Params

	mu         sync.Mutex
	state      CycleState
	subscribed map[string]bool
	outcomes   map[types.Outcome]int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(p Params) (*Orchestrator, error) {
	if p.Bus == nil || p.Cache == nil || p.Strategy == nil || p.Ledger == nil ||
		p.Monitor == nil || p.Gateway == nil || p.Feed == nil || p.Ranking == nil {
		return nil, fmt.Errorf("orchestrator: all collaborators are required")
	}
	if p.OrderQuantity <= 0 {
		p.OrderQuantity = 1
	}
	if p.RefreshInterval <= 0 {
		p.RefreshInterval = 10 * time.Minute
	}

	o := &Orchestrator{
		p:          p,
		state:      StateIdle,
		subscribed: make(map[string]bool),
		outcomes:   make(map[types.Outcome]int),
	}

	// Dispatch order matters: the cache must be current before the
	// strategy evaluates a quote, and the ledger current before anything
	// reacts to order flow.
	p.Bus.Subscribe(events.KindQuote, "quote_cache", p.Cache.HandleQuote)
	p.Bus.Subscribe(events.KindQuote, "strategy", p.Strategy.OnQuote)
	p.Bus.Subscribe(events.KindOrderStatus, "ledger", p.Ledger.HandleOrderStatus)
	p.Bus.Subscribe(events.KindFill, "ledger", p.Ledger.HandleFill)
	p.Strategy.RegisterSignalListener(o.onSignal)

	return o, nil
}

// Start fetches the initial ranking, subscribes quotes and begins the
// periodic ranking refresh.
func (o *Orchestrator) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if err := o.refresh(runCtx); err != nil {
		cancel()
		return err
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.p.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := o.refresh(runCtx); err != nil {
					logger.ErrorWithErr(runCtx, "Ranking refresh failed", err)
				}
			}
		}
	}()
	return nil
}

// Stop cancels background work and waits for in-flight cycles.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.transition(context.Background(), StateIdle)
}

// refresh pulls the ranking and subscribes symbols above the threshold.
func (o *Orchestrator) refresh(ctx context.Context) error {
	entries, err := o.p.Ranking.ChangePercentRank(ctx, o.p.RankCount)
	if err != nil {
		return fmt.Errorf("orchestrator: fetching ranking: %w", err)
	}
	o.transition(ctx, StateRankingFetched)
	logger.Info(ctx, "Ranking fetched", "entries", len(entries))

	var fresh []string
	o.mu.Lock()
	for _, e := range entries {
		if e.ChangePercent <= o.p.SubscribeThreshold {
			continue
		}
		if o.subscribed[e.Code] {
			continue
		}
		o.subscribed[e.Code] = true
		fresh = append(fresh, e.Code)
	}
	o.mu.Unlock()

	if len(fresh) > 0 {
		if err := o.p.Feed.Subscribe(ctx, fresh); err != nil {
			return fmt.Errorf("orchestrator: subscribing quotes: %w", err)
		}
		logger.Info(ctx, "Subscribed to quotes", "symbols", len(fresh))
	}
	o.transition(ctx, StateSubscribedQuotes)
	return nil
}

// onSignal runs on the quote-dispatch goroutine; the cycle itself runs
// in its own goroutine so dispatch never blocks on order monitoring.
func (o *Orchestrator) onSignal(sig types.Signal) {
	ctx := context.Background()
	o.transition(ctx, StateSignalReceived)

	if err := tradelog.AppendSignal(tradelog.SignalEntry{
		Symbol: sig.Symbol,
		Side:   string(sig.Side),
		Reason: sig.Reason,
		Price:  sig.Price,
		Qty:    sig.Quantity,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal signal", err, "symbol", sig.Symbol)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.handleSignal(ctx, sig)
	}()
}

// handleSignal runs one order cycle for a signal. The symbol is always
// disarmed at the end, win or lose, so it may signal again.
func (o *Orchestrator) handleSignal(ctx context.Context, sig types.Signal) {
	defer o.p.Strategy.ResetArmed(sig.Symbol)
	defer o.transition(ctx, StateIdle)

	quantity := sig.Quantity
	if quantity <= 0 {
		quantity = o.p.OrderQuantity
	}

	orderID, err := o.p.Gateway.PlaceOrder(ctx, sig.Symbol, sig.Side, sig.Price, quantity)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order placement failed for signal", err, "symbol", sig.Symbol)
		return
	}
	o.transition(ctx, StateOrderPlaced)

	o.transition(ctx, StateMonitoring)
	outcome := o.p.Monitor.WaitForTerminal(ctx, orderID, o.p.PollInterval, o.p.MaxWait)

	if outcome == types.OutcomeFilled {
		if !o.p.Monitor.WaitForFills(ctx, orderID, quantity, o.p.PollInterval, o.p.MaxWait) {
			logger.Warn(ctx, "Terminal Filled order missing fill records", "order_id", orderID)
		}
	}

	o.mu.Lock()
	o.outcomes[outcome]++
	o.mu.Unlock()

	if err := tradelog.Append(tradelog.Entry{
		Symbol:       sig.Symbol,
		Side:         string(sig.Side),
		OrderID:      orderID,
		Outcome:      string(outcome),
		Qty:          quantity,
		Price:        sig.Price,
		FilledQty:    o.p.Ledger.TotalFilledQuantity(orderID),
		AvgFillPrice: o.p.Ledger.VolumeWeightedAveragePrice(orderID),
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal trade", err, "order_id", orderID)
	}

	logger.Info(ctx, "Trading cycle completed",
		"symbol", sig.Symbol,
		"order_id", orderID,
		"outcome", string(outcome),
	)
}

func (o *Orchestrator) transition(ctx context.Context, next CycleState) {
	o.mu.Lock()
	prev := o.state
	o.state = next
	o.mu.Unlock()
	if prev != next {
		logger.Debug(ctx, "Cycle state changed", "from", string(prev), "to", string(next))
	}
}

// State returns the current cycle state.
func (o *Orchestrator) State() CycleState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SubscribedCount returns how many symbols hold quote subscriptions.
func (o *Orchestrator) SubscribedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subscribed)
}

// OutcomeCount returns how many monitored cycles ended with the outcome.
func (o *Orchestrator) OutcomeCount(outcome types.Outcome) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[outcome]
}
