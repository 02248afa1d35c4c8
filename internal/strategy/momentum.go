// Package strategy converts quote events into trading signals.
package strategy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

// SignalListener is notified of every generated signal. Listener failures
// are isolated from the strategy and from each other.
type SignalListener func(types.Signal)

// Momentum generates at most one Buy signal per symbol while the symbol
// is armed. A symbol arms when a signal is generated and stays armed
// until ResetArmed; the strategy never auto-resets.
//
// The rule: change percent against the reference price must strictly
// exceed the change threshold AND traded volume in lots must strictly
// exceed the volume threshold.
type Momentum struct {
	mu                     sync.Mutex
	changePercentThreshold float64
	volumeLotThreshold     int64
	armed                  map[string]bool
	signals                []types.Signal
	listeners              []SignalListener
}

// NewMomentum validates the thresholds and returns a strategy instance.
func NewMomentum(changePercentThreshold float64, volumeLotThreshold int64) (*Momentum, error) {
	if changePercentThreshold <= 0 {
		return nil, fmt.Errorf("strategy: change percent threshold must be > 0, got %.2f", changePercentThreshold)
	}
	if volumeLotThreshold <= 0 {
		return nil, fmt.Errorf("strategy: volume lot threshold must be > 0, got %d", volumeLotThreshold)
	}
	return &Momentum{
		changePercentThreshold: changePercentThreshold,
		volumeLotThreshold:     volumeLotThreshold,
		armed:                  make(map[string]bool),
	}, nil
}

// SetChangePercentThreshold updates the change threshold at runtime.
func (m *Momentum) SetChangePercentThreshold(threshold float64) error {
	if threshold <= 0 {
		return fmt.Errorf("strategy: change percent threshold must be > 0, got %.2f", threshold)
	}
	m.mu.Lock()
	m.changePercentThreshold = threshold
	m.mu.Unlock()
	logger.Info(context.Background(), "Change percent threshold updated", "threshold", threshold)
	return nil
}

// SetVolumeLotThreshold updates the volume threshold at runtime.
func (m *Momentum) SetVolumeLotThreshold(threshold int64) error {
	if threshold <= 0 {
		return fmt.Errorf("strategy: volume lot threshold must be > 0, got %d", threshold)
	}
	m.mu.Lock()
	m.volumeLotThreshold = threshold
	m.mu.Unlock()
	logger.Info(context.Background(), "Volume lot threshold updated", "threshold", threshold)
	return nil
}

// Thresholds returns the current threshold settings.
func (m *Momentum) Thresholds() (changePercent float64, volumeLots int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changePercentThreshold, m.volumeLotThreshold
}

// RegisterSignalListener adds a consumer for generated signals. Signals
// are a derived event type and fan out here, not through the event bus.
func (m *Momentum) RegisterSignalListener(fn SignalListener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// OnQuote is the event-bus listener. It never returns an error for
// malformed or non-qualifying quotes; those are logged and dropped.
func (m *Momentum) OnQuote(ctx context.Context, ev any) error {
	q, ok := ev.(types.QuoteEvent)
	if !ok {
		logger.Warn(ctx, "Strategy received non-quote payload", "type", fmt.Sprintf("%T", ev))
		return nil
	}
	if q.Symbol == "" {
		logger.Warn(ctx, "Dropping quote without symbol")
		return nil
	}
	if q.Reference == 0 {
		// No reference price yet; change percent is undefined.
		logger.Debug(ctx, "Skipping quote with zero reference price", "symbol", q.Symbol)
		return nil
	}

	changePercent := (q.Last - q.Reference) / q.Reference * 100
	volumeLots := q.VolumeLots()

	sig, listeners, generated := m.evaluate(q, changePercent, volumeLots)
	if !generated {
		logger.Debug(ctx, "Quote did not qualify",
			"symbol", q.Symbol,
			"change_percent", changePercent,
			"volume_lots", volumeLots,
		)
		return nil
	}

	logger.Info(ctx, "Trading signal generated",
		"symbol", sig.Symbol,
		"side", string(sig.Side),
		"price", sig.Price,
		"quantity", sig.Quantity,
		"reason", sig.Reason,
	)
	for _, fn := range listeners {
		m.notify(ctx, fn, sig)
	}
	return nil
}

// evaluate applies the threshold rule and arms the symbol under the lock.
// Listeners are invoked by the caller outside the lock.
func (m *Momentum) evaluate(q types.QuoteEvent, changePercent float64, volumeLots int64) (types.Signal, []SignalListener, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.armed[q.Symbol] {
		return types.Signal{}, nil, false
	}
	if changePercent <= m.changePercentThreshold || volumeLots <= m.volumeLotThreshold {
		return types.Signal{}, nil, false
	}

	sig := types.Signal{
		Symbol:   q.Symbol,
		Side:     types.SideBuy,
		Price:    q.Last,
		Quantity: 1,
		Reason: fmt.Sprintf("change %.2f%% > %.2f%%, volume %d lots > %d lots",
			changePercent, m.changePercentThreshold, volumeLots, m.volumeLotThreshold),
		GeneratedAt: time.Now(),
	}
	m.signals = append(m.signals, sig)
	m.armed[q.Symbol] = true

	listeners := make([]SignalListener, len(m.listeners))
	copy(listeners, m.listeners)
	return sig, listeners, true
}

func (m *Momentum) notify(ctx context.Context, fn SignalListener, sig types.Signal) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Signal listener panicked",
				"symbol", sig.Symbol,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	fn(sig)
}

// ResetArmed clears the armed flag so the symbol may signal again.
func (m *Momentum) ResetArmed(symbol string) {
	m.mu.Lock()
	delete(m.armed, symbol)
	m.mu.Unlock()
	logger.Debug(context.Background(), "Armed state reset", "symbol", symbol)
}

// ArmedSymbols returns the symbols currently holding a live signal.
func (m *Momentum) ArmedSymbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.armed))
	for sym := range m.armed {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Signals returns a copy of every signal generated this session.
func (m *Momentum) Signals() []types.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Signal, len(m.signals))
	copy(out, m.signals)
	return out
}

// LatestSignal returns the most recently generated signal.
func (m *Momentum) LatestSignal() (types.Signal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.signals) == 0 {
		return types.Signal{}, false
	}
	return m.signals[len(m.signals)-1], true
}

// ClearSignals drops the signal history and disarms every symbol.
func (m *Momentum) ClearSignals() {
	m.mu.Lock()
	m.signals = nil
	m.armed = make(map[string]bool)
	m.mu.Unlock()
}
