package strategy

import (
	"context"
	"testing"
	"time"

	"momentum-trading-bot/internal/types"
)

func newTestStrategy(t *testing.T) *Momentum {
	t.Helper()
	m, err := NewMomentum(6.0, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func qualifyingQuote() types.QuoteEvent {
	// change 6% with a 6.0 threshold would not qualify (strict), so use 106.5.
	return types.QuoteEvent{
		Symbol:    "2330",
		Last:      106.5,
		Reference: 100,
		Volume:    2_000_000,
		Timestamp: time.Now(),
	}
}

func TestGeneratesBuySignal(t *testing.T) {
	m := newTestStrategy(t)
	var signals []types.Signal
	m.RegisterSignalListener(func(s types.Signal) { signals = append(signals, s) })

	if err := m.OnQuote(context.Background(), qualifyingQuote()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals))
	}
	sig := signals[0]
	if sig.Side != types.SideBuy {
		t.Errorf("expected Buy, got %s", sig.Side)
	}
	if sig.Price != 106.5 {
		t.Errorf("expected price 106.5, got %f", sig.Price)
	}
	if sig.Quantity != 1 {
		t.Errorf("expected 1 lot, got %d", sig.Quantity)
	}
	if sig.Reason == "" {
		t.Error("expected a populated reason")
	}
}

func TestAtMostOneSignalUntilReset(t *testing.T) {
	m := newTestStrategy(t)
	var count int
	m.RegisterSignalListener(func(types.Signal) { count++ })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = m.OnQuote(ctx, qualifyingQuote())
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 signal while armed, got %d", count)
	}

	m.ResetArmed("2330")
	_ = m.OnQuote(ctx, qualifyingQuote())
	if count != 2 {
		t.Fatalf("expected a second signal after reset, got %d", count)
	}
}

func TestZeroReferenceNeverSignals(t *testing.T) {
	m := newTestStrategy(t)
	var count int
	m.RegisterSignalListener(func(types.Signal) { count++ })

	q := qualifyingQuote()
	q.Reference = 0
	if err := m.OnQuote(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no signal for zero reference, got %d", count)
	}
}

func TestThresholdsAreStrict(t *testing.T) {
	m := newTestStrategy(t)
	var count int
	m.RegisterSignalListener(func(types.Signal) { count++ })
	ctx := context.Background()

	// Exactly at the change threshold: no signal.
	_ = m.OnQuote(ctx, types.QuoteEvent{Symbol: "2317", Last: 106, Reference: 100, Volume: 2_000_000})
	// Exactly at the volume threshold: no signal.
	_ = m.OnQuote(ctx, types.QuoteEvent{Symbol: "2317", Last: 107, Reference: 100, Volume: 1_000_000})
	if count != 0 {
		t.Fatalf("expected no signals at threshold boundaries, got %d", count)
	}

	_ = m.OnQuote(ctx, types.QuoteEvent{Symbol: "2317", Last: 107, Reference: 100, Volume: 1_001_000})
	if count != 1 {
		t.Fatalf("expected signal above both thresholds, got %d", count)
	}
}

func TestInvalidThresholdsRejected(t *testing.T) {
	if _, err := NewMomentum(0, 1000); err == nil {
		t.Error("expected error for zero change threshold")
	}
	if _, err := NewMomentum(6.0, -1); err == nil {
		t.Error("expected error for negative volume threshold")
	}

	m := newTestStrategy(t)
	if err := m.SetChangePercentThreshold(-2); err == nil {
		t.Error("expected error for negative runtime threshold")
	}
	if err := m.SetVolumeLotThreshold(0); err == nil {
		t.Error("expected error for zero runtime threshold")
	}
}

func TestRuntimeThresholdUpdate(t *testing.T) {
	m := newTestStrategy(t)
	var count int
	m.RegisterSignalListener(func(types.Signal) { count++ })
	ctx := context.Background()

	if err := m.SetChangePercentThreshold(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = m.OnQuote(ctx, qualifyingQuote()) // 6.5% < 10%
	if count != 0 {
		t.Fatalf("expected no signal under raised threshold, got %d", count)
	}
}

func TestSignalListenerPanicIsolated(t *testing.T) {
	m := newTestStrategy(t)
	var delivered int
	m.RegisterSignalListener(func(types.Signal) { panic("boom") })
	m.RegisterSignalListener(func(types.Signal) { delivered++ })

	_ = m.OnQuote(context.Background(), qualifyingQuote())
	if delivered != 1 {
		t.Fatalf("expected later listener still invoked, got %d", delivered)
	}
}

func TestSignalHistory(t *testing.T) {
	m := newTestStrategy(t)
	ctx := context.Background()

	_ = m.OnQuote(ctx, qualifyingQuote())
	if got := len(m.Signals()); got != 1 {
		t.Fatalf("expected 1 recorded signal, got %d", got)
	}
	if _, ok := m.LatestSignal(); !ok {
		t.Fatal("expected a latest signal")
	}
	if armed := m.ArmedSymbols(); len(armed) != 1 || armed[0] != "2330" {
		t.Fatalf("expected [2330] armed, got %v", armed)
	}

	m.ClearSignals()
	if got := len(m.Signals()); got != 0 {
		t.Fatalf("expected empty history after clear, got %d", got)
	}
	if _, ok := m.LatestSignal(); ok {
		t.Fatal("expected no latest signal after clear")
	}
}
