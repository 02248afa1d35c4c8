package monitor

import (
	"context"
	"testing"
	"time"

	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/types"
)

func TestImmediateTerminal(t *testing.T) {
	l := ledger.New()
	ctx := context.Background()
	l.AppendOrderStatus(ctx, types.OrderRecord{OrderID: "A", Status: types.StatusFilled})

	m := New(l)
	if got := m.WaitForTerminal(ctx, "A", 10*time.Millisecond, time.Second); got != types.OutcomeFilled {
		t.Fatalf("expected Filled, got %s", got)
	}
}

func TestOutcomePerStatus(t *testing.T) {
	cases := []struct {
		status types.OrderStatus
		want   types.Outcome
	}{
		{types.StatusFilled, types.OutcomeFilled},
		{types.StatusCancelled, types.OutcomeCancelled},
		{types.StatusRejected, types.OutcomeRejected},
	}
	for _, tc := range cases {
		l := ledger.New()
		ctx := context.Background()
		l.AppendOrderStatus(ctx, types.OrderRecord{OrderID: "A", Status: tc.status})
		if got := New(l).WaitForTerminal(ctx, "A", 10*time.Millisecond, time.Second); got != tc.want {
			t.Errorf("status %s: expected %s, got %s", tc.status, tc.want, got)
		}
	}
}

func TestTimeoutIsOutcomeNotError(t *testing.T) {
	l := ledger.New()
	ctx := context.Background()
	l.AppendOrderStatus(ctx, types.OrderRecord{OrderID: "A", Status: types.StatusSubmitted})

	start := time.Now()
	got := New(l).WaitForTerminal(ctx, "A", 10*time.Millisecond, 50*time.Millisecond)
	elapsed := time.Since(start)

	if got != types.OutcomeTimedOut {
		t.Fatalf("expected TimedOut, got %s", got)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("returned before the wait budget elapsed: %s", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("took far longer than the wait budget: %s", elapsed)
	}
}

func TestUnknownOrderTimesOut(t *testing.T) {
	m := New(ledger.New())
	if got := m.WaitForTerminal(context.Background(), "ghost", 10*time.Millisecond, 40*time.Millisecond); got != types.OutcomeTimedOut {
		t.Fatalf("expected TimedOut for unknown order, got %s", got)
	}
}

func TestTerminalUnblocksWaiter(t *testing.T) {
	l := ledger.New()
	ctx := context.Background()
	l.AppendOrderStatus(ctx, types.OrderRecord{OrderID: "A", Status: types.StatusSubmitted})

	go func() {
		time.Sleep(30 * time.Millisecond)
		l.AppendOrderStatus(ctx, types.OrderRecord{OrderID: "A", Status: types.StatusCancelled})
	}()

	if got := New(l).WaitForTerminal(ctx, "A", 10*time.Millisecond, 5*time.Second); got != types.OutcomeCancelled {
		t.Fatalf("expected Cancelled, got %s", got)
	}
}

func TestContextCancelReportsTimedOut(t *testing.T) {
	l := ledger.New()
	l.AppendOrderStatus(context.Background(), types.OrderRecord{OrderID: "A", Status: types.StatusSubmitted})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if got := New(l).WaitForTerminal(ctx, "A", 10*time.Millisecond, 5*time.Second); got != types.OutcomeTimedOut {
		t.Fatalf("expected TimedOut on cancellation, got %s", got)
	}
}

func TestWaitForFills(t *testing.T) {
	l := ledger.New()
	ctx := context.Background()
	l.AppendOrderStatus(ctx, types.OrderRecord{OrderID: "A", Status: types.StatusSubmitted, Quantity: 2})

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.AppendFill(ctx, types.FillRecord{OrderID: "A", Price: 100, Quantity: 2})
	}()

	m := New(l)
	if !m.WaitForFills(ctx, "A", 2, 10*time.Millisecond, 5*time.Second) {
		t.Fatal("expected fills to be confirmed")
	}
	if m.WaitForFills(ctx, "A", 3, 10*time.Millisecond, 40*time.Millisecond) {
		t.Fatal("expected fill confirmation to time out")
	}
}
