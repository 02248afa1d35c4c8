// Package monitor polls the order ledger until an order settles.
package monitor

import (
	"context"
	"time"

	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxWait      = 300 * time.Second
)

// Monitor watches ledger state for individual orders. It holds no state
// of its own; every check reads the ledger's current view.
type Monitor struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Monitor {
	return &Monitor{ledger: l}
}

// WaitForTerminal blocks until the order reaches a terminal status or the
// wait budget runs out. Timeout is an outcome, not an error; context
// cancellation also reports TimedOut. Non-positive intervals fall back to
// the defaults.
func (m *Monitor) WaitForTerminal(ctx context.Context, orderID string, poll, maxWait time.Duration) types.Outcome {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	deadline := time.Now().Add(maxWait)

	for {
		if rec, ok := m.ledger.LatestByOrderID(orderID); ok && rec.Status.Terminal() {
			outcome := outcomeFor(rec.Status)
			logger.Info(ctx, "Order reached terminal status",
				"order_id", orderID,
				"status", string(rec.Status),
				"outcome", string(outcome),
			)
			return outcome
		}
		if time.Now().After(deadline) {
			logger.Warn(ctx, "Order monitoring timed out", "order_id", orderID, "max_wait", maxWait.String())
			return types.OutcomeTimedOut
		}
		if !sleep(ctx, poll) {
			logger.Warn(ctx, "Order monitoring cancelled", "order_id", orderID)
			return types.OutcomeTimedOut
		}
	}
}

// WaitForFills blocks until the order accumulates at least minQuantity
// filled lots, reporting false on timeout or cancellation.
func (m *Monitor) WaitForFills(ctx context.Context, orderID string, minQuantity int, poll, maxWait time.Duration) bool {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	deadline := time.Now().Add(maxWait)

	for {
		if m.ledger.TotalFilledQuantity(orderID) >= minQuantity {
			return true
		}
		if time.Now().After(deadline) {
			logger.Warn(ctx, "Fill confirmation timed out",
				"order_id", orderID,
				"filled", m.ledger.TotalFilledQuantity(orderID),
				"wanted", minQuantity,
			)
			return false
		}
		if !sleep(ctx, poll) {
			return false
		}
	}
}

// sleep waits one poll interval, reporting false when ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func outcomeFor(status types.OrderStatus) types.Outcome {
	switch status {
	case types.StatusFilled:
		return types.OutcomeFilled
	case types.StatusCancelled:
		return types.OutcomeCancelled
	case types.StatusRejected:
		return types.OutcomeRejected
	}
	return types.OutcomeTimedOut
}
