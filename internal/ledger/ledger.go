// Package ledger keeps the session's append-only order lifecycle log.
//
// Order-status records and fill records are appended as they arrive and
// never mutated. "Latest by order id" follows arrival order, not the
// timestamp carried in the record, so out-of-order delivery degrades
// gracefully instead of corrupting state.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

// Ledger is safe for concurrent appends from event delivery and reads
// from monitors and reporting. Reads copy under a shared lock so a slow
// consumer never blocks ingestion.
type Ledger struct {
	mu     sync.RWMutex
	orders []types.OrderRecord
	fills  []types.FillRecord
}

func New() *Ledger {
	return &Ledger{}
}

// AppendOrderStatus appends one lifecycle snapshot. Records without an
// order id are logged and dropped.
func (l *Ledger) AppendOrderStatus(ctx context.Context, rec types.OrderRecord) {
	if rec.OrderID == "" {
		logger.Warn(ctx, "Dropping order record without order id", "symbol", rec.Symbol, "status", string(rec.Status))
		return
	}
	l.mu.Lock()
	l.orders = append(l.orders, rec)
	l.mu.Unlock()
}

// AppendFill appends one execution record. Fills that push the total
// beyond the order's requested quantity are recorded anyway and flagged
// as a data-quality warning; the ledger observes what the gateway
// reports, it does not police it.
func (l *Ledger) AppendFill(ctx context.Context, rec types.FillRecord) {
	if rec.OrderID == "" {
		logger.Warn(ctx, "Dropping fill record without order id", "price", rec.Price, "quantity", rec.Quantity)
		return
	}
	l.mu.Lock()
	l.fills = append(l.fills, rec)
	total := l.totalFilledLocked(rec.OrderID)
	requested, haveOrder := l.requestedQuantityLocked(rec.OrderID)
	l.mu.Unlock()

	if haveOrder && total > requested {
		logger.Warn(ctx, "Fills exceed requested order quantity",
			"order_id", rec.OrderID,
			"total_filled", total,
			"requested", requested,
		)
	}
}

// HandleOrderStatus adapts the ledger to an event-bus listener.
func (l *Ledger) HandleOrderStatus(ctx context.Context, ev any) error {
	rec, ok := ev.(types.OrderRecord)
	if !ok {
		return fmt.Errorf("ledger: unexpected order-status payload %T", ev)
	}
	l.AppendOrderStatus(ctx, rec)
	return nil
}

// HandleFill adapts the ledger to an event-bus listener.
func (l *Ledger) HandleFill(ctx context.Context, ev any) error {
	rec, ok := ev.(types.FillRecord)
	if !ok {
		return fmt.Errorf("ledger: unexpected fill payload %T", ev)
	}
	l.AppendFill(ctx, rec)
	return nil
}

// LatestByOrderID returns the most recently appended record for the id.
func (l *Ledger) LatestByOrderID(orderID string) (types.OrderRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.orders) - 1; i >= 0; i-- {
		if l.orders[i].OrderID == orderID {
			return l.orders[i], true
		}
	}
	return types.OrderRecord{}, false
}

// latestPerOrderLocked collapses the log to one current record per order
// id, preserving first-appearance order.
func (l *Ledger) latestPerOrderLocked() []types.OrderRecord {
	latest := make(map[string]int, len(l.orders))
	order := make([]string, 0, len(l.orders))
	for i, rec := range l.orders {
		if _, seen := latest[rec.OrderID]; !seen {
			order = append(order, rec.OrderID)
		}
		latest[rec.OrderID] = i
	}
	out := make([]types.OrderRecord, 0, len(order))
	for _, id := range order {
		out = append(out, l.orders[latest[id]])
	}
	return out
}

// Orders returns the current view: the latest record per order id.
func (l *Ledger) Orders() []types.OrderRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latestPerOrderLocked()
}

// ByStatus returns orders whose current status equals status. Each order
// appears at most once.
func (l *Ledger) ByStatus(status types.OrderStatus) []types.OrderRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.OrderRecord
	for _, rec := range l.latestPerOrderLocked() {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

// ByStatusPrefix returns orders whose current status starts with prefix,
// e.g. "Part" for partially filled populations.
func (l *Ledger) ByStatusPrefix(prefix string) []types.OrderRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.OrderRecord
	for _, rec := range l.latestPerOrderLocked() {
		if strings.HasPrefix(string(rec.Status), prefix) {
			out = append(out, rec)
		}
	}
	return out
}

// Pending returns orders whose current status is not terminal.
func (l *Ledger) Pending() []types.OrderRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.OrderRecord
	for _, rec := range l.latestPerOrderLocked() {
		if !rec.Status.Terminal() {
			out = append(out, rec)
		}
	}
	return out
}

// StatusCounts tallies the current view by status.
func (l *Ledger) StatusCounts() map[types.OrderStatus]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := make(map[types.OrderStatus]int)
	for _, rec := range l.latestPerOrderLocked() {
		counts[rec.Status]++
	}
	return counts
}

// FillsFor returns every fill recorded for the order, in arrival order.
func (l *Ledger) FillsFor(orderID string) []types.FillRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []types.FillRecord
	for _, rec := range l.fills {
		if rec.OrderID == orderID {
			out = append(out, rec)
		}
	}
	return out
}

// TotalFilledQuantity sums fill quantities for the order.
func (l *Ledger) TotalFilledQuantity(orderID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalFilledLocked(orderID)
}

func (l *Ledger) totalFilledLocked(orderID string) int {
	total := 0
	for _, rec := range l.fills {
		if rec.OrderID == orderID {
			total += rec.Quantity
		}
	}
	return total
}

func (l *Ledger) requestedQuantityLocked(orderID string) (int, bool) {
	for i := len(l.orders) - 1; i >= 0; i-- {
		if l.orders[i].OrderID == orderID {
			return l.orders[i].Quantity, true
		}
	}
	return 0, false
}

// VolumeWeightedAveragePrice returns the fill-quantity-weighted mean fill
// price, or 0 when the order has no fills.
func (l *Ledger) VolumeWeightedAveragePrice(orderID string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var value float64
	var quantity int
	for _, rec := range l.fills {
		if rec.OrderID == orderID {
			value += rec.Price * float64(rec.Quantity)
			quantity += rec.Quantity
		}
	}
	if quantity == 0 {
		return 0
	}
	return value / float64(quantity)
}

// OrderLogLen returns the raw number of appended order records, history
// included.
func (l *Ledger) OrderLogLen() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

// FillLogLen returns the raw number of appended fill records.
func (l *Ledger) FillLogLen() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fills)
}
