// Package sim implements the brokerage boundary against an in-process
// matching model, for dry runs and tests. Lifecycle and fill updates are
// published on the event bus the way a live gateway's callbacks would be.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"momentum-trading-bot/internal/events"
	"momentum-trading-bot/internal/interfaces"
	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

// Gateway simulates order handling. Each placed order is acknowledged as
// Submitted immediately, then filled asynchronously in one or two slices
// after a short latency.
type Gateway struct {
	bus *events.Bus

	mu     sync.Mutex
	nextID int
	orders map[string]types.OrderRecord

	// FillLatency delays the first simulated fill. Tests shorten it.
	FillLatency time.Duration
}

var _ interfaces.Gateway = (*Gateway)(nil)

func NewGateway(bus *events.Bus) *Gateway {
	return &Gateway{
		bus:         bus,
		orders:      make(map[string]types.OrderRecord),
		FillLatency: 500 * time.Millisecond,
	}
}

// PlaceOrder accepts the order, publishes the Submitted snapshot and
// schedules simulated fills.
func (g *Gateway) PlaceOrder(ctx context.Context, symbol string, side types.Side, price float64, quantity int) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("sim: order requires a symbol")
	}
	if quantity <= 0 {
		return "", fmt.Errorf("sim: order quantity must be > 0, got %d", quantity)
	}
	if price <= 0 {
		return "", fmt.Errorf("sim: order price must be > 0, got %.2f", price)
	}

	g.mu.Lock()
	g.nextID++
	orderID := fmt.Sprintf("SIM-%06d", g.nextID)
	rec := types.OrderRecord{
		OrderID:   orderID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Status:    types.StatusSubmitted,
		UpdatedAt: time.Now(),
	}
	g.orders[orderID] = rec
	g.mu.Unlock()

	logger.Info(ctx, "Simulated order accepted",
		"order_id", orderID,
		"symbol", symbol,
		"side", string(side),
		"price", price,
		"quantity", quantity,
	)
	g.bus.Publish(ctx, events.KindOrderStatus, rec)

	go g.fill(ctx, rec)
	return orderID, nil
}

// fill delivers the order's quantity in one or two slices then publishes
// the Filled snapshot. A cancelled order stops filling.
func (g *Gateway) fill(ctx context.Context, rec types.OrderRecord) {
	time.Sleep(g.FillLatency)

	quantities := []int{rec.Quantity}
	if rec.Quantity > 1 && rand.Intn(2) == 0 {
		first := rec.Quantity / 2
		quantities = []int{first, rec.Quantity - first}
	}

	filled := 0
	for i, qty := range quantities {
		if g.cancelled(rec.OrderID) {
			return
		}
		if i > 0 {
			time.Sleep(g.FillLatency)
		}
		filled += qty

		g.bus.Publish(ctx, events.KindFill, types.FillRecord{
			OrderID:  rec.OrderID,
			Price:    rec.Price,
			Quantity: qty,
			FilledAt: time.Now(),
		})

		status := types.StatusPartiallyFilled
		if filled == rec.Quantity {
			status = types.StatusFilled
		}
		update := rec
		update.Status = status
		update.FilledQuantity = filled
		update.UpdatedAt = time.Now()

		g.mu.Lock()
		g.orders[rec.OrderID] = update
		g.mu.Unlock()
		g.bus.Publish(ctx, events.KindOrderStatus, update)
	}
}

// CancelOrder cancels a working order. Terminal orders cannot be
// cancelled.
func (g *Gateway) CancelOrder(ctx context.Context, orderID string) error {
	g.mu.Lock()
	rec, ok := g.orders[orderID]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("sim: unknown order %q", orderID)
	}
	if rec.Status.Terminal() {
		g.mu.Unlock()
		return fmt.Errorf("sim: order %q already %s", orderID, rec.Status)
	}
	rec.Status = types.StatusCancelled
	rec.UpdatedAt = time.Now()
	g.orders[orderID] = rec
	g.mu.Unlock()

	logger.Info(ctx, "Simulated order cancelled", "order_id", orderID)
	g.bus.Publish(ctx, events.KindOrderStatus, rec)
	return nil
}

func (g *Gateway) cancelled(orderID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.orders[orderID].Status == types.StatusCancelled
}
