package interfaces

import (
	"context"

	"momentum-trading-bot/internal/types"
)

// Gateway places and cancels orders with a brokerage. Order lifecycle and
// fill updates flow back asynchronously through the event bus, never
// through return values.
type Gateway interface {
	// PlaceOrder submits a limit order. Quantity is in lots. Returns the
	// broker-assigned order id.
	PlaceOrder(ctx context.Context, symbol string, side types.Side, price float64, quantity int) (string, error)

	// CancelOrder requests cancellation of a working order.
	CancelOrder(ctx context.Context, orderID string) error
}
