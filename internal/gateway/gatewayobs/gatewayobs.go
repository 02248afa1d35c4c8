package gatewayobs

import (
	"context"
	"time"

	"momentum-trading-bot/internal/interfaces"
	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/trace"
	"momentum-trading-bot/internal/types"
)

type observableGateway struct {
	gateway interfaces.Gateway
}

var _ interfaces.Gateway = (*observableGateway)(nil)

func Wrap(gw interfaces.Gateway) interfaces.Gateway {
	return &observableGateway{
		gateway: gw,
	}
}

func (og *observableGateway) PlaceOrder(ctx context.Context, symbol string, side types.Side, price float64, quantity int) (string, error) {
	ctx, span := trace.StartSpan(ctx, "gateway.PlaceOrder")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", symbol,
		"side", string(side),
		"price", price,
		"quantity", quantity,
	)

	orderID, err := og.gateway.PlaceOrder(ctx, symbol, side, price, quantity)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Order placement failed", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"order_id", orderID,
		"symbol", symbol,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return orderID, nil
}

func (og *observableGateway) CancelOrder(ctx context.Context, orderID string) error {
	ctx, span := trace.StartSpan(ctx, "gateway.CancelOrder")
	defer span.End()

	start := time.Now()

	err := og.gateway.CancelOrder(ctx, orderID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Order cancellation failed", err,
			"order_id", orderID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	logger.InfoSkip(ctx, 1, "Order cancellation requested",
		"order_id", orderID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
