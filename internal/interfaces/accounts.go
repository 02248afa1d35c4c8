package interfaces

import (
	"context"

	"momentum-trading-bot/internal/types"
)

// AccountManager exposes session holdings derived from executions.
type AccountManager interface {
	// ListPositions returns current session positions with unrealized PnL.
	ListPositions(ctx context.Context) ([]types.Position, error)
}
