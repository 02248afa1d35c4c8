// Package report assembles the end-of-session summary.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"momentum-trading-bot/internal/accounts"
	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/strategy"
	"momentum-trading-bot/internal/types"
)

var taipei = time.FixedZone("Asia/Taipei", 8*3600)

// Builder collects session state into a SessionReport.
type Builder struct {
	strategy *strategy.Momentum
	ledger   *ledger.Ledger
	accounts *accounts.Manager
}

func NewBuilder(s *strategy.Momentum, l *ledger.Ledger, a *accounts.Manager) *Builder {
	return &Builder{strategy: s, ledger: l, accounts: a}
}

// Build snapshots signals, orders and positions. timedOut is the number
// of monitored orders that never settled; the ledger cannot know that.
func (b *Builder) Build(ctx context.Context, subscribed, timedOut int) (types.SessionReport, error) {
	positions, err := b.accounts.ListPositions(ctx)
	if err != nil {
		return types.SessionReport{}, fmt.Errorf("report: listing positions: %w", err)
	}

	totalPnL := 0.0
	for _, p := range positions {
		totalPnL += p.UnrealizedPnL
	}

	counts := b.ledger.StatusCounts()
	orders := b.ledger.Orders()
	signals := b.strategy.Signals()

	return types.SessionReport{
		Date:               time.Now().In(taipei).Format("2006-01-02"),
		TotalSignals:       len(signals),
		TotalOrders:        len(orders),
		SubscribedStocks:   subscribed,
		FilledOrders:       counts[types.StatusFilled],
		CancelledOrders:    counts[types.StatusCancelled],
		RejectedOrders:     counts[types.StatusRejected],
		TimedOutOrders:     timedOut,
		TotalUnrealizedPnL: totalPnL,
		Signals:            signals,
		Orders:             orders,
		Positions:          positions,
	}, nil
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func reportCSVPath(date string) string {
	return filepath.Join(logDir(), "eod", date+".csv")
}

// WriteCSV persists the report's order table as CSV and returns the path.
func WriteCSV(rep types.SessionReport) (string, error) {
	outPath := reportCSVPath(rep.Date)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	headers := []string{"order_id", "symbol", "side", "price", "quantity", "status", "filled_qty", "vwap"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, o := range rep.Orders {
		rec := []string{
			o.OrderID,
			o.Symbol,
			string(o.Side),
			fmt.Sprintf("%.2f", o.Price),
			strconv.Itoa(o.Quantity),
			string(o.Status),
			strconv.Itoa(o.FilledQuantity),
		}
		vwap := ""
		for _, p := range rep.Positions {
			if p.Symbol == o.Symbol {
				vwap = fmt.Sprintf("%.4f", p.AveragePrice)
			}
		}
		rec = append(rec, vwap)
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	_ = w.Write([]string{"TOTAL", "", "", "", "", "", "", fmt.Sprintf("%.2f", rep.TotalUnrealizedPnL)})
	return outPath, w.Error()
}

// Print logs the report summary for operators.
func Print(ctx context.Context, rep types.SessionReport) {
	logger.Info(ctx, "Session report",
		"date", rep.Date,
		"signals", rep.TotalSignals,
		"orders", rep.TotalOrders,
		"subscribed", rep.SubscribedStocks,
		"filled", rep.FilledOrders,
		"cancelled", rep.CancelledOrders,
		"rejected", rep.RejectedOrders,
		"timed_out", rep.TimedOutOrders,
		"unrealized_pnl", rep.TotalUnrealizedPnL,
	)
	for _, p := range rep.Positions {
		logger.Info(ctx, "Open position",
			"symbol", p.Symbol,
			"quantity", p.Quantity,
			"avg_price", p.AveragePrice,
			"last_price", p.LastPrice,
			"unrealized_pnl", p.UnrealizedPnL,
		)
	}
}
