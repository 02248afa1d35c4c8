package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"momentum-trading-bot/internal/accounts"
	"momentum-trading-bot/internal/events"
	"momentum-trading-bot/internal/gateway/gatewayobs"
	"momentum-trading-bot/internal/gateway/sim"
	"momentum-trading-bot/internal/interfaces"
	"momentum-trading-bot/internal/ledger"
	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/monitor"
	"momentum-trading-bot/internal/orchestrator"
	"momentum-trading-bot/internal/quotes"
	"momentum-trading-bot/internal/ranking"
	"momentum-trading-bot/internal/report"
	"momentum-trading-bot/internal/store"
	"momentum-trading-bot/internal/strategy"
	"momentum-trading-bot/internal/trace"
	"momentum-trading-bot/internal/tradelog"
)

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files per the retention config
func compressOldLogs(ctx context.Context, cfg *store.Config) {
	retention := cfg.Log.RetentionDays
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		fmt.Sscanf(v, "%d", &retention)
	}
	if err := tradelog.CompressOlder(retention); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// system bundles the wired components for main's lifecycle handling.
type system struct {
	orch    *orchestrator.Orchestrator
	builder *report.Builder
}

// buildSystem wires the trading pipeline from config.
func buildSystem(ctx context.Context, cfg *store.Config) (*system, error) {
	bus := events.NewBus()
	cache := quotes.NewCache()
	led := ledger.New()

	strat, err := strategy.NewMomentum(cfg.Strategy.ChangePercentThreshold, cfg.Strategy.VolumeLotThreshold)
	if err != nil {
		return nil, err
	}

	gw, feed := initializeGateway(ctx, cfg, bus)
	rank := initializeRanking(ctx, cfg, cache)

	orch, err := orchestrator.New(orchestrator.Params{
		Bus:                bus,
		Cache:              cache,
		Strategy:           strat,
		Ledger:             led,
		Monitor:            monitor.New(led),
		Gateway:            gw,
		Feed:               feed,
		Ranking:            rank,
		RankCount:          cfg.Ranking.Count,
		SubscribeThreshold: cfg.Ranking.SubscribeThreshold,
		RefreshInterval:    time.Duration(cfg.Ranking.RefreshSeconds) * time.Second,
		OrderQuantity:      cfg.Order.DefaultQuantity,
		PollInterval:       time.Duration(cfg.Monitor.PollSeconds) * time.Second,
		MaxWait:            time.Duration(cfg.Monitor.MaxWaitSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &system{
		orch:    orch,
		builder: report.NewBuilder(strat, led, accounts.New(led, cache)),
	}, nil
}

// initializeGateway returns the order gateway and quote feed with
// observability. LIVE mode has no brokerage wired yet and falls back to
// the simulator with a loud warning.
func initializeGateway(ctx context.Context, cfg *store.Config, bus *events.Bus) (interfaces.Gateway, interfaces.QuoteFeed) {
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	} else {
		logger.Warn(ctx, "LIVE mode requested but no brokerage is wired - using simulator")
	}

	gw := sim.NewGateway(bus)
	feed := sim.NewFeed(bus)
	return gatewayobs.Wrap(gw), feed
}

// initializeRanking returns the configured ranking provider.
func initializeRanking(ctx context.Context, cfg *store.Config, cache *quotes.Cache) interfaces.RankingProvider {
	if cfg.Ranking.Source == "LIVE" {
		logger.Info(ctx, "Using LIVE change-percent ranking")
		return ranking.NewLiveScraper(15 * time.Second)
	}
	logger.Info(ctx, "Using STATIC universe ranking", "symbols", len(cfg.Universe))
	return ranking.NewStatic(cfg.Universe, cache)
}
