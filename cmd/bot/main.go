package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/report"
	"momentum-trading-bot/internal/trace"
	"momentum-trading-bot/internal/types"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())
	defer logger.Sync()
	defer trace.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx, cfg)

	sys, err := buildSystem(ctx, cfg)
	must(err)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	must(sys.orch.Start(ctx))
	logger.Info(ctx, "Bot started", "mode", cfg.Mode, "ranking_source", cfg.Ranking.Source)

	<-sigc
	logger.Info(ctx, "Shutting down")
	cancel()
	sys.orch.Stop()

	rep, err := sys.builder.Build(context.Background(), sys.orch.SubscribedCount(),
		sys.orch.OutcomeCount(types.OutcomeTimedOut))
	if err != nil {
		logger.ErrorWithErr(context.Background(), "Failed to build session report", err)
		return
	}
	report.Print(context.Background(), rep)
	if path, err := report.WriteCSV(rep); err == nil {
		logger.Info(context.Background(), "Session CSV written", "path", path)
	} else {
		logger.ErrorWithErr(context.Background(), "Failed to write session CSV", err)
	}
}
