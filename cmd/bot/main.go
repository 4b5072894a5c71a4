package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"macross/internal/broker"
	"macross/internal/config"
	"macross/internal/engine"
	"macross/internal/market"
	"macross/internal/risk"
	"macross/internal/state"
	"macross/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.LogPath)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	runID := generateRunID()
	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, runID)
	if err != nil {
		logger.Fatal("decision logger error", zap.Error(err))
	}
	defer func() {
		if err := decisions.Close(); err != nil {
			logger.Warn("failed to close decision logger", zap.Error(err))
		}
	}()

	store := state.NewStore(cfg.CheckpointPath)
	brokerClient := broker.New(cfg.APIKey, cfg.APISecret, cfg.PaperBaseURL, logger)
	source, err := market.NewBarSource(market.BarSourceConfig{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.DataBaseURL,
		Feed:      cfg.Feed,
		Timeframe: cfg.Timeframe,
		Span:      cfg.Span,
	}, logger)
	if err != nil {
		logger.Fatal("market data error", zap.Error(err))
	}

	strat := strategy.Crossover{TradeQty: cfg.TradeQty}
	gate := risk.NewGate(logger)
	eng := engine.New(cfg, strat, gate, source, brokerClient, brokerClient, store, decisions, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("starting evaluation",
		zap.String("run_id", runID),
		zap.String("mode", string(cfg.Mode)),
		zap.String("symbol", cfg.Symbol),
		zap.Int("short_window", cfg.ShortWindow),
		zap.Int("long_window", cfg.LongWindow),
		zap.Int("trade_qty", cfg.TradeQty))

	if cfg.Mode == config.ModePaper {
		if acct, err := brokerClient.Account(ctx); err == nil {
			logger.Info("paper trading account",
				zap.String("account_number", acct.Number),
				zap.Float64("equity", acct.Equity),
				zap.Float64("buying_power", acct.BuyingPower))
		} else {
			logger.Warn("could not fetch account", zap.Error(err))
		}
	}

	if cfg.Interval > 0 {
		runLoop(ctx, eng, cfg.Interval, logger)
	} else {
		outcome, err := eng.RunCycle(ctx)
		if err != nil {
			logger.Error("evaluation cycle failed", zap.Error(err))
			_ = decisions.Close()
			_ = logger.Sync()
			os.Exit(1)
		}
		logger.Info("evaluation cycle complete", zap.String("outcome", string(outcome)))
	}

	logger.Info("shutdown complete")
}

// runLoop re-evaluates on a fixed cadence until the context is cancelled.
// Cycles run strictly one after another; a slow cycle delays the next one
// rather than overlapping it.
func runLoop(ctx context.Context, eng *engine.Engine, interval time.Duration, logger *zap.Logger) {
	for {
		outcome, err := eng.RunCycle(ctx)
		if err != nil {
			logger.Error("evaluation cycle failed", zap.Error(err))
		} else {
			logger.Info("evaluation cycle complete", zap.String("outcome", string(outcome)))
		}
		if err := broker.WaitForContext(ctx, interval); err != nil {
			return
		}
	}
}

func newLogger(logPath string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if logPath != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, logPath)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, logPath)
	}
	return cfg.Build()
}

func generateRunID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	suffix := uuid.NewString()
	return timestamp + "-" + suffix[:8]
}
