// Command engine wires configuration, persistence, market data, and the
// trading engine facade together, following
// pi5-trading-system/cmd/api/main.go's load-config/construct/start/
// graceful-shutdown shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/circuitbreaker"
	"github.com/pi5trading/tradecore/internal/config"
	"github.com/pi5trading/tradecore/internal/core/marketdata"
	"github.com/pi5trading/tradecore/internal/core/risk"
	"github.com/pi5trading/tradecore/internal/core/store"
	"github.com/pi5trading/tradecore/internal/core/tradingengine"
	"github.com/pi5trading/tradecore/internal/core/types"
	"github.com/pi5trading/tradecore/internal/marketdata/wsfeed"
	"github.com/pi5trading/tradecore/internal/observability"
	storepg "github.com/pi5trading/tradecore/internal/store/postgres"
)

func main() {
	var exitCode int
	defer func() { os.Exit(exitCode) }()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = 1
	}
}

func run() error {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("tradecore engine starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	breakers := circuitbreaker.NewManager(logger)

	var st store.Store = store.Noop{}
	if cfg.Persistence.Enabled {
		pgStore, err := storepg.New(ctx, cfg.Database, breakers, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		st = pgStore
		logger.Info().Msg("postgres store connected")
	} else {
		logger.Info().Msg("persistence disabled, running with noop store")
	}

	limits := limitsFromConfig(cfg.Risk)

	engineCfg := tradingengine.DefaultConfig()
	engineCfg.QueueCapacity = cfg.Queue.Capacity
	engineCfg.OrderIDPrefix = cfg.ID.OrderPrefix
	engineCfg.TradeIDPrefix = cfg.ID.TradePrefix
	engineCfg.MarketDataStaleThreshold = time.Duration(cfg.MarketData.StaleThresholdMS) * time.Millisecond

	eng := tradingengine.New(engineCfg, logger, limits, st)

	var feed marketdata.Feed
	if cfg.MarketData.WSFeed.URL != "" {
		wsFeed := wsfeed.New(cfg.MarketData.WSFeed, breakers, logger)
		wsFeed.OnTick(func(t types.Tick) {
			if err := eng.PushTick(t); err != nil {
				logger.Warn().Err(err).Str("symbol", string(t.Symbol)).Msg("dropped market tick")
			}
		})
		if err := wsFeed.Connect(); err != nil {
			logger.Error().Err(err).Msg("failed to connect market data feed, continuing without live ticks")
		} else {
			feed = wsFeed
		}
	}

	eng.Start(ctx)
	logger.Info().Msg("trading engine started")

	obsAddr := fmt.Sprintf("%s:%d", cfg.Observability.Host, cfg.Observability.Port)
	obsServer := observability.NewServer(obsAddr, st, logger)
	serverErrChan := make(chan error, 1)
	go func() {
		if err := obsServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serverErrChan:
		logger.Error().Err(err).Msg("observability server failed")
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if feed != nil {
		if err := feed.Disconnect(); err != nil {
			logger.Error().Err(err).Msg("error disconnecting market data feed")
		}
	}

	eng.Stop()

	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error shutting down observability server")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// limitsFromConfig converts the flat config.RiskConfig surface into the
// engine's global Limits, leaving per-symbol overrides to SetLimits
// calls made after startup.
func limitsFromConfig(rc config.RiskConfig) risk.Limits {
	limits := risk.DefaultLimits()
	limits.Global[types.LimitMaxOrderSize] = types.RiskLimit{
		Kind: types.LimitMaxOrderSize, Cap: decimal.NewFromFloat(rc.MaxOrderSize), Active: true,
	}
	limits.Global[types.LimitMaxPosition] = types.RiskLimit{
		Kind: types.LimitMaxPosition, Cap: decimal.NewFromFloat(rc.MaxPositionSize), Active: true,
	}
	limits.Global[types.LimitMaxDailyLoss] = types.RiskLimit{
		Kind: types.LimitMaxDailyLoss, Cap: decimal.NewFromFloat(rc.MaxDailyLoss), Active: true,
	}
	limits.PortfolioNotionalCap = decimal.NewFromFloat(rc.PortfolioNotionalCap)
	limits.OrderLossEstimateFraction = decimal.NewFromFloat(rc.OrderLossEstimateFraction)
	limits.TradingEnabled = rc.TradingEnabled
	return limits
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: cfg.TimeFormat}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
