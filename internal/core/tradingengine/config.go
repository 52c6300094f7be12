package tradingengine

import "time"

// Config is the subset of the configuration surface (spec.md §6) that
// the engine facade itself consumes at construction; risk and
// persistence configuration live in their own packages' config types.
type Config struct {
	QueueCapacity uint64

	OrderIDPrefix string
	TradeIDPrefix string

	MarketDataStaleThreshold time.Duration

	ShutdownDrainTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueCapacity:            1024,
		OrderIDPrefix:            "ORD",
		TradeIDPrefix:            "TRD",
		MarketDataStaleThreshold: 5 * time.Second,
		ShutdownDrainTimeout:     5 * time.Second,
	}
}
