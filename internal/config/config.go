// Package config loads the engine's configuration surface via viper,
// following pi5-trading-system/internal/config/config.go's layered
// file+env pattern.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every configuration item spec.md §6 names.
type Config struct {
	Queue         QueueConfig         `mapstructure:"queue"`
	Risk          RiskConfig          `mapstructure:"risk"`
	MarketData    MarketDataConfig    `mapstructure:"market_data"`
	Matching      MatchingConfig      `mapstructure:"matching"`
	Persistence   PersistenceConfig   `mapstructure:"persistence"`
	ID            IDConfig            `mapstructure:"id"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// QueueConfig configures the SPSC event ring.
type QueueConfig struct {
	Capacity uint64 `mapstructure:"capacity"`
}

// RiskConfig seeds the initial risk.Limits the validator checks against.
type RiskConfig struct {
	MaxOrderSize              float64 `mapstructure:"max_order_size"`
	MaxPositionSize           float64 `mapstructure:"max_position_size"`
	MaxDailyLoss              float64 `mapstructure:"max_daily_loss"`
	PortfolioNotionalCap      float64 `mapstructure:"portfolio_notional_cap"`
	OrderLossEstimateFraction float64 `mapstructure:"order_loss_estimate_fraction"`
	TradingEnabled            bool    `mapstructure:"trading_enabled"`
}

// MarketDataConfig configures tick staleness and the reference feed.
type MarketDataConfig struct {
	StaleThresholdMS int          `mapstructure:"stale_threshold_ms"`
	WSFeed           WSFeedConfig `mapstructure:"ws_feed"`
}

// WSFeedConfig configures the reference gorilla/websocket market-data feed.
type WSFeedConfig struct {
	URL                  string        `mapstructure:"url"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectDelay    time.Duration `mapstructure:"max_reconnect_delay"`
}

// MatchingConfig controls order-acceptance rounding behavior.
type MatchingConfig struct {
	TickRounding string `mapstructure:"tick_rounding"` // "half_even" (only supported mode)
}

// PersistenceConfig toggles the reference postgres store.
type PersistenceConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// IDConfig seeds the monotone id generator's prefixes.
type IDConfig struct {
	OrderPrefix string `mapstructure:"order_prefix"`
	TradePrefix string `mapstructure:"trade_prefix"`
}

// DatabaseConfig holds Postgres/Timescale connection settings, mirroring
// pi5-trading-system's DatabaseConfig shape.
type DatabaseConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	Database    string        `mapstructure:"database"`
	MaxConns    int           `mapstructure:"max_conns"`
	MinConns    int           `mapstructure:"min_conns"`
	MaxConnLife time.Duration `mapstructure:"max_conn_life"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "json" or "console"
	TimeFormat string `mapstructure:"time_format"`
}

// ObservabilityConfig controls the minimal health/metrics HTTP mux.
type ObservabilityConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Load reads configuration from configPath and environment variables
// prefixed ENGINE, with dots mapped to underscores so nested keys
// override correctly (e.g. ENGINE_DATABASE_HOST overrides database.host).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("queue.capacity", 1024)

	v.SetDefault("risk.max_order_size", 10000.0)
	v.SetDefault("risk.max_position_size", 100000.0)
	v.SetDefault("risk.max_daily_loss", 50000.0)
	v.SetDefault("risk.portfolio_notional_cap", 1000000.0)
	v.SetDefault("risk.order_loss_estimate_fraction", 0.05)
	v.SetDefault("risk.trading_enabled", true)

	v.SetDefault("market_data.stale_threshold_ms", 5000)
	v.SetDefault("market_data.ws_feed.max_reconnect_attempts", 10)
	v.SetDefault("market_data.ws_feed.reconnect_delay", 2*time.Second)
	v.SetDefault("market_data.ws_feed.max_reconnect_delay", 30*time.Second)

	v.SetDefault("matching.tick_rounding", "half_even")

	v.SetDefault("persistence.enabled", false)

	v.SetDefault("id.order_prefix", "ORD")
	v.SetDefault("id.trade_prefix", "TRD")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tradecore")
	v.SetDefault("database.database", "tradecore")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_life", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("observability.host", "0.0.0.0")
	v.SetDefault("observability.port", 9090)
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}
