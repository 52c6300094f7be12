package circuitbreaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns one circuit breaker per named downstream dependency,
// adapted from pi5-trading-system-go/internal/circuitbreaker/manager.go.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	logger   zerolog.Logger
}

func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*CircuitBreaker),
		logger:   logger,
	}
}

// GetOrCreate returns the breaker named name, creating it from config
// on first use.
func (m *Manager) GetOrCreate(name string, config Config) *CircuitBreaker {
	m.mu.RLock()
	if b, ok := m.breakers[name]; ok {
		m.mu.RUnlock()
		return b
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[name]; ok {
		return b
	}

	config.Name = name
	config.Logger = m.logger
	b := New(config)
	m.breakers[name] = b

	m.logger.Info().
		Str("breaker", name).
		Int("max_failures", config.MaxFailures).
		Dur("timeout", config.Timeout).
		Msg("created circuit breaker")
	return b
}

// Get returns an existing breaker.
func (m *Manager) Get(name string) (*CircuitBreaker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.breakers[name]
	return b, ok
}

// AllMetrics returns a snapshot of every breaker's metrics.
func (m *Manager) AllMetrics() map[string]Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Metrics, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.GetMetrics()
	}
	return out
}

// DefaultDatabaseConfig returns a fail-fast config for database calls.
func DefaultDatabaseConfig() Config {
	return Config{
		MaxFailures: 3,
		Timeout:     10 * time.Second,
		MaxRequests: 2,
	}
}

// DefaultFeedConfig returns a more tolerant config for market-data
// reconnects, which are expected to blip more often than a local database.
func DefaultFeedConfig() Config {
	return Config{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		MaxRequests: 3,
	}
}
