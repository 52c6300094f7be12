// Package wsfeed is the reference implementation of
// internal/core/marketdata.Feed over gorilla/websocket, grounded on
// pi5-trading-system's AlpacaWebSocket (connect/authenticate/subscribe,
// a background reader goroutine, and reconnect-with-backoff on read
// failure) generalized from Alpaca's bar protocol to a generic JSON
// tick message.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pi5trading/tradecore/internal/circuitbreaker"
	"github.com/pi5trading/tradecore/internal/config"
	"github.com/pi5trading/tradecore/internal/core/marketdata"
	"github.com/pi5trading/tradecore/internal/core/types"
)

// tickMessage is the wire shape the reference feed expects: a JSON
// object per line/frame carrying one tick.
type tickMessage struct {
	Symbol string          `json:"symbol"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	Last   decimal.Decimal `json:"last"`
	Volume decimal.Decimal `json:"volume"`
}

// Feed streams ticks from a single websocket endpoint and dispatches
// them to registered handlers. It satisfies core/marketdata.Feed.
type Feed struct {
	cfg     config.WSFeedConfig
	logger  zerolog.Logger
	breaker *circuitbreaker.CircuitBreaker

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	symbols   map[types.Symbol]struct{}
	latest    map[types.Symbol]types.Tick

	handlersMu sync.RWMutex
	handlers   []func(types.Tick)

	reconnectAttempt int
}

// New constructs a Feed. The caller must call Connect before Subscribe.
func New(cfg config.WSFeedConfig, breakers *circuitbreaker.Manager, logger zerolog.Logger) *Feed {
	return &Feed{
		cfg:     cfg,
		logger:  logger.With().Str("component", "wsfeed").Logger(),
		breaker: breakers.GetOrCreate("marketdata_feed", circuitbreaker.DefaultFeedConfig()),
		symbols: map[types.Symbol]struct{}{},
		latest:  map[types.Symbol]types.Tick{},
	}
}

// Connect dials the configured endpoint and starts the background reader.
func (f *Feed) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.connected {
		return fmt.Errorf("wsfeed already connected")
	}

	var conn *websocket.Conn
	err := f.breaker.Execute(func() error {
		c, _, dialErr := websocket.DefaultDialer.DialContext(context.Background(), f.cfg.URL, nil)
		if dialErr != nil {
			return dialErr
		}
		conn = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", f.cfg.URL, err)
	}

	f.conn = conn
	f.connected = true
	f.reconnectAttempt = 0

	go f.readLoop()
	f.logger.Info().Str("url", f.cfg.URL).Msg("market data feed connected")
	return nil
}

// Disconnect closes the underlying connection.
func (f *Feed) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return nil
	}
	f.connected = false
	return f.conn.Close()
}

// Subscribe adds symbols to the active subscription set and sends the
// subscribe frame if connected.
func (f *Feed) Subscribe(symbols []types.Symbol) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return fmt.Errorf("wsfeed not connected")
	}
	for _, s := range symbols {
		f.symbols[s] = struct{}{}
	}
	return f.conn.WriteJSON(map[string]any{"action": "subscribe", "symbols": symbols})
}

// Unsubscribe removes symbols from the active subscription set.
func (f *Feed) Unsubscribe(symbols []types.Symbol) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return fmt.Errorf("wsfeed not connected")
	}
	for _, s := range symbols {
		delete(f.symbols, s)
	}
	return f.conn.WriteJSON(map[string]any{"action": "unsubscribe", "symbols": symbols})
}

// GetLatestTick returns the last tick seen for symbol, if any.
func (f *Feed) GetLatestTick(symbol types.Symbol) (types.Tick, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.latest[symbol]
	return t, ok
}

// OnTick registers handler to be called for every received tick.
func (f *Feed) OnTick(handler marketdata.TickHandler) {
	f.handlersMu.Lock()
	defer f.handlersMu.Unlock()
	f.handlers = append(f.handlers, handler)
}

// IsConnected reports the current connection state.
func (f *Feed) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func (f *Feed) readLoop() {
	for {
		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			f.logger.Warn().Err(err).Msg("market data feed read failed")
			f.mu.Lock()
			f.connected = false
			f.mu.Unlock()
			f.reconnect()
			return
		}

		var msg tickMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			f.logger.Warn().Err(err).Msg("failed to decode tick message")
			continue
		}
		tick := types.Tick{
			Symbol:    types.Symbol(msg.Symbol),
			Bid:       msg.Bid,
			Ask:       msg.Ask,
			Last:      msg.Last,
			Volume:    msg.Volume,
			Timestamp: time.Now(),
		}

		f.mu.Lock()
		f.latest[tick.Symbol] = tick
		f.mu.Unlock()

		f.handlersMu.RLock()
		handlers := append([]func(types.Tick){}, f.handlers...)
		f.handlersMu.RUnlock()
		for _, h := range handlers {
			h(tick)
		}
	}
}

// reconnect retries the connection with exponential backoff, bounded
// by cfg.MaxReconnectAttempts, mirroring AlpacaWebSocket.attemptReconnect.
func (f *Feed) reconnect() {
	delay := f.cfg.ReconnectDelay
	for attempt := 1; attempt <= f.cfg.MaxReconnectAttempts; attempt++ {
		f.logger.Info().Int("attempt", attempt).Dur("delay", delay).Msg("market data feed reconnecting")
		time.Sleep(delay)

		if err := f.Connect(); err == nil {
			f.mu.Lock()
			f.resubscribeLocked()
			f.mu.Unlock()
			return
		}

		delay *= 2
		if delay > f.cfg.MaxReconnectDelay {
			delay = f.cfg.MaxReconnectDelay
		}
	}
	f.logger.Error().Msg("market data feed exhausted reconnect attempts")
}

func (f *Feed) resubscribeLocked() {
	if len(f.symbols) == 0 {
		return
	}
	symbols := make([]types.Symbol, 0, len(f.symbols))
	for s := range f.symbols {
		symbols = append(symbols, s)
	}
	if err := f.conn.WriteJSON(map[string]any{"action": "subscribe", "symbols": symbols}); err != nil {
		f.logger.Warn().Err(err).Msg("failed to resubscribe after reconnect")
	}
}
