package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gemscan/internal/domain"
)

// PriceTick is one live price update for a tracked token.
type PriceTick struct {
	TokenID     string
	PriceUSD    float64
	VolumeUSD   float64
	TimestampMs int64
}

// StreamConfig configures price stream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default price stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// PriceStream maintains a WebSocket connection to a price feed and
// fans ticks out to per-token subscribers. It reconnects with
// exponential backoff and resubscribes on reconnect.
type PriceStream struct {
	endpoint string
	config   StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// subs maps token ID to tick channel.
	subs   map[string]chan PriceTick
	subsMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewPriceStream dials the price feed and starts the read and ping loops.
func NewPriceStream(ctx context.Context, endpoint string, config *StreamConfig) (*PriceStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &PriceStream{
		endpoint: endpoint,
		config:   cfg,
		subs:     make(map[string]chan PriceTick),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// connect establishes the WebSocket connection.
func (s *PriceStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// Subscribe registers interest in ticks for one token and returns the
// tick channel. The channel is closed when the stream closes.
func (s *PriceStream) Subscribe(tokenID string) (<-chan PriceTick, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("stream closed")
	}
	if tokenID == "" {
		return nil, fmt.Errorf("%w: empty token id", domain.ErrInvalidTokenConfig)
	}

	s.subsMu.Lock()
	ch, ok := s.subs[tokenID]
	if !ok {
		// Buffer absorbs bursts while the consumer catches up.
		ch = make(chan PriceTick, 1024)
		s.subs[tokenID] = ch
	}
	s.subsMu.Unlock()

	if !ok {
		if err := s.sendSubscribe(tokenID); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

// sendSubscribe writes a subscribe frame for one token.
func (s *PriceStream) sendSubscribe(tokenID string) error {
	req := streamRequest{
		Op:     "subscribe",
		Tokens: []string{tokenID},
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// LatestPoint converts a tick into a chart price point.
func (t PriceTick) LatestPoint() domain.PricePoint {
	return domain.PricePoint{TimestampMs: t.TimestampMs, Value: t.PriceUSD}
}

// Close closes the connection and all subscriber channels.
func (s *PriceStream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.subsMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subsMu.Unlock()

	s.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches ticks to subscribers.
func (s *PriceStream) readLoop() {
	defer s.wg.Done()

	reconnectDelay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			// Connection error, reconnect with exponential backoff.
			if !s.reconnecting.Swap(true) {
				go s.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > s.config.MaxReconnectDelay {
				reconnectDelay = s.config.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read.
		reconnectDelay = s.config.ReconnectDelay

		s.handleMessage(message)
	}
}

// reconnect dials again after a delay and resubscribes all tokens.
func (s *PriceStream) reconnect(delay time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(delay):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error.
		return
	}

	s.resubscribeAll()
}

// resubscribeAll re-sends subscribe frames for every tracked token.
func (s *PriceStream) resubscribeAll() {
	s.subsMu.RLock()
	tokens := make([]string, 0, len(s.subs))
	for id := range s.subs {
		tokens = append(tokens, id)
	}
	s.subsMu.RUnlock()

	if len(tokens) == 0 {
		return
	}

	req := streamRequest{Op: "subscribe", Tokens: tokens}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	// Failure here is handled by the next read error.
	_ = s.conn.WriteJSON(req)
}

// handleMessage parses one frame and dispatches it.
func (s *PriceStream) handleMessage(message []byte) {
	var frame streamFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return
	}
	if frame.TokenID == "" {
		return
	}

	tick := PriceTick{
		TokenID:     frame.TokenID,
		PriceUSD:    frame.PriceUSD,
		VolumeUSD:   frame.VolumeUSD,
		TimestampMs: frame.TimestampMs,
	}

	s.subsMu.RLock()
	ch, ok := s.subs[frame.TokenID]
	s.subsMu.RUnlock()

	if ok {
		// Block until we can send so no ticks are dropped.
		select {
		case ch <- tick:
		case <-s.done:
			return
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *PriceStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader handles reconnect.
				}
			}
			s.connMu.Unlock()
		}
	}
}

// Wire types for the price feed protocol.

type streamRequest struct {
	Op     string   `json:"op"`
	Tokens []string `json:"tokens"`
}

type streamFrame struct {
	TokenID     string  `json:"token_id"`
	PriceUSD    float64 `json:"price_usd"`
	VolumeUSD   float64 `json:"volume_usd"`
	TimestampMs int64   `json:"timestamp_ms"`
}
