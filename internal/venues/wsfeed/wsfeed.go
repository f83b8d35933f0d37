// Package wsfeed is the shared websocket connection runner used by every
// venue adapter: dial, subscribe, read loop, keep-alive pings and
// exponential reconnect backoff, all exiting cooperatively on termination.
package wsfeed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
	"github.com/GoTickGate/tickgate/internal/pkg/metrics"
)

const readGrace = 10 * time.Second

// Tuning carries the connection parameters shared by all venues.
type Tuning struct {
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
	PingInterval  time.Duration
}

func (t Tuning) withDefaults() Tuning {
	if t.ReconnectBase <= 0 {
		t.ReconnectBase = time.Second
	}
	if t.ReconnectMax <= 0 {
		t.ReconnectMax = 30 * time.Second
	}
	if t.PingInterval <= 0 {
		t.PingInterval = 15 * time.Second
	}
	return t
}

type Config struct {
	Venue     string
	URL       string
	Subscribe func(conn *websocket.Conn) error
	Handle    func(msg []byte)
	// PingText, when set, replaces the control-frame ping with a literal
	// text message (OKX wants "ping"/"pong" text frames).
	PingText string
	Tuning   Tuning
}

// Stream implements feed.Feed on top of one websocket endpoint.
type Stream struct {
	cfg     Config
	limiter *rate.Limiter

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func New(cfg Config) *Stream {
	cfg.Tuning = cfg.Tuning.withDefaults()
	return &Stream{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.Tuning.ReconnectBase), 1),
	}
}

func (s *Stream) ID() string { return s.cfg.Venue }

// Run drives the connect/subscribe/read cycle until termination is flagged,
// ctx is cancelled, or Shutdown closes the stream.
func (s *Stream) Run(ctx context.Context, term *feed.Termination) error {
	delay := s.cfg.Tuning.ReconnectBase

	for {
		if s.done(ctx, term) {
			return nil
		}
		// The limiter bounds how fast we hammer the endpoint across
		// reconnect cycles, independent of the backoff state.
		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}

		conn, err := s.dial(ctx)
		if err != nil {
			metrics.FeedReconnects.WithLabelValues(s.cfg.Venue).Inc()
			logger.Warn("connect failed", "feed", s.cfg.Venue, "error", err, "retry_in", delay)
			if !s.sleep(ctx, term, delay) {
				return nil
			}
			delay = nextDelay(delay, s.cfg.Tuning.ReconnectMax)
			continue
		}

		connID := uuid.NewString()[:8]
		logger.Info("connected", "feed", s.cfg.Venue, "conn_id", connID)
		metrics.FeedUp.WithLabelValues(s.cfg.Venue).Set(1)
		delay = s.cfg.Tuning.ReconnectBase

		if s.cfg.Subscribe != nil {
			if err := s.cfg.Subscribe(conn); err != nil {
				logger.Error("subscribe failed", "feed", s.cfg.Venue, "error", err)
				conn.Close()
				metrics.FeedUp.WithLabelValues(s.cfg.Venue).Set(0)
				if !s.sleep(ctx, term, delay) {
					return nil
				}
				delay = nextDelay(delay, s.cfg.Tuning.ReconnectMax)
				continue
			}
		}

		s.readLoop(ctx, term, conn, connID)
		metrics.FeedUp.WithLabelValues(s.cfg.Venue).Set(0)

		if s.done(ctx, term) {
			return nil
		}
		metrics.FeedReconnects.WithLabelValues(s.cfg.Venue).Inc()
	}
}

// Shutdown closes the live connection and marks the stream closed so the
// run loop will not reconnect.
func (s *Stream) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}

func (s *Stream) done(ctx context.Context, term *feed.Termination) bool {
	if term.IsSet() || ctx.Err() != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var errStreamClosed = errors.New("stream closed")

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		// Shutdown raced the dial; drop the fresh connection.
		s.mu.Unlock()
		conn.Close()
		return nil, errStreamClosed
	}
	s.conn = conn
	s.mu.Unlock()
	return conn, nil
}

func (s *Stream) readLoop(ctx context.Context, term *feed.Termination, conn *websocket.Conn, connID string) {
	defer conn.Close()

	readTimeout := s.cfg.Tuning.PingInterval + readGrace
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	// The watcher closes the connection to unblock the read once
	// termination or cancellation arrives, and drives the keep-alive ping.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		ticker := time.NewTicker(s.cfg.Tuning.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-term.Done():
				conn.Close()
				return
			case <-watchDone:
				return
			case <-ticker.C:
				var err error
				if s.cfg.PingText != "" {
					err = conn.WriteMessage(websocket.TextMessage, []byte(s.cfg.PingText))
				} else {
					err = conn.WriteMessage(websocket.PingMessage, []byte{})
				}
				if err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !term.IsSet() && ctx.Err() == nil {
				logger.Warn("read error", "feed", s.cfg.Venue, "conn_id", connID, "error", err)
			}
			return
		}
		if s.cfg.PingText != "" && string(message) == "pong" {
			continue
		}
		if s.cfg.Handle != nil {
			s.cfg.Handle(message)
		}
	}
}

// sleep waits out a backoff delay, returning false if termination or
// cancellation arrived first.
func (s *Stream) sleep(ctx context.Context, term *feed.Termination, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-term.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextDelay(cur, max time.Duration) time.Duration {
	cur *= 2
	if cur > max {
		cur = max
	}
	return cur
}
