// Package connection owns the single push-channel subscription. The
// invariant is one live subscription at most: teardown always precedes
// establishment, and re-syncing an unchanged identity is a no-op.
package connection

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/pkg/metrics"
	"github.com/trailwatch-io/trailwatch/pkg/log"
	"github.com/trailwatch-io/trailwatch/pkg/options"
)

// Conn is the subset of a websocket connection the manager reads from.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// DialFunc opens a websocket connection to the given URL.
type DialFunc func(ctx context.Context, urlStr string) (Conn, error)

type session struct {
	id       string
	identity model.SessionIdentity
	conn     Conn

	// stop is closed by teardown so a reader blocked on a full frame
	// queue can exit; done is closed by the reader on exit. done must
	// close before the reader takes the manager lock, or teardown
	// (which waits on done while holding it) would deadlock.
	stop chan struct{}
	done chan struct{}
}

// Manager maintains at most one live push subscription and feeds inbound
// frames to a channel the dispatcher drains.
type Manager struct {
	mu sync.Mutex

	opts   *options.PushOptions
	dial   DialFunc
	logger log.Logger
	frames chan []byte

	current *session
	closed  bool
}

// NewManager builds a manager dialing with gorilla/websocket.
func NewManager(opts *options.PushOptions, logger log.Logger) *Manager {
	dialer := &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	dial := func(ctx context.Context, urlStr string) (Conn, error) {
		conn, resp, err := dialer.DialContext(ctx, urlStr, http.Header{})
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return conn, err
	}
	return newManager(opts, dial, logger)
}

func newManager(opts *options.PushOptions, dial DialFunc, logger log.Logger) *Manager {
	return &Manager{
		opts:   opts,
		dial:   dial,
		logger: logger.WithName("connection"),
		frames: make(chan []byte, opts.QueueSize),
	}
}

// Frames is the inbound envelope stream. It closes when the manager closes.
func (m *Manager) Frames() <-chan []byte {
	return m.frames
}

// SyncSession reconciles the live subscription with the given identity.
// An incomplete identity tears down any existing subscription. A changed
// identity tears down the old one before dialing anew. An unchanged
// identity on a live session does nothing.
func (m *Manager) SyncSession(ctx context.Context, identity model.SessionIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("connection manager is closed")
	}

	if !identity.Complete() {
		m.teardownLocked()
		return nil
	}
	if m.current != nil && m.current.identity == identity {
		return nil
	}

	reconnect := m.teardownLocked()

	conn, err := m.dial(ctx, m.subscriptionURL(identity))
	if err != nil {
		return fmt.Errorf("push channel dial: %w", err)
	}

	s := &session{
		id:       uuid.NewString(),
		identity: identity,
		conn:     conn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	m.current = s
	go m.readLoop(s)

	metrics.ConnectionState.Set(1)
	if reconnect {
		metrics.ReconnectsTotal.Inc()
	}
	m.logger.Info("push subscription established", "session", s.id, "uid", identity.UID)
	return nil
}

// Close tears down the subscription and closes the frame stream after the
// reader has drained.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.teardownLocked()
	m.closed = true
	close(m.frames)
}

// teardownLocked closes the live session, if any, and waits for its reader
// to exit. Reports whether a session was torn down.
func (m *Manager) teardownLocked() bool {
	s := m.current
	if s == nil {
		return false
	}
	m.current = nil
	close(s.stop)
	s.conn.Close()
	<-s.done
	metrics.ConnectionState.Set(0)
	m.logger.Info("push subscription closed", "session", s.id)
	return true
}

func (m *Manager) readLoop(s *session) {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			close(s.done)
			m.markDead(s, err)
			return
		}
		select {
		case m.frames <- msg:
		case <-s.stop:
			close(s.done)
			return
		}
	}
}

// markDead clears the current session after a transport failure. If the
// manager already replaced or tore down this session, the read error is
// the expected close and stays quiet.
func (m *Manager) markDead(s *session, err error) {
	m.mu.Lock()
	if m.current != s {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.mu.Unlock()

	metrics.ConnectionState.Set(0)
	m.logger.Warn("push channel dropped", "session", s.id, "error", err)
}

func (m *Manager) subscriptionURL(identity model.SessionIdentity) string {
	params := url.Values{}
	params.Set("connection_type", m.opts.ConnectionType)
	params.Set("access-token", identity.Token)
	params.Set("client", identity.Client)
	params.Set("uid", identity.UID)
	return m.opts.URL + "?" + params.Encode()
}
