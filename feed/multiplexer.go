// Package feed owns the streaming market-data transports and demultiplexes
// inbound envelopes to per-topic subscribers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

// ErrTransport reports a feed transport failure (dial or write). It is
// never retried here; reconnection policy belongs to the caller.
var ErrTransport = errors.New("feed transport error")

// Handler receives the raw payload of every envelope whose channel matches
// the subscribed topic. Handlers run to completion in delivery order on the
// transport's read goroutine, so they must not block.
type Handler func(data json.RawMessage)

type subscription struct {
	topic   string
	handler Handler
}

type transport struct {
	conn *websocket.Conn
	done chan struct{}
}

// Multiplexer keeps exactly one live transport per endpoint key and fans
// inbound envelopes out to every matching subscriber. Topic matching is
// prefix based: a handler on "ticker.BTC" sees "ticker.BTC-20DEC23" because
// wire channel names carry fully-qualified suffixes.
type Multiplexer struct {
	mu     sync.Mutex
	subs   []subscription // evaluated in registration order
	conns  map[string]*transport
	logger *log.Logger
}

func NewMultiplexer(logger *log.Logger) *Multiplexer {
	if logger == nil {
		logger = log.Default()
	}
	return &Multiplexer{
		conns:  make(map[string]*transport),
		logger: logger,
	}
}

// Subscribe registers a handler for one logical topic, e.g.
// "ticker.<INSTRUMENT>", "orderbook.<INSTRUMENT>", "account.<ADDRESS>",
// "index.<NAME>". Subscriptions survive disconnects: handlers stop
// receiving when a transport closes and resume after a fresh Connect.
func (m *Multiplexer) Subscribe(topic string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, subscription{topic: topic, handler: handler})
}

// Connect dials one transport for the endpoint key and begins dispatching.
// If a live transport already exists for the key it is reused - subscribing
// twice never opens a second socket. The returned channel closes when the
// transport stops delivering (clean close or error); no automatic reconnect
// happens here.
func (m *Multiplexer) Connect(ctx context.Context, endpointKey, wsURL string) (<-chan struct{}, error) {
	m.mu.Lock()
	if t, ok := m.conns[endpointKey]; ok {
		select {
		case <-t.done:
			// stale handle, fall through and redial
		default:
			m.mu.Unlock()
			return t.done, nil
		}
	}
	m.mu.Unlock()

	d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := d.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrTransport, endpointKey, err)
	}
	conn.SetPongHandler(func(string) error { return nil })

	t := &transport{conn: conn, done: make(chan struct{})}
	m.mu.Lock()
	m.conns[endpointKey] = t
	m.mu.Unlock()

	go m.readLoop(endpointKey, t)
	go m.pingLoop(ctx, t)

	m.logger.Printf("[feed %s] connected", endpointKey)
	return t.done, nil
}

// Send writes a JSON control message (e.g. an upstream subscribe request)
// on the endpoint's live transport.
func (m *Multiplexer) Send(endpointKey string, v any) error {
	m.mu.Lock()
	t, ok := m.conns[endpointKey]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s not connected", ErrTransport, endpointKey)
	}
	if err := t.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrTransport, endpointKey, err)
	}
	return nil
}

// Close shuts the endpoint's transport down cleanly. Handlers stop
// receiving once the read loop exits.
func (m *Multiplexer) Close(endpointKey string) {
	m.mu.Lock()
	t, ok := m.conns[endpointKey]
	m.mu.Unlock()
	if !ok {
		return
	}
	_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutdown"))
	_ = t.conn.Close()
	<-t.done
}

// readLoop reads envelopes until the transport dies, dispatching each one
// before reading the next - subscribers observe wire order.
func (m *Multiplexer) readLoop(endpointKey string, t *transport) {
	defer func() {
		close(t.done)
		m.mu.Lock()
		if m.conns[endpointKey] == t {
			delete(m.conns, endpointKey)
		}
		m.mu.Unlock()
	}()

	for {
		_, raw, err := t.conn.ReadMessage()
		if err != nil {
			// Normal closure also surfaces as an error; just exit.
			m.logger.Printf("[feed %s] read error: %v", endpointKey, err)
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			m.logger.Printf("[feed %s] malformed envelope: %v", endpointKey, err)
			continue
		}
		m.dispatch(env)
	}
}

func (m *Multiplexer) dispatch(env models.Envelope) {
	m.mu.Lock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	matched := 0
	for _, s := range subs {
		if strings.HasPrefix(env.Channel, s.topic) {
			s.handler(env.Data)
			matched++
		}
	}
	if matched == 0 {
		// Unmatched channels are dropped; non-fatal.
		m.logger.Printf("[feed] no subscriber for channel %q", env.Channel)
	}
}

func (m *Multiplexer) pingLoop(ctx context.Context, t *transport) {
	tick := time.NewTicker(30 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-tick.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				m.logger.Printf("[feed] ping failed: %v", err)
				return
			}
		}
	}
}
