package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"askaway/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// MaxConnsPerUser caps live feed connections for one account.
	MaxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Errors returned by Subscribe when a limit is reached.
var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub tracks live feed subscribers by user.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Subscriber]struct{}
	totalConns int
	logger     *observability.WSLogger
}

// NewHub creates a new Hub instance for the live feed.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]map[*Subscriber]struct{}),
		logger: observability.NewWSLogger("live feed"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "live feed" }

// Subscribe adds a connection for userID, enforcing the per-user and total
// connection caps.
func (h *Hub) Subscribe(userID string, conn *websocket.Conn) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	subs := h.conns[userID]
	if len(subs) >= MaxConnsPerUser {
		return nil, ErrUserFull
	}
	if subs == nil {
		subs = make(map[*Subscriber]struct{})
		h.conns[userID] = subs
	}

	sub := newSubscriber(h, conn, userID)
	subs[sub] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	h.logger.LogConnect(context.Background(), userID)
	return sub, nil
}

// Unsubscribe removes sub; repeated calls are no-ops.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	sub.markClosed()

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.conns[sub.UserID]
	if !ok {
		return
	}
	if _, exists := subs[sub]; exists {
		delete(subs, sub)
		h.totalConns--
		observability.WebSocketConnectionsTotal.Dec()
		h.logger.LogDisconnect(context.Background(), sub.UserID, "unsubscribed")
	}
	if len(subs) == 0 {
		delete(h.conns, sub.UserID)
	}
}

// Count is the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// Broadcast delivers message to every connection userID has open.
func (h *Hub) Broadcast(userID string, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for sub := range h.conns[userID] {
		sub.Deliver(data)
	}
}

// BroadcastAll delivers message to every subscriber.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, subs := range h.conns {
		for sub := range subs {
			sub.Deliver(data)
		}
	}
}

// Dispatch routes a message received on channel to the matching subscribers.
func (h *Hub) Dispatch(channel, payload string) {
	if channel == BroadcastChannel {
		h.BroadcastAll(payload)
		return
	}
	userID, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok || userID == "" {
		slog.Warn("invalid notification channel", "channel", channel)
		return
	}
	h.Broadcast(userID, payload)
}

// StartWiring subscribes the hub to the notifier's channels.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, h.Dispatch)
}

// Shutdown sends a going-away close frame to every subscriber and drops them.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, subs := range h.conns {
		for sub := range subs {
			sub.markClosed()
			if sub.conn == nil {
				continue
			}
			// WriteControl may run alongside the subscriber's write loop.
			if err := sub.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"),
				time.Now().Add(writeWait)); err != nil {
				slog.Debug("failed to write close message", "user_id", userID, "error", err)
			}
			if err := sub.conn.Close(); err != nil {
				slog.Debug("failed to close websocket", "user_id", userID, "error", err)
			}
		}
	}
	observability.WebSocketConnectionsTotal.Sub(float64(h.totalConns))
	h.conns = make(map[string]map[*Subscriber]struct{})
	h.totalConns = 0
	return nil
}
