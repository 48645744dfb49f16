package notifications

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"askaway/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// The feed is one way; browsers only send control frames.
	maxInboundBytes = 512
	queueSize       = 256
)

// laggedNotice replaces the oldest queued event when a subscriber falls
// behind, so the page knows to refetch questions.
var laggedNotice, _ = json.Marshal(Event{
	Type:    EventFeedLagged,
	Payload: map[string]string{"reason": "buffer_full"},
})

// Subscriber is one live feed connection for a signed-in user.
type Subscriber struct {
	UserID string

	hub   *Hub
	conn  *websocket.Conn
	queue chan []byte

	mu     sync.Mutex
	closed bool
}

func newSubscriber(hub *Hub, conn *websocket.Conn, userID string) *Subscriber {
	return &Subscriber{
		UserID: userID,
		hub:    hub,
		conn:   conn,
		queue:  make(chan []byte, queueSize),
	}
}

// Run serves the connection until the browser leaves or the hub shuts down,
// then unsubscribes. It blocks.
func (s *Subscriber) Run() {
	stop := make(chan struct{})
	go s.writeLoop(stop)
	s.readLoop()
	close(stop)
	s.hub.Unsubscribe(s)
	_ = s.conn.Close()
}

// readLoop discards inbound frames; it exists to process pongs and notice
// when the peer goes away.
func (s *Subscriber) readLoop() {
	s.conn.SetReadLimit(maxInboundBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("live feed read failed", "user_id", s.UserID, "error", err)
			}
			return
		}
	}
}

func (s *Subscriber) writeLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case event := <-s.queue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, event); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

// Deliver queues an encoded event without blocking and reports whether it
// was queued. A full queue loses its oldest event to a feed_lagged notice.
func (s *Subscriber) Deliver(event []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), "closed").Inc()
		return false
	}
	select {
	case s.queue <- event:
		return true
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), "full").Inc()
	slog.Warn("live feed queue full, dropping oldest event", "user_id", s.UserID)
	select {
	case <-s.queue:
	default:
	}
	select {
	case s.queue <- laggedNotice:
	default:
	}
	return false
}

func (s *Subscriber) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
