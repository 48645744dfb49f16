package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"askaway/internal/notifications"
	"askaway/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveFeedHandler(t *testing.T) {
	t.Parallel()

	wsRequest := func(target, token string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
		if token != "" {
			req.URL.RawQuery = "token=" + token
		}
		return req
	}

	t.Run("requires token", func(t *testing.T) {
		t.Parallel()
		_, rdb := testutil.NewRedis(t)
		ts := newTestServer(t, rdb)

		resp, err := ts.app.Test(wsRequest("/api/ws", ""), -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unavailable without redis", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, nil)
		token := ts.signUp(t, "wsnoredis", "")

		resp, err := ts.app.Test(wsRequest("/api/ws", token), -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("plain GET needs upgrade", func(t *testing.T) {
		t.Parallel()
		_, rdb := testutil.NewRedis(t)
		ts := newTestServer(t, rdb)
		token := ts.signUp(t, "wsplain", "")

		status, _ := ts.do(t, http.MethodGet, "/api/ws", token, nil)
		assert.Equal(t, http.StatusUpgradeRequired, status)
	})
}

func TestLiveFeedDeliversQuestionEvents(t *testing.T) {
	t.Parallel()
	_, rdb := testutil.NewRedis(t)
	ts := newTestServer(t, rdb)
	token := ts.signUp(t, "wslive", "")

	conn := dialLive(t, ts.serveLive(t), token)
	require.Eventually(t, func() bool { return ts.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	q := ts.ask(t, token, "Is the feed live?", "realtime")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string `json:"type"`
		Payload struct {
			ID    string `json:"_id"`
			Title string `json:"title"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, notifications.EventQuestionCreated, event.Type)
	assert.Equal(t, q.ID, event.Payload.ID)
	assert.Equal(t, "Is the feed live?", event.Payload.Title)
}

// serveLive wires the hub to Redis and serves the app on a loopback port.
func (ts *testServer) serveLive(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, ts.hub.StartWiring(ctx, ts.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/api/ws?token="
}

func dialLive(t *testing.T, base, token string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(base+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn
}

func TestLiveFeedRejectsOverLimitWithJSONFrame(t *testing.T) {
	t.Parallel()
	_, rdb := testutil.NewRedis(t)
	ts := newTestServer(t, rdb)
	token := ts.signUp(t, "wsbusy", "")
	base := ts.serveLive(t)

	for i := 0; i < notifications.MaxConnsPerUser; i++ {
		dialLive(t, base, token)
	}
	require.Eventually(t, func() bool { return ts.hub.Count() == notifications.MaxConnsPerUser },
		2*time.Second, 10*time.Millisecond)

	extra := dialLive(t, base, token)
	require.NoError(t, extra.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := extra.ReadMessage()
	require.NoError(t, err)

	var frame map[string]string
	require.NoError(t, json.Unmarshal(data, &frame), string(data))
	assert.Equal(t, notifications.ErrUserFull.Error(), frame["error"])
}
