package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), "u1", "test payload"))
	assert.NoError(t, n.PublishEvent(context.Background(), EventQuestionCreated, map[string]string{"_id": "q1"}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:01HZY0000000000000000000AA", UserChannel("01HZY0000000000000000000AA"))
}

func TestHub_WiredToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	sub, err := hub.Subscribe("alice", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishEvent(context.Background(), EventAnswerStarred, map[string]string{"answer_id": "a1"}))

	var got []byte
	require.Eventually(t, func() bool {
		select {
		case got = <-sub.queue:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	var ev struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(got, &ev))
	assert.Equal(t, EventAnswerStarred, ev.Type)
	assert.Equal(t, "a1", ev.Payload["answer_id"])
}
