package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix       = "user:%s"
	PlatformStatsKey    = "stats:platform"
	OAuthStateKeyPrefix = "oauth:state:%s"
)

const (
	UserTTL          = 5 * time.Minute
	PlatformStatsTTL = time.Minute
	OAuthStateTTL    = 10 * time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func OAuthStateKey(state string) string {
	return fmt.Sprintf(OAuthStateKeyPrefix, state)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateStats(ctx context.Context) {
	Invalidate(ctx, PlatformStatsKey)
}
