package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sfms-dev/facility_bot/internal/repository/storetest"
)

// newClient connects to TEST_REDIS_ADDR and flushes the test keys.
func newClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())
	cleanup := func() {
		rdb.Del(ctx, eventsKey(storetest.Day), feedbackKey(storetest.Day), profileKey(-1001))
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		_ = rdb.Close()
	})
	return rdb
}

func TestDailyStateStore(t *testing.T) {
	storetest.RunDailyState(t, NewDailyStateStore(newClient(t), 0))
}

func TestBorrowerStore(t *testing.T) {
	storetest.RunBorrower(t, NewBorrowerStore(newClient(t)))
}
