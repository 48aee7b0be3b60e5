package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("Failed to parse redis url: %v", err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisSessions(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	sessions := NewRedisSessions(client, time.Minute)

	sid, err := sessions.Create(ctx, "admin-1")
	require.NoError(t, err)

	adminID, err := sessions.Lookup(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", adminID)

	ttl, err := client.TTL(ctx, "session:"+sid).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, sessions.Delete(ctx, sid))
	_, err = sessions.Lookup(ctx, sid)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
