package redis

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestProfileKey(t *testing.T) {
	require.Equal(t, "profile:login:alice", ProfileKey("alice"))
}

func TestNewCacheStore_DefaultTTL(t *testing.T) {
	store := NewCacheStore(nil, 0)
	require.Equal(t, DefaultProfileTTL, store.ttl)
}

// The remaining tests need a live server: CHAT_TEST_REDIS_ADDR=host:port.
func liveConfig(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("CHAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CHAT_TEST_REDIS_ADDR not set")
	}
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return Config{Host: host, Port: port}
}

func TestCacheStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, liveConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := NewCacheStore(client, time.Minute)
	login := "test-" + uuid.NewString()

	_, ok, err := store.GetProfileID(ctx, login)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetProfileID(ctx, login, 10))
	id, ok, err := store.GetProfileID(ctx, login)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(10), id)

	ttl, err := client.TTL(ctx, ProfileKey(login)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, time.Minute)
	require.NoError(t, client.Del(ctx, ProfileKey(login)).Err())
}

func TestPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Connect(ctx, liveConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefix := "test:" + uuid.NewString() + ":"
	ready := make(chan struct{})
	got := make(chan string, 1)
	go func() {
		_ = NewSubscriber(client).Subscribe(ctx, []string{prefix + "*"}, func() { close(ready) }, func(channel string, payload []byte) {
			got <- channel + "=" + string(payload)
		})
	}()

	select {
	case <-ready:
	case <-ctx.Done():
		t.Fatal("subscription not confirmed")
	}

	require.NoError(t, NewPublisher(client).Publish(ctx, prefix+"10", []byte("hi")))
	select {
	case msg := <-got:
		require.Equal(t, prefix+"10=hi", msg)
	case <-ctx.Done():
		t.Fatal("message not received")
	}
}
