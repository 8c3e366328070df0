package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"freelance-chat/config"
	"freelance-chat/internal/transport/httpdto"
	"freelance-chat/internal/websocket"
	"freelance-chat/pkg/logger"

	"github.com/stretchr/testify/require"
)

func newTestServer(db, redis HealthCheck) *Server {
	cfg := &config.Config{AppPort: "0", AppMode: TestMode, WSPath: "/api/ws/chat"}
	s := New(cfg, logger.NewNop())
	broadcaster := websocket.NewBroadcaster(4, nil)
	broadcaster.Subscribe(10)
	s.SetupRoutes(Dependencies{
		Chat:        websocket.NewHandler(context.Background(), websocket.SessionDeps{Broadcaster: broadcaster}, websocket.HandlerOptions{}),
		Broadcaster: broadcaster,
		Database:    db,
		Redis:       redis,
	})
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPing(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"data":{"message":"pong"}}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("healthy", func(t *testing.T) {
		rec := get(t, newTestServer(ok, nil), "/health")
		require.Equal(t, http.StatusOK, rec.Code)

		var body httpdto.Response[httpdto.HealthStatus]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.True(t, body.Success)
		require.Equal(t, "healthy", body.Data.Status)
		require.Equal(t, "up", body.Data.Database)
		require.Empty(t, body.Data.Redis)
		require.Equal(t, 1, body.Data.Participants)
	})

	t.Run("database down", func(t *testing.T) {
		rec := get(t, newTestServer(down, nil), "/health")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body httpdto.Response[httpdto.HealthStatus]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.False(t, body.Success)
		require.Equal(t, "UNHEALTHY", body.Code)
		require.Equal(t, "down", body.Data.Database)
	})

	t.Run("redis down", func(t *testing.T) {
		rec := get(t, newTestServer(ok, down), "/health")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body httpdto.Response[httpdto.HealthStatus]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "down", body.Data.Redis)
	})
}

func TestChatRouteRejectsWithoutToken(t *testing.T) {
	s := New(&config.Config{AppMode: TestMode, WSPath: "/api/ws/chat"}, logger.NewNop())
	s.SetupRoutes(Dependencies{
		Chat: websocket.NewHandler(context.Background(), websocket.SessionDeps{
			Auth:        websocket.NewAuthGate(nil),
			Broadcaster: websocket.NewBroadcaster(4, nil),
		}, websocket.HandlerOptions{}),
	})

	rec := get(t, s, "/api/ws/chat")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"success":false,"error":"unauthorized","code":"UNAUTHORIZED"}`, rec.Body.String())
}
