package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"freelance-chat/config"
	"freelance-chat/internal/repository"
	"freelance-chat/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "websocket-test-secret-0123456789abcdef"
	waitFor    = 2 * time.Second
)

var errTransportClosed = errors.New("transport closed")

// fakeTransport feeds frames from in and records written frames on out.
type fakeTransport struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) ReadFrame() ([]byte, error) {
	select {
	case data := <-f.in:
		return data, nil
	case <-f.closed:
		return nil, errTransportClosed
	}
}

func (f *fakeTransport) WriteFrame(payload []byte) error {
	select {
	case f.out <- payload:
		return nil
	case <-f.closed:
		return errTransportClosed
	}
}

func (f *fakeTransport) Ping() error { return nil }

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) send(t *testing.T, frame any) {
	t.Helper()
	data, ok := frame.([]byte)
	if !ok {
		var err error
		data, err = json.Marshal(frame)
		require.NoError(t, err)
	}
	f.in <- data
}

func (f *fakeTransport) next(t *testing.T) ChatMessageFrame {
	t.Helper()
	select {
	case data := <-f.out:
		var frame ChatMessageFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(waitFor):
		t.Fatal("no frame written")
		return ChatMessageFrame{}
	}
}

// fixture wires the real services over the in-memory store with alice=10, bob=20, carol=30.
type fixture struct {
	store       *repository.MemoryStore
	auth        *services.AuthService
	broadcaster *Broadcaster
	deps        SessionDeps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	store.AddProfile("alice", 10)
	store.AddProfile("bob", 20)
	store.AddProfile("carol", 30)

	auth, err := services.NewAuthService(&config.Config{JWTSecret: testSecret})
	require.NoError(t, err)

	broadcaster := NewBroadcaster(16, nil)
	conversations := services.NewConversationService(store.Conversations(), nil)
	return &fixture{
		store:       store,
		auth:        auth,
		broadcaster: broadcaster,
		deps: SessionDeps{
			Auth:        NewAuthGate(auth),
			Identities:  services.NewProfileService(store.Profiles(), nil, nil),
			Sender:      services.NewChatService(conversations, store.Messages()),
			Broadcaster: broadcaster,
		},
	}
}

func (f *fixture) token(t *testing.T, login string) string {
	t.Helper()
	claims := services.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func sendFrame(receiverID int64, body, clientMsgID string) map[string]any {
	frame := map[string]any{"type": FrameTypeSend, "receiverId": receiverID, "body": body}
	if clientMsgID != "" {
		frame["clientMsgId"] = clientMsgID
	}
	return frame
}

func receive(t *testing.T, sub *Subscription) []byte {
	t.Helper()
	select {
	case payload, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed")
		return payload
	case <-time.After(waitFor):
		t.Fatal("nothing published")
		return nil
	}
}

func requireNothing(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case payload := <-sub.Messages():
		t.Fatalf("unexpected payload %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func mustJSONField(t *testing.T, data []byte, field string) string {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	value, _ := fields[field].(string)
	return value
}
