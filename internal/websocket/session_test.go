package websocket

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"freelance-chat/internal/domain/message"
	"freelance-chat/internal/mocks"
	"freelance-chat/internal/services"
	chat_errors "freelance-chat/pkg/errors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func startSession(t *testing.T, f *fixture, login string) (*Session, *fakeTransport, chan error) {
	t.Helper()
	session := NewSession(f.deps)
	require.NoError(t, session.Authenticate(context.Background(), url.Values{"token": {f.token(t, login)}}))
	require.Equal(t, StateAuthenticated, session.State())

	transport := newFakeTransport()
	done := make(chan error, 1)
	go func() { done <- session.Run(context.Background(), transport) }()

	require.Eventually(t, func() bool {
		return f.broadcaster.SubscriberCount(session.ParticipantID()) > 0
	}, waitFor, 5*time.Millisecond)
	return session, transport, done
}

func waitDone(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(waitFor):
		t.Fatal("session did not stop")
		return nil
	}
}

func TestSession_DeliversToSenderAndReceiver(t *testing.T) {
	f := newFixture(t)
	bob := f.broadcaster.Subscribe(20)
	session, transport, done := startSession(t, f, "alice")
	require.Equal(t, StateActive, session.State())

	transport.send(t, sendFrame(20, "hi", "c1"))

	echo := transport.next(t)
	require.Equal(t, FrameTypeMessage, echo.Type)
	require.Equal(t, int64(10), echo.SenderID)
	require.Equal(t, int64(20), echo.ReceiverID)
	require.Equal(t, "hi", echo.Body)
	require.NotNil(t, echo.ClientMsgID)
	require.Equal(t, "c1", *echo.ClientMsgID)
	require.False(t, echo.SentAt.IsZero())

	require.JSONEq(t, string(mustJSON(t, echo)), string(receive(t, bob)))

	saved := f.store.SavedMessages()
	require.Len(t, saved, 1)
	require.Equal(t, echo.ID, saved[0].ID)
	require.Equal(t, echo.ConversationID, saved[0].ConversationID)

	require.NoError(t, transport.Close())
	require.NoError(t, waitDone(t, done))
	require.Equal(t, StateClosed, session.State())
}

func TestSession_ConversationIsSharedBothWays(t *testing.T) {
	f := newFixture(t)
	_, alice, aliceDone := startSession(t, f, "alice")
	_, bob, bobDone := startSession(t, f, "bob")

	alice.send(t, sendFrame(20, "ping", ""))
	first := alice.next(t)
	require.Nil(t, first.ClientMsgID)
	require.Equal(t, first.ID, bob.next(t).ID)

	bob.send(t, sendFrame(10, "pong", ""))
	second := bob.next(t)
	require.Equal(t, second.ID, alice.next(t).ID)

	require.Equal(t, first.ConversationID, second.ConversationID)
	require.Len(t, f.store.SavedConversations(), 1)

	_ = alice.Close()
	_ = bob.Close()
	require.NoError(t, waitDone(t, aliceDone))
	require.NoError(t, waitDone(t, bobDone))
}

func TestSession_DropsInvalidFrames(t *testing.T) {
	f := newFixture(t)
	bob := f.broadcaster.Subscribe(20)
	_, transport, done := startSession(t, f, "alice")

	transport.send(t, []byte(`{not json`))
	transport.send(t, map[string]any{"type": "chat.typing", "receiverId": 20})
	transport.send(t, sendFrame(10, "to myself", "self"))
	transport.send(t, sendFrame(20, "   ", "blank"))
	transport.send(t, sendFrame(20, strings.Repeat("x", message.MaxBodyLength+1), "long"))
	transport.send(t, map[string]any{"type": FrameTypeSend, "body": "no receiver"})
	transport.send(t, sendFrame(99, "unknown receiver", "ghost"))
	transport.send(t, sendFrame(20, "valid", "ok"))

	// Frames are handled in order, so everything before "ok" was already dropped.
	echo := transport.next(t)
	require.Equal(t, "ok", *echo.ClientMsgID)
	require.Equal(t, "valid", mustJSONField(t, receive(t, bob), "body"))
	requireNothing(t, bob)
	require.Len(t, f.store.SavedMessages(), 1)

	_ = transport.Close()
	require.NoError(t, waitDone(t, done))
}

func TestSession_NulBodyIsDroppedNotFatal(t *testing.T) {
	f := newFixture(t)
	bob := f.broadcaster.Subscribe(20)
	session, transport, done := startSession(t, f, "alice")

	transport.send(t, sendFrame(20, "hi\x00there", "nul"))
	transport.send(t, sendFrame(20, "after", "ok"))

	require.Equal(t, "ok", *transport.next(t).ClientMsgID)
	require.Equal(t, "after", mustJSONField(t, receive(t, bob), "body"))
	require.Equal(t, StateActive, session.State())
	require.Len(t, f.store.SavedMessages(), 1)
	require.Len(t, f.store.SavedConversations(), 1)

	_ = transport.Close()
	require.NoError(t, waitDone(t, done))
}

func TestSession_MaxLengthBodyAccepted(t *testing.T) {
	f := newFixture(t)
	_, transport, done := startSession(t, f, "alice")

	body := strings.Repeat("é", message.MaxBodyLength)
	transport.send(t, sendFrame(20, body, ""))
	require.Equal(t, body, transport.next(t).Body)

	_ = transport.Close()
	require.NoError(t, waitDone(t, done))
}

func TestSession_PersistenceFailureEndsSession(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockMessageSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(message.Message{}, chat_errors.ErrPersistence)
	f.deps.Sender = sender

	bob := f.broadcaster.Subscribe(20)
	session, transport, done := startSession(t, f, "alice")

	transport.send(t, sendFrame(20, "hi", "c1"))

	require.Error(t, waitDone(t, done))
	require.Equal(t, StateClosed, session.State())
	require.True(t, transport.isClosed())
	require.Equal(t, 0, f.broadcaster.SubscriberCount(10))
	requireNothing(t, bob)
}

func TestSession_HandleFrameVerdicts(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockMessageSender(ctrl)
	f.deps.Sender = sender
	session := NewSession(f.deps)
	require.NoError(t, session.Authenticate(context.Background(), url.Values{"token": {f.token(t, "alice")}}))

	ctx := context.Background()
	require.Equal(t, Skip, session.HandleFrame(ctx, []byte(`]`)))
	require.Equal(t, Skip, session.HandleFrame(ctx, []byte(`{"type":"presence"}`)))

	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(message.Message{}, chat_errors.ErrInvalidInput)
	require.Equal(t, Skip, session.HandleFrame(ctx, mustJSON(t, sendFrame(10, "x", ""))))

	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(message.Message{}, chat_errors.ErrPersistence)
	require.Equal(t, Fatal, session.HandleFrame(ctx, mustJSON(t, sendFrame(20, "x", ""))))

	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cmd services.SendCommand) (message.Message, error) {
		require.Equal(t, int64(10), cmd.SenderID)
		return message.Message{ID: 1, ConversationID: 1, SenderID: 10, ReceiverID: 20, Body: "x"}, nil
	})
	require.Equal(t, Continue, session.HandleFrame(ctx, mustJSON(t, sendFrame(20, "x", ""))))
}

func TestSession_AuthenticationFailures(t *testing.T) {
	f := newFixture(t)

	cases := map[string]url.Values{
		"missing token": {},
		"bad token":     {"token": {"nope"}},
		"unknown login": {"token": {f.token(t, "mallory")}},
	}
	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			session := NewSession(f.deps)
			err := session.Authenticate(context.Background(), query)
			require.Error(t, err)
			require.Equal(t, 401, chat_errors.HTTPStatus(err))
			require.Equal(t, StateClosed, session.State())

			transport := newFakeTransport()
			require.ErrorIs(t, session.Run(context.Background(), transport), ErrSessionNotAuthenticated)
			require.True(t, transport.isClosed())
			require.Equal(t, 0, f.broadcaster.SinkCount())
		})
	}
}

func TestSession_ContextCancelClosesTransport(t *testing.T) {
	f := newFixture(t)
	session := NewSession(f.deps)
	require.NoError(t, session.Authenticate(context.Background(), url.Values{"token": {f.token(t, "bob")}}))

	ctx, cancel := context.WithCancel(context.Background())
	transport := newFakeTransport()
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx, transport) }()

	require.Eventually(t, func() bool { return f.broadcaster.SubscriberCount(20) == 1 }, waitFor, 5*time.Millisecond)
	cancel()

	require.NoError(t, waitDone(t, done))
	require.True(t, transport.isClosed())
	require.Equal(t, 0, f.broadcaster.SubscriberCount(20))
	require.Equal(t, StateClosed, session.State())
}

func TestSession_DisconnectedPeerDoesNotAffectSender(t *testing.T) {
	f := newFixture(t)
	_, bob, bobDone := startSession(t, f, "bob")
	_ = bob.Close()
	require.NoError(t, waitDone(t, bobDone))

	_, alice, aliceDone := startSession(t, f, "alice")
	alice.send(t, sendFrame(20, "are you there", ""))
	require.Equal(t, "are you there", alice.next(t).Body)
	require.Len(t, f.store.SavedMessages(), 1)

	_ = alice.Close()
	require.NoError(t, waitDone(t, aliceDone))
}

func TestState_String(t *testing.T) {
	require.Equal(t, "CONNECTING", StateConnecting.String())
	require.Equal(t, "ACTIVE", StateActive.String())
	require.Equal(t, "CLOSED", StateClosed.String())
	require.Equal(t, "fatal", Fatal.String())
}
