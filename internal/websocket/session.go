package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"freelance-chat/internal/services"
	chat_errors "freelance-chat/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultPersistTimeout = 5 * time.Second

var ErrSessionNotAuthenticated = errors.New("session is not authenticated")

type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateActive:
		return "ACTIVE"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Verdict is the outcome of one inbound frame.
type Verdict int

const (
	// Continue: the frame was handled and the session keeps reading.
	Continue Verdict = iota
	// Skip: the frame was dropped without side effects.
	Skip
	// Fatal: the session must end.
	Fatal
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Skip:
		return "skip"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

type SessionDeps struct {
	Auth        *AuthGate
	Identities  services.IdentityResolver
	Sender      services.MessageSender
	Broadcaster *Broadcaster
	// Publisher defaults to Broadcaster.
	Publisher      Publisher
	Logger         *WebSocketLogger
	PersistTimeout time.Duration
	PingPeriod     time.Duration
}

// Session is the server side of one client connection. Authenticate must succeed before Run.
type Session struct {
	id    string
	deps  SessionDeps
	state atomic.Int32

	login         string
	participantID int64
}

func NewSession(deps SessionDeps) *Session {
	if deps.Publisher == nil {
		deps.Publisher = deps.Broadcaster
	}
	if deps.Logger == nil {
		deps.Logger = NewWebSocketLogger(nil)
	}
	if deps.PersistTimeout <= 0 {
		deps.PersistTimeout = defaultPersistTimeout
	}
	if deps.PingPeriod <= 0 {
		deps.PingPeriod = pingPeriod
	}
	return &Session{id: uuid.NewString(), deps: deps}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) ParticipantID() int64 { return s.participantID }

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

func (s *Session) transition(from, to State) bool {
	return s.state.CompareAndSwap(int32(from), int32(to))
}

// Authenticate verifies the handshake query and binds the session to a participant. Any
// failure leaves the session CLOSED.
func (s *Session) Authenticate(ctx context.Context, query url.Values) error {
	if s.State() != StateConnecting {
		return fmt.Errorf("authenticate in state %s", s.State())
	}

	login, err := s.deps.Auth.Authenticate(query)
	if err != nil {
		s.setState(StateClosed)
		s.deps.Logger.Warn("handshake_rejected", 0, s.id, zap.Error(err))
		return err
	}

	participantID, err := s.deps.Identities.ResolveParticipantID(ctx, login)
	if err != nil {
		s.setState(StateClosed)
		s.deps.Logger.Warn("identity_unresolved", 0, s.id, zap.String("login", login), zap.Error(err))
		return err
	}

	s.login = login
	s.participantID = participantID
	s.setState(StateAuthenticated)
	return nil
}

// Run serves the connection until the client leaves, ctx is done, or a frame fails fatally.
// The transport is always closed on return. Only a fatal frame or a failed write yields an
// error.
func (s *Session) Run(ctx context.Context, t Transport) error {
	if !s.transition(StateAuthenticated, StateActive) {
		_ = t.Close()
		return ErrSessionNotAuthenticated
	}

	sub := s.deps.Broadcaster.Subscribe(s.participantID)
	s.deps.Logger.Info("session_active", s.participantID, s.id, zap.String("login", s.login))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return s.writeLoop(gctx, t, sub)
	})
	g.Go(func() error {
		defer cancel()
		return s.readLoop(gctx, t)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.setState(StateClosing)
		sub.Cancel()
		if err := t.Close(); err != nil {
			s.deps.Logger.Debug("transport_close_failed", s.participantID, s.id, zap.Error(err))
		}
		return nil
	})

	err := g.Wait()
	s.setState(StateClosed)
	s.deps.Logger.Info("session_closed", s.participantID, s.id)
	return err
}

func (s *Session) writeLoop(ctx context.Context, t Transport, sub *Subscription) error {
	ticker := time.NewTicker(s.deps.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if err := t.WriteFrame(payload); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.deps.Logger.Warn("write_failed", s.participantID, s.id, zap.Error(err))
				return fmt.Errorf("write frame: %w", err)
			}
		case <-ticker.C:
			if err := t.Ping(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context, t Transport) error {
	for {
		data, err := t.ReadFrame()
		if err != nil {
			if ctx.Err() == nil && !isExpectedClose(err) {
				s.deps.Logger.Debug("read_ended", s.participantID, s.id, zap.Error(err))
			}
			return nil
		}

		if s.HandleFrame(ctx, data) == Fatal {
			return fmt.Errorf("session %s: fatal frame", s.id)
		}
	}
}

// HandleFrame runs the inbound pipeline for one raw frame.
func (s *Session) HandleFrame(ctx context.Context, data []byte) Verdict {
	frame, err := DecodeInbound(data)
	if err != nil {
		s.deps.Logger.Debug("frame_dropped", s.participantID, s.id, zap.String("reason", "malformed"), zap.Error(err))
		return Skip
	}

	switch f := frame.(type) {
	case SendFrame:
		return s.handleSend(ctx, f)
	default:
		s.deps.Logger.Debug("frame_dropped", s.participantID, s.id,
			zap.String("reason", "unknown_type"), zap.String("type", frame.frameType()))
		return Skip
	}
}

func (s *Session) handleSend(ctx context.Context, f SendFrame) Verdict {
	cmd := services.SendCommand{SenderID: s.participantID}
	if f.ReceiverID != nil {
		cmd.ReceiverID = *f.ReceiverID
	}
	if f.Body != nil {
		cmd.Body = *f.Body
	}

	persistCtx, cancel := context.WithTimeout(ctx, s.deps.PersistTimeout)
	defer cancel()

	msg, err := s.deps.Sender.Send(persistCtx, cmd)
	if err != nil {
		if errors.Is(err, chat_errors.ErrInvalidInput) {
			s.deps.Logger.Debug("frame_dropped", s.participantID, s.id, zap.String("reason", "invalid"), zap.Error(err))
			return Skip
		}
		s.deps.Logger.Error("persist_failed", s.participantID, s.id, err, zap.Int64("receiver_id", cmd.ReceiverID))
		return Fatal
	}

	payload, err := json.Marshal(NewChatMessageFrame(msg, f.ClientMsgID))
	if err != nil {
		s.deps.Logger.Error("encode_failed", s.participantID, s.id, err, zap.Int64("message_id", msg.ID))
		return Fatal
	}

	s.deps.Publisher.Publish(msg.SenderID, payload)
	s.deps.Publisher.Publish(msg.ReceiverID, payload)
	return Continue
}
