package websocket

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"freelance-chat/internal/transport/httpdto"
	chat_errors "freelance-chat/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type HandlerOptions struct {
	MaxMessageSize int64
	// AllowedOrigins empty means every origin is accepted.
	AllowedOrigins []string
}

// Handler authenticates the handshake, upgrades it and serves the session. Sessions are
// bound to the base context given to NewHandler, not to the request.
type Handler struct {
	baseCtx  context.Context
	deps     SessionDeps
	opts     HandlerOptions
	upgrader websocket.Upgrader
	logger   *WebSocketLogger

	mu       sync.Mutex
	draining bool
	active   atomic.Int64
	wg       sync.WaitGroup
}

func NewHandler(baseCtx context.Context, deps SessionDeps, opts HandlerOptions) *Handler {
	if deps.Logger == nil {
		deps.Logger = NewWebSocketLogger(nil)
	}
	h := &Handler{
		baseCtx: baseCtx,
		deps:    deps,
		opts:    opts,
		logger:  deps.Logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	return false
}

// Connect is the gin handler for the chat websocket route.
func (h *Handler) Connect(c *gin.Context) {
	session := NewSession(h.deps)
	if err := session.Authenticate(c.Request.Context(), c.Request.URL.Query()); err != nil {
		status := chat_errors.HTTPStatus(err)
		message := "unauthorized"
		if status >= http.StatusInternalServerError {
			message = "identity lookup failed"
		}
		c.JSON(status, httpdto.NewErrorResponse(message, chat_errors.Code(err)))
		return
	}

	if !h.track() {
		c.JSON(http.StatusServiceUnavailable,
			httpdto.NewErrorResponse("server shutting down", chat_errors.Code(chat_errors.ErrServiceUnavailable)))
		return
	}
	defer h.release()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade_failed", session.ParticipantID(), session.ID(), err)
		return
	}

	if err := session.Run(h.baseCtx, NewConnection(ws, h.opts.MaxMessageSize)); err != nil {
		h.logger.Warn("session_failed", session.ParticipantID(), session.ID(), zap.Error(err))
	}
}

// track registers a session unless the handler is shutting down.
func (h *Handler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining || h.baseCtx.Err() != nil {
		return false
	}
	h.wg.Add(1)
	h.active.Add(1)
	return true
}

func (h *Handler) release() {
	h.active.Add(-1)
	h.wg.Done()
}

func (h *Handler) ActiveSessions() int64 {
	return h.active.Load()
}

// Wait refuses new sessions, then blocks until every session started by Connect has
// returned or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
