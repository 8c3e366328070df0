package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Transport is the frame-level view of a client connection used by Session. Close must be
// idempotent and must unblock a pending ReadFrame.
type Transport interface {
	ReadFrame() ([]byte, error)
	WriteFrame(payload []byte) error
	Ping() error
	Close() error
}

// Connection adapts a gorilla websocket to Transport. Only one goroutine may write.
type Connection struct {
	ws   *websocket.Conn
	once sync.Once
}

func NewConnection(ws *websocket.Conn, maxMessageSize int64) *Connection {
	if maxMessageSize > 0 {
		ws.SetReadLimit(maxMessageSize)
	}
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Connection{ws: ws}
}

func (c *Connection) ReadFrame() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	return data, nil
}

func (c *Connection) WriteFrame(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) Ping() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.ws.Close()
	})
	return err
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
