package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"freelance-chat/internal/domain/message"
	chat_errors "freelance-chat/pkg/errors"
)

const (
	FrameTypeSend    = "chat.send"
	FrameTypeMessage = "chat.message"
)

// InboundFrame is the decoded form of a client frame: SendFrame or UnknownFrame.
type InboundFrame interface {
	frameType() string
}

// SendFrame asks the server to deliver Body to ReceiverID. Absent fields stay nil.
type SendFrame struct {
	ReceiverID  *int64  `json:"receiverId"`
	Body        *string `json:"body"`
	ClientMsgID *string `json:"clientMsgId"`
}

func (SendFrame) frameType() string { return FrameTypeSend }

// UnknownFrame carries a well-formed frame whose type this server does not handle.
type UnknownFrame struct {
	Type string
}

func (f UnknownFrame) frameType() string { return f.Type }

type frameHeader struct {
	Type string `json:"type"`
}

// DecodeInbound parses one text frame. Malformed JSON is reported as ErrInvalidInput.
func DecodeInbound(data []byte) (InboundFrame, error) {
	var header frameHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: malformed frame: %v", chat_errors.ErrInvalidInput, err)
	}

	switch header.Type {
	case FrameTypeSend:
		var frame SendFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("%w: malformed %s frame: %v", chat_errors.ErrInvalidInput, FrameTypeSend, err)
		}
		return frame, nil
	default:
		return UnknownFrame{Type: header.Type}, nil
	}
}

// ChatMessageFrame is pushed to both participants after a message was stored.
type ChatMessageFrame struct {
	Type           string    `json:"type"`
	ConversationID int64     `json:"conversationId"`
	ID             int64     `json:"id"`
	SenderID       int64     `json:"senderId"`
	ReceiverID     int64     `json:"receiverId"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sentAt"`
	ClientMsgID    *string   `json:"clientMsgId"`
}

func NewChatMessageFrame(m message.Message, clientMsgID *string) ChatMessageFrame {
	return ChatMessageFrame{
		Type:           FrameTypeMessage,
		ConversationID: m.ConversationID,
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           m.Body,
		SentAt:         m.SentAt,
		ClientMsgID:    clientMsgID,
	}
}
