package message

import "time"

// MaxBodyLength is the upper bound of a message body, counted in characters.
const MaxBodyLength = 4096

// Message represents the message table. Rows are append-only.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	ReceiverID     int64
	Body           string
	SentAt         time.Time
}
