package events

import (
	"encoding/json"
	"time"
)

// Envelope wraps an outbound chat frame on its way between instances.
type Envelope struct {
	Origin        string          `json:"origin"`
	ParticipantID int64           `json:"participantId"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(origin string, participantID int64, payload []byte) Envelope {
	return Envelope{
		Origin:        origin,
		ParticipantID: participantID,
		OccurredAt:    time.Now().UTC(),
		Payload:       json.RawMessage(payload),
	}
}
