package conversation

import "time"

// Conversation represents the conversation table: the direct thread between two profiles.
type Conversation struct {
	ID             int64
	CreatedAt      time.Time
	ParticipantAID int64
	ParticipantBID int64
}

// Involves reports whether both ids are the participants of c, in either order.
func (c Conversation) Involves(a, b int64) bool {
	return (c.ParticipantAID == a && c.ParticipantBID == b) ||
		(c.ParticipantAID == b && c.ParticipantBID == a)
}

// Peer returns the other participant of c as seen from id.
func (c Conversation) Peer(id int64) (int64, bool) {
	switch id {
	case c.ParticipantAID:
		return c.ParticipantBID, true
	case c.ParticipantBID:
		return c.ParticipantAID, true
	}
	return 0, false
}
