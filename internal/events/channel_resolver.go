package events

import (
	"strconv"
	"strings"
)

const (
	ParticipantChannelPrefix = "chat:participant:"
	// ParticipantChannelPattern matches every participant channel in PSUBSCRIBE.
	ParticipantChannelPattern = ParticipantChannelPrefix + "*"
)

func ParticipantChannel(participantID int64) string {
	return ParticipantChannelPrefix + strconv.FormatInt(participantID, 10)
}

// ParseParticipantChannel returns the participant id named by channel.
func ParseParticipantChannel(channel string) (int64, bool) {
	raw, ok := strings.CutPrefix(channel, ParticipantChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
