package websocket

import (
	"go.uber.org/zap"
)

// WebSocketLogger provides structured logging for websocket session events.
type WebSocketLogger struct {
	logger *zap.Logger
}

func NewWebSocketLogger(logger *zap.Logger) *WebSocketLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketLogger{
		logger: logger.With(zap.String("component", "websocket")),
	}
}

func (l *WebSocketLogger) Info(event string, participantID int64, sessionID string, fields ...zap.Field) {
	l.logger.Info("websocket_event", l.fields(event, participantID, sessionID, fields)...)
}

func (l *WebSocketLogger) Debug(event string, participantID int64, sessionID string, fields ...zap.Field) {
	l.logger.Debug("websocket_event", l.fields(event, participantID, sessionID, fields)...)
}

func (l *WebSocketLogger) Warn(event string, participantID int64, sessionID string, fields ...zap.Field) {
	l.logger.Warn("websocket_warning", l.fields(event, participantID, sessionID, fields)...)
}

func (l *WebSocketLogger) Error(event string, participantID int64, sessionID string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	l.logger.Error("websocket_error", l.fields(event, participantID, sessionID, fields)...)
}

func (l *WebSocketLogger) fields(event string, participantID int64, sessionID string, extra []zap.Field) []zap.Field {
	all := make([]zap.Field, 0, len(extra)+3)
	all = append(all,
		zap.String("event", event),
		zap.Int64("participant_id", participantID),
		zap.String("session_id", sessionID),
	)
	return append(all, extra...)
}
