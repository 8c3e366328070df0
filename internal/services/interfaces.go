//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_services.go -package=mocks
package services

import (
	"context"

	"freelance-chat/internal/domain/conversation"
	"freelance-chat/internal/domain/message"
)

// TokenVerifier turns a bearer credential into the login it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// IdentityResolver maps a login onto the participant id of its profile.
type IdentityResolver interface {
	ResolveParticipantID(ctx context.Context, login string) (int64, error)
}

type ConversationResolver interface {
	FindOrCreate(ctx context.Context, a, b int64) (conversation.Conversation, error)
}

// MessageSender validates and persists one chat message.
type MessageSender interface {
	Send(ctx context.Context, cmd SendCommand) (message.Message, error)
}

// ProfileCache is a read-through cache in front of the profile lookup.
type ProfileCache interface {
	GetProfileID(ctx context.Context, login string) (int64, bool, error)
	SetProfileID(ctx context.Context, login string, id int64) error
}
