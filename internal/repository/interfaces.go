//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_repository.go -package=mocks
package repository

import (
	"context"

	"freelance-chat/internal/domain/conversation"
	"freelance-chat/internal/domain/message"
)

type ConversationRepository interface {
	// FindBetween returns the conversation whose participants are {a, b} in either order.
	FindBetween(ctx context.Context, a, b int64) (conversation.Conversation, error)
	Create(ctx context.Context, c *conversation.Conversation) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *message.Message) error
}

type ProfileRepository interface {
	GetIDByLogin(ctx context.Context, login string) (int64, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}
