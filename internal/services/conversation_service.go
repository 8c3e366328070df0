package services

import (
	"context"
	"errors"
	"time"

	"freelance-chat/internal/domain/conversation"
	"freelance-chat/internal/repository"
	chat_errors "freelance-chat/pkg/errors"

	"go.uber.org/zap"
)

type ConversationService struct {
	repo   repository.ConversationRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewConversationService(repo repository.ConversationRepository, logger *zap.Logger) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{repo: repo, logger: logger, now: chat_errors.UTCNow}
}

// FindOrCreate returns the direct conversation between a and b, creating it on first contact.
// The lookup and the insert are separate statements: two concurrent first contacts can both
// miss and both insert. Callers must not assume a single conversation id per pair.
func (s *ConversationService) FindOrCreate(ctx context.Context, a, b int64) (conversation.Conversation, error) {
	c, err := s.repo.FindBetween(ctx, a, b)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, chat_errors.ErrNotFound) {
		return conversation.Conversation{}, err
	}

	created := conversation.Conversation{
		CreatedAt:      s.now(),
		ParticipantAID: a,
		ParticipantBID: b,
	}
	if err := s.repo.Create(ctx, &created); err != nil {
		// Only reachable when the store enforces pair uniqueness and another session won.
		if errors.Is(err, chat_errors.ErrAlreadyExists) {
			return s.repo.FindBetween(ctx, a, b)
		}
		return conversation.Conversation{}, err
	}

	s.logger.Debug("conversation created",
		zap.Int64("conversation_id", created.ID),
		zap.Int64("participant_a_id", a),
		zap.Int64("participant_b_id", b))
	return created, nil
}
