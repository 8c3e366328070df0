package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freelance-chat/internal/domain/message"
	"freelance-chat/internal/repository"
	chat_errors "freelance-chat/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// SendCommand is one validated request to deliver Body from SenderID to ReceiverID.
// A missing receiver is represented by 0.
type SendCommand struct {
	SenderID   int64  `validate:"required,gt=0"`
	ReceiverID int64  `validate:"required,gt=0,nefield=SenderID"`
	Body       string `validate:"notblank,nonul,max=4096"`
}

type ChatService struct {
	conversations ConversationResolver
	messages      repository.MessageRepository
	validate      *validator.Validate
	now           func() time.Time
}

func NewChatService(conversations ConversationResolver, messages repository.MessageRepository) *ChatService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// notblank ships with validator but is not registered by default.
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	// postgres text columns reject NUL.
	_ = validate.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		validate:      validate,
		now:           chat_errors.UTCNow,
	}
}

// Validate reports ErrInvalidInput for self-messaging, a missing receiver, or a blank,
// oversized or NUL-bearing body.
func (s *ChatService) Validate(cmd SendCommand) error {
	if err := s.validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", chat_errors.ErrInvalidInput, err)
	}
	return nil
}

// Send resolves the conversation and appends the message. Nothing is written when validation
// fails.
func (s *ChatService) Send(ctx context.Context, cmd SendCommand) (message.Message, error) {
	if err := s.Validate(cmd); err != nil {
		return message.Message{}, err
	}

	conv, err := s.conversations.FindOrCreate(ctx, cmd.SenderID, cmd.ReceiverID)
	if err != nil {
		return message.Message{}, err
	}

	msg := message.Message{
		ConversationID: conv.ID,
		SenderID:       cmd.SenderID,
		ReceiverID:     cmd.ReceiverID,
		Body:           cmd.Body,
		SentAt:         s.now(),
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return message.Message{}, err
	}
	return msg, nil
}
