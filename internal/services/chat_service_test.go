package services_test

import (
	"context"
	"strings"
	"testing"

	"freelance-chat/internal/domain/conversation"
	"freelance-chat/internal/domain/message"
	"freelance-chat/internal/mocks"
	"freelance-chat/internal/repository"
	"freelance-chat/internal/services"
	chat_errors "freelance-chat/pkg/errors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	_ repository.ConversationRepository = (*mocks.MockConversationRepository)(nil)
	_ repository.MessageRepository      = (*mocks.MockMessageRepository)(nil)
	_ repository.ProfileRepository      = (*mocks.MockProfileRepository)(nil)
	_ repository.HealthChecker          = (*mocks.MockHealthChecker)(nil)
	_ services.TokenVerifier            = (*mocks.MockTokenVerifier)(nil)
	_ services.IdentityResolver         = (*mocks.MockIdentityResolver)(nil)
	_ services.ConversationResolver     = (*mocks.MockConversationResolver)(nil)
	_ services.MessageSender            = (*mocks.MockMessageSender)(nil)
	_ services.ProfileCache             = (*mocks.MockProfileCache)(nil)
)

func TestChatService_Send(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	conversations := mocks.NewMockConversationResolver(ctrl)
	messages := mocks.NewMockMessageRepository(ctrl)

	conversations.EXPECT().FindOrCreate(ctx, int64(10), int64(20)).
		Return(conversation.Conversation{ID: 5, ParticipantAID: 10, ParticipantBID: 20}, nil)
	messages.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, m *message.Message) error {
		m.ID = 42
		return nil
	})

	msg, err := services.NewChatService(conversations, messages).
		Send(ctx, services.SendCommand{SenderID: 10, ReceiverID: 20, Body: "hi"})
	require.NoError(t, err)
	require.Equal(t, int64(42), msg.ID)
	require.Equal(t, int64(5), msg.ConversationID)
	require.Equal(t, int64(10), msg.SenderID)
	require.Equal(t, int64(20), msg.ReceiverID)
	require.Equal(t, "hi", msg.Body)
	require.False(t, msg.SentAt.IsZero())
}

func TestChatService_Send_InvalidInputWritesNothing(t *testing.T) {
	cases := map[string]services.SendCommand{
		"self":              {SenderID: 10, ReceiverID: 10, Body: "hi"},
		"missing receiver":  {SenderID: 10, Body: "hi"},
		"negative receiver": {SenderID: 10, ReceiverID: -1, Body: "hi"},
		"empty body":        {SenderID: 10, ReceiverID: 20, Body: ""},
		"blank body":        {SenderID: 10, ReceiverID: 20, Body: " \t\n"},
		"oversized body":    {SenderID: 10, ReceiverID: 20, Body: strings.Repeat("x", message.MaxBodyLength+1)},
		"nul in body":       {SenderID: 10, ReceiverID: 20, Body: "hi\x00"},
	}

	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// No expectations: any store call fails the test.
			svc := services.NewChatService(mocks.NewMockConversationResolver(ctrl), mocks.NewMockMessageRepository(ctrl))

			_, err := svc.Send(context.Background(), cmd)
			require.ErrorIs(t, err, chat_errors.ErrInvalidInput)
		})
	}
}

func TestChatService_Validate_MaxLengthAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := services.NewChatService(mocks.NewMockConversationResolver(ctrl), mocks.NewMockMessageRepository(ctrl))

	err := svc.Validate(services.SendCommand{SenderID: 1, ReceiverID: 2, Body: strings.Repeat("x", message.MaxBodyLength)})
	require.NoError(t, err)
}

func TestChatService_Send_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	conversations := mocks.NewMockConversationResolver(ctrl)
	messages := mocks.NewMockMessageRepository(ctrl)

	conversations.EXPECT().FindOrCreate(ctx, int64(10), int64(20)).Return(conversation.Conversation{ID: 5}, nil)
	messages.EXPECT().Create(ctx, gomock.Any()).Return(chat_errors.ErrPersistence)

	_, err := services.NewChatService(conversations, messages).
		Send(ctx, services.SendCommand{SenderID: 10, ReceiverID: 20, Body: "hi"})
	require.ErrorIs(t, err, chat_errors.ErrPersistence)
}
