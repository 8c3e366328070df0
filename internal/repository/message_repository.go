package repository

import (
	"context"

	"freelance-chat/internal/domain/message"
)

type PostgresMessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO message (conversation_id, sender_id, receiver_id, body, sent_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, m.ConversationID, m.SenderID, m.ReceiverID, m.Body, m.SentAt).Scan(&m.ID)
	return translateError("create message", err)
}
