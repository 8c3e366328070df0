package repository

import (
	"context"

	"freelance-chat/internal/domain/conversation"
)

type PostgresConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

// FindBetween prefers the oldest row when concurrent first contacts created duplicates.
func (r *PostgresConversationRepository) FindBetween(ctx context.Context, a, b int64) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.QueryRow(ctx, `
        SELECT id, created_at, participant_a_id, participant_b_id
        FROM conversation
        WHERE (participant_a_id = $1 AND participant_b_id = $2)
           OR (participant_a_id = $2 AND participant_b_id = $1)
        ORDER BY id ASC
        LIMIT 1
    `, a, b).Scan(&c.ID, &c.CreatedAt, &c.ParticipantAID, &c.ParticipantBID)
	if err != nil {
		return conversation.Conversation{}, translateError("find conversation", err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO conversation (created_at, participant_a_id, participant_b_id)
        VALUES ($1, $2, $3)
        RETURNING id
    `, c.CreatedAt, c.ParticipantAID, c.ParticipantBID).Scan(&c.ID)
	return translateError("create conversation", err)
}
