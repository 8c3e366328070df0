package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"freelance-chat/internal/domain/conversation"
	"freelance-chat/internal/domain/message"
	chat_errors "freelance-chat/pkg/errors"
)

// MemoryStore keeps profiles, conversations and messages in process memory. It backs
// STORE_DRIVER=memory and the websocket tests. Referential checks mirror the foreign keys of
// the postgres schema; the find-or-create pair is not serialized, exactly like postgres.
type MemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]int64
	known         map[int64]struct{}
	conversations []conversation.Conversation
	messages      []message.Message
	nextConvID    int64
	nextMsgID     int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]int64),
		known:    make(map[int64]struct{}),
	}
}

// AddProfile registers a login and its participant id.
func (s *MemoryStore) AddProfile(login string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[login] = id
	s.known[id] = struct{}{}
}

// ParseProfileSeeds parses "login:id" pairs such as "alice:10,bob:20".
func ParseProfileSeeds(values []string) (map[string]int64, error) {
	seeds := make(map[string]int64, len(values))
	for _, v := range values {
		login, idStr, ok := strings.Cut(strings.TrimSpace(v), ":")
		if !ok || login == "" {
			return nil, fmt.Errorf("profile seed %q: %w", v, chat_errors.ErrInvalidInput)
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("profile seed %q: %w", v, chat_errors.ErrInvalidInput)
		}
		seeds[login] = id
	}
	return seeds, nil
}

func (s *MemoryStore) Conversations() ConversationRepository {
	return &memoryConversationRepository{store: s}
}

func (s *MemoryStore) Messages() MessageRepository {
	return &memoryMessageRepository{store: s}
}

func (s *MemoryStore) Profiles() ProfileRepository {
	return &memoryProfileRepository{store: s}
}

// SavedMessages returns a copy of every stored message in insertion order.
func (s *MemoryStore) SavedMessages() []message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]message.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SavedConversations returns a copy of every stored conversation in insertion order.
func (s *MemoryStore) SavedConversations() []conversation.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]conversation.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) isKnown(ids ...int64) bool {
	for _, id := range ids {
		if _, ok := s.known[id]; !ok {
			return false
		}
	}
	return true
}

type memoryConversationRepository struct {
	store *MemoryStore
}

func (r *memoryConversationRepository) FindBetween(ctx context.Context, a, b int64) (conversation.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return conversation.Conversation{}, translateError("find conversation", err)
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, c := range r.store.conversations {
		if c.Involves(a, b) {
			return c, nil
		}
	}
	return conversation.Conversation{}, fmt.Errorf("find conversation: %w", chat_errors.ErrNotFound)
}

func (r *memoryConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	if err := ctx.Err(); err != nil {
		return translateError("create conversation", err)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if !r.store.isKnown(c.ParticipantAID, c.ParticipantBID) {
		return fmt.Errorf("create conversation: %w", chat_errors.ErrInvalidInput)
	}
	r.store.nextConvID++
	c.ID = r.store.nextConvID
	r.store.conversations = append(r.store.conversations, *c)
	return nil
}

type memoryMessageRepository struct {
	store *MemoryStore
}

func (r *memoryMessageRepository) Create(ctx context.Context, m *message.Message) error {
	if err := ctx.Err(); err != nil {
		return translateError("create message", err)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if !r.store.isKnown(m.SenderID, m.ReceiverID) {
		return fmt.Errorf("create message: %w", chat_errors.ErrInvalidInput)
	}
	r.store.nextMsgID++
	m.ID = r.store.nextMsgID
	r.store.messages = append(r.store.messages, *m)
	return nil
}

type memoryProfileRepository struct {
	store *MemoryStore
}

func (r *memoryProfileRepository) GetIDByLogin(_ context.Context, login string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	id, ok := r.store.profiles[login]
	if !ok {
		return 0, fmt.Errorf("get profile by login: %w", chat_errors.ErrNotFound)
	}
	return id, nil
}
