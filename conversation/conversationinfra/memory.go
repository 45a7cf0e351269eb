package conversationinfra

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
)

var errDuplicateID = errors.New("conversation id already exists")

// MemoryRepository keeps conversations in process memory. WithinTx restores
// a snapshot when fn fails.
type MemoryRepository struct {
	mu            sync.RWMutex
	conversations map[conversation.ID]conversation.Conversation
	messages      map[conversation.ID][]conversation.Message
	nextMessageID int64
}

var _ conversation.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	logx.Info("In-memory conversation repository initialized")
	return &MemoryRepository{
		conversations: make(map[conversation.ID]conversation.Conversation),
		messages:      make(map[conversation.ID][]conversation.Message),
	}
}

func (r *MemoryRepository) Create(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conversations[conv.ID]; exists {
		return conversation.ErrStorageFailed("create", errDuplicateID)
	}
	stored := *conv
	stored.Metadata = conv.Metadata.Clone()
	r.conversations[conv.ID] = stored
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id conversation.ID) (*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, conversation.ErrConversationNotFound(id)
	}
	conv.Metadata = conv.Metadata.Clone()
	return &conv, nil
}

func (r *MemoryRepository) GetWithMessages(ctx context.Context, id conversation.ID) (*conversation.WithMessages, error) {
	conv, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := r.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &conversation.WithMessages{Conversation: *conv, Messages: messages}, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string, limit, offset int) ([]*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*conversation.Conversation{}
	for _, conv := range r.conversations {
		if conv.UserID == userID && conv.IsActive {
			c := conv
			c.Metadata = conv.Metadata.Clone()
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if offset >= len(out) {
		return []*conversation.Conversation{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateState(_ context.Context, id conversation.ID, state conversation.State, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, err := r.activeLocked(id)
	if err != nil {
		return err
	}
	conv.Category = state.Category
	conv.Metadata = state.Metadata.Clone()
	conv.UpdatedAt = at
	r.conversations[id] = conv
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id conversation.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, err := r.activeLocked(id)
	if err != nil {
		return err
	}
	conv.IsActive = false
	r.conversations[id] = conv
	return nil
}

func (r *MemoryRepository) AddMessage(_ context.Context, msg *conversation.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[msg.ConversationID]
	if !ok {
		return conversation.ErrConversationNotFound(msg.ConversationID)
	}

	r.nextMessageID++
	msg.ID = r.nextMessageID
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], *msg)

	conv.UpdatedAt = msg.CreatedAt
	r.conversations[msg.ConversationID] = conv
	return nil
}

func (r *MemoryRepository) Messages(_ context.Context, id conversation.ID) ([]conversation.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]conversation.Message{}, r.messages[id]...), nil
}

func (r *MemoryRepository) RecentMessages(_ context.Context, id conversation.ID, limit int) ([]conversation.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[id]
	if limit <= 0 {
		return []conversation.Message{}, nil
	}
	if limit < len(all) {
		all = all[len(all)-limit:]
	}
	return append([]conversation.Message{}, all...), nil
}

func (r *MemoryRepository) CountMessages(_ context.Context, id conversation.ID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages[id]), nil
}

// WithinTx runs fn and rolls the store back to its prior state if fn fails.
// Concurrent writers are not isolated from each other.
func (r *MemoryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.RLock()
	convs := maps.Clone(r.conversations)
	msgs := make(map[conversation.ID][]conversation.Message, len(r.messages))
	for id, m := range r.messages {
		msgs[id] = slices.Clone(m)
	}
	nextID := r.nextMessageID
	r.mu.RUnlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.conversations = convs
		r.messages = msgs
		r.nextMessageID = nextID
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *MemoryRepository) activeLocked(id conversation.ID) (conversation.Conversation, error) {
	conv, ok := r.conversations[id]
	if !ok {
		return conv, conversation.ErrConversationNotFound(id)
	}
	if !conv.IsActive {
		return conv, conversation.ErrConversationInactive(id)
	}
	return conv, nil
}
