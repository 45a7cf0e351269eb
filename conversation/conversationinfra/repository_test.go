package conversationinfra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/supportdesk/category"
	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/errx"
	"github.com/Abraxas-365/supportdesk/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func repositories(t *testing.T) map[string]conversation.Repository {
	return map[string]conversation.Repository{
		"sql":    NewSQLRepository(storetest.NewDB(t)),
		"memory": NewMemoryRepository(),
	}
}

func newConversation(id, user string, at time.Time) *conversation.Conversation {
	return &conversation.Conversation{
		ID:        conversation.ID(id),
		UserID:    user,
		Title:     "Chat " + id,
		Metadata:  conversation.Metadata{},
		CreatedAt: at,
		UpdatedAt: at,
		IsActive:  true,
	}
}

func message(id conversation.ID, role, content string, at time.Time) *conversation.Message {
	return &conversation.Message{
		ConversationID: id,
		Role:           role,
		Content:        content,
		Category:       category.Order,
		CreatedAt:      at,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			conv := newConversation("c-1", "u-1001", base)
			conv.Metadata = conversation.Metadata{"channel": "web"}
			require.NoError(t, repo.Create(ctx, conv))

			got, err := repo.Get(ctx, "c-1")
			require.NoError(t, err)
			assert.Equal(t, "u-1001", got.UserID)
			assert.Equal(t, "Chat c-1", got.Title)
			assert.Equal(t, category.None, got.Category)
			assert.Equal(t, "web", got.Metadata["channel"])
			assert.True(t, got.IsActive)
			assert.True(t, got.CreatedAt.Equal(base))

			_, err = repo.Get(ctx, "missing")
			assert.True(t, errx.IsCode(err, conversation.ErrCodeConversationNotFound))
		})
	}
}

func TestRepository_Messages(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newConversation("c-1", "u-1001", base)))

			contents := []string{"one", "two", "three", "four"}
			for i, content := range contents {
				msg := message("c-1", conversation.RoleUser, content, base.Add(time.Duration(i+1)*time.Second))
				require.NoError(t, repo.AddMessage(ctx, msg))
				assert.NotZero(t, msg.ID)
			}

			all, err := repo.Messages(ctx, "c-1")
			require.NoError(t, err)
			require.Len(t, all, 4)
			for i, msg := range all {
				assert.Equal(t, contents[i], msg.Content)
				assert.Equal(t, category.Order, msg.Category)
			}

			recent, err := repo.RecentMessages(ctx, "c-1", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, "three", recent[0].Content)
			assert.Equal(t, "four", recent[1].Content)

			none, err := repo.RecentMessages(ctx, "c-1", 0)
			require.NoError(t, err)
			assert.Empty(t, none)

			count, err := repo.CountMessages(ctx, "c-1")
			require.NoError(t, err)
			assert.Equal(t, 4, count)

			withMessages, err := repo.GetWithMessages(ctx, "c-1")
			require.NoError(t, err)
			assert.Len(t, withMessages.Messages, 4)
			assert.True(t, withMessages.Conversation.UpdatedAt.Equal(base.Add(4*time.Second)))
		})
	}
}

func TestRepository_ListByUser(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newConversation("c-1", "u-1001", base)))
			require.NoError(t, repo.Create(ctx, newConversation("c-2", "u-1001", base.Add(time.Minute))))
			require.NoError(t, repo.Create(ctx, newConversation("c-3", "u-1001", base.Add(2*time.Minute))))
			require.NoError(t, repo.Create(ctx, newConversation("c-4", "u-1002", base)))
			require.NoError(t, repo.Delete(ctx, "c-3"))

			list, err := repo.ListByUser(ctx, "u-1001", 10, 0)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, conversation.ID("c-2"), list[0].ID)
			assert.Equal(t, conversation.ID("c-1"), list[1].ID)

			page, err := repo.ListByUser(ctx, "u-1001", 1, 1)
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, conversation.ID("c-1"), page[0].ID)

			empty, err := repo.ListByUser(ctx, "nobody", 10, 0)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestRepository_UpdateStateAndDelete(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newConversation("c-1", "u-1001", base)))

			state := conversation.State{
				Category: category.Billing,
				Metadata: conversation.Metadata{"last_intent": "refund"},
			}
			require.NoError(t, repo.UpdateState(ctx, "c-1", state, base.Add(time.Hour)))

			got, err := repo.Get(ctx, "c-1")
			require.NoError(t, err)
			assert.Equal(t, category.Billing, got.Category)
			assert.Equal(t, "refund", got.Metadata["last_intent"])
			assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))

			err = repo.UpdateState(ctx, "missing", state, base)
			assert.True(t, errx.IsCode(err, conversation.ErrCodeConversationNotFound))

			require.NoError(t, repo.Delete(ctx, "c-1"))
			got, err = repo.Get(ctx, "c-1")
			require.NoError(t, err)
			assert.False(t, got.IsActive)

			err = repo.UpdateState(ctx, "c-1", state, base)
			assert.True(t, errx.IsCode(err, conversation.ErrCodeConversationInactive))

			err = repo.Delete(ctx, "c-1")
			assert.True(t, errx.IsCode(err, conversation.ErrCodeConversationInactive))

			err = repo.Delete(ctx, "missing")
			assert.True(t, errx.IsCode(err, conversation.ErrCodeConversationNotFound))
		})
	}
}

func TestRepository_WithinTx(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newConversation("c-1", "u-1001", base)))

			boom := errors.New("boom")
			err := repo.WithinTx(ctx, func(ctx context.Context) error {
				if err := repo.AddMessage(ctx, message("c-1", conversation.RoleUser, "lost", base.Add(time.Second))); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			count, err := repo.CountMessages(ctx, "c-1")
			require.NoError(t, err)
			assert.Equal(t, 0, count)

			err = repo.WithinTx(ctx, func(ctx context.Context) error {
				if err := repo.AddMessage(ctx, message("c-1", conversation.RoleUser, "hi", base.Add(time.Second))); err != nil {
					return err
				}
				if err := repo.AddMessage(ctx, message("c-1", conversation.RoleAssistant, "hello", base.Add(2*time.Second))); err != nil {
					return err
				}
				return repo.UpdateState(ctx, "c-1", conversation.State{Category: category.Support}, base.Add(2*time.Second))
			})
			require.NoError(t, err)

			withMessages, err := repo.GetWithMessages(ctx, "c-1")
			require.NoError(t, err)
			assert.Len(t, withMessages.Messages, 2)
			assert.Equal(t, category.Support, withMessages.Conversation.Category)
		})
	}
}

func TestMemoryRepository_CreateDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newConversation("c-1", "u-1001", base)))

	err := repo.Create(ctx, newConversation("c-1", "u-1001", base))
	assert.True(t, errx.IsCode(err, conversation.ErrCodeStorageFailed))
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	conv := newConversation("c-1", "u-1001", base)
	require.NoError(t, repo.Create(ctx, conv))

	got, err := repo.Get(ctx, "c-1")
	require.NoError(t, err)
	got.Metadata["mutated"] = true

	again, err := repo.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.NotContains(t, again.Metadata, "mutated")
}
