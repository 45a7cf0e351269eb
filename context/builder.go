package context

import (
	"context"

	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/errx"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
)

// DefaultHistoryLimit is the number of prior messages loaded into a context
const DefaultHistoryLimit = 20

// StateStore is the persisted conversation state the builder reads from
type StateStore interface {
	LoadState(ctx context.Context, id conversation.ID) (conversation.State, error)
	RecentMessages(ctx context.Context, id conversation.ID, limit int) ([]conversation.Message, error)
}

// Builder builds conversation contexts from persisted state
type Builder struct {
	store        StateStore
	historyLimit int
}

// NewBuilder creates a new context builder
func NewBuilder(store StateStore, historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	logx.WithField("history_limit", historyLimit).Debug("Context builder created")
	return &Builder{store: store, historyLimit: historyLimit}
}

// Build constructs the context for the next message of a conversation
func (b *Builder) Build(ctx context.Context, id conversation.ID, user User) (ConversationContext, error) {
	logx.WithFields(logx.Fields{
		"conversation_id": id,
		"user_id":         user.ID,
	}).Debug("Building conversation context")

	if id == "" {
		return ConversationContext{}, NewMissingConversationError()
	}

	state, err := b.store.LoadState(ctx, id)
	if err != nil {
		return ConversationContext{}, wrapBuildError(err)
	}

	stored, err := b.store.RecentMessages(ctx, id, b.historyLimit)
	if err != nil {
		return ConversationContext{}, wrapBuildError(err)
	}

	cc := ConversationContext{
		ConversationID: id,
		User:           user,
		Messages:       FromStoredMessages(stored),
		Category:       state.Category,
		Metadata:       state.Metadata.Clone(),
	}

	logx.WithFields(logx.Fields{
		"conversation_id": id,
		"category":        cc.Category.String(),
		"message_count":   len(cc.Messages),
	}).Debug("Conversation context built")

	return cc, nil
}

// BuildMinimal builds a context with no history, for one-off routing
func (b *Builder) BuildMinimal(user User) ConversationContext {
	return ConversationContext{
		User:     user,
		Messages: []Message{},
		Metadata: conversation.Metadata{},
	}
}

func wrapBuildError(err error) error {
	if _, ok := errx.As(err); ok {
		return err
	}
	logx.WithError(err).Error("Failed to build conversation context")
	return NewBuildFailedError(err)
}
