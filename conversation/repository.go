package conversation

import (
	"context"
	"time"
)

// Repository manages conversation persistence
type Repository interface {
	// Conversation CRUD
	Create(ctx context.Context, conv *Conversation) error
	Get(ctx context.Context, id ID) (*Conversation, error)
	GetWithMessages(ctx context.Context, id ID) (*WithMessages, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Conversation, error)
	UpdateState(ctx context.Context, id ID, state State, at time.Time) error
	Delete(ctx context.Context, id ID) error

	// Message operations
	AddMessage(ctx context.Context, msg *Message) error
	Messages(ctx context.Context, id ID) ([]Message, error)
	RecentMessages(ctx context.Context, id ID, limit int) ([]Message, error)
	CountMessages(ctx context.Context, id ID) (int, error)

	// WithinTx runs fn so that repository calls made with the ctx it
	// receives share one transaction
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StateCache caches routing state per conversation
type StateCache interface {
	Get(ctx context.Context, id ID) (State, bool, error)
	Set(ctx context.Context, id ID, state State) error
	Delete(ctx context.Context, id ID) error
}

// Archiver stores a transcript outside the database and returns its location
type Archiver interface {
	Archive(ctx context.Context, transcript *WithMessages) (string, error)
}
