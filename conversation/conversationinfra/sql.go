// Package conversationinfra holds the storage adapters of the conversation
// package: SQL and in-memory repositories, a Redis state cache and an S3
// transcript archiver.
package conversationinfra

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// SQLRepository stores conversations in Postgres or SQLite
type SQLRepository struct {
	db *sqlx.DB
}

var _ conversation.Repository = (*SQLRepository)(nil)

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	logx.WithField("driver", db.DriverName()).Info("SQL conversation repository initialized")
	return &SQLRepository{db: db}
}

const (
	conversationColumns = `id, user_id, title, category, metadata, created_at, updated_at, is_active`
	messageColumns      = `id, conversation_id, role, content, category, reasoning, tool_calls, created_at`
)

// Create inserts a new conversation
func (r *SQLRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`
		INSERT INTO conversations (` + conversationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	logx.WithFields(logx.Fields{
		"conversation_id": conv.ID,
		"user_id":         conv.UserID,
	}).Debug("Creating conversation")

	_, err := executor.ExecContext(ctx, query,
		conv.ID,
		conv.UserID,
		conv.Title,
		conv.Category,
		conv.Metadata,
		conv.CreatedAt,
		conv.UpdatedAt,
		conv.IsActive,
	)
	if err != nil {
		logx.WithError(err).Error("Failed to create conversation")
		return conversation.ErrStorageFailed("create", err)
	}

	logx.WithField("conversation_id", conv.ID).Info("Conversation created successfully")
	return nil
}

// Get retrieves a conversation by ID, active or not
func (r *SQLRepository) Get(ctx context.Context, id conversation.ID) (*conversation.Conversation, error) {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`)

	var conv conversation.Conversation
	err := sqlx.GetContext(ctx, executor, &conv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		logx.WithField("conversation_id", id).Warn("Conversation not found")
		return nil, conversation.ErrConversationNotFound(id)
	}
	if err != nil {
		logx.WithError(err).Error("Failed to get conversation")
		return nil, conversation.ErrStorageFailed("get", err)
	}

	return &conv, nil
}

// GetWithMessages retrieves a conversation with all of its messages
func (r *SQLRepository) GetWithMessages(ctx context.Context, id conversation.ID) (*conversation.WithMessages, error) {
	conv, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	messages, err := r.Messages(ctx, id)
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"conversation_id": id,
		"message_count":   len(messages),
	}).Debug("Conversation with messages retrieved successfully")

	return &conversation.WithMessages{Conversation: *conv, Messages: messages}, nil
}

// ListByUser lists active conversations, most recently updated first
func (r *SQLRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*conversation.Conversation, error) {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`
		SELECT ` + conversationColumns + ` FROM conversations
		WHERE user_id = ? AND is_active = ?
		ORDER BY updated_at DESC, id
		LIMIT ? OFFSET ?`)

	logx.WithFields(logx.Fields{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	}).Debug("Listing user conversations")

	convs := []*conversation.Conversation{}
	if err := sqlx.SelectContext(ctx, executor, &convs, query, userID, true, limit, offset); err != nil {
		logx.WithError(err).Error("Failed to list user conversations")
		return nil, conversation.ErrStorageFailed("list", err)
	}

	return convs, nil
}

// UpdateState stores the routing state of an active conversation
func (r *SQLRepository) UpdateState(ctx context.Context, id conversation.ID, state conversation.State, at time.Time) error {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`
		UPDATE conversations SET category = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND is_active = ?`)

	res, err := executor.ExecContext(ctx, query, state.Category, state.Metadata, at, id, true)
	if err != nil {
		logx.WithError(err).Error("Failed to update conversation state")
		return conversation.ErrStorageFailed("update_state", err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return r.missing(ctx, id)
	}

	logx.WithFields(logx.Fields{
		"conversation_id": id,
		"category":        state.Category,
	}).Debug("Conversation state updated")
	return nil
}

// Delete soft deletes a conversation
func (r *SQLRepository) Delete(ctx context.Context, id conversation.ID) error {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`UPDATE conversations SET is_active = ? WHERE id = ? AND is_active = ?`)

	logx.WithField("conversation_id", id).Info("Deleting conversation")

	res, err := executor.ExecContext(ctx, query, false, id, true)
	if err != nil {
		logx.WithError(err).Error("Failed to delete conversation")
		return conversation.ErrStorageFailed("delete", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return r.missing(ctx, id)
	}

	logx.WithField("conversation_id", id).Info("Conversation deleted successfully")
	return nil
}

// AddMessage appends a message and bumps the conversation's updated_at
func (r *SQLRepository) AddMessage(ctx context.Context, msg *conversation.Message) error {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`
		INSERT INTO messages (conversation_id, role, content, category, reasoning, tool_calls, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	logx.WithFields(logx.Fields{
		"conversation_id": msg.ConversationID,
		"role":            msg.Role,
	}).Debug("Adding message to conversation")

	err := executor.QueryRowxContext(ctx, query,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.Category,
		msg.Reasoning,
		msg.ToolCalls,
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		logx.WithError(err).Error("Failed to add message")
		return conversation.ErrStorageFailed("add_message", err)
	}

	update := r.db.Rebind(`UPDATE conversations SET updated_at = ? WHERE id = ?`)
	if _, err := executor.ExecContext(ctx, update, msg.CreatedAt, msg.ConversationID); err != nil {
		return conversation.ErrStorageFailed("add_message", err)
	}

	logx.WithField("message_id", msg.ID).Debug("Message added successfully")
	return nil
}

// Messages returns all messages in insertion order
func (r *SQLRepository) Messages(ctx context.Context, id conversation.ID) ([]conversation.Message, error) {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`SELECT ` + messageColumns + ` FROM messages
		WHERE conversation_id = ? ORDER BY created_at ASC, id ASC`)

	messages := []conversation.Message{}
	if err := sqlx.SelectContext(ctx, executor, &messages, query, id); err != nil {
		logx.WithError(err).Error("Failed to get messages")
		return nil, conversation.ErrStorageFailed("messages", err)
	}
	return messages, nil
}

// RecentMessages returns the last limit messages, oldest first
func (r *SQLRepository) RecentMessages(ctx context.Context, id conversation.ID, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		return []conversation.Message{}, nil
	}
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`SELECT ` + messageColumns + ` FROM messages
		WHERE conversation_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)

	messages := []conversation.Message{}
	if err := sqlx.SelectContext(ctx, executor, &messages, query, id, limit); err != nil {
		logx.WithError(err).Error("Failed to get recent messages")
		return nil, conversation.ErrStorageFailed("recent_messages", err)
	}
	slices.Reverse(messages)
	return messages, nil
}

// CountMessages returns the number of messages in a conversation
func (r *SQLRepository) CountMessages(ctx context.Context, id conversation.ID) (int, error) {
	executor := r.getExecutor(ctx)

	query := r.db.Rebind(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`)

	var count int
	if err := executor.QueryRowxContext(ctx, query, id).Scan(&count); err != nil {
		return 0, conversation.ErrStorageFailed("count_messages", err)
	}
	return count, nil
}

// WithinTx runs fn in a transaction. Nested calls join the outer one.
func (r *SQLRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return conversation.ErrStorageFailed("begin", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logx.WithError(rbErr).Warn("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return conversation.ErrStorageFailed("commit", err)
	}
	return nil
}

// missing tells a deleted conversation from one that never existed
func (r *SQLRepository) missing(ctx context.Context, id conversation.ID) error {
	conv, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !conv.IsActive {
		return conversation.ErrConversationInactive(id)
	}
	return conversation.ErrConversationNotFound(id)
}

// getExecutor returns transaction if in context, otherwise db
func (r *SQLRepository) getExecutor(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return r.db
}
