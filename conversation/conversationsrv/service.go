package conversationsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
)

// Service manages conversations and the state carried between messages
type Service struct {
	repository conversation.Repository
	cache      conversation.StateCache
	archiver   conversation.Archiver
	now        func() time.Time
}

type Option func(*Service)

// WithStateCache caches routing state in front of the repository
func WithStateCache(cache conversation.StateCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithArchiver enables transcript export
func WithArchiver(archiver conversation.Archiver) Option {
	return func(s *Service) { s.archiver = archiver }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo conversation.Repository, opts ...Option) *Service {
	s := &Service{repository: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	logx.WithFields(logx.Fields{
		"state_cache": s.cache != nil,
		"archiver":    s.archiver != nil,
	}).Info("Conversation service initialized")
	return s
}

// CreateConversation starts a new conversation for a user
func (s *Service) CreateConversation(ctx context.Context, userID, title string) (*conversation.Conversation, error) {
	logx.WithFields(logx.Fields{
		"user_id": userID,
		"title":   title,
	}).Info("Creating new conversation")

	now := s.now().UTC()
	conv := &conversation.Conversation{
		ID:        conversation.NewID(),
		UserID:    userID,
		Title:     title,
		Metadata:  conversation.Metadata{},
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}

	if err := s.repository.Create(ctx, conv); err != nil {
		logx.WithError(err).Error("Failed to create conversation")
		return nil, err
	}
	return conv, nil
}

// GetConversation retrieves a conversation by ID
func (s *Service) GetConversation(ctx context.Context, id conversation.ID) (*conversation.Conversation, error) {
	return s.repository.Get(ctx, id)
}

// GetActiveConversation retrieves a conversation that can still take messages
func (s *Service) GetActiveConversation(ctx context.Context, id conversation.ID) (*conversation.Conversation, error) {
	conv, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.IsActive {
		logx.WithField("conversation_id", id).Warn("Attempting to use inactive conversation")
		return nil, conversation.ErrConversationInactive(id)
	}
	return conv, nil
}

// GetConversationWithMessages retrieves a conversation with its messages
func (s *Service) GetConversationWithMessages(ctx context.Context, id conversation.ID) (*conversation.WithMessages, error) {
	return s.repository.GetWithMessages(ctx, id)
}

// ListUserConversations lists a user's active conversations
func (s *Service) ListUserConversations(ctx context.Context, userID string, limit, offset int) ([]*conversation.Conversation, error) {
	logx.WithFields(logx.Fields{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	}).Debug("Listing user conversations")

	return s.repository.ListByUser(ctx, userID, limit, offset)
}

// Messages returns every message of a conversation
func (s *Service) Messages(ctx context.Context, id conversation.ID) ([]conversation.Message, error) {
	if _, err := s.repository.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repository.Messages(ctx, id)
}

// RecentMessages returns the last limit messages of a conversation
func (s *Service) RecentMessages(ctx context.Context, id conversation.ID, limit int) ([]conversation.Message, error) {
	return s.repository.RecentMessages(ctx, id, limit)
}

// LoadState returns the routing state of an active conversation, from the
// cache when possible
func (s *Service) LoadState(ctx context.Context, id conversation.ID) (conversation.State, error) {
	if s.cache != nil {
		state, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			logx.WithError(err).WithField("conversation_id", id).Warn("State cache read failed")
		} else if ok {
			logx.WithField("conversation_id", id).Trace("State cache hit")
			return state, nil
		}
	}

	conv, err := s.GetActiveConversation(ctx, id)
	if err != nil {
		return conversation.State{}, err
	}

	state := conv.State()
	s.cacheState(ctx, id, state)
	return state, nil
}

// RecordExchange stores a user message, its reply and the new routing state
// in one transaction
func (s *Service) RecordExchange(ctx context.Context, exchange *conversation.Exchange) error {
	at := exchange.At
	if at.IsZero() {
		at = s.now().UTC()
	}

	user := exchange.UserMessage
	user.ConversationID = exchange.ConversationID
	if user.Role == "" {
		user.Role = conversation.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = at
	}

	reply := exchange.Reply
	reply.ConversationID = exchange.ConversationID
	if reply.Role == "" {
		reply.Role = conversation.RoleAssistant
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = at
	}

	err := s.repository.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repository.AddMessage(ctx, &user); err != nil {
			return err
		}
		if err := s.repository.AddMessage(ctx, &reply); err != nil {
			return err
		}
		return s.repository.UpdateState(ctx, exchange.ConversationID, exchange.State, at)
	})
	if err != nil {
		logx.WithError(err).WithField("conversation_id", exchange.ConversationID).Error("Failed to record exchange")
		if s.cache != nil {
			if cerr := s.cache.Delete(ctx, exchange.ConversationID); cerr != nil {
				logx.WithError(cerr).Warn("State cache delete failed")
			}
		}
		return err
	}

	exchange.UserMessage = user
	exchange.Reply = reply
	s.cacheState(ctx, exchange.ConversationID, exchange.State)

	logx.WithFields(logx.Fields{
		"conversation_id": exchange.ConversationID,
		"category":        exchange.State.Category.String(),
	}).Debug("Exchange recorded")
	return nil
}

// DeleteConversation soft deletes a conversation
func (s *Service) DeleteConversation(ctx context.Context, id conversation.ID) error {
	logx.WithField("conversation_id", id).Info("Deleting conversation")

	if err := s.repository.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			logx.WithError(err).Warn("State cache delete failed")
		}
	}
	return nil
}

// Export archives the transcript of a conversation and returns its location
func (s *Service) Export(ctx context.Context, id conversation.ID) (string, error) {
	if s.archiver == nil {
		return "", conversation.ErrArchiveUnavailable()
	}

	transcript, err := s.repository.GetWithMessages(ctx, id)
	if err != nil {
		return "", err
	}
	return s.archiver.Archive(ctx, transcript)
}

// CanExport reports whether an archiver is configured
func (s *Service) CanExport() bool {
	return s.archiver != nil
}

func (s *Service) cacheState(ctx context.Context, id conversation.ID, state conversation.State) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, id, state); err != nil {
		logx.WithError(err).WithField("conversation_id", id).Warn("State cache write failed")
	}
}
