package orchestator

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Abraxas-365/supportdesk/agents"
	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/conversation/conversationsrv"
	"github.com/Abraxas-365/supportdesk/manifest"
	"github.com/Abraxas-365/supportdesk/pkg/errx"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/Abraxas-365/supportdesk/router"
	"github.com/google/uuid"
)

const (
	// MaxMessageLength is the longest accepted chat message, in characters
	MaxMessageLength = 4000

	titleLength = 50
)

// ReasoningPolicy decides whose reasoning ends up on the final response
type ReasoningPolicy string

const (
	// ReasoningFromRouter always surfaces the router's reasoning
	ReasoningFromRouter ReasoningPolicy = "router"
	// ReasoningFromResponder keeps the responder's reasoning when it set one
	ReasoningFromResponder ReasoningPolicy = "responder"
)

// ParseReasoningPolicy parses a policy name; empty means ReasoningFromRouter
func ParseReasoningPolicy(s string) (ReasoningPolicy, error) {
	switch ReasoningPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReasoningFromRouter:
		return ReasoningFromRouter, nil
	case ReasoningFromResponder:
		return ReasoningFromResponder, nil
	default:
		return "", NewInvalidReasoningPolicyError(s)
	}
}

// Responders holds one responder per domain category
type Responders struct {
	Order   agents.Responder
	Billing agents.Responder
	Support agents.Responder
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Orchestrator routes messages to responders and drives the chat flow
type Orchestrator struct {
	router          router.Router
	strategy        string
	responders      Responders
	reasoningPolicy ReasoningPolicy
	contextBuilder  *appcontext.Builder
	conversations   *conversationsrv.Service
	manifestReg     *manifest.Registry
	db              Pinger
	now             func() time.Time
}

// Config holds orchestrator configuration
type Config struct {
	Router          router.Router
	Strategy        string
	Responders      Responders
	ReasoningPolicy ReasoningPolicy
	ContextBuilder  *appcontext.Builder
	Conversations   *conversationsrv.Service
	ManifestReg     *manifest.Registry
	DB              Pinger
	Clock           func() time.Time
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(config Config) *Orchestrator {
	o := &Orchestrator{
		router:          config.Router,
		strategy:        config.Strategy,
		responders:      config.Responders,
		reasoningPolicy: config.ReasoningPolicy,
		contextBuilder:  config.ContextBuilder,
		conversations:   config.Conversations,
		manifestReg:     config.ManifestReg,
		db:              config.DB,
		now:             config.Clock,
	}
	if o.reasoningPolicy == "" {
		o.reasoningPolicy = ReasoningFromRouter
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.contextBuilder == nil {
		var states appcontext.StateStore
		if o.conversations != nil {
			states = o.conversations
		}
		o.contextBuilder = appcontext.NewBuilder(states, appcontext.DefaultHistoryLimit)
	}

	logx.WithFields(logx.Fields{
		"strategy":         o.strategy,
		"reasoning_policy": o.reasoningPolicy,
		"conversations":    o.conversations != nil,
	}).Info("Orchestrator initialized")
	return o
}

// ProcessMessage routes one message and dispatches it to the matching
// responder. It never fails: every problem below it degrades to text.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message string, cc appcontext.ConversationContext) agents.Response {
	_, resp := o.process(ctx, message, cc)
	return resp
}

func (o *Orchestrator) process(ctx context.Context, message string, cc appcontext.ConversationContext) (router.Decision, agents.Response) {
	decision := o.router.Route(ctx, message, cc)
	routed := cc.WithCategory(decision.Category)

	resp := o.responderFor(decision.Category).Handle(ctx, message, routed)

	switch o.reasoningPolicy {
	case ReasoningFromResponder:
		if resp.Reasoning == "" {
			resp.Reasoning = decision.Reasoning
		}
	default:
		resp.Reasoning = decision.Reasoning
	}
	return decision, resp
}

// responderFor maps a category to its responder; anything that is not a
// domain category goes to support
func (o *Orchestrator) responderFor(c category.Category) agents.Responder {
	switch c {
	case category.Order:
		return o.responders.Order
	case category.Billing:
		return o.responders.Billing
	case category.Support:
		return o.responders.Support
	case category.Router, category.None:
		return o.responders.Support
	default:
		return o.responders.Support
	}
}

// Classify routes a message without dispatching it
func (o *Orchestrator) Classify(ctx context.Context, message string, cc appcontext.ConversationContext) Classification {
	out := Classification{Decision: o.router.Route(ctx, message, cc)}
	if scorer, ok := o.router.(interface {
		Scores(message string) []router.CategoryScore
	}); ok {
		out.Scores = scorer.Scores(message)
	}
	return out
}

// ClassifyMessage validates a message and routes it without dispatching.
// With a conversation id the persisted category and history are used, and
// the request user must own that conversation; otherwise the context is
// empty apart from the previous category.
func (o *Orchestrator) ClassifyMessage(ctx context.Context, req ClassifyRequest) (Classification, error) {
	message, err := validateMessage(req.Message)
	if err != nil {
		return Classification{}, err
	}

	var cc appcontext.ConversationContext
	if req.ConversationID != "" {
		if o.conversations == nil {
			return Classification{}, NewConversationsUnavailableError()
		}
		id := conversation.ID(req.ConversationID)
		conv, err := o.conversations.GetActiveConversation(ctx, id)
		if err != nil {
			return Classification{}, err
		}
		user, err := ownerOf(conv, req.User)
		if err != nil {
			return Classification{}, err
		}
		if cc, err = o.contextBuilder.Build(ctx, id, user); err != nil {
			return Classification{}, err
		}
	} else {
		var user appcontext.User
		if req.User != nil {
			user = *req.User
		}
		cc = o.contextBuilder.BuildMinimal(user).WithCategory(req.Previous)
	}

	return o.Classify(ctx, message, cc), nil
}

// HandleChat processes a chat request and returns a response
func (o *Orchestrator) HandleChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	// 1. Validate request
	message, err := o.validateRequest(req)
	if err != nil {
		return nil, err
	}
	if o.conversations == nil {
		return nil, NewConversationsUnavailableError()
	}

	// 2. Resolve user and conversation
	var user appcontext.User
	conversationID := conversation.ID(req.ConversationID)
	if conversationID != "" {
		conv, err := o.conversations.GetActiveConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		user, err = ownerOf(conv, req.User)
		if err != nil {
			return nil, err
		}
	} else {
		user = resolveUser(req.User)
		title := req.Title
		if title == "" {
			title = titleFrom(message)
		}
		conv, err := o.conversations.CreateConversation(ctx, user.ID, title)
		if err != nil {
			return nil, err
		}
		conversationID = conv.ID
	}

	// 3. Build context from persisted state
	cc, err := o.contextBuilder.Build(ctx, conversationID, user)
	if err != nil {
		if _, ok := errx.As(err); ok {
			return nil, err
		}
		return nil, NewContextBuildFailedError(err)
	}

	// 4. Route and dispatch
	decision, resp := o.process(ctx, message, cc)

	logx.WithFields(logx.Fields{
		"conversation_id": conversationID,
		"category":        resp.Category.String(),
		"intent":          resp.Intent,
		"confidence":      decision.Confidence,
		"tool_calls":      len(resp.ToolCalls),
	}).Info("Message dispatched")

	// 5. Persist the exchange and the new category
	toolCalls, err := encodeToolCalls(resp.ToolCalls)
	if err != nil {
		return nil, conversation.ErrMessageSerializationFailed(err)
	}

	next := cc.WithMetadata("last_intent", resp.Intent).
		WithMetadata("last_confidence", decision.Confidence)
	state := conversation.State{
		Category: resp.Category,
		Metadata: next.Metadata,
	}

	at := o.now().UTC()
	exchange := &conversation.Exchange{
		ConversationID: conversationID,
		UserMessage: conversation.Message{
			Role:     conversation.RoleUser,
			Content:  message,
			Category: resp.Category,
		},
		Reply: conversation.Message{
			Role:      conversation.RoleAssistant,
			Content:   resp.Content,
			Category:  resp.Category,
			Reasoning: resp.Reasoning,
			ToolCalls: toolCalls,
		},
		State: state,
		At:    at,
	}
	if err := o.conversations.RecordExchange(ctx, exchange); err != nil {
		if _, ok := errx.As(err); ok {
			return nil, err
		}
		return nil, NewPersistFailedError(err)
	}

	return &ChatResponse{
		ConversationID: conversationID,
		UserID:         user.ID,
		Content:        resp.Content,
		Category:       resp.Category,
		Intent:         resp.Intent,
		Reasoning:      resp.Reasoning,
		Confidence:     decision.Confidence,
		ToolCalls:      resp.ToolCalls,
		Metadata: map[string]any{
			"history_messages": len(cc.Messages),
			"previous":         cc.Category.String(),
			"strategy":         o.strategy,
		},
	}, nil
}

// validateRequest validates the incoming request and returns the trimmed message
func (o *Orchestrator) validateRequest(req ChatRequest) (string, error) {
	return validateMessage(req.Message)
}

// validateMessage trims a message and enforces the length limits
func validateMessage(raw string) (string, error) {
	message := strings.TrimSpace(raw)
	if message == "" {
		return "", NewMissingMessageError()
	}

	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return "", NewMessageTooLongError(n, MaxMessageLength)
	}

	return message, nil
}

// resolveUser fills in an anonymous id when the caller sent none
func resolveUser(u *appcontext.User) appcontext.User {
	if u != nil && u.ID != "" {
		return *u
	}
	user := appcontext.User{ID: NewAnonymousID()}
	if u != nil {
		user.Email = u.Email
		user.Name = u.Name
	}
	return user
}

// ownerOf binds a follow-up message to the user who owns the conversation.
// A request without a user speaks as the owner; any other user is rejected.
func ownerOf(conv *conversation.Conversation, u *appcontext.User) (appcontext.User, error) {
	if u == nil || u.ID == "" {
		owner := appcontext.User{ID: conv.UserID}
		if u != nil {
			owner.Email = u.Email
			owner.Name = u.Name
		}
		return owner, nil
	}
	if u.ID != conv.UserID {
		return appcontext.User{}, NewConversationForbiddenError(string(conv.ID), u.ID)
	}
	return *u, nil
}

// NewAnonymousID generates an id for a visitor without an account
func NewAnonymousID() string {
	return appcontext.AnonymousPrefix + uuid.NewString()
}

func titleFrom(message string) string {
	if utf8.RuneCountInString(message) <= titleLength {
		return message
	}
	runes := []rune(message)
	return strings.TrimSpace(string(runes[:titleLength])) + "..."
}

func encodeToolCalls(calls []agents.ToolCall) (string, error) {
	if len(calls) == 0 {
		return "", nil
	}
	b, err := json.Marshal(calls)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ============================================================================
// Conversation Management Methods
// ============================================================================

// CreateConversation starts an empty conversation
func (o *Orchestrator) CreateConversation(ctx context.Context, userID, title string) (*conversation.Conversation, error) {
	if o.conversations == nil {
		return nil, NewConversationsUnavailableError()
	}
	if userID == "" {
		userID = NewAnonymousID()
	}
	return o.conversations.CreateConversation(ctx, userID, title)
}

// ListConversations lists a user's active conversations
func (o *Orchestrator) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*conversation.Conversation, error) {
	if o.conversations == nil {
		return nil, NewConversationsUnavailableError()
	}
	if userID == "" {
		return nil, NewInvalidRequestError("user_id is required")
	}
	return o.conversations.ListUserConversations(ctx, userID, limit, offset)
}

// GetConversation gets a conversation by ID
func (o *Orchestrator) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	if o.conversations == nil {
		return nil, NewConversationsUnavailableError()
	}
	return o.conversations.GetConversation(ctx, conversation.ID(id))
}

// GetConversationWithMessages gets a conversation with all messages
func (o *Orchestrator) GetConversationWithMessages(ctx context.Context, id string) (*conversation.WithMessages, error) {
	if o.conversations == nil {
		return nil, NewConversationsUnavailableError()
	}
	return o.conversations.GetConversationWithMessages(ctx, conversation.ID(id))
}

// GetMessages gets the messages of a conversation
func (o *Orchestrator) GetMessages(ctx context.Context, id string) ([]conversation.Message, error) {
	if o.conversations == nil {
		return nil, NewConversationsUnavailableError()
	}
	return o.conversations.Messages(ctx, conversation.ID(id))
}

// DeleteConversation deletes a conversation
func (o *Orchestrator) DeleteConversation(ctx context.Context, id string) error {
	if o.conversations == nil {
		return NewConversationsUnavailableError()
	}
	return o.conversations.DeleteConversation(ctx, conversation.ID(id))
}

// ExportConversation archives a conversation transcript
func (o *Orchestrator) ExportConversation(ctx context.Context, id string) (string, error) {
	if o.conversations == nil {
		return "", NewConversationsUnavailableError()
	}
	return o.conversations.Export(ctx, conversation.ID(id))
}

// Health checks the health of the orchestrator
func (o *Orchestrator) Health(ctx context.Context) error {
	if o.router == nil {
		return NewUnhealthyError("router", nil)
	}

	if o.responders.Order == nil || o.responders.Billing == nil || o.responders.Support == nil {
		return NewUnhealthyError("responders", nil)
	}

	if o.db != nil {
		if err := o.db.PingContext(ctx); err != nil {
			return NewUnhealthyError("database", err)
		}
	}

	return nil
}

// Stats returns orchestrator statistics
func (o *Orchestrator) Stats() map[string]any {
	stats := map[string]any{
		"strategy":         o.strategy,
		"reasoning_policy": string(o.reasoningPolicy),
		"conversations":    o.conversations != nil,
		"export":           o.conversations != nil && o.conversations.CanExport(),
		"healthy":          o.Health(context.Background()) == nil,
	}
	if o.manifestReg != nil {
		stats["manifest"] = o.manifestReg.Stats()
	}
	return stats
}
