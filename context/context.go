package context

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/supportdesk/category"
	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/ai/llm"
)

// ConversationContext is the per-call view of a conversation handed to the
// router and responders. It is passed by value; changes are returned as
// new values and persisted by the caller.
type ConversationContext struct {
	ConversationID conversation.ID       `json:"conversation_id"`
	User           User                  `json:"user"`
	Messages       []Message             `json:"messages"`
	Category       category.Category     `json:"category"`
	Metadata       conversation.Metadata `json:"metadata"`
}

// Message is a prior message, in chronological order
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Category  category.Category `json:"category"`
	CreatedAt time.Time         `json:"created_at"`
}

// User represents the current user
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// AnonymousPrefix marks generated ids of anonymous users
const AnonymousPrefix = "anon_"

// IsAuthenticated checks if the user has a non-anonymous id
func (u User) IsAuthenticated() bool {
	return u.ID != "" && !u.IsAnonymous()
}

// IsAnonymous checks if the user id was generated for an anonymous visitor
func (u User) IsAnonymous() bool {
	return strings.HasPrefix(u.ID, AnonymousPrefix)
}

// UserID is a shorthand for cc.User.ID
func (cc ConversationContext) UserID() string {
	return cc.User.ID
}

// WithCategory returns a copy of the context with a new category. The
// metadata map is copied so the caller's copy is never shared.
func (cc ConversationContext) WithCategory(c category.Category) ConversationContext {
	out := cc
	out.Category = c
	out.Metadata = cc.Metadata.Clone()
	if cc.Messages != nil {
		out.Messages = append([]Message(nil), cc.Messages...)
	}
	return out
}

// WithMetadata returns a copy of the context with one metadata key set
func (cc ConversationContext) WithMetadata(key string, value any) ConversationContext {
	out := cc.WithCategory(cc.Category)
	out.Metadata[key] = value
	return out
}

// LastMessages returns up to n of the most recent messages
func (cc ConversationContext) LastMessages(n int) []Message {
	if n <= 0 || len(cc.Messages) == 0 {
		return []Message{}
	}
	if n >= len(cc.Messages) {
		return append([]Message(nil), cc.Messages...)
	}
	return append([]Message(nil), cc.Messages[len(cc.Messages)-n:]...)
}

// ToLLMMessages converts the last n messages into llm messages
func (cc ConversationContext) ToLLMMessages(n int) []llm.Message {
	recent := cc.LastMessages(n)
	out := make([]llm.Message, 0, len(recent))
	for _, m := range recent {
		if m.Role == conversation.RoleAssistant {
			out = append(out, llm.NewAssistantMessage(m.Content))
			continue
		}
		out = append(out, llm.NewUserMessage(m.Content))
	}
	return out
}

// String renders a short human-readable summary
func (cc ConversationContext) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "conversation=%s user=%s category=%s messages=%d",
		cc.ConversationID, cc.User.ID, cc.Category, len(cc.Messages))
	if len(cc.Metadata) > 0 {
		b, _ := json.Marshal(cc.Metadata)
		fmt.Fprintf(&sb, " metadata=%s", b)
	}
	return sb.String()
}

// FromStoredMessages converts persisted messages to context messages
func FromStoredMessages(stored []conversation.Message) []Message {
	out := make([]Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, Message{
			Role:      m.Role,
			Content:   m.Content,
			Category:  m.Category,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
