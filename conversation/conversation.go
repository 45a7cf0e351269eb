package conversation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/Abraxas-365/supportdesk/category"
	"github.com/google/uuid"
)

// ID is a unique identifier for a conversation
type ID string

// NewID generates a new conversation ID
func NewID() ID {
	return ID(uuid.NewString())
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Metadata is free-form conversation state stored as JSON
type Metadata map[string]any

// Clone returns a shallow copy; a nil map clones to an empty one
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}

	out := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}

// Conversation is a persisted chat thread
type Conversation struct {
	ID        ID                `json:"id" db:"id"`
	UserID    string            `json:"user_id" db:"user_id"`
	Title     string            `json:"title" db:"title"`
	Category  category.Category `json:"category" db:"category"`
	Metadata  Metadata          `json:"metadata" db:"metadata"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
	IsActive  bool              `json:"is_active" db:"is_active"`
}

// Message is a persisted chat message. ToolCalls holds JSON.
type Message struct {
	ID             int64             `json:"id" db:"id"`
	ConversationID ID                `json:"conversation_id" db:"conversation_id"`
	Role           string            `json:"role" db:"role"`
	Content        string            `json:"content" db:"content"`
	Category       category.Category `json:"category" db:"category"`
	Reasoning      string            `json:"reasoning,omitempty" db:"reasoning"`
	ToolCalls      string            `json:"tool_calls,omitempty" db:"tool_calls"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// WithMessages combines a conversation with its messages
type WithMessages struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

// State is the routing state carried between messages
type State struct {
	Category category.Category `json:"category"`
	Metadata Metadata          `json:"metadata"`
}

// State returns the routing state of the conversation
func (c *Conversation) State() State {
	return State{Category: c.Category, Metadata: c.Metadata.Clone()}
}

// Exchange is one user message and the assistant reply to it
type Exchange struct {
	ConversationID ID
	UserMessage    Message
	Reply          Message
	State          State
	At             time.Time
}
