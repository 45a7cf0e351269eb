// orchestator/dto.go
package orchestator

import (
	"github.com/Abraxas-365/supportdesk/agents"
	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/router"
)

// ChatRequest represents an incoming chat message
type ChatRequest struct {
	Message        string           `json:"message"`
	ConversationID string           `json:"conversation_id,omitempty"`
	User           *appcontext.User `json:"user,omitempty"`
	Title          string           `json:"title,omitempty"`
}

// ClassifyRequest asks for a routing decision only. Previous is ignored when
// ConversationID is set.
type ClassifyRequest struct {
	Message        string            `json:"message"`
	Previous       category.Category `json:"previous_category,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	User           *appcontext.User  `json:"user,omitempty"`
}

// ChatResponse represents the reply to a chat message
type ChatResponse struct {
	ConversationID conversation.ID   `json:"conversation_id"`
	UserID         string            `json:"user_id"`
	Content        string            `json:"content"`
	Category       category.Category `json:"category"`
	Intent         string            `json:"intent,omitempty"`
	Reasoning      string            `json:"reasoning"`
	Confidence     float64           `json:"confidence"`
	ToolCalls      []agents.ToolCall `json:"tool_calls,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
}

// Classification is a routing decision together with the per-category
// keyword scores, when the router exposes them
type Classification struct {
	Decision router.Decision        `json:"decision"`
	Scores   []router.CategoryScore `json:"scores,omitempty"`
}
