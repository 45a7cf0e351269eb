package router

import (
	"context"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
)

// Decision is the routing outcome for one message
type Decision struct {
	Category   category.Category `json:"category"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
}

// Router picks the category that should handle a message. Implementations
// always return a decision whose category is a domain category.
type Router interface {
	Route(ctx context.Context, message string, cc appcontext.ConversationContext) Decision
}

// RouterFunc adapts a function to Router
type RouterFunc func(ctx context.Context, message string, cc appcontext.ConversationContext) Decision

func (f RouterFunc) Route(ctx context.Context, message string, cc appcontext.ConversationContext) Decision {
	return f(ctx, message, cc)
}

const (
	ContinuityConfidence = 0.9
	FallbackConfidence   = 0.5
	MaxConfidence        = 0.95

	ReasonContinuity  = "continuing same category from context"
	ReasonLowScore    = "low confidence, default to support"
	ReasonLLMFallback = "classification failed, using fallback"
)

// continuity needs a score above 0.1; fresh matches need at least 0.2
const (
	continuityMinTenths = 1
	fallbackMinTenths   = 2
)

// FallbackDecision is returned when nothing better is known
func FallbackDecision(reason string) Decision {
	return Decision{
		Category:   category.Support,
		Confidence: FallbackConfidence,
		Reasoning:  reason,
	}
}
