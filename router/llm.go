package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/pkg/ai/llm"
)

const classifierPrompt = `You are the intent router of a customer-support chat.
Classify the customer's latest message into exactly one category:
- "order": order tracking, order status, cancellations, shipping address changes, deliveries
- "billing": payments, charges, refunds, invoices, receipts
- "support": greetings, account questions, general help, FAQs, tickets, talking to a human

Reply with a single JSON object and nothing else:
{"category": "order|billing|support", "confidence": 0.0-1.0, "reasoning": "<one short sentence>"}`

// Chatter is the part of llm.Client the LLM router needs
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Message, error)
}

// LLMRouter delegates classification to a language model. Every failure
// degrades to the support fallback decision.
type LLMRouter struct {
	client       Chatter
	model        string
	historyLimit int
	timeout      time.Duration
}

// LLMRouterOption configures an LLMRouter
type LLMRouterOption func(*LLMRouter)

func WithModel(model string) LLMRouterOption {
	return func(r *LLMRouter) { r.model = model }
}

// WithHistory sets how many prior messages are sent along
func WithHistory(n int) LLMRouterOption {
	return func(r *LLMRouter) { r.historyLimit = n }
}

func WithTimeout(d time.Duration) LLMRouterOption {
	return func(r *LLMRouter) { r.timeout = d }
}

func NewLLMRouter(client Chatter, opts ...LLMRouterOption) *LLMRouter {
	r := &LLMRouter{
		client:       client,
		historyLimit: 6,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type classifierReply struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// Route implements Router
func (r *LLMRouter) Route(ctx context.Context, message string, cc appcontext.ConversationContext) Decision {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	messages := make([]llm.Message, 0, r.historyLimit+2)
	messages = append(messages, llm.NewSystemMessage(classifierPrompt))
	messages = append(messages, cc.ToLLMMessages(r.historyLimit)...)
	messages = append(messages, llm.NewUserMessage(message))

	opts := []llm.Option{llm.WithTemperature(0), llm.WithJSONMode(), llm.WithMaxTokens(200)}
	if r.model != "" {
		opts = append(opts, llm.WithModel(r.model))
	}

	reply, err := r.client.Chat(ctx, messages, opts...)
	if err != nil {
		return FallbackDecision(ReasonLLMFallback)
	}

	decision, err := parseClassifierReply(reply.Content)
	if err != nil {
		return FallbackDecision(ReasonLLMFallback)
	}
	return decision
}

func parseClassifierReply(content string) (Decision, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var reply classifierReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return Decision{}, err
	}

	c, err := category.Parse(reply.Category)
	if err != nil {
		return Decision{}, err
	}
	if !c.IsDomain() {
		return Decision{}, fmt.Errorf("category %q is not routable", reply.Category)
	}
	if reply.Confidence == nil || *reply.Confidence < 0 || *reply.Confidence > 1 {
		return Decision{}, fmt.Errorf("confidence missing or out of range")
	}

	reasoning := strings.TrimSpace(reply.Reasoning)
	if reasoning == "" {
		reasoning = fmt.Sprintf("classified as %s", c)
	}

	return Decision{Category: c, Confidence: *reply.Confidence, Reasoning: reasoning}, nil
}
