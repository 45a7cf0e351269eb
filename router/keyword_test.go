package router

import (
	"context"
	"testing"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultRouter() *KeywordRouter {
	return NewKeywordRouter(DefaultKeywords())
}

func TestKeywordRouter_FreshClassification(t *testing.T) {
	r := newDefaultRouter()

	tests := []struct {
		name       string
		message    string
		want       category.Category
		confidence float64
		reasoning  string
	}{
		{
			name:       "order tracking",
			message:    "Track my order ORD-001",
			want:       category.Order,
			confidence: 0.6,
			reasoning:  "matched order keywords (score 0.60)",
		},
		{
			name:       "refund",
			message:    "I want a refund",
			want:       category.Billing,
			confidence: 0.3,
			reasoning:  "matched billing keywords (score 0.30)",
		},
		{
			name:       "account help",
			message:    "I need help with my account password",
			want:       category.Support,
			confidence: 0.9,
			reasoning:  "matched support keywords (score 0.90)",
		},
		{
			name:       "greeting falls back",
			message:    "hello",
			want:       category.Support,
			confidence: 0.5,
			reasoning:  ReasonLowScore,
		},
		{
			name:       "no keywords at all",
			message:    "qwerty",
			want:       category.Support,
			confidence: 0.5,
			reasoning:  ReasonLowScore,
		},
		{
			name:       "tie resolves to enumeration order",
			message:    "order refund",
			want:       category.Order,
			confidence: 0.3,
			reasoning:  "matched order keywords (score 0.30)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Route(context.Background(), tt.message, appcontext.ConversationContext{})
			assert.Equal(t, tt.want, d.Category)
			assert.InDelta(t, tt.confidence, d.Confidence, 1e-9)
			assert.Equal(t, tt.reasoning, d.Reasoning)
		})
	}
}

func TestKeywordRouter_ConfidenceCap(t *testing.T) {
	r := newDefaultRouter()

	d := r.Route(context.Background(),
		"track my order shipment delivery package status",
		appcontext.ConversationContext{})

	assert.Equal(t, category.Order, d.Category)
	assert.Equal(t, MaxConfidence, d.Confidence)
	assert.Equal(t, "matched order keywords (score 1.00)", d.Reasoning)
}

func TestKeywordRouter_Continuity(t *testing.T) {
	r := newDefaultRouter()

	t.Run("same category keeps context", func(t *testing.T) {
		cc := appcontext.ConversationContext{Category: category.Order}
		// scores higher on billing, but order still matches
		d := r.Route(context.Background(), "refund the payment for that order", cc)
		assert.Equal(t, category.Order, d.Category)
		assert.Equal(t, ContinuityConfidence, d.Confidence)
		assert.Equal(t, ReasonContinuity, d.Reasoning)
	})

	t.Run("no match on context category rescoring", func(t *testing.T) {
		cc := appcontext.ConversationContext{Category: category.Order}
		d := r.Route(context.Background(), "I want a refund", cc)
		assert.Equal(t, category.Billing, d.Category)
		assert.InDelta(t, 0.3, d.Confidence, 1e-9)
	})

	t.Run("meta category is ignored", func(t *testing.T) {
		cc := appcontext.ConversationContext{Category: category.Router}
		d := r.Route(context.Background(), "hello", cc)
		assert.Equal(t, category.Support, d.Category)
		assert.Equal(t, FallbackConfidence, d.Confidence)
	})

	t.Run("substring match is enough", func(t *testing.T) {
		cc := appcontext.ConversationContext{Category: category.Billing}
		d := r.Route(context.Background(), "what about the prepayment", cc)
		assert.Equal(t, category.Billing, d.Category)
		assert.Equal(t, ContinuityConfidence, d.Confidence)
	})
}

func TestKeywordRouter_Deterministic(t *testing.T) {
	r := newDefaultRouter()
	cc := appcontext.ConversationContext{Category: category.Support}

	for _, msg := range []string{"hello", "order refund", "where is my package", "thank you"} {
		first := r.Route(context.Background(), msg, cc)
		second := r.Route(context.Background(), msg, cc)
		assert.Equal(t, first, second, msg)
	}
}

func TestKeywordRouter_Scores(t *testing.T) {
	r := newDefaultRouter()

	scores := r.Scores("billing problem")
	require.Len(t, scores, 3)
	assert.Equal(t, category.Billing, scores[0].Category)
	assert.Equal(t, category.Support, scores[1].Category)
	assert.Equal(t, category.Order, scores[2].Category)
	assert.Equal(t, 0.0, scores[2].Score)
}

func TestKeywordRouter_MissingSetScoresZero(t *testing.T) {
	r := NewKeywordRouter(KeywordSets{category.Billing: {"refund"}})

	d := r.Route(context.Background(), "track my order", appcontext.ConversationContext{})
	assert.Equal(t, category.Support, d.Category)
	assert.Empty(t, r.Keywords(category.Order))
	assert.Equal(t, []string{"refund"}, r.Keywords(category.Billing))
}
