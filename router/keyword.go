package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
)

// CategoryScore is the keyword score of one category
type CategoryScore struct {
	Category category.Category `json:"category"`
	Score    float64           `json:"score"`
	tenths   int
}

// KeywordRouter routes by keyword overlap, preferring the conversation's
// current category when the message still matches it.
type KeywordRouter struct {
	scorers map[category.Category]*Scorer
}

// NewKeywordRouter compiles one scorer per domain category. Domains missing
// from sets score zero.
func NewKeywordRouter(sets KeywordSets) *KeywordRouter {
	r := &KeywordRouter{scorers: make(map[category.Category]*Scorer, len(sets))}
	for _, c := range category.Domains() {
		r.scorers[c] = NewScorer(sets[c])
	}
	return r
}

// Route implements Router
func (r *KeywordRouter) Route(_ context.Context, message string, cc appcontext.ConversationContext) Decision {
	if cc.Category.IsDomain() {
		if r.scorers[cc.Category].tenths(message) > continuityMinTenths {
			return Decision{
				Category:   cc.Category,
				Confidence: ContinuityConfidence,
				Reasoning:  ReasonContinuity,
			}
		}
	}

	best := r.Scores(message)[0]
	if best.tenths < fallbackMinTenths {
		return FallbackDecision(ReasonLowScore)
	}

	return Decision{
		Category:   best.Category,
		Confidence: min(best.Score, MaxConfidence),
		Reasoning:  fmt.Sprintf("matched %s keywords (score %.2f)", best.Category, best.Score),
	}
}

// Scores returns every domain score, highest first. Ties keep enumeration order.
func (r *KeywordRouter) Scores(message string) []CategoryScore {
	domains := category.Domains()
	scores := make([]CategoryScore, 0, len(domains))
	for _, c := range domains {
		t := r.scorers[c].tenths(message)
		scores = append(scores, CategoryScore{Category: c, Score: tenthsToScore(t), tenths: t})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].tenths > scores[j].tenths
	})
	return scores
}

// Keywords returns the compiled keywords of a category
func (r *KeywordRouter) Keywords(c category.Category) []string {
	if s, ok := r.scorers[c]; ok {
		return s.Keywords()
	}
	return nil
}
