package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     float64
	}{
		{"empty keyword list", "track my order", nil, 0},
		{"no match", "hello there", []string{"order"}, 0},
		{"whole word", "track my order", []string{"order"}, 0.3},
		{"substring only", "reorder please", []string{"order"}, 0.2},
		{"case insensitive", "TRACK My Order", []string{"track", "order"}, 0.6},
		{"multi word keyword", "where is my parcel", []string{"where is"}, 0.3},
		{"keyword and its plural", "my orders", []string{"order", "orders"}, 0.5},
		{"clamped", strings.Repeat("a b c d e ", 2), []string{"a", "b", "c", "d", "e"}, 1.0},
		{"blank keywords ignored", "order", []string{" ", ""}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.text, tt.keywords), 1e-9)
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	keywords := DefaultKeywords()
	for c, words := range keywords {
		s := NewScorer(words)
		for _, kw := range words {
			got := s.Score("xx " + kw + " yy")
			assert.GreaterOrEqual(t, got, 0.3, "%s/%s", c, kw)
			assert.LessOrEqual(t, got, 1.0)

			assert.GreaterOrEqual(t, s.Score("x"+kw+"x"), 0.2, "%s/%s substring", c, kw)
		}
	}
}

func TestScorer_Keywords(t *testing.T) {
	s := NewScorer([]string{" Order ", "TRACK"})
	assert.Equal(t, []string{"order", "track"}, s.Keywords())
}
