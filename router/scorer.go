package router

import (
	"regexp"
	"strings"
)

// Scoring weights, in tenths
const (
	substringTenths = 2
	wholeWordTenths = 1
	maxTenths       = 10
)

type compiledKeyword struct {
	text  string
	whole *regexp.Regexp
}

// Scorer scores text against a fixed keyword set. Each keyword found as a
// substring adds 0.2, a whole-word match adds a further 0.1, and the total
// is capped at 1.0.
type Scorer struct {
	keywords []compiledKeyword
}

// NewScorer compiles a keyword set. Keywords are lower-cased and blanks dropped.
func NewScorer(keywords []string) *Scorer {
	s := &Scorer{keywords: make([]compiledKeyword, 0, len(keywords))}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		s.keywords = append(s.keywords, compiledKeyword{
			text:  kw,
			whole: regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
		})
	}
	return s
}

// Score returns the score of text in [0, 1]
func (s *Scorer) Score(text string) float64 {
	return tenthsToScore(s.tenths(text))
}

// Keywords returns the compiled keyword list
func (s *Scorer) Keywords() []string {
	out := make([]string, len(s.keywords))
	for i, kw := range s.keywords {
		out[i] = kw.text
	}
	return out
}

func (s *Scorer) tenths(text string) int {
	text = strings.ToLower(text)

	total := 0
	for _, kw := range s.keywords {
		if !strings.Contains(text, kw.text) {
			continue
		}
		total += substringTenths
		if kw.whole.MatchString(text) {
			total += wholeWordTenths
		}
		if total >= maxTenths {
			return maxTenths
		}
	}
	return total
}

func tenthsToScore(t int) float64 {
	return float64(t) / 10
}

// Score scores text against keywords without keeping a compiled Scorer
func Score(text string, keywords []string) float64 {
	return NewScorer(keywords).Score(text)
}
