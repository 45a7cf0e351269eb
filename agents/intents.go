package agents

import (
	"context"
	"regexp"

	appcontext "github.com/Abraxas-365/supportdesk/context"
)

// Handler produces the reply for a matched intent
type Handler func(ctx context.Context, message string, cc appcontext.ConversationContext) Response

// Intent is one sub-intent of a responder
type Intent struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  Handler
}

// Intents is evaluated in order; the first matching pattern wins
type Intents []Intent

// Match returns the first intent whose pattern matches message
func (is Intents) Match(message string) (Intent, bool) {
	for _, in := range is {
		if in.Pattern != nil && in.Pattern.MatchString(message) {
			return in, true
		}
	}
	return Intent{}, false
}

// Names lists intent names in priority order
func (is Intents) Names() []string {
	names := make([]string, len(is))
	for i, in := range is {
		names[i] = in.Name
	}
	return names
}
