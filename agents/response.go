// Package agents holds the category responders. Each responder detects a
// sub-intent with an ordered list of patterns, makes at most one tool call and
// renders the result as a plain-text reply. Tool failures become text; nothing
// here returns an error or logs.
package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

// ToolCall records one tool invocation made while answering
type ToolCall struct {
	Name    string            `json:"name"`
	Args    map[string]string `json:"args,omitempty"`
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
}

// Response is what a responder produces for one message
type Response struct {
	Content   string            `json:"content"`
	Category  category.Category `json:"category"`
	Reasoning string            `json:"reasoning,omitempty"`
	ToolCalls []ToolCall        `json:"tool_calls,omitempty"`
	Intent    string            `json:"intent,omitempty"`
}

// Responder answers messages for one domain category
type Responder interface {
	Category() category.Category
	Handle(ctx context.Context, message string, cc appcontext.ConversationContext) Response
}

// reply is a response without a tool call
func reply(content string) Response {
	return Response{Content: content}
}

// toolReply is a response backed by exactly one tool call
func toolReply(content, tool string, args map[string]string, err error) Response {
	call := ToolCall{Name: tool, Args: args, Success: err == nil}
	if err != nil {
		call.Error = err.Error()
	}
	return Response{Content: content, ToolCalls: []ToolCall{call}}
}

// respond runs the first matching intent or the fallback and stamps the
// category, intent name and responder reasoning on the result
func respond(ctx context.Context, c category.Category, intents Intents, fallback Intent, message string, cc appcontext.ConversationContext) Response {
	intent, ok := intents.Match(message)
	if !ok {
		intent = fallback
	}

	resp := intent.Handle(ctx, message, cc)
	resp.Category = c
	resp.Intent = intent.Name
	if ok {
		resp.Reasoning = fmt.Sprintf("%s responder matched %s intent", c, intent.Name)
	} else {
		resp.Reasoning = fmt.Sprintf("%s responder found no specific intent", c)
	}
	return resp
}

// describeFailure turns a tool error into an apology about subject
func describeFailure(err error, subject string) string {
	e, ok := errx.As(err)
	switch {
	case ok && e.Type == errx.TypeNotFound:
		return fmt.Sprintf("Sorry, I couldn't find %s. Please double-check the number and try again.", subject)
	case ok && (e.Type == errx.TypeBusiness || e.Type == errx.TypeValidation):
		msg := lowerFirst(e.Message)
		if status, found := e.Detail("status"); found {
			msg += fmt.Sprintf(" (current status: %v)", status)
		}
		return fmt.Sprintf("Sorry, I can't do that for %s: %s.", subject, msg)
	default:
		return "Sorry, something went wrong while looking that up. Please try again in a moment."
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "not available yet"
	}
	return formatDate(*t)
}

func humanStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
