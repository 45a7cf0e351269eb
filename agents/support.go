package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/tools"
)

// Support intent names, in priority order
const (
	IntentGreeting     = "greeting"
	IntentThanks       = "thanks"
	IntentTicketStatus = "ticket_status"
	IntentEscalate     = "escalate"
	IntentAccount      = "account"
	IntentFAQ          = "faq"
	IntentGeneral      = "general"
)

// GreetingReply is returned for greetings whatever the conversation history
const GreetingReply = "Hello! I'm your support assistant. I can help with:\n" +
	"- Orders: tracking, status, cancellations and address changes\n" +
	"- Billing: refunds, invoices and payments\n" +
	"- Support: tickets, account details and common questions\n" +
	"What can I do for you today?"

const (
	thanksReply  = "You're welcome! Is there anything else I can help you with?"
	generalReply = "I'm here to help. Could you tell me a bit more about what you need? " +
		"You can ask about an order (ORD-001), a refund (REF-001), an invoice (INV-001) or a support ticket (TKT-001)."
	escalationSubject = "Customer requested a human agent"
)

var passwordPattern = regexp.MustCompile(`(?i)\b(password|log\s*in|sign\s*in)\b`)

// SupportResponder handles greetings, tickets, account questions and FAQs
type SupportResponder struct {
	tools   tools.SupportTools
	intents Intents
}

var _ Responder = (*SupportResponder)(nil)

func NewSupportResponder(t tools.SupportTools) *SupportResponder {
	r := &SupportResponder{tools: t}
	r.intents = Intents{
		{Name: IntentGreeting, Pattern: regexp.MustCompile(`(?i)^\s*(hi|hello|hey|hiya|greetings|good\s+(morning|afternoon|evening))\b`), Handle: r.greeting},
		{Name: IntentThanks, Pattern: regexp.MustCompile(`(?i)\b(thanks|thank\s+you|thx|appreciate\s+it)\b`), Handle: r.thanks},
		{Name: IntentTicketStatus, Pattern: regexp.MustCompile(`(?i)\bTKT-\d+\b|\bticket\s+status\b|\bstatus\s+of\s+(my\s+)?ticket\b|\bmy\s+ticket\b`), Handle: r.ticketStatus},
		{Name: IntentEscalate, Pattern: regexp.MustCompile(`(?i)\b(human|agent|representative|escalate|supervisor|manager|complaint)\b|\b(speak|talk)\s+to\b|\b(open|create|file)\s+a\s+ticket\b`), Handle: r.escalate},
		{Name: IntentAccount, Pattern: regexp.MustCompile(`(?i)\b(account|profile|password|log\s*in|sign\s*in|my\s+details)\b`), Handle: r.account},
		{Name: IntentFAQ, Pattern: regexp.MustCompile(`(?i)\b(hours|open|return|returns|policy|shipping|contact|phone|email|international|internationally|how\s+long|faq)\b`), Handle: r.faq},
	}
	return r
}

func (r *SupportResponder) Category() category.Category { return category.Support }

// Intents returns the ordered sub-intents
func (r *SupportResponder) Intents() Intents { return r.intents }

func (r *SupportResponder) Handle(ctx context.Context, message string, cc appcontext.ConversationContext) Response {
	fallback := Intent{Name: IntentGeneral, Handle: r.general}
	return respond(ctx, category.Support, r.intents, fallback, message, cc)
}

func (r *SupportResponder) greeting(context.Context, string, appcontext.ConversationContext) Response {
	return reply(GreetingReply)
}

func (r *SupportResponder) thanks(context.Context, string, appcontext.ConversationContext) Response {
	return reply(thanksReply)
}

func (r *SupportResponder) general(context.Context, string, appcontext.ConversationContext) Response {
	return reply(generalReply)
}

func (r *SupportResponder) ticketStatus(ctx context.Context, message string, _ appcontext.ConversationContext) Response {
	number, ok := ExtractTicketNumber(message)
	if !ok {
		return reply("Please share your ticket number (for example TKT-001) and I'll check its status.")
	}

	args := map[string]string{"ticket_number": number}
	tk, err := r.tools.GetTicket(ctx, number)
	if err != nil {
		return toolReply(describeFailure(err, "ticket "+number), tools.ToolGetTicket, args, err)
	}

	content := fmt.Sprintf("Ticket %s (%q) is %s with %s priority. Last updated %s.",
		tk.Number(), tk.Subject, humanStatus(tk.Status), tk.Priority, formatDate(tk.UpdatedAt))
	return toolReply(content, tools.ToolGetTicket, args, nil)
}

func (r *SupportResponder) escalate(ctx context.Context, message string, cc appcontext.ConversationContext) Response {
	userID := cc.UserID()
	args := map[string]string{"user_id": userID, "subject": escalationSubject}
	tk, err := r.tools.CreateTicket(ctx, userID, escalationSubject, strings.TrimSpace(message))
	if err != nil {
		return toolReply(describeFailure(err, "a support ticket"), tools.ToolCreateTicket, args, err)
	}

	content := fmt.Sprintf("I've created support ticket %s for you. A member of our team will follow up shortly. You can ask me about %s at any time.",
		tk.Number(), tk.Number())
	return toolReply(content, tools.ToolCreateTicket, args, nil)
}

func (r *SupportResponder) account(ctx context.Context, message string, cc appcontext.ConversationContext) Response {
	if !cc.User.IsAuthenticated() {
		return reply("I can only look up account details for registered customers. Please sign in and ask again.")
	}

	userID := cc.UserID()
	args := map[string]string{"user_id": userID}
	u, err := r.tools.GetUser(ctx, userID)
	if err != nil {
		return toolReply(describeFailure(err, "your account"), tools.ToolGetUser, args, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are your account details:\n- Name: %s\n- Email: %s\n- Phone: %s\n- Membership: %s\n- Customer since: %s",
		u.Name, u.Email, u.Phone, u.Tier, formatDate(u.CreatedAt))
	if passwordPattern.MatchString(message) {
		b.WriteString("\nTo reset your password, use the \"Forgot password\" link on the sign-in page.")
	}
	return toolReply(b.String(), tools.ToolGetUser, args, nil)
}

func (r *SupportResponder) faq(ctx context.Context, message string, _ appcontext.ConversationContext) Response {
	args := map[string]string{"query": message}
	faqs, err := r.tools.SearchFAQ(ctx, message, 1)
	if err != nil {
		return toolReply(describeFailure(err, "an answer"), tools.ToolSearchFAQ, args, err)
	}
	if len(faqs) == 0 {
		return toolReply("I couldn't find an answer to that in our FAQ. Would you like me to connect you with a human agent?",
			tools.ToolSearchFAQ, args, nil)
	}

	return toolReply(fmt.Sprintf("%s\n%s", faqs[0].Question, faqs[0].Answer), tools.ToolSearchFAQ, args, nil)
}
