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

// Billing intent names, in priority order
const (
	IntentRefund         = "refund"
	IntentInvoice        = "invoice"
	IntentPayment        = "payment"
	IntentRecentPayments = "recent_payments"
)

// BillingResponder handles refunds, invoices and payments
type BillingResponder struct {
	tools   tools.BillingTools
	intents Intents
}

var _ Responder = (*BillingResponder)(nil)

func NewBillingResponder(t tools.BillingTools) *BillingResponder {
	r := &BillingResponder{tools: t}
	r.intents = Intents{
		{Name: IntentRefund, Pattern: regexp.MustCompile(`(?i)\b(refund|refunds|refunded|money\s+back|reimburse)\b|\bREF-\d+\b`), Handle: r.refund},
		{Name: IntentInvoice, Pattern: regexp.MustCompile(`(?i)\b(invoice|invoices|receipt|bill)\b|\bINV-\d+\b`), Handle: r.invoice},
		{Name: IntentPayment, Pattern: regexp.MustCompile(`(?i)\b(payment|payments|paid|pay|charge|charged|transaction)\b`), Handle: r.payment},
	}
	return r
}

func (r *BillingResponder) Category() category.Category { return category.Billing }

// Intents returns the ordered sub-intents
func (r *BillingResponder) Intents() Intents { return r.intents }

func (r *BillingResponder) Handle(ctx context.Context, message string, cc appcontext.ConversationContext) Response {
	fallback := Intent{Name: IntentRecentPayments, Handle: r.recent}
	return respond(ctx, category.Billing, r.intents, fallback, message, cc)
}

// refund looks up a refund id, requests a refund for an order number, or
// lists the customer's refunds when neither is given
func (r *BillingResponder) refund(ctx context.Context, message string, cc appcontext.ConversationContext) Response {
	if refundID, ok := ExtractRefundID(message); ok {
		args := map[string]string{"refund_id": refundID}
		p, err := r.tools.RefundStatus(ctx, refundID)
		if err != nil {
			return toolReply(describeFailure(err, "refund "+refundID), tools.ToolRefundStatus, args, err)
		}
		content := fmt.Sprintf("Refund %s for order %s is %s. Amount: %s.",
			p.RefundID, p.OrderNumber, humanStatus(p.RefundStatus), tools.FormatAmount(p.AmountCents, p.Currency))
		return toolReply(content, tools.ToolRefundStatus, args, nil)
	}

	if number, ok := ExtractOrderNumber(message); ok {
		args := map[string]string{"order_number": number}
		p, err := r.tools.RequestRefund(ctx, number)
		if err != nil {
			return toolReply(describeFailure(err, "order "+number), tools.ToolRequestRefund, args, err)
		}
		content := fmt.Sprintf("I've submitted a refund request for order %s. Your refund id is %s for %s. Refunds usually take 5-7 business days once approved.",
			p.OrderNumber, p.RefundID, tools.FormatAmount(p.AmountCents, p.Currency))
		return toolReply(content, tools.ToolRequestRefund, args, nil)
	}

	userID := cc.UserID()
	args := map[string]string{"user_id": userID}
	payments, err := r.tools.RefundedPayments(ctx, userID)
	if err != nil {
		return toolReply(describeFailure(err, "your refunds"), tools.ToolRefundedPayments, args, err)
	}
	if len(payments) == 0 {
		return toolReply("I don't see any refunds on your account. To request one, tell me the order number, e.g. \"refund ORD-001\".",
			tools.ToolRefundedPayments, args, nil)
	}

	var b strings.Builder
	b.WriteString("Here are your refunds:")
	for _, p := range payments {
		fmt.Fprintf(&b, "\n- %s for order %s: %s, %s", p.RefundID, p.OrderNumber,
			tools.FormatAmount(p.AmountCents, p.Currency), humanStatus(p.RefundStatus))
	}
	b.WriteString("\nTo request a new refund, include the order number.")
	return toolReply(b.String(), tools.ToolRefundedPayments, args, nil)
}

func (r *BillingResponder) invoice(ctx context.Context, message string, _ appcontext.ConversationContext) Response {
	number, ok := ExtractInvoiceNumber(message)
	if !ok {
		return reply("Which invoice are you asking about? Please include the invoice number, e.g. INV-001.")
	}

	args := map[string]string{"invoice_number": number}
	inv, err := r.tools.GetInvoice(ctx, number)
	if err != nil {
		return toolReply(describeFailure(err, "invoice "+number), tools.ToolGetInvoice, args, err)
	}

	content := fmt.Sprintf("Invoice %s for order %s: %s, status %s, issued %s.",
		inv.Number, inv.OrderNumber, tools.FormatAmount(inv.AmountCents, inv.Currency),
		humanStatus(inv.Status), formatDate(inv.IssuedAt))
	if inv.DueAt != nil {
		content += fmt.Sprintf(" Due %s.", formatDate(*inv.DueAt))
	}
	return toolReply(content, tools.ToolGetInvoice, args, nil)
}

func (r *BillingResponder) payment(ctx context.Context, message string, cc appcontext.ConversationContext) Response {
	number, ok := ExtractOrderNumber(message)
	if !ok {
		return r.recent(ctx, message, cc)
	}

	args := map[string]string{"order_number": number}
	p, err := r.tools.PaymentForOrder(ctx, number)
	if err != nil {
		return toolReply(describeFailure(err, "a payment for order "+number), tools.ToolPaymentForOrder, args, err)
	}

	content := fmt.Sprintf("Payment %s for order %s: %s via %s, status %s, on %s.",
		p.ID, p.OrderNumber, tools.FormatAmount(p.AmountCents, p.Currency), p.Method,
		humanStatus(p.Status), formatDate(p.CreatedAt))
	return toolReply(content, tools.ToolPaymentForOrder, args, nil)
}

func (r *BillingResponder) recent(ctx context.Context, _ string, cc appcontext.ConversationContext) Response {
	userID := cc.UserID()
	if userID == "" {
		return reply("I can help with refunds, invoices and payments. Could you share an order, refund or invoice number?")
	}

	args := map[string]string{"user_id": userID}
	payments, err := r.tools.RecentPayments(ctx, userID, recentLimit)
	if err != nil {
		return toolReply(describeFailure(err, "your payments"), tools.ToolRecentPayments, args, err)
	}
	if len(payments) == 0 {
		return toolReply("I couldn't find any payments on your account.", tools.ToolRecentPayments, args, nil)
	}

	var b strings.Builder
	b.WriteString("Here are your recent payments:")
	for _, p := range payments {
		fmt.Fprintf(&b, "\n- %s for order %s: %s, %s", p.ID, p.OrderNumber,
			tools.FormatAmount(p.AmountCents, p.Currency), humanStatus(p.Status))
	}
	return toolReply(b.String(), tools.ToolRecentPayments, args, nil)
}
