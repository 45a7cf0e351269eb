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

// Order intent names, in priority order
const (
	IntentTrack  = "track"
	IntentStatus = "status"
	IntentCancel = "cancel"
	IntentModify = "modify"
	IntentRecent = "recent_orders"
)

const recentLimit = 5

const askOrderNumber = "Could you share your order number? It looks like ORD-001."

// OrderResponder handles tracking, status, cancellation and address changes
type OrderResponder struct {
	tools   tools.OrderTools
	intents Intents
}

var _ Responder = (*OrderResponder)(nil)

func NewOrderResponder(t tools.OrderTools) *OrderResponder {
	r := &OrderResponder{tools: t}
	r.intents = Intents{
		{Name: IntentTrack, Pattern: regexp.MustCompile(`(?i)\b(track|tracking|where\s+is|where's|shipped|shipment)\b`), Handle: r.track},
		{Name: IntentStatus, Pattern: regexp.MustCompile(`(?i)\b(status|update\s+on|progress)\b`), Handle: r.status},
		{Name: IntentCancel, Pattern: regexp.MustCompile(`(?i)\b(cancel|cancell?ed|cancell?ation)\b`), Handle: r.cancel},
		{Name: IntentModify, Pattern: regexp.MustCompile(`(?i)\b(change|modify|update|edit)\b|\bnew\s+address\b`), Handle: r.modify},
	}
	return r
}

func (r *OrderResponder) Category() category.Category { return category.Order }

// Intents returns the ordered sub-intents
func (r *OrderResponder) Intents() Intents { return r.intents }

func (r *OrderResponder) Handle(ctx context.Context, message string, cc appcontext.ConversationContext) Response {
	fallback := Intent{Name: IntentRecent, Handle: r.recent}
	return respond(ctx, category.Order, r.intents, fallback, message, cc)
}

func (r *OrderResponder) track(ctx context.Context, message string, _ appcontext.ConversationContext) Response {
	number, ok := ExtractOrderNumber(message)
	if !ok {
		return reply(askOrderNumber)
	}

	args := map[string]string{"order_number": number}
	tr, err := r.tools.TrackOrder(ctx, number)
	if err != nil {
		return toolReply(describeFailure(err, "order "+number), tools.ToolTrackOrder, args, err)
	}

	var b strings.Builder
	if tr.HasShipment() {
		fmt.Fprintf(&b, "Order %s is %s with %s. Tracking number: %s.", tr.OrderNumber, humanStatus(tr.Status), tr.Carrier, tr.TrackingNumber)
	} else {
		fmt.Fprintf(&b, "Order %s is %s and has not shipped yet, so there is no tracking number.", tr.OrderNumber, humanStatus(tr.Status))
	}
	fmt.Fprintf(&b, " Estimated delivery: %s.", formatDatePtr(tr.EstimatedDelivery))
	return toolReply(b.String(), tools.ToolTrackOrder, args, nil)
}

func (r *OrderResponder) status(ctx context.Context, message string, _ appcontext.ConversationContext) Response {
	number, ok := ExtractOrderNumber(message)
	if !ok {
		return reply(askOrderNumber)
	}

	args := map[string]string{"order_number": number}
	o, err := r.tools.GetOrder(ctx, number)
	if err != nil {
		return toolReply(describeFailure(err, "order "+number), tools.ToolGetOrder, args, err)
	}

	content := fmt.Sprintf("Order %s (%s) is currently %s. Total: %s. Placed on %s.",
		o.Number, o.Items, humanStatus(o.Status), tools.FormatAmount(o.TotalCents, o.Currency), formatDate(o.CreatedAt))
	return toolReply(content, tools.ToolGetOrder, args, nil)
}

func (r *OrderResponder) cancel(ctx context.Context, message string, _ appcontext.ConversationContext) Response {
	number, ok := ExtractOrderNumber(message)
	if !ok {
		return reply("Which order would you like to cancel? Please include the order number, e.g. ORD-001.")
	}

	args := map[string]string{"order_number": number}
	o, err := r.tools.CancelOrder(ctx, number)
	if err != nil {
		return toolReply(describeFailure(err, "order "+number), tools.ToolCancelOrder, args, err)
	}

	content := fmt.Sprintf("Order %s has been cancelled. Any payment of %s will be returned to your original payment method.",
		o.Number, tools.FormatAmount(o.TotalCents, o.Currency))
	return toolReply(content, tools.ToolCancelOrder, args, nil)
}

func (r *OrderResponder) modify(ctx context.Context, message string, _ appcontext.ConversationContext) Response {
	number, ok := ExtractOrderNumber(message)
	if !ok {
		return reply("Which order would you like to change? Please include the order number, e.g. ORD-001.")
	}
	address, ok := ExtractAddress(message)
	if !ok {
		return reply(fmt.Sprintf("What address should %s ship to? For example: \"change the address of %s to 9 Elm St, Austin, TX\".", number, number))
	}

	args := map[string]string{"order_number": number, "address": address}
	o, err := r.tools.UpdateShippingAddress(ctx, number, address)
	if err != nil {
		return toolReply(describeFailure(err, "order "+number), tools.ToolUpdateShippingAddress, args, err)
	}

	content := fmt.Sprintf("Done. Order %s will now ship to: %s.", o.Number, o.ShippingAddress)
	return toolReply(content, tools.ToolUpdateShippingAddress, args, nil)
}

func (r *OrderResponder) recent(ctx context.Context, _ string, cc appcontext.ConversationContext) Response {
	userID := cc.UserID()
	if userID == "" {
		return reply("I can help with tracking, order status, cancellations and address changes. Which order is this about?")
	}

	args := map[string]string{"user_id": userID}
	orders, err := r.tools.RecentOrders(ctx, userID, recentLimit)
	if err != nil {
		return toolReply(describeFailure(err, "your orders"), tools.ToolRecentOrders, args, err)
	}
	if len(orders) == 0 {
		return toolReply("I couldn't find any orders on your account. If you have an order number (like ORD-001), share it and I can look it up.",
			tools.ToolRecentOrders, args, nil)
	}

	var b strings.Builder
	b.WriteString("Here are your recent orders:")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n- %s: %s, %s (%s)", o.Number, o.Items, humanStatus(o.Status), tools.FormatAmount(o.TotalCents, o.Currency))
	}
	b.WriteString("\nWhich one can I help you with?")
	return toolReply(b.String(), tools.ToolRecentOrders, args, nil)
}
