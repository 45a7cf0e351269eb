// Package tools holds the data tools responders call: order, billing and
// support lookups plus the few writes customers may trigger from chat.
package tools

import "context"

// Tool names as recorded on agent tool calls
const (
	ToolGetOrder              = "get_order"
	ToolTrackOrder            = "track_order"
	ToolCancelOrder           = "cancel_order"
	ToolUpdateShippingAddress = "update_shipping_address"
	ToolRecentOrders          = "recent_orders"

	ToolRefundStatus     = "refund_status"
	ToolRequestRefund    = "request_refund"
	ToolRefundedPayments = "refunded_payments"
	ToolGetInvoice       = "get_invoice"
	ToolPaymentForOrder  = "payment_for_order"
	ToolRecentPayments   = "recent_payments"

	ToolGetTicket    = "get_ticket"
	ToolCreateTicket = "create_ticket"
	ToolGetUser      = "get_user"
	ToolSearchFAQ    = "search_faq"
)

// OrderTools are the capabilities of the order responder
type OrderTools interface {
	GetOrder(ctx context.Context, orderNumber string) (*Order, error)
	TrackOrder(ctx context.Context, orderNumber string) (*Tracking, error)
	CancelOrder(ctx context.Context, orderNumber string) (*Order, error)
	UpdateShippingAddress(ctx context.Context, orderNumber, address string) (*Order, error)
	RecentOrders(ctx context.Context, userID string, limit int) ([]Order, error)
}

// BillingTools are the capabilities of the billing responder
type BillingTools interface {
	RefundStatus(ctx context.Context, refundID string) (*Payment, error)
	RequestRefund(ctx context.Context, orderNumber string) (*Payment, error)
	RefundedPayments(ctx context.Context, userID string) ([]Payment, error)
	GetInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error)
	PaymentForOrder(ctx context.Context, orderNumber string) (*Payment, error)
	RecentPayments(ctx context.Context, userID string, limit int) ([]Payment, error)
}

// SupportTools are the capabilities of the support responder
type SupportTools interface {
	GetTicket(ctx context.Context, ticketNumber string) (*Ticket, error)
	CreateTicket(ctx context.Context, userID, subject, description string) (*Ticket, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	SearchFAQ(ctx context.Context, query string, limit int) ([]FAQ, error)
}

// Toolset is everything SQLTools provides
type Toolset interface {
	OrderTools
	BillingTools
	SupportTools
}
