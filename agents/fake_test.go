package agents_test

import (
	"context"
	"errors"
	"time"

	"github.com/Abraxas-365/supportdesk/tools"
)

var day = time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC)

// fakeTools serves a fixed data set and records every call
type fakeTools struct {
	orders   map[string]*tools.Order
	payments map[string]*tools.Payment // by order number
	invoices map[string]*tools.Invoice
	tickets  map[string]*tools.Ticket
	users    map[string]*tools.User
	faqs     []tools.FAQ
	fail     error
	calls    []string
}

func newFakeTools() *fakeTools {
	return &fakeTools{
		orders: map[string]*tools.Order{
			"ORD-001": {Number: "ORD-001", UserID: "u-1", Status: tools.OrderShipped, Items: "Headphones x1",
				TotalCents: 12999, Currency: "USD", Carrier: "UPS", TrackingNumber: "1Z999AA10123456784",
				EstimatedDelivery: &day, CreatedAt: day},
			"ORD-002": {Number: "ORD-002", UserID: "u-1", Status: tools.OrderProcessing, Items: "Grinder x1",
				TotalCents: 5450, Currency: "USD", CreatedAt: day},
		},
		payments: map[string]*tools.Payment{
			"ORD-001": {ID: "PAY-001", OrderNumber: "ORD-001", UserID: "u-1", AmountCents: 12999, Currency: "USD",
				Method: "Visa ending 4242", Status: tools.PaymentCaptured, CreatedAt: day},
			"ORD-003": {ID: "PAY-003", OrderNumber: "ORD-003", UserID: "u-2", AmountCents: 8900, Currency: "USD",
				Status: tools.PaymentRefunded, RefundID: "REF-003", RefundStatus: "completed", CreatedAt: day},
		},
		invoices: map[string]*tools.Invoice{
			"INV-001": {Number: "INV-001", OrderNumber: "ORD-001", AmountCents: 12999, Currency: "USD", Status: "paid", IssuedAt: day},
		},
		tickets: map[string]*tools.Ticket{
			"TKT-001": {ID: 1, UserID: "u-1", Subject: "Damaged box", Status: tools.TicketInProgress, Priority: "high", UpdatedAt: day},
		},
		users: map[string]*tools.User{
			"u-1": {ID: "u-1", Name: "Alice Johnson", Email: "alice@example.com", Tier: "gold", CreatedAt: day},
		},
		faqs: []tools.FAQ{
			{ID: 1, Question: "What are your support hours?", Answer: "9am to 6pm EST.", Keywords: "hours,open"},
		},
	}
}

func (f *fakeTools) record(name string) error {
	f.calls = append(f.calls, name)
	return f.fail
}

func (f *fakeTools) GetOrder(_ context.Context, n string) (*tools.Order, error) {
	if err := f.record(tools.ToolGetOrder); err != nil {
		return nil, err
	}
	o, ok := f.orders[n]
	if !ok {
		return nil, tools.NewOrderNotFoundError(n)
	}
	return o, nil
}

func (f *fakeTools) TrackOrder(_ context.Context, n string) (*tools.Tracking, error) {
	if err := f.record(tools.ToolTrackOrder); err != nil {
		return nil, err
	}
	o, ok := f.orders[n]
	if !ok {
		return nil, tools.NewOrderNotFoundError(n)
	}
	return &tools.Tracking{OrderNumber: o.Number, Status: o.Status, Carrier: o.Carrier,
		TrackingNumber: o.TrackingNumber, EstimatedDelivery: o.EstimatedDelivery}, nil
}

func (f *fakeTools) CancelOrder(_ context.Context, n string) (*tools.Order, error) {
	if err := f.record(tools.ToolCancelOrder); err != nil {
		return nil, err
	}
	o, ok := f.orders[n]
	if !ok {
		return nil, tools.NewOrderNotFoundError(n)
	}
	if !o.IsOpen() {
		return nil, tools.NewOrderNotCancellableError(n, o.Status)
	}
	o.Status = tools.OrderCancelled
	return o, nil
}

func (f *fakeTools) UpdateShippingAddress(_ context.Context, n, address string) (*tools.Order, error) {
	if err := f.record(tools.ToolUpdateShippingAddress); err != nil {
		return nil, err
	}
	o, ok := f.orders[n]
	if !ok {
		return nil, tools.NewOrderNotFoundError(n)
	}
	if !o.IsOpen() {
		return nil, tools.NewOrderNotModifiableError(n, o.Status)
	}
	o.ShippingAddress = address
	return o, nil
}

func (f *fakeTools) RecentOrders(_ context.Context, userID string, _ int) ([]tools.Order, error) {
	if err := f.record(tools.ToolRecentOrders); err != nil {
		return nil, err
	}
	var out []tools.Order
	for _, n := range []string{"ORD-002", "ORD-001"} {
		if o := f.orders[n]; o != nil && o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeTools) RefundStatus(_ context.Context, refundID string) (*tools.Payment, error) {
	if err := f.record(tools.ToolRefundStatus); err != nil {
		return nil, err
	}
	for _, p := range f.payments {
		if p.RefundID == refundID {
			return p, nil
		}
	}
	return nil, tools.NewRefundNotFoundError(refundID)
}

func (f *fakeTools) RequestRefund(_ context.Context, n string) (*tools.Payment, error) {
	if err := f.record(tools.ToolRequestRefund); err != nil {
		return nil, err
	}
	p, ok := f.payments[n]
	if !ok {
		return nil, tools.NewPaymentNotFoundError(n)
	}
	if p.HasRefund() {
		return nil, tools.NewRefundAlreadyRequestedError(p.ID, p.RefundID)
	}
	p.Status = tools.PaymentRefundRequested
	p.RefundID = tools.RefundIDFor(p.ID)
	p.RefundStatus = "pending"
	return p, nil
}

func (f *fakeTools) RefundedPayments(_ context.Context, userID string) ([]tools.Payment, error) {
	if err := f.record(tools.ToolRefundedPayments); err != nil {
		return nil, err
	}
	var out []tools.Payment
	for _, p := range f.payments {
		if p.UserID == userID && p.HasRefund() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeTools) GetInvoice(_ context.Context, n string) (*tools.Invoice, error) {
	if err := f.record(tools.ToolGetInvoice); err != nil {
		return nil, err
	}
	inv, ok := f.invoices[n]
	if !ok {
		return nil, tools.NewInvoiceNotFoundError(n)
	}
	return inv, nil
}

func (f *fakeTools) PaymentForOrder(_ context.Context, n string) (*tools.Payment, error) {
	if err := f.record(tools.ToolPaymentForOrder); err != nil {
		return nil, err
	}
	p, ok := f.payments[n]
	if !ok {
		return nil, tools.NewPaymentNotFoundError(n)
	}
	return p, nil
}

func (f *fakeTools) RecentPayments(_ context.Context, userID string, _ int) ([]tools.Payment, error) {
	if err := f.record(tools.ToolRecentPayments); err != nil {
		return nil, err
	}
	var out []tools.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeTools) GetTicket(_ context.Context, n string) (*tools.Ticket, error) {
	if err := f.record(tools.ToolGetTicket); err != nil {
		return nil, err
	}
	tk, ok := f.tickets[n]
	if !ok {
		return nil, tools.NewTicketNotFoundError(n)
	}
	return tk, nil
}

func (f *fakeTools) CreateTicket(_ context.Context, userID, subject, description string) (*tools.Ticket, error) {
	if err := f.record(tools.ToolCreateTicket); err != nil {
		return nil, err
	}
	tk := &tools.Ticket{ID: int64(len(f.tickets) + 1), UserID: userID, Subject: subject,
		Description: description, Status: tools.TicketOpen, Priority: "normal"}
	f.tickets[tk.Number()] = tk
	return tk, nil
}

func (f *fakeTools) GetUser(_ context.Context, userID string) (*tools.User, error) {
	if err := f.record(tools.ToolGetUser); err != nil {
		return nil, err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, tools.NewUserNotFoundError(userID)
	}
	return u, nil
}

func (f *fakeTools) SearchFAQ(_ context.Context, query string, limit int) ([]tools.FAQ, error) {
	if err := f.record(tools.ToolSearchFAQ); err != nil {
		return nil, err
	}
	return tools.RankFAQs(f.faqs, query, limit), nil
}

var _ tools.Toolset = (*fakeTools)(nil)

var errDown = errors.New("connection refused")
