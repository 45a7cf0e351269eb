package tools

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/jmoiron/sqlx"
)

// SQLTools implements every tool capability over the relational store.
// Queries are written with ? placeholders and rebound for the driver.
type SQLTools struct {
	db  *sqlx.DB
	now func() time.Time
}

// SQLToolsOption configures SQLTools
type SQLToolsOption func(*SQLTools)

// WithClock overrides the time source used for write timestamps
func WithClock(now func() time.Time) SQLToolsOption {
	return func(t *SQLTools) { t.now = now }
}

func NewSQLTools(db *sqlx.DB, opts ...SQLToolsOption) *SQLTools {
	t := &SQLTools{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(t)
	}
	logx.WithField("driver", db.DriverName()).Info("SQL tools initialized")
	return t
}

var _ Toolset = (*SQLTools)(nil)

const (
	orderColumns   = `order_number, user_id, status, items, total_cents, currency, shipping_address, carrier, tracking_number, estimated_delivery, created_at, updated_at`
	paymentColumns = `id, order_number, user_id, amount_cents, currency, method, status, refund_id, refund_status, created_at, refunded_at`
)

// ============================================================================
// Orders
// ============================================================================

func (t *SQLTools) GetOrder(ctx context.Context, orderNumber string) (*Order, error) {
	var o Order
	query := t.db.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE order_number = ?`)
	if err := t.db.GetContext(ctx, &o, query, orderNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewOrderNotFoundError(orderNumber)
		}
		return nil, t.failed(ToolGetOrder, err)
	}
	return &o, nil
}

func (t *SQLTools) TrackOrder(ctx context.Context, orderNumber string) (*Tracking, error) {
	o, err := t.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return &Tracking{
		OrderNumber:       o.Number,
		Status:            o.Status,
		Carrier:           o.Carrier,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
	}, nil
}

func (t *SQLTools) CancelOrder(ctx context.Context, orderNumber string) (*Order, error) {
	query := t.db.Rebind(`
		UPDATE orders SET status = ?, updated_at = ?
		WHERE order_number = ? AND status IN (?, ?)`)

	res, err := t.db.ExecContext(ctx, query, OrderCancelled, t.now(), orderNumber, OrderPending, OrderProcessing)
	if err != nil {
		return nil, t.failed(ToolCancelOrder, err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		o, err := t.GetOrder(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
		return nil, NewOrderNotCancellableError(orderNumber, o.Status)
	}

	logx.WithField("order_number", orderNumber).Info("Order cancelled")
	return t.GetOrder(ctx, orderNumber)
}

func (t *SQLTools) UpdateShippingAddress(ctx context.Context, orderNumber, address string) (*Order, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, NewInvalidArgumentError(ToolUpdateShippingAddress, "address must not be empty")
	}

	query := t.db.Rebind(`
		UPDATE orders SET shipping_address = ?, updated_at = ?
		WHERE order_number = ? AND status IN (?, ?)`)

	res, err := t.db.ExecContext(ctx, query, address, t.now(), orderNumber, OrderPending, OrderProcessing)
	if err != nil {
		return nil, t.failed(ToolUpdateShippingAddress, err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		o, err := t.GetOrder(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
		return nil, NewOrderNotModifiableError(orderNumber, o.Status)
	}

	logx.WithField("order_number", orderNumber).Info("Shipping address updated")
	return t.GetOrder(ctx, orderNumber)
}

func (t *SQLTools) RecentOrders(ctx context.Context, userID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 5
	}
	query := t.db.Rebind(`SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = ? ORDER BY created_at DESC, order_number DESC LIMIT ?`)

	orders := []Order{}
	if err := t.db.SelectContext(ctx, &orders, query, userID, limit); err != nil {
		return nil, t.failed(ToolRecentOrders, err)
	}
	return orders, nil
}

// ============================================================================
// Billing
// ============================================================================

func (t *SQLTools) RefundStatus(ctx context.Context, refundID string) (*Payment, error) {
	var p Payment
	query := t.db.Rebind(`SELECT ` + paymentColumns + ` FROM payments WHERE refund_id = ?`)
	if err := t.db.GetContext(ctx, &p, query, refundID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewRefundNotFoundError(refundID)
		}
		return nil, t.failed(ToolRefundStatus, err)
	}
	return &p, nil
}

func (t *SQLTools) RequestRefund(ctx context.Context, orderNumber string) (*Payment, error) {
	p, err := t.PaymentForOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if p.HasRefund() {
		return nil, NewRefundAlreadyRequestedError(p.ID, p.RefundID)
	}
	if p.Status != PaymentCaptured {
		return nil, NewPaymentNotRefundableError(p.ID, p.Status)
	}

	refundID := RefundIDFor(p.ID)
	query := t.db.Rebind(`
		UPDATE payments SET status = ?, refund_id = ?, refund_status = ?, refunded_at = ?
		WHERE id = ? AND status = ? AND refund_id = ''`)

	res, err := t.db.ExecContext(ctx, query,
		PaymentRefundRequested, refundID, "pending", t.now(),
		p.ID, PaymentCaptured,
	)
	if err != nil {
		return nil, t.failed(ToolRequestRefund, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, NewRefundAlreadyRequestedError(p.ID, refundID)
	}

	logx.WithFields(logx.Fields{
		"payment_id": p.ID,
		"refund_id":  refundID,
	}).Info("Refund requested")

	return t.RefundStatus(ctx, refundID)
}

func (t *SQLTools) RefundedPayments(ctx context.Context, userID string) ([]Payment, error) {
	query := t.db.Rebind(`SELECT ` + paymentColumns + ` FROM payments
		WHERE user_id = ? AND refund_id <> '' ORDER BY created_at DESC, id DESC`)

	payments := []Payment{}
	if err := t.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, t.failed(ToolRefundedPayments, err)
	}
	return payments, nil
}

func (t *SQLTools) GetInvoice(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	var inv Invoice
	query := t.db.Rebind(`
		SELECT invoice_number, order_number, user_id, amount_cents, currency, status, issued_at, due_at
		FROM invoices WHERE invoice_number = ?`)
	if err := t.db.GetContext(ctx, &inv, query, invoiceNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewInvoiceNotFoundError(invoiceNumber)
		}
		return nil, t.failed(ToolGetInvoice, err)
	}
	return &inv, nil
}

func (t *SQLTools) PaymentForOrder(ctx context.Context, orderNumber string) (*Payment, error) {
	var p Payment
	query := t.db.Rebind(`SELECT ` + paymentColumns + ` FROM payments
		WHERE order_number = ? ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err := t.db.GetContext(ctx, &p, query, orderNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewPaymentNotFoundError(orderNumber)
		}
		return nil, t.failed(ToolPaymentForOrder, err)
	}
	return &p, nil
}

func (t *SQLTools) RecentPayments(ctx context.Context, userID string, limit int) ([]Payment, error) {
	if limit <= 0 {
		limit = 5
	}
	query := t.db.Rebind(`SELECT ` + paymentColumns + ` FROM payments
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)

	payments := []Payment{}
	if err := t.db.SelectContext(ctx, &payments, query, userID, limit); err != nil {
		return nil, t.failed(ToolRecentPayments, err)
	}
	return payments, nil
}

// ============================================================================
// Support
// ============================================================================

func (t *SQLTools) GetTicket(ctx context.Context, ticketNumber string) (*Ticket, error) {
	id, err := ParseTicketNumber(ticketNumber)
	if err != nil {
		return nil, NewTicketNotFoundError(ticketNumber)
	}

	var tk Ticket
	query := t.db.Rebind(`
		SELECT id, user_id, subject, description, status, priority, created_at, updated_at
		FROM tickets WHERE id = ?`)
	if err := t.db.GetContext(ctx, &tk, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewTicketNotFoundError(ticketNumber)
		}
		return nil, t.failed(ToolGetTicket, err)
	}
	return &tk, nil
}

func (t *SQLTools) CreateTicket(ctx context.Context, userID, subject, description string) (*Ticket, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, NewInvalidArgumentError(ToolCreateTicket, "subject must not be empty")
	}

	now := t.now()
	tk := &Ticket{
		UserID:      userID,
		Subject:     subject,
		Description: description,
		Status:      TicketOpen,
		Priority:    "normal",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := t.db.Rebind(`
		INSERT INTO tickets (user_id, subject, description, status, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := t.db.QueryRowxContext(ctx, query,
		tk.UserID, tk.Subject, tk.Description, tk.Status, tk.Priority, tk.CreatedAt, tk.UpdatedAt,
	).Scan(&tk.ID)
	if err != nil {
		return nil, t.failed(ToolCreateTicket, err)
	}

	logx.WithFields(logx.Fields{
		"ticket":  tk.Number(),
		"user_id": userID,
	}).Info("Support ticket created")

	return tk, nil
}

func (t *SQLTools) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	query := t.db.Rebind(`SELECT id, name, email, phone, tier, created_at FROM users WHERE id = ?`)
	if err := t.db.GetContext(ctx, &u, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewUserNotFoundError(userID)
		}
		return nil, t.failed(ToolGetUser, err)
	}
	return &u, nil
}

// SearchFAQ ranks FAQ entries by how many of their keywords occur in the query
func (t *SQLTools) SearchFAQ(ctx context.Context, query string, limit int) ([]FAQ, error) {
	if limit <= 0 {
		limit = 3
	}

	var all []FAQ
	if err := t.db.SelectContext(ctx, &all, `SELECT id, question, answer, keywords FROM faqs ORDER BY id`); err != nil {
		return nil, t.failed(ToolSearchFAQ, err)
	}

	return RankFAQs(all, query, limit), nil
}

// RankFAQs keeps entries with at least one keyword hit, best first, stable by id
func RankFAQs(faqs []FAQ, query string, limit int) []FAQ {
	query = strings.ToLower(query)

	type hit struct {
		faq   FAQ
		score int
	}
	hits := make([]hit, 0, len(faqs))
	for _, f := range faqs {
		score := 0
		for _, kw := range f.KeywordList() {
			if strings.Contains(query, kw) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{faq: f, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]FAQ, 0, min(limit, len(hits)))
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].faq)
	}
	return out
}

func (t *SQLTools) failed(tool string, err error) error {
	logx.WithField("tool", tool).WithError(err).Error("Tool query failed")
	return NewToolExecutionError(tool, err)
}
