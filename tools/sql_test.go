package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
	"github.com/Abraxas-365/supportdesk/store/storetest"
	"github.com/Abraxas-365/supportdesk/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTools(t *testing.T) *tools.SQLTools {
	t.Helper()
	db := storetest.NewSeededDB(t)
	return tools.NewSQLTools(db, tools.WithClock(func() time.Time { return fixedNow }))
}

func TestSQLTools_Orders(t *testing.T) {
	ctx := context.Background()
	tl := newTools(t)

	t.Run("get order", func(t *testing.T) {
		o, err := tl.GetOrder(ctx, "ORD-001")
		require.NoError(t, err)
		assert.Equal(t, "u-1001", o.UserID)
		assert.Equal(t, tools.OrderShipped, o.Status)
		assert.Equal(t, int64(12999), o.TotalCents)
		require.NotNil(t, o.EstimatedDelivery)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := tl.GetOrder(ctx, "ORD-999")
		assert.True(t, errx.IsCode(err, tools.ErrCodeOrderNotFound))
	})

	t.Run("track order", func(t *testing.T) {
		tr, err := tl.TrackOrder(ctx, "ORD-001")
		require.NoError(t, err)
		assert.Equal(t, "UPS", tr.Carrier)
		assert.Equal(t, "1Z999AA10123456784", tr.TrackingNumber)
		assert.True(t, tr.HasShipment())

		tr, err = tl.TrackOrder(ctx, "ORD-002")
		require.NoError(t, err)
		assert.False(t, tr.HasShipment())
	})

	t.Run("recent orders newest first", func(t *testing.T) {
		orders, err := tl.RecentOrders(ctx, "u-1001", 0)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "ORD-002", orders[0].Number)
		assert.Equal(t, "ORD-001", orders[1].Number)

		orders, err = tl.RecentOrders(ctx, "u-404", 5)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestSQLTools_CancelOrder(t *testing.T) {
	ctx := context.Background()
	tl := newTools(t)

	o, err := tl.CancelOrder(ctx, "ORD-002")
	require.NoError(t, err)
	assert.Equal(t, tools.OrderCancelled, o.Status)
	assert.True(t, o.UpdatedAt.Equal(fixedNow))

	_, err = tl.CancelOrder(ctx, "ORD-002")
	assert.True(t, errx.IsCode(err, tools.ErrCodeOrderNotCancellable))

	_, err = tl.CancelOrder(ctx, "ORD-001")
	e, ok := errx.As(err)
	require.True(t, ok)
	assert.Equal(t, tools.ErrCodeOrderNotCancellable, e.Code)
	status, _ := e.Detail("status")
	assert.Equal(t, tools.OrderShipped, status)

	_, err = tl.CancelOrder(ctx, "ORD-999")
	assert.True(t, errx.IsCode(err, tools.ErrCodeOrderNotFound))
}

func TestSQLTools_UpdateShippingAddress(t *testing.T) {
	ctx := context.Background()
	tl := newTools(t)

	o, err := tl.UpdateShippingAddress(ctx, "ORD-004", "  9 Elm St, Austin, TX 73301 ")
	require.NoError(t, err)
	assert.Equal(t, "9 Elm St, Austin, TX 73301", o.ShippingAddress)

	_, err = tl.UpdateShippingAddress(ctx, "ORD-003", "9 Elm St")
	assert.True(t, errx.IsCode(err, tools.ErrCodeOrderNotModifiable))

	_, err = tl.UpdateShippingAddress(ctx, "ORD-004", "   ")
	assert.True(t, errx.IsCode(err, tools.ErrCodeInvalidArgument))
}

func TestSQLTools_Refunds(t *testing.T) {
	ctx := context.Background()
	tl := newTools(t)

	t.Run("refund status", func(t *testing.T) {
		p, err := tl.RefundStatus(ctx, "REF-003")
		require.NoError(t, err)
		assert.Equal(t, "PAY-003", p.ID)
		assert.Equal(t, "completed", p.RefundStatus)

		_, err = tl.RefundStatus(ctx, "REF-404")
		assert.True(t, errx.IsCode(err, tools.ErrCodeRefundNotFound))
	})

	t.Run("request refund", func(t *testing.T) {
		p, err := tl.RequestRefund(ctx, "ORD-002")
		require.NoError(t, err)
		assert.Equal(t, "REF-002", p.RefundID)
		assert.Equal(t, tools.PaymentRefundRequested, p.Status)
		assert.Equal(t, "pending", p.RefundStatus)

		_, err = tl.RequestRefund(ctx, "ORD-002")
		assert.True(t, errx.IsCode(err, tools.ErrCodeRefundAlreadyRequested))
	})

	t.Run("refund for order without payment", func(t *testing.T) {
		_, err := tl.RequestRefund(ctx, "ORD-999")
		assert.True(t, errx.IsCode(err, tools.ErrCodePaymentNotFound))
	})

	t.Run("refunded payments", func(t *testing.T) {
		payments, err := tl.RefundedPayments(ctx, "u-1002")
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, "REF-003", payments[0].RefundID)

		payments, err = tl.RefundedPayments(ctx, "u-404")
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}

func TestSQLTools_InvoicesAndPayments(t *testing.T) {
	ctx := context.Background()
	tl := newTools(t)

	inv, err := tl.GetInvoice(ctx, "INV-004")
	require.NoError(t, err)
	assert.Equal(t, "open", inv.Status)
	require.NotNil(t, inv.DueAt)

	_, err = tl.GetInvoice(ctx, "INV-404")
	assert.True(t, errx.IsCode(err, tools.ErrCodeInvoiceNotFound))

	p, err := tl.PaymentForOrder(ctx, "ORD-001")
	require.NoError(t, err)
	assert.Equal(t, "PAY-001", p.ID)
	assert.False(t, p.HasRefund())

	payments, err := tl.RecentPayments(ctx, "u-1002", 1)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "PAY-004", payments[0].ID)
}

func TestSQLTools_Tickets(t *testing.T) {
	ctx := context.Background()
	tl := newTools(t)

	tk, err := tl.GetTicket(ctx, "TKT-001")
	require.NoError(t, err)
	assert.Equal(t, tools.TicketInProgress, tk.Status)

	_, err = tl.GetTicket(ctx, "TKT-042")
	assert.True(t, errx.IsCode(err, tools.ErrCodeTicketNotFound))

	_, err = tl.GetTicket(ctx, "ticket one")
	assert.True(t, errx.IsCode(err, tools.ErrCodeTicketNotFound))

	created, err := tl.CreateTicket(ctx, "u-1002", "Speak to a human", "Customer asked for an agent")
	require.NoError(t, err)
	assert.Equal(t, "TKT-002", created.Number())
	assert.Equal(t, tools.TicketOpen, created.Status)

	fetched, err := tl.GetTicket(ctx, created.Number())
	require.NoError(t, err)
	assert.Equal(t, "Speak to a human", fetched.Subject)

	_, err = tl.CreateTicket(ctx, "u-1002", " ", "")
	assert.True(t, errx.IsCode(err, tools.ErrCodeInvalidArgument))
}

func TestSQLTools_UsersAndFAQ(t *testing.T) {
	ctx := context.Background()
	tl := newTools(t)

	u, err := tl.GetUser(ctx, "u-1001")
	require.NoError(t, err)
	assert.Equal(t, "Alice Johnson", u.Name)

	_, err = tl.GetUser(ctx, "anon_123")
	assert.True(t, errx.IsCode(err, tools.ErrCodeUserNotFound))

	faqs, err := tl.SearchFAQ(ctx, "what is your return policy?", 0)
	require.NoError(t, err)
	require.NotEmpty(t, faqs)
	assert.Equal(t, int64(2), faqs[0].ID)

	faqs, err = tl.SearchFAQ(ctx, "xyzzy", 3)
	require.NoError(t, err)
	assert.Empty(t, faqs)
}
