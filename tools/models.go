package tools

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Order statuses
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// Payment statuses
const (
	PaymentCaptured        = "captured"
	PaymentRefundRequested = "refund_requested"
	PaymentRefunded        = "refunded"
	PaymentFailed          = "failed"
)

// Ticket statuses
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
)

type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Tier      string    `json:"tier" db:"tier"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Order struct {
	Number            string     `json:"order_number" db:"order_number"`
	UserID            string     `json:"user_id" db:"user_id"`
	Status            string     `json:"status" db:"status"`
	Items             string     `json:"items" db:"items"`
	TotalCents        int64      `json:"total_cents" db:"total_cents"`
	Currency          string     `json:"currency" db:"currency"`
	ShippingAddress   string     `json:"shipping_address" db:"shipping_address"`
	Carrier           string     `json:"carrier" db:"carrier"`
	TrackingNumber    string     `json:"tracking_number" db:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the order has not shipped yet
func (o *Order) IsOpen() bool {
	return o.Status == OrderPending || o.Status == OrderProcessing
}

// Tracking is the shipment view of an order
type Tracking struct {
	OrderNumber       string     `json:"order_number"`
	Status            string     `json:"status"`
	Carrier           string     `json:"carrier"`
	TrackingNumber    string     `json:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// HasShipment reports whether a carrier tracking number exists
func (t *Tracking) HasShipment() bool {
	return t.TrackingNumber != ""
}

type Payment struct {
	ID           string     `json:"id" db:"id"`
	OrderNumber  string     `json:"order_number" db:"order_number"`
	UserID       string     `json:"user_id" db:"user_id"`
	AmountCents  int64      `json:"amount_cents" db:"amount_cents"`
	Currency     string     `json:"currency" db:"currency"`
	Method       string     `json:"method" db:"method"`
	Status       string     `json:"status" db:"status"`
	RefundID     string     `json:"refund_id,omitempty" db:"refund_id"`
	RefundStatus string     `json:"refund_status,omitempty" db:"refund_status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty" db:"refunded_at"`
}

// HasRefund reports whether a refund was ever requested
func (p *Payment) HasRefund() bool {
	return p.RefundID != ""
}

// RefundIDFor derives the refund id of a payment (PAY-002 -> REF-002)
func RefundIDFor(paymentID string) string {
	return "REF-" + strings.TrimPrefix(paymentID, "PAY-")
}

type Invoice struct {
	Number      string     `json:"invoice_number" db:"invoice_number"`
	OrderNumber string     `json:"order_number" db:"order_number"`
	UserID      string     `json:"user_id" db:"user_id"`
	AmountCents int64      `json:"amount_cents" db:"amount_cents"`
	Currency    string     `json:"currency" db:"currency"`
	Status      string     `json:"status" db:"status"`
	IssuedAt    time.Time  `json:"issued_at" db:"issued_at"`
	DueAt       *time.Time `json:"due_at,omitempty" db:"due_at"`
}

type Ticket struct {
	ID          int64     `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Subject     string    `json:"subject" db:"subject"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	Priority    string    `json:"priority" db:"priority"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Number is the customer-facing ticket number, e.g. TKT-001
func (t *Ticket) Number() string {
	return TicketNumber(t.ID)
}

// TicketNumber formats a ticket id
func TicketNumber(id int64) string {
	return fmt.Sprintf("TKT-%03d", id)
}

// ParseTicketNumber extracts the id from TKT-<digits>
func ParseTicketNumber(number string) (int64, error) {
	digits, ok := strings.CutPrefix(strings.ToUpper(number), "TKT-")
	if !ok || digits == "" {
		return 0, fmt.Errorf("invalid ticket number %q", number)
	}
	return strconv.ParseInt(digits, 10, 64)
}

type FAQ struct {
	ID       int64  `json:"id" db:"id"`
	Question string `json:"question" db:"question"`
	Answer   string `json:"answer" db:"answer"`
	Keywords string `json:"keywords" db:"keywords"`
}

// KeywordList returns the comma-separated keywords, trimmed and lower-cased
func (f *FAQ) KeywordList() []string {
	parts := strings.Split(f.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FormatAmount renders cents as e.g. "$129.99" or "129.99 EUR"
func FormatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	switch strings.ToUpper(currency) {
	case "", "USD":
		return sign + "$" + amount
	default:
		return sign + amount + " " + strings.ToUpper(currency)
	}
}
