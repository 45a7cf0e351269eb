package store

import (
	"context"
	"time"

	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/jmoiron/sqlx"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

type seedStatement struct {
	table string
	query string
	rows  [][]any
}

func seedStatements() []seedStatement {
	return []seedStatement{
		{
			table: "users",
			query: `INSERT INTO users (id, name, email, phone, tier, created_at)
				VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			rows: [][]any{
				{"u-1001", "Alice Johnson", "alice@example.com", "+1-555-0101", "gold", day(2023, time.January, 15)},
				{"u-1002", "Bob Smith", "bob@example.com", "+1-555-0102", "standard", day(2023, time.June, 2)},
			},
		},
		{
			table: "orders",
			query: `INSERT INTO orders (order_number, user_id, status, items, total_cents, currency,
					shipping_address, carrier, tracking_number, estimated_delivery, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (order_number) DO NOTHING`,
			rows: [][]any{
				{"ORD-001", "u-1001", "shipped", "Wireless Headphones x1", 12999, "USD",
					"123 Main St, Springfield, IL 62701", "UPS", "1Z999AA10123456784",
					dayPtr(2024, time.May, 20), day(2024, time.May, 10), day(2024, time.May, 12)},
				{"ORD-002", "u-1001", "processing", "Coffee Grinder x1, Paper Filters x2", 5450, "USD",
					"123 Main St, Springfield, IL 62701", "", "",
					dayPtr(2024, time.May, 28), day(2024, time.May, 14), day(2024, time.May, 14)},
				{"ORD-003", "u-1002", "delivered", "Running Shoes x1", 8900, "USD",
					"77 Oak Ave, Portland, OR 97201", "FedEx", "748941259630",
					dayPtr(2024, time.May, 6), day(2024, time.May, 1), day(2024, time.May, 6)},
				{"ORD-004", "u-1002", "pending", "Desk Lamp x1", 3999, "USD",
					"77 Oak Ave, Portland, OR 97201", "", "",
					nil, day(2024, time.May, 15), day(2024, time.May, 15)},
			},
		},
		{
			table: "payments",
			query: `INSERT INTO payments (id, order_number, user_id, amount_cents, currency, method, status,
					refund_id, refund_status, created_at, refunded_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			rows: [][]any{
				{"PAY-001", "ORD-001", "u-1001", 12999, "USD", "Visa ending 4242", "captured",
					"", "", day(2024, time.May, 10), nil},
				{"PAY-002", "ORD-002", "u-1001", 5450, "USD", "PayPal", "captured",
					"", "", day(2024, time.May, 14), nil},
				{"PAY-003", "ORD-003", "u-1002", 8900, "USD", "Mastercard ending 5454", "refunded",
					"REF-003", "completed", day(2024, time.May, 1), dayPtr(2024, time.May, 8)},
				{"PAY-004", "ORD-004", "u-1002", 3999, "USD", "Visa ending 1881", "captured",
					"", "", day(2024, time.May, 15), nil},
			},
		},
		{
			table: "invoices",
			query: `INSERT INTO invoices (invoice_number, order_number, user_id, amount_cents, currency, status, issued_at, due_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (invoice_number) DO NOTHING`,
			rows: [][]any{
				{"INV-001", "ORD-001", "u-1001", 12999, "USD", "paid", day(2024, time.May, 10), nil},
				{"INV-003", "ORD-003", "u-1002", 8900, "USD", "refunded", day(2024, time.May, 1), nil},
				{"INV-004", "ORD-004", "u-1002", 3999, "USD", "open", day(2024, time.May, 15), dayPtr(2024, time.June, 14)},
			},
		},
		{
			table: "tickets",
			query: `INSERT INTO tickets (id, user_id, subject, description, status, priority, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			rows: [][]any{
				{1, "u-1001", "Damaged packaging on delivery",
					"The box for ORD-001 arrived crushed.", "in_progress", "high",
					day(2024, time.May, 12), day(2024, time.May, 13)},
			},
		},
		{
			table: "faqs",
			query: `INSERT INTO faqs (id, question, answer, keywords)
				VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			rows: [][]any{
				{1, "What are your support hours?",
					"Our support team is available Monday to Friday, 9am to 6pm EST, and Saturday 10am to 4pm EST.",
					"hours,open,opening,available,weekend"},
				{2, "What is your return policy?",
					"Items can be returned within 30 days of delivery in their original condition. Start a return from your order page.",
					"return,returns,exchange,policy"},
				{3, "How long does shipping take?",
					"Standard shipping takes 3-5 business days. Express shipping takes 1-2 business days.",
					"how long,shipping time,shipping take,express"},
				{4, "How can I contact you?",
					"Email support@example.com or call 1-800-555-0199.",
					"contact,phone,email,call"},
				{5, "Do you ship internationally?",
					"We currently ship to the US, Canada and the EU.",
					"international,internationally,abroad,overseas,country"},
			},
		},
	}
}

// Seed inserts demo users, orders, payments, invoices, tickets and FAQs.
// Existing rows are left untouched.
func Seed(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return NewSeedFailedError("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range seedStatements() {
		query := db.Rebind(stmt.query)
		for _, row := range stmt.rows {
			if _, err := tx.ExecContext(ctx, query, row...); err != nil {
				return NewSeedFailedError(stmt.table, err)
			}
		}
		logx.WithFields(logx.Fields{
			"table": stmt.table,
			"rows":  len(stmt.rows),
		}).Debug("Seeded table")
	}

	if db.DriverName() == DriverPostgres {
		// explicit ids do not advance the serial sequence
		if _, err := tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('tickets', 'id'), (SELECT MAX(id) FROM tickets))`); err != nil {
			return NewSeedFailedError("tickets", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewSeedFailedError("commit", err)
	}

	logx.Info("Demo data seeded")
	return nil
}
