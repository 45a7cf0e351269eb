package agents

import (
	"regexp"
	"strings"
)

var (
	orderNumberPattern   = regexp.MustCompile(`(?i)\bORD-\d+\b`)
	refundIDPattern      = regexp.MustCompile(`(?i)\bREF-\d+\b`)
	invoiceNumberPattern = regexp.MustCompile(`(?i)\bINV-\d+\b`)
	ticketNumberPattern  = regexp.MustCompile(`(?i)\bTKT-\d+\b`)

	// "address of ORD-004 to ...", "ship it to ...", "deliver to: ..."
	addressPattern = regexp.MustCompile(`(?i)\b(?:address|ship|deliver|send)(?:\s+(?:it|of|for|on))?(?:\s+ORD-\d+)?\s+to\s*:?\s*(.+?)[.!]?\s*$`)
)

func extract(p *regexp.Regexp, message string) (string, bool) {
	m := p.FindString(message)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// ExtractOrderNumber finds an order number such as ORD-001
func ExtractOrderNumber(message string) (string, bool) {
	return extract(orderNumberPattern, message)
}

// ExtractRefundID finds a refund id such as REF-003
func ExtractRefundID(message string) (string, bool) {
	return extract(refundIDPattern, message)
}

// ExtractInvoiceNumber finds an invoice number such as INV-001
func ExtractInvoiceNumber(message string) (string, bool) {
	return extract(invoiceNumberPattern, message)
}

// ExtractTicketNumber finds a ticket number such as TKT-001
func ExtractTicketNumber(message string) (string, bool) {
	return extract(ticketNumberPattern, message)
}

// ExtractAddress finds the new shipping address in a change request
func ExtractAddress(message string) (string, bool) {
	m := addressPattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	addr := strings.TrimSpace(m[1])
	return addr, addr != ""
}
