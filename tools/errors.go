// tools/errors.go
package tools

import (
	"net/http"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

// Error registry for tools package
var errRegistry = errx.NewRegistry("TOOLS")

// Error codes
var (
	ErrCodeOrderNotFound = errRegistry.Register(
		"ORDER_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Order not found",
	)

	ErrCodePaymentNotFound = errRegistry.Register(
		"PAYMENT_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Payment not found",
	)

	ErrCodeRefundNotFound = errRegistry.Register(
		"REFUND_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Refund not found",
	)

	ErrCodeInvoiceNotFound = errRegistry.Register(
		"INVOICE_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Invoice not found",
	)

	ErrCodeTicketNotFound = errRegistry.Register(
		"TICKET_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Ticket not found",
	)

	ErrCodeUserNotFound = errRegistry.Register(
		"USER_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"User not found",
	)

	ErrCodeOrderNotCancellable = errRegistry.Register(
		"ORDER_NOT_CANCELLABLE",
		errx.TypeBusiness,
		http.StatusConflict,
		"Order can no longer be cancelled",
	)

	ErrCodeOrderNotModifiable = errRegistry.Register(
		"ORDER_NOT_MODIFIABLE",
		errx.TypeBusiness,
		http.StatusConflict,
		"Order can no longer be modified",
	)

	ErrCodePaymentNotRefundable = errRegistry.Register(
		"PAYMENT_NOT_REFUNDABLE",
		errx.TypeBusiness,
		http.StatusConflict,
		"Payment cannot be refunded",
	)

	ErrCodeRefundAlreadyRequested = errRegistry.Register(
		"REFUND_ALREADY_REQUESTED",
		errx.TypeBusiness,
		http.StatusConflict,
		"A refund was already requested for this payment",
	)

	ErrCodeInvalidArgument = errRegistry.Register(
		"INVALID_ARGUMENT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid tool argument",
	)

	ErrCodeToolExecutionFailed = errRegistry.Register(
		"TOOL_EXECUTION_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Tool execution failed",
	)
)

// Error constructors

func NewOrderNotFoundError(orderNumber string) *errx.Error {
	return errRegistry.New(ErrCodeOrderNotFound).
		WithDetail("order_number", orderNumber)
}

func NewPaymentNotFoundError(orderNumber string) *errx.Error {
	return errRegistry.New(ErrCodePaymentNotFound).
		WithDetail("order_number", orderNumber)
}

func NewRefundNotFoundError(refundID string) *errx.Error {
	return errRegistry.New(ErrCodeRefundNotFound).
		WithDetail("refund_id", refundID)
}

func NewInvoiceNotFoundError(invoiceNumber string) *errx.Error {
	return errRegistry.New(ErrCodeInvoiceNotFound).
		WithDetail("invoice_number", invoiceNumber)
}

func NewTicketNotFoundError(ticketNumber string) *errx.Error {
	return errRegistry.New(ErrCodeTicketNotFound).
		WithDetail("ticket_number", ticketNumber)
}

func NewUserNotFoundError(userID string) *errx.Error {
	return errRegistry.New(ErrCodeUserNotFound).
		WithDetail("user_id", userID)
}

func NewOrderNotCancellableError(orderNumber, status string) *errx.Error {
	return errRegistry.New(ErrCodeOrderNotCancellable).
		WithDetail("order_number", orderNumber).
		WithDetail("status", status)
}

func NewOrderNotModifiableError(orderNumber, status string) *errx.Error {
	return errRegistry.New(ErrCodeOrderNotModifiable).
		WithDetail("order_number", orderNumber).
		WithDetail("status", status)
}

func NewPaymentNotRefundableError(paymentID, status string) *errx.Error {
	return errRegistry.New(ErrCodePaymentNotRefundable).
		WithDetail("payment_id", paymentID).
		WithDetail("status", status)
}

func NewRefundAlreadyRequestedError(paymentID, refundID string) *errx.Error {
	return errRegistry.New(ErrCodeRefundAlreadyRequested).
		WithDetail("payment_id", paymentID).
		WithDetail("refund_id", refundID)
}

func NewInvalidArgumentError(toolName, reason string) *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeInvalidArgument, reason).
		WithDetail("tool_name", toolName)
}

func NewToolExecutionError(toolName string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeToolExecutionFailed, cause).
		WithDetail("tool_name", toolName)
}
