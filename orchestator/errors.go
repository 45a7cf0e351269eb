package orchestator

import (
	"net/http"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

// Error registry for orchestrator package
var errRegistry = errx.NewRegistry("ORCHESTRATOR")

// Error codes
var (
	// Request errors
	ErrCodeInvalidRequest = errRegistry.Register(
		"INVALID_REQUEST",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid chat request",
	)

	ErrCodeMissingMessage = errRegistry.Register(
		"MISSING_MESSAGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message is required",
	)

	ErrCodeMessageTooLong = errRegistry.Register(
		"MESSAGE_TOO_LONG",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message is too long",
	)

	ErrCodeInvalidReasoningPolicy = errRegistry.Register(
		"INVALID_REASONING_POLICY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Unknown reasoning policy",
	)

	// Context errors
	ErrCodeContextBuildFailed = errRegistry.Register(
		"CONTEXT_BUILD_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to build context",
	)

	// Conversation errors
	ErrCodeConversationsUnavailable = errRegistry.Register(
		"CONVERSATIONS_UNAVAILABLE",
		errx.TypeUnavailable,
		http.StatusServiceUnavailable,
		"Conversation storage is not configured",
	)

	ErrCodeConversationForbidden = errRegistry.Register(
		"CONVERSATION_FORBIDDEN",
		errx.TypeUnauthorized,
		http.StatusForbidden,
		"Conversation belongs to another user",
	)

	ErrCodePersistFailed = errRegistry.Register(
		"PERSIST_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to save the conversation",
	)

	// Health errors
	ErrCodeUnhealthy = errRegistry.Register(
		"UNHEALTHY",
		errx.TypeUnavailable,
		http.StatusServiceUnavailable,
		"Service is not healthy",
	)
)

// Error constructors

func NewInvalidRequestError(reason string) *errx.Error {
	return errRegistry.NewWithMessage(ErrCodeInvalidRequest, reason)
}

func NewMissingMessageError() *errx.Error {
	return errRegistry.New(ErrCodeMissingMessage)
}

func NewMessageTooLongError(length, limit int) *errx.Error {
	return errRegistry.New(ErrCodeMessageTooLong).
		WithDetail("length", length).
		WithDetail("limit", limit)
}

func NewInvalidReasoningPolicyError(policy string) *errx.Error {
	return errRegistry.New(ErrCodeInvalidReasoningPolicy).
		WithDetail("policy", policy)
}

func NewContextBuildFailedError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeContextBuildFailed, cause)
}

func NewConversationsUnavailableError() *errx.Error {
	return errRegistry.New(ErrCodeConversationsUnavailable)
}

func NewConversationForbiddenError(conversationID, userID string) *errx.Error {
	return errRegistry.New(ErrCodeConversationForbidden).
		WithDetail("conversation_id", conversationID).
		WithDetail("user_id", userID)
}

func NewPersistFailedError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodePersistFailed, cause)
}

func NewUnhealthyError(component string, cause error) *errx.Error {
	e := errRegistry.New(ErrCodeUnhealthy).WithDetail("component", component)
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}
