package conversation

import (
	"net/http"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

var errRegistry = errx.NewRegistry("CONVERSATION")

var (
	ErrCodeConversationNotFound = errRegistry.Register(
		"CONVERSATION_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Conversation not found",
	)

	ErrCodeConversationInactive = errRegistry.Register(
		"CONVERSATION_INACTIVE",
		errx.TypeBusiness,
		http.StatusGone,
		"Conversation is inactive",
	)

	ErrCodeMessageSerializationFailed = errRegistry.Register(
		"MESSAGE_SERIALIZATION_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to serialize message",
	)

	ErrCodeStorageFailed = errRegistry.Register(
		"STORAGE_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Conversation storage failed",
	)

	ErrCodeArchiveUnavailable = errRegistry.Register(
		"ARCHIVE_UNAVAILABLE",
		errx.TypeUnavailable,
		http.StatusServiceUnavailable,
		"Transcript archive is not configured",
	)

	ErrCodeArchiveFailed = errRegistry.Register(
		"ARCHIVE_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to archive transcript",
	)
)

func ErrConversationNotFound(id ID) *errx.Error {
	return errRegistry.New(ErrCodeConversationNotFound).WithDetail("conversation_id", id)
}

func ErrConversationInactive(id ID) *errx.Error {
	return errRegistry.New(ErrCodeConversationInactive).WithDetail("conversation_id", id)
}

func ErrMessageSerializationFailed(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeMessageSerializationFailed, cause)
}

func ErrStorageFailed(op string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeStorageFailed, cause).WithDetail("operation", op)
}

func ErrArchiveUnavailable() *errx.Error {
	return errRegistry.New(ErrCodeArchiveUnavailable)
}

func ErrArchiveFailed(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeArchiveFailed, cause)
}
