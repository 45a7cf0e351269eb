package context

import (
	"net/http"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

// Error registry for context package
var errRegistry = errx.NewRegistry("CONTEXT")

var (
	ErrCodeBuildFailed = errRegistry.Register(
		"BUILD_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to build context",
	)

	ErrCodeMissingConversation = errRegistry.Register(
		"MISSING_CONVERSATION",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Conversation id is required",
	)
)

// NewBuildFailedError creates a build failed error
func NewBuildFailedError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeBuildFailed, cause)
}

// NewMissingConversationError creates a missing conversation error
func NewMissingConversationError() *errx.Error {
	return errRegistry.New(ErrCodeMissingConversation)
}
