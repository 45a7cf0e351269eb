package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndNew(t *testing.T) {
	reg := NewRegistry("ERRX_TEST")
	code := reg.Register("THING_NOT_FOUND", TypeNotFound, http.StatusNotFound, "Thing not found")

	assert.Equal(t, Code("ERRX_TEST.THING_NOT_FOUND"), code)

	err := reg.New(code).WithDetail("id", "42")
	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "Thing not found", err.Message)

	v, ok := err.Detail("id")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestRegistry_SamePrefixReturnsSameRegistry(t *testing.T) {
	a := NewRegistry("ERRX_SHARED")
	b := NewRegistry("ERRX_SHARED")
	assert.Same(t, a, b)
}

func TestRegistry_UnknownCode(t *testing.T) {
	reg := NewRegistry("ERRX_UNKNOWN")
	err := reg.New(Code("ERRX_UNKNOWN.NOPE"))
	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}

func TestError_CauseChain(t *testing.T) {
	reg := NewRegistry("ERRX_CHAIN")
	code := reg.Register("BROKEN", TypeInternal, http.StatusInternalServerError, "Broken")

	cause := errors.New("disk on fire")
	err := reg.NewWithCause(code, cause)
	wrapped := fmt.Errorf("outer: %w", err)

	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsCode(wrapped, code))
	assert.True(t, IsType(wrapped, TypeInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(wrapped))
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestNewWithMessage(t *testing.T) {
	reg := NewRegistry("ERRX_MSG")
	code := reg.Register("BAD", TypeValidation, http.StatusBadRequest, "Bad input")

	err := reg.NewWithMessage(code, "name is required")
	assert.Equal(t, "name is required", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, []Code{code}, reg.Codes())
}
