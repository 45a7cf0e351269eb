// Package errx provides registry-based application errors that carry a
// stable code, a coarse type and the HTTP status they map to.
package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// Type classifies an error for handling and reporting
type Type string

const (
	TypeValidation   Type = "VALIDATION"
	TypeNotFound     Type = "NOT_FOUND"
	TypeConflict     Type = "CONFLICT"
	TypeBusiness     Type = "BUSINESS"
	TypeExternal     Type = "EXTERNAL"
	TypeInternal     Type = "INTERNAL"
	TypeUnavailable  Type = "UNAVAILABLE"
	TypeRateLimited  Type = "RATE_LIMITED"
	TypeUnauthorized Type = "UNAUTHORIZED"
)

// Code is a fully qualified error code, e.g. "ORCHESTRATOR.MISSING_MESSAGE"
type Code string

// Definition describes a registered error code
type Definition struct {
	Code       Code
	Type       Type
	HTTPStatus int
	Message    string
}

// Error is the concrete error returned by registry constructors
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key/value detail and returns the same error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Detail returns a detail value by key
func (e *Error) Detail(key string) (any, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// Registry holds the error definitions of one package
type Registry struct {
	mu          sync.RWMutex
	prefix      string
	definitions map[Code]Definition
}

var (
	registriesMu sync.Mutex
	registries   = make(map[string]*Registry)
)

// NewRegistry creates (or returns the existing) registry for a prefix
func NewRegistry(prefix string) *Registry {
	registriesMu.Lock()
	defer registriesMu.Unlock()

	if r, ok := registries[prefix]; ok {
		return r
	}

	r := &Registry{
		prefix:      prefix,
		definitions: make(map[Code]Definition),
	}
	registries[prefix] = r
	return r
}

// Register adds a new error definition and returns its qualified code
func (r *Registry) Register(code string, typ Type, httpStatus int, message string) Code {
	r.mu.Lock()
	defer r.mu.Unlock()

	qualified := Code(r.prefix + "." + code)
	r.definitions[qualified] = Definition{
		Code:       qualified,
		Type:       typ,
		HTTPStatus: httpStatus,
		Message:    message,
	}
	return qualified
}

// Prefix returns the registry prefix
func (r *Registry) Prefix() string {
	return r.prefix
}

// Definition looks up a registered code
func (r *Registry) Definition(code Code) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[code]
	return def, ok
}

// Codes returns all registered codes sorted
func (r *Registry) Codes() []Code {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]Code, 0, len(r.definitions))
	for code := range r.definitions {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// New creates an error from a registered code
func (r *Registry) New(code Code) *Error {
	def, ok := r.Definition(code)
	if !ok {
		return &Error{
			Code:       code,
			Type:       TypeInternal,
			Message:    "Unknown error",
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	return &Error{
		Code:       def.Code,
		Type:       def.Type,
		Message:    def.Message,
		HTTPStatus: def.HTTPStatus,
	}
}

// NewWithMessage creates an error with a custom message
func (r *Registry) NewWithMessage(code Code, message string) *Error {
	e := r.New(code)
	e.Message = message
	return e
}

// NewWithCause creates an error wrapping a cause
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	e := r.New(code)
	e.Cause = cause
	return e
}

// As extracts an *Error from an error chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether any error in the chain carries the code
func IsCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// IsType reports whether the first *Error in the chain has the given type
func IsType(err error, typ Type) bool {
	e, ok := As(err)
	return ok && e.Type == typ
}

// HTTPStatus returns the HTTP status for an error, 500 for unknown errors
func HTTPStatus(err error) int {
	if e, ok := As(err); ok {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}
