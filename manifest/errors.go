package manifest

import (
	"net/http"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

var errRegistry = errx.NewRegistry("MANIFEST")

var (
	// File errors
	ErrCodeFileNotFound = errRegistry.Register(
		"FILE_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Manifest file not found",
	)

	ErrCodeFileReadError = errRegistry.Register(
		"FILE_READ_ERROR",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to read manifest file",
	)

	ErrCodeFileWriteError = errRegistry.Register(
		"FILE_WRITE_ERROR",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to write manifest file",
	)

	// Parsing errors
	ErrCodeInvalidYAML = errRegistry.Register(
		"INVALID_YAML",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid YAML format",
	)

	ErrCodeInvalidJSON = errRegistry.Register(
		"INVALID_JSON",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid JSON format",
	)

	ErrCodeInvalidFormat = errRegistry.Register(
		"INVALID_FORMAT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid manifest format",
	)

	// Validation errors
	ErrCodeValidationFailed = errRegistry.Register(
		"VALIDATION_FAILED",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Manifest validation failed",
	)

	ErrCodeMissingVersion = errRegistry.Register(
		"MISSING_VERSION",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Manifest version is required",
	)

	ErrCodeMissingCategories = errRegistry.Register(
		"MISSING_CATEGORIES",
		errx.TypeValidation,
		http.StatusBadRequest,
		"At least one category is required",
	)

	ErrCodeUnknownCategory = errRegistry.Register(
		"UNKNOWN_CATEGORY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Category must be one of order, billing or support",
	)

	ErrCodeDuplicateCategory = errRegistry.Register(
		"DUPLICATE_CATEGORY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Duplicate category",
	)

	ErrCodeMissingKeywords = errRegistry.Register(
		"MISSING_KEYWORDS",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Category needs at least one keyword",
	)

	ErrCodeEmptyKeyword = errRegistry.Register(
		"EMPTY_KEYWORD",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Keywords must not be blank",
	)

	// Registry errors
	ErrCodeManifestNotLoaded = errRegistry.Register(
		"MANIFEST_NOT_LOADED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Manifest not loaded",
	)
)

func NewFileNotFoundError(filepath string) *errx.Error {
	return errRegistry.New(ErrCodeFileNotFound).
		WithDetail("filepath", filepath)
}

func NewFileReadError(filepath string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeFileReadError, cause).
		WithDetail("filepath", filepath)
}

func NewFileWriteError(filepath string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeFileWriteError, cause).
		WithDetail("filepath", filepath)
}

func NewInvalidYAMLError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeInvalidYAML, cause)
}

func NewInvalidJSONError(cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeInvalidJSON, cause)
}

// NewInvalidFormatError reports a format other than yaml or json
func NewInvalidFormatError(format Format) *errx.Error {
	return errRegistry.New(ErrCodeInvalidFormat).
		WithDetail("format", string(format))
}

func NewMissingVersionError() *errx.Error {
	return errRegistry.New(ErrCodeMissingVersion)
}

func NewMissingCategoriesError() *errx.Error {
	return errRegistry.New(ErrCodeMissingCategories)
}

func NewUnknownCategoryError(name string) *errx.Error {
	return errRegistry.New(ErrCodeUnknownCategory).
		WithDetail("category", name)
}

func NewDuplicateCategoryError(name string) *errx.Error {
	return errRegistry.New(ErrCodeDuplicateCategory).
		WithDetail("category", name)
}

func NewMissingKeywordsError(name string) *errx.Error {
	return errRegistry.New(ErrCodeMissingKeywords).
		WithDetail("category", name)
}

func NewEmptyKeywordError(name string, index int) *errx.Error {
	return errRegistry.New(ErrCodeEmptyKeyword).
		WithDetail("category", name).
		WithDetail("index", index)
}

func NewManifestNotLoadedError() *errx.Error {
	return errRegistry.New(ErrCodeManifestNotLoaded)
}

// NewMultipleValidationErrors folds every validation problem of a manifest
// into one error
func NewMultipleValidationErrors(errs []error) *errx.Error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Error())
	}
	return errRegistry.New(ErrCodeValidationFailed).
		WithDetail("errors", messages).
		WithDetail("count", len(errs))
}
