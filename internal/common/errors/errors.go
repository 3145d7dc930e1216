// Package errors provides the error taxonomy shared by the store, the views and the API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeLoadFailure       ErrorCode = "LOAD_FAILURE"
	ErrCodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
	ErrCodeInvalidReference  ErrorCode = "INVALID_REFERENCE"
	ErrCodeMutationFailed    ErrorCode = "MUTATION_FAILED"

	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheFailure         ErrorCode = "CACHE_FAILURE"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeImportFailed           ErrorCode = "IMPORT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    []FieldError           `json:"fields,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so callers can write
// errors.Is(err, errors.ErrNotFound).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &StandardError{Code: ErrCodeNotFound}
	ErrLoadFailure       = &StandardError{Code: ErrCodeLoadFailure}
	ErrValidationFailure = &StandardError{Code: ErrCodeValidationFailure}
	ErrInvalidReference  = &StandardError{Code: ErrCodeInvalidReference}
	ErrMutationFailed    = &StandardError{Code: ErrCodeMutationFailed}
	ErrImportFailed      = &StandardError{Code: ErrCodeImportFailed}
)

// ==========================
// 2. Error Constructors
// ==========================

// NewNotFoundError reports a missing record. Not retryable.
func NewNotFoundError(resource string, id int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %d", id),
		Metadata:  map[string]interface{}{"resource": resource, "id": id},
		Timestamp: time.Now().UTC(),
	}
}

// NewLoadFailureError wraps a rejected collection fetch.
func NewLoadFailureError(resource string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLoadFailure,
		Message:   fmt.Sprintf("Failed to load %s", resource),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewValidationError collects field-level failures raised before a store call.
func NewValidationError(fields ...FieldError) *StandardError {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return &StandardError{
		Code:      ErrCodeValidationFailure,
		Message:   "Validation failed",
		Details:   strings.Join(msgs, "; "),
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidReferenceError reports a foreign key that points nowhere.
func NewInvalidReferenceError(resource string, id int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidReference,
		Message:   fmt.Sprintf("referenced %s does not exist", resource),
		Details:   fmt.Sprintf("id: %d", id),
		Timestamp: time.Now().UTC(),
	}
}

// NewMutationFailedError is the generic notice raised for failed deletes and updates.
func NewMutationFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMutationFailed,
		Message:   fmt.Sprintf("Failed to %s", operation),
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewQueryExecutionFailedError creates a retryable database error.
func NewQueryExecutionFailedError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, errDetails(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, errDetails(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewImportFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeImportFailed,
		Message:   fmt.Sprintf("Import from %s failed", source),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   fmt.Sprintf("Failed to send %s notification", channel),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Classification
// ==========================

// CodeOf extracts the ErrorCode from anywhere in err's chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsRetryable reports whether the first StandardError in the chain is retryable.
func IsRetryable(err error) bool {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// FieldsOf returns the validation field errors carried by err, if any.
func FieldsOf(err error) []FieldError {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Fields
	}
	return nil
}

// HTTPStatus maps an error code onto a response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidationFailure:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidReference:
		return http.StatusConflict
	case ErrCodeImportFailed, ErrCodeSearchQueryFailed, ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory groups codes for log fields.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailure, ErrCodeInvalidReference:
		return "client"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeQueryExecutionFailed, ErrCodeCacheFailure, ErrCodeLoadFailure:
		return "storage"
	case ErrCodeSearchQueryFailed, ErrCodeImportFailed, ErrCodeNotificationSendFailed:
		return "integration"
	default:
		return "internal"
	}
}
