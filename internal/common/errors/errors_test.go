package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := NewNotFoundError("prospect", 7)
	wrapped := fmt.Errorf("delete prospect: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.False(t, stderrors.Is(wrapped, ErrValidationFailure))
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.Contains(t, err.Error(), "prospect not found")
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewLoadFailureError("prospects", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsRetryable(err))
}

func TestNewValidationError_Fields(t *testing.T) {
	err := NewValidationError(
		FieldError{Field: "name", Message: "is required"},
		FieldError{Field: "rules", Message: "at least one rule is required"},
	)

	assert.Len(t, FieldsOf(err), 2)
	assert.Equal(t, "name: is required; rules: at least one rule is required", err.Details)
	assert.False(t, IsRetryable(err))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("boom")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeValidationFailure, http.StatusUnprocessableEntity},
		{ErrCodeInvalidReference, http.StatusConflict},
		{ErrCodeImportFailed, http.StatusBadGateway},
		{ErrCodeMutationFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "client", GetErrorCategory(ErrCodeValidationFailure))
	assert.Equal(t, "not_found", GetErrorCategory(ErrCodeNotFound))
	assert.Equal(t, "storage", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "integration", GetErrorCategory(ErrCodeImportFailed))
	assert.Equal(t, "internal", GetErrorCategory(ErrCodeInternal))
}
