package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsSetStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantCode int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"rejected", NewRejectedInputError("Please upload a JPG or PNG image.", "image/gif"), ErrorTypeRejectedInput, http.StatusBadRequest},
		{"decode", NewDecodeError("cannot decode", fmt.Errorf("eof")), ErrorTypeDecode, http.StatusUnprocessableEntity},
		{"network", NewNetworkError("down", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"rate limited", NewRateLimitedError("slow down"), ErrorTypeRateLimited, http.StatusTooManyRequests},
		{"too large", NewTooLargeError("big", nil), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.StatusCode)
			assert.True(t, IsType(tt.err, tt.wantType))
		})
	}
}

func TestIsTypeFindsWrappedErrors(t *testing.T) {
	inner := NewDecodeError("cannot decode", nil)
	wrapped := fmt.Errorf("analyze: %w", inner)

	assert.True(t, IsType(wrapped, ErrorTypeDecode))
	assert.False(t, IsType(wrapped, ErrorTypeRejectedInput))
	assert.Equal(t, http.StatusUnprocessableEntity, GetStatusCode(wrapped))
}

func TestGetStatusCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(fmt.Errorf("plain")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := NewDecodeError("cannot decode", fmt.Errorf("unexpected EOF"))
	assert.Equal(t, "decode_failure: cannot decode (caused by: unexpected EOF)", err.Error())
	assert.Equal(t, "rate_limited: slow down", NewRateLimitedError("slow down").Error())
}
