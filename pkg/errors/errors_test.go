package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	gen := NewGenerationError("pdf output failed", stderrors.New("short write"))
	wrapped := fmt.Errorf("render quote: %w", gen)
	assert.Same(t, gen, FromError(wrapped))

	timeout := FromError(fmt.Errorf("upload: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrorCodeTimeout, timeout.Code)
	assert.Equal(t, http.StatusGatewayTimeout, timeout.HTTPStatus)

	internal := FromError(stderrors.New("boom"))
	assert.Equal(t, ErrorCodeInternal, internal.Code)
	assert.Equal(t, "boom", stderrors.Unwrap(internal).Error())
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("save: %w", NewStorageError("history insert failed", stderrors.New("conn reset")))
	assert.True(t, HasCode(err, ErrorCodeStorage))
	assert.False(t, HasCode(err, ErrorCodeGeneration))
	assert.False(t, HasCode(stderrors.New("plain"), ErrorCodeStorage))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeValidation: http.StatusBadRequest,
		ErrorCodeNotFound:   http.StatusNotFound,
		ErrorCodeStorage:    http.StatusBadGateway,
		ErrorCodeGeneration: http.StatusInternalServerError,
		ErrorCode("other"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), code)
	}
}

func TestAppError_ErrorAndResponse(t *testing.T) {
	err := NewValidationError("discount out of range").WithDetails(map[string]interface{}{"field": "discount_percent"})
	assert.Equal(t, "VALIDATION_ERROR: discount out of range", err.Error())

	resp := err.ToErrorResponse()
	assert.Equal(t, ErrorCodeValidation, resp.Code)
	assert.Equal(t, "discount_percent", resp.Details["field"])
	assert.False(t, resp.HandledByService)
}
