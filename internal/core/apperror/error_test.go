package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppError_Wrapped(t *testing.T) {
	base := NewNotFound("document", "42")
	wrapped := fmt.Errorf("load: %w", base)

	got, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
	assert.False(t, IsAppError(errors.New("boom")))
}

func TestNumberingCommit_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNumberingCommit("invoice", "F-00042", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "F-00042", err.Details["number"])
	assert.True(t, HasCode(err, CodeNumberingCommit))
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("quantity must be positive").WithDetail("line", 2)
	assert.Equal(t, 2, err.Details["line"])
	assert.Contains(t, err.Error(), CodeValidation)
}
