package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dao-vault/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestRevertStatusCodes(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		status   int
	}{
		{CategoryValidation, http.StatusBadRequest},
		{CategoryAuthorization, http.StatusForbidden},
		{CategoryNotFound, http.StatusNotFound},
		{CategoryConflict, http.StatusConflict},
		{CategoryTransfer, http.StatusUnprocessableEntity},
		{CategorySystem, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := NewRevert(tt.category, "CODE", "reason")
			assert.Equal(t, tt.status, GetHTTPStatusCode(err))
			assert.Equal(t, "reason", Reason(err))
		})
	}
}

func TestReasonUnwrapsWrappedRevert(t *testing.T) {
	sentinel := NewConflict("ALREADY_VOTED", "Already voted")
	wrapped := fmt.Errorf("vote: %w", sentinel)

	assert.True(t, stderrors.Is(wrapped, sentinel))
	assert.Equal(t, "Already voted", Reason(wrapped))
	assert.Same(t, sentinel, Categorize(wrapped))
	assert.Equal(t, "plain", Reason(stderrors.New("plain")))
	assert.Empty(t, Reason(nil))
}

func TestCategorizeServiceError(t *testing.T) {
	err := Categorize(&types.ServiceError{Code: "NOT_FOUND", Message: "missing"})
	assert.Equal(t, CategoryNotFound, err.Category)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)

	fallback := Categorize(stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, fallback.StatusCode)
	assert.True(t, IsSystemError(fallback))
}

func TestRetryableAndUserErrors(t *testing.T) {
	assert.True(t, IsRetryable(NewDatabaseError("insert", stderrors.New("conn reset"))))
	assert.True(t, IsRetryable(NewCacheError("xadd", nil)))
	assert.True(t, IsRetryable(NewServiceUnavailableError("redis")))
	assert.False(t, IsRetryable(NewValidation("X", "bad")))
	assert.True(t, IsUserError(NewAuthorization("X", "denied")))
	assert.False(t, IsUserError(NewInternalError("x", nil)))
	assert.False(t, IsRetryable(nil))
}
