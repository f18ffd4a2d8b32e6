package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := New(ErrCodeInvalidProvider, "invalid provider")
	assert.Equal(t, "invalid provider", err.Error())

	cause := stderrors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeNetwork, "failed to list models")
	assert.Equal(t, "failed to list models: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("boom")))

	inner := New(ErrCodeEmptyOutline, "outline contains no slides")
	outer := fmt.Errorf("render: %w", inner)
	assert.Equal(t, ErrCodeEmptyOutline, CodeOf(outer))
	assert.True(t, Is(outer, ErrCodeEmptyOutline))
	assert.False(t, Is(outer, ErrCodeRender))
}

func TestIs_OutermostCodeWins(t *testing.T) {
	inner := New(ErrCodeNetwork, "connection refused")
	outer := Wrap(inner, ErrCodeProviderAPI, "gemini API request failed")

	assert.Equal(t, ErrCodeProviderAPI, CodeOf(outer))
	assert.True(t, Is(outer, ErrCodeProviderAPI))
	assert.False(t, Is(outer, ErrCodeNetwork))
	assert.True(t, Is(fmt.Errorf("call: %w", outer), ErrCodeProviderAPI))
}
