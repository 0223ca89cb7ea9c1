package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodeInsufficientStock, "not enough basketball", map[string]string{"item": "basketball"})
	wrapped := fmt.Errorf("commit borrow: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.False(t, errors.Is(wrapped, ErrOverStock))
	assert.Equal(t, CodeInsufficientStock, CodeOf(wrapped))
	assert.Equal(t, "basketball", Meta(wrapped, "item"))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Empty(t, Meta(errors.New("boom"), "item"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(CodeNetwork, "post /api/equipment/borrow/", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "post /api/equipment/borrow/: dial tcp: refused", err.Error())
}

func TestLocalCodes(t *testing.T) {
	assert.True(t, CodeDuplicateEntry.Local())
	assert.True(t, CodeOverReturn.Local())
	assert.False(t, CodeNetwork.Local())
	assert.False(t, CodeAuthRequired.Local())
}
