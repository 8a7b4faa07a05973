package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("title and message are joined", func(t *testing.T) {
		err := WithTitle(CodeGeometry, "No polygons in file", "We found 3 shapes, but none are polygons")
		assert.Equal(t, "No polygons in file: We found 3 shapes, but none are polygons", err.Error())
	})

	t.Run("plain message is not repeated", func(t *testing.T) {
		err := New(CodeValidation, "polygon is required")
		assert.Equal(t, "polygon is required", err.Error())
	})

	t.Run("cause is appended", func(t *testing.T) {
		err := Wrap(errors.New("connection refused"), CodeUpstream, "registry call failed")
		assert.Equal(t, "registry call failed: connection refused", err.Error())
	})
}

func TestCodeLookup(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("resolve: %w", Wrap(cause, CodeOwnershipIntegrity, "owner missing"))

	assert.True(t, HasCode(wrapped, CodeOwnershipIntegrity))
	assert.False(t, HasCode(wrapped, CodeValidation))
	assert.True(t, errors.Is(wrapped, cause))

	de, ok := From(wrapped)
	require.True(t, ok)
	assert.Equal(t, "owner missing", de.Title)

	assert.Equal(t, CodeInternal, CodeOf(cause))
	assert.False(t, HasCode(nil, CodeInternal))
}
