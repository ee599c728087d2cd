package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewLinkCode()
		require.NoError(t, err)
		assert.Len(t, code, 32)
		assert.Regexp(t, "^[0-9a-f]+$", code)
		assert.False(t, seen[code], "duplicate code generated")
		seen[code] = true
	}
}
