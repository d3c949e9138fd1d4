package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfirmationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := NewConfirmationCode()
		assert.Len(t, code, 8)
		assert.Equal(t, strings.ToUpper(code), code)
		seen[code] = true
	}
	// UUID prefixes collide rarely enough that 100 draws stay distinct.
	assert.Greater(t, len(seen), 95)
}
