package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)

	// Same-millisecond IDs stay monotonic.
	assert.Less(t, a, b)
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := New()
		_, dup := seen[id]
		assert.False(t, dup, id)
		seen[id] = struct{}{}
	}
}
