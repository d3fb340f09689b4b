package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	t.Parallel()

	a := New(1234)
	b := New(1234)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	t.Parallel()

	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 16; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 16)
}
