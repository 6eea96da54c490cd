package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_Monotonic(t *testing.T) {
	c := NewDeterministicClock()
	first := c.Next()
	second := c.Next()
	assert.True(t, second.After(first))
	assert.Equal(t, time.Second, second.Sub(first))
}

func TestDeterministicClock_Reset(t *testing.T) {
	c := NewDeterministicClock()
	first := c.Next()
	c.Next()
	c.Reset()
	assert.Equal(t, first, c.Next())
}

func TestDeterministicClock_Reproducible(t *testing.T) {
	a := NewDeterministicClock()
	b := NewDeterministicClock()
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}
