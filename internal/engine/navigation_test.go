package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigator_AdvanceRaisesFrontier(t *testing.T) {
	n := NewNavigator(3, false)

	assert.True(t, n.Advance())
	assert.Equal(t, 1, n.Current())
	assert.Equal(t, 1, n.Frontier())

	assert.True(t, n.Advance())
	assert.True(t, n.IsLast())
	assert.False(t, n.Advance())
	assert.Equal(t, 2, n.Current())
}

func TestNavigator_JumpBeyondFrontierIgnored(t *testing.T) {
	n := NewNavigator(4, true)
	n.Advance()

	assert.False(t, n.JumpTo(2))
	assert.False(t, n.JumpTo(7))
	assert.False(t, n.JumpTo(-1))
	assert.Equal(t, 1, n.Current())
}

func TestNavigator_LockedBehindFrontier(t *testing.T) {
	n := NewNavigator(3, false)
	n.Advance()

	assert.True(t, n.Locked(0))
	assert.False(t, n.JumpTo(0))
	assert.Equal(t, 1, n.Current())
}

func TestNavigator_ReviewAllowsBackAndForth(t *testing.T) {
	n := NewNavigator(3, true)
	n.Advance()
	n.Advance()

	assert.True(t, n.JumpTo(0))
	assert.Equal(t, 0, n.Current())
	assert.Equal(t, 2, n.Frontier())
	assert.True(t, n.JumpTo(2))

	n.JumpTo(1)
	assert.True(t, n.Advance())
	assert.Equal(t, 2, n.Current())
	assert.Equal(t, 2, n.Frontier())
}

func TestNavigator_FrontierInvariantHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, review := range []bool{false, true} {
		n := NewNavigator(5, review)
		prevFrontier := 0
		for i := 0; i < 500; i++ {
			if rng.Intn(3) == 0 {
				n.Advance()
			} else {
				target := rng.Intn(8) - 1
				before := n.Current()
				n.JumpTo(target)
				if target > n.Frontier() {
					assert.Equal(t, before, n.Current())
				}
			}
			assert.LessOrEqual(t, n.Current(), n.Frontier())
			assert.GreaterOrEqual(t, n.Frontier(), prevFrontier)
			prevFrontier = n.Frontier()
		}
	}
}
