package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_OnlyRunningTabTicks(t *testing.T) {
	c := NewClock(map[string]int{"a": 3, "b": 5})

	assert.True(t, c.Start("a"))
	c.Tick()
	assert.Equal(t, 2, c.Remaining("a"))
	assert.Equal(t, 5, c.Remaining("b"))

	assert.True(t, c.Start("b"))
	assert.Equal(t, TimerIdle, c.State("a"))
	assert.Equal(t, TimerRunning, c.State("b"))
	c.Tick()
	c.Tick()
	assert.Equal(t, 2, c.Remaining("a"))
	assert.Equal(t, 3, c.Remaining("b"))
	assert.Equal(t, 2, c.Elapsed("b"))

	// Resuming keeps the frozen remaining time.
	assert.True(t, c.Start("a"))
	assert.Equal(t, 2, c.Remaining("a"))
}

func TestClock_ExpiryIsTerminal(t *testing.T) {
	c := NewClock(map[string]int{"a": 2})
	c.Start("a")

	id, expired := c.Tick()
	assert.Equal(t, "a", id)
	assert.False(t, expired)

	id, expired = c.Tick()
	assert.Equal(t, "a", id)
	assert.True(t, expired)
	assert.Equal(t, TimerExpired, c.State("a"))
	assert.Equal(t, "", c.Running())

	assert.False(t, c.Start("a"))
	id, expired = c.Tick()
	assert.Equal(t, "", id)
	assert.False(t, expired)
	assert.Equal(t, 0, c.Remaining("a"))
	assert.Equal(t, 2, c.Elapsed("a"))
}

func TestClock_ZeroAllotmentExpiresOnFirstTick(t *testing.T) {
	c := NewClock(map[string]int{"zero": 0})
	assert.True(t, c.Start("zero"))
	_, expired := c.Tick()
	assert.True(t, expired)
}

func TestClock_StopAndUnknown(t *testing.T) {
	c := NewClock(map[string]int{"a": 10})
	assert.Equal(t, "", c.Stop())
	assert.False(t, c.Start("missing"))

	c.Start("a")
	assert.Equal(t, "a", c.Stop())
	c.Tick()
	assert.Equal(t, 10, c.Remaining("a"))
}

func TestClock_RestoreNeverIncreases(t *testing.T) {
	c := NewClock(map[string]int{"a": 10, "b": 10})
	c.restore(map[string]TimerSnapshot{
		"a": {Remaining: 4, State: TimerIdle},
		"b": {Remaining: 99, State: TimerIdle},
		"x": {Remaining: 1},
	})
	assert.Equal(t, 4, c.Remaining("a"))
	assert.Equal(t, 10, c.Remaining("b"))

	c.restore(map[string]TimerSnapshot{"a": {Remaining: 3, State: TimerExpired}})
	assert.Equal(t, TimerExpired, c.State("a"))
	assert.Equal(t, 0, c.Remaining("a"))
}
