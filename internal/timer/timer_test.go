package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("new timer is idle", func(t *testing.T) {
		tm := NewWithClock(clock)
		assert.False(t, tm.Running())
		assert.Zero(t, tm.Elapsed())
	})

	t.Run("elapsed follows the clock", func(t *testing.T) {
		tm := NewWithClock(clock)
		tm.Start(now.Add(-30 * time.Minute))
		assert.True(t, tm.Running())
		assert.Equal(t, 30*time.Minute, tm.Elapsed())

		now = now.Add(time.Minute)
		assert.Equal(t, 31*time.Minute, tm.Elapsed())
	})

	t.Run("stop freezes elapsed", func(t *testing.T) {
		tm := NewWithClock(clock)
		tm.Start(now)
		now = now.Add(10 * time.Second)
		tm.Stop()
		now = now.Add(time.Hour)

		assert.False(t, tm.Running())
		assert.Equal(t, 10*time.Second, tm.Elapsed())
	})

	t.Run("start while running keeps the first start", func(t *testing.T) {
		tm := NewWithClock(clock)
		tm.Start(now.Add(-time.Minute))
		tm.Start(now)
		assert.Equal(t, time.Minute, tm.Elapsed())
	})

	t.Run("reset", func(t *testing.T) {
		tm := NewWithClock(clock)
		tm.Start(now.Add(-time.Minute))
		tm.Reset()
		assert.False(t, tm.Running())
		assert.Zero(t, tm.Elapsed())
	})

	t.Run("start in the future never goes negative", func(t *testing.T) {
		tm := NewWithClock(clock)
		tm.Start(now.Add(time.Minute))
		assert.Zero(t, tm.Elapsed())
	})
}

func TestNewUsesWallClock(t *testing.T) {
	tm := New()
	tm.Start(time.Now().Add(-time.Second))
	assert.GreaterOrEqual(t, tm.Elapsed(), time.Second)
}
