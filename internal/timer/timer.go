package timer

import (
	"sync"
	"time"
)

// Timer measures the elapsed wall-clock time of the open session.
type Timer struct {
	mu        sync.RWMutex
	startedAt time.Time
	stoppedAt time.Time
	running   bool
	now       func() time.Time
}

func New() *Timer {
	return &Timer{now: time.Now}
}

// NewWithClock is New with a custom time source.
func NewWithClock(now func() time.Time) *Timer {
	return &Timer{now: now}
}

// Start begins measuring from at, which may lie in the past when resuming a session
// recorded by an earlier invocation.
func (t *Timer) Start(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.running = true
	t.startedAt = at
	t.stoppedAt = time.Time{}
}

func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.running = false
	t.stoppedAt = t.now()
}

func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false
	t.startedAt = time.Time{}
	t.stoppedAt = time.Time{}
}

func (t *Timer) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.startedAt.IsZero() {
		return 0
	}
	end := t.stoppedAt
	if t.running {
		end = t.now()
	}
	return max(end.Sub(t.startedAt), 0)
}

func (t *Timer) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}
