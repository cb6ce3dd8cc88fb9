// Package tracker implements the open/closed timer state machine over the session
// log and the weekly aggregations computed from it.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"thesis_tracker/internal/timelog"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidState is the parent of every state machine violation.
	ErrInvalidState = errors.New("invalid timer state")
	ErrTimerRunning = fmt.Errorf("%w: a timer is already running", ErrInvalidState)
	ErrNoTimer      = fmt.Errorf("%w: no timer to stop", ErrInvalidState)

	// ErrEmptyLog is returned by aggregations that need at least one entry.
	ErrEmptyLog = errors.New("log is empty")
)

// Store is the persistence boundary the manager loads from and saves to.
type Store interface {
	Load() (timelog.Log, error)
	Save(timelog.Log) error
}

// Manager applies one operation to the session log.
type Manager struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) timestamp() time.Time {
	return timelog.Truncate(m.now().Local())
}

func (m *Manager) load() (timelog.Log, error) {
	entries, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load log: %w", err)
	}
	return entries, nil
}

// Start opens a new timer. With reuseComment set the comment of the previous entry is
// used instead of comment.
func (m *Manager) Start(comment string, reuseComment bool) (timelog.Entry, error) {
	entries, err := m.load()
	if err != nil {
		return timelog.Entry{}, err
	}
	if entries.HasOpenTimer() {
		return timelog.Entry{}, ErrTimerRunning
	}

	if reuseComment {
		comment = ""
		if last, ok := entries.Last(); ok {
			comment = last.Comment
		}
	}

	e := timelog.Entry{Start: m.timestamp(), Comment: comment}
	entries = append(entries, e)
	if err := m.store.Save(entries); err != nil {
		return timelog.Entry{}, fmt.Errorf("failed to save log: %w", err)
	}

	m.log.Debug().Time("start", e.Start).Str("comment", e.Comment).Msg("timer started")
	return e, nil
}

// Stop closes the open timer and returns the completed entry.
func (m *Manager) Stop() (timelog.Entry, error) {
	entries, err := m.load()
	if err != nil {
		return timelog.Entry{}, err
	}
	if !entries.HasOpenTimer() {
		return timelog.Entry{}, ErrNoTimer
	}

	end := m.timestamp()
	last := &entries[len(entries)-1]
	last.End = &end
	if err := m.store.Save(entries); err != nil {
		return timelog.Entry{}, fmt.Errorf("failed to save log: %w", err)
	}

	m.log.Debug().Time("end", end).Dur("duration", last.Duration()).Msg("timer stopped")
	return *last, nil
}

// Total sums every closed session.
func (m *Manager) Total() (time.Duration, error) {
	entries, err := m.load()
	if err != nil {
		return 0, err
	}
	return entries.Sum(nil), nil
}

// ThisWeek sums the closed sessions that started in the current ISO week.
func (m *Manager) ThisWeek() (time.Duration, error) {
	entries, err := m.load()
	if err != nil {
		return 0, err
	}
	return thisWeek(entries, m.now()), nil
}

func thisWeek(entries timelog.Log, now time.Time) time.Duration {
	year, week := now.Local().ISOWeek()
	return entries.Sum(func(e timelog.Entry) bool {
		y, w := e.Start.ISOWeek()
		return y == year && w == week
	})
}

// AvgWeek divides the total by the number of ISO weeks between the earliest start and
// now. Only week numbers are subtracted, so a log spanning a new year yields a wrong
// week count; the count never drops below one.
func (m *Manager) AvgWeek() (time.Duration, error) {
	entries, err := m.load()
	if err != nil {
		return 0, err
	}
	first, ok := entries.EarliestStart()
	if !ok {
		return 0, ErrEmptyLog
	}

	_, firstWeek := first.ISOWeek()
	_, lastWeek := m.now().Local().ISOWeek()
	weeks := max(lastWeek-firstWeek+1, 1)

	m.log.Debug().Int("first_week", firstWeek).Int("last_week", lastWeek).Int("weeks", weeks).Msg("weekly average")
	return entries.Sum(nil) / time.Duration(weeks), nil
}

// Status describes the timer state at a point in time.
type Status struct {
	Running bool
	Current timelog.Entry
	Elapsed time.Duration
	Week    time.Duration
	Total   time.Duration
}

func (m *Manager) Status() (Status, error) {
	entries, err := m.load()
	if err != nil {
		return Status{}, err
	}
	now := m.now()
	st := Status{
		Running: entries.HasOpenTimer(),
		Week:    thisWeek(entries, now),
		Total:   entries.Sum(nil),
	}
	if st.Running {
		st.Current, _ = entries.Last()
		st.Elapsed = st.Current.Elapsed(now)
	}
	return st, nil
}

// Entries returns the full log in file order.
func (m *Manager) Entries() (timelog.Log, error) {
	return m.load()
}

// Now exposes the manager clock.
func (m *Manager) Now() time.Time {
	return m.now()
}
