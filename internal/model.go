package internal

import (
	"errors"
	"time"

	"thesis_tracker/internal/timelog"
	"thesis_tracker/internal/timer"
	"thesis_tracker/internal/tracker"

	tea "github.com/charmbracelet/bubbletea"
)

type MsgTick struct{}

// Manager is the part of tracker.Manager the live view drives.
type Manager interface {
	Start(comment string, reuseComment bool) (timelog.Entry, error)
	Stop() (timelog.Entry, error)
	Status() (tracker.Status, error)
	Now() time.Time
}

type Model struct {
	Running bool
	Current timelog.Entry
	Week    time.Duration
	Total   time.Duration
	Err     error

	// Last completed session, shown after stopping from the view
	LastStopped *timelog.Entry

	Timer   *timer.Timer
	manager Manager
}

func NewModel(manager Manager) (*Model, error) {
	m := &Model{
		Timer:   timer.NewWithClock(manager.Now),
		manager: manager,
	}
	if err := m.refresh(); err != nil {
		return nil, err
	}
	return m, nil
}

// refresh reloads the log so totals reflect what is on disk.
func (m *Model) refresh() error {
	st, err := m.manager.Status()
	if err != nil {
		return err
	}
	m.Running = st.Running
	m.Current = st.Current
	m.Week = st.Week
	m.Total = st.Total

	switch {
	case st.Running:
		m.Timer.Reset()
		m.Timer.Start(st.Current.Start)
	case m.Timer.Running():
		// Keep the finished session on screen until the next start.
		m.Timer.Stop()
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	return m.mainView()
}

// Toggle stops the open timer, or starts a new one reusing the previous comment.
func (m *Model) Toggle() error {
	if m.Running {
		e, err := m.manager.Stop()
		if err != nil {
			return err
		}
		m.LastStopped = &e
	} else {
		if _, err := m.manager.Start("", true); err != nil {
			return err
		}
		m.LastStopped = nil
	}
	return m.refresh()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		m.Err = m.Toggle()
		// The log changed under us; pick up the file state before the next render.
		if errors.Is(m.Err, tracker.ErrInvalidState) {
			if err := m.refresh(); err != nil {
				m.Err = err
			}
		}
	case "r":
		m.Err = m.refresh()
	}
	return m, nil
}
