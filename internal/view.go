package internal

import (
	"fmt"
	"strings"

	"thesis_tracker/internal/timelog"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	timerDisplayStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("69")).
				Bold(true)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	logHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	logTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var (
	InactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	RunningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
)

func (m *Model) mainView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Width(60).Render("Thesis Time Tracker"))
	sb.WriteString("\n\n")
	sb.WriteString(m.sessionView())
	sb.WriteString("\n\n")
	if m.Err != nil {
		sb.WriteString(errorStyle.Render(m.Err.Error()))
		sb.WriteString("\n\n")
	}
	sb.WriteString(helpStyle.Render("Start/Stop: Enter | Reload: r | Quit: q"))

	return sb.String()
}

func (m *Model) sessionView() string {
	var sb strings.Builder

	elapsed := timelog.FormatDuration(m.Timer.Elapsed())
	if m.Timer.Running() {
		sb.WriteString(timerRunningStyle.Render(elapsed))
		sb.WriteString("\n\n")
		sb.WriteString(RunningStyle.Render("Running"))
		sb.WriteString("\n")
		sb.WriteString(m.formatEntry(m.Current))
	} else {
		sb.WriteString(timerDisplayStyle.Render(elapsed))
		sb.WriteString("\n\n")
		sb.WriteString(InactiveStyle.Render("Stopped"))
		if m.LastStopped != nil {
			sb.WriteString("\n")
			sb.WriteString(m.formatEntry(*m.LastStopped))
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(logHeaderStyle.Render("Totals"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  This week  %s\n", timelog.FormatDuration(m.Week)))
	sb.WriteString(fmt.Sprintf("  All time   %s", timelog.FormatDuration(m.Total)))

	return boxStyle.Width(50).Render(sb.String())
}

func (m *Model) formatEntry(e timelog.Entry) string {
	timeStr := logTimeStyle.Render("since " + e.Start.Format("Jan 02 15:04"))
	if e.End != nil {
		timeStr = logTimeStyle.Render(e.Start.Format("Jan 02 15:04") + " - " + e.End.Format("15:04"))
	}
	comment := ""
	if e.Comment != "" {
		comment = " " + logTagStyle.Render("["+e.Comment+"]")
	}
	return fmt.Sprintf("  %s%s", timeStr, comment)
}
