package cli

import (
	"fmt"
	"time"

	"thesis_tracker/internal"
	"thesis_tracker/internal/timelog"
	"thesis_tracker/internal/tracker"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type operation struct {
	name string
	run  func(a *app, cmd *cobra.Command, m *tracker.Manager) error
}

var operations = []operation{
	{"start", runStart},
	{"stop", runStop},
	{"total", runTotal},
	{"this_week", runThisWeek},
	{"avg_week", runAvgWeek},
	{"status", runStatus},
	{"list", runList},
	{"watch", runWatch},
}

func operationNames() []string {
	names := make([]string, len(operations))
	for i, op := range operations {
		names[i] = op.name
	}
	return names
}

func lookupOperation(name string) (operation, bool) {
	for _, op := range operations {
		if op.name == name {
			return op, true
		}
	}
	return operation{}, false
}

func runStart(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	_, err := m.Start(a.comment, a.reuseComment)
	return err
}

func runStop(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	_, err := m.Stop()
	return err
}

func runTotal(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	return printDuration(cmd, m.Total)
}

func runThisWeek(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	return printDuration(cmd, m.ThisWeek)
}

func runAvgWeek(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	return printDuration(cmd, m.AvgWeek)
}

func printDuration(cmd *cobra.Command, report func() (time.Duration, error)) error {
	d, err := report()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), timelog.FormatDuration(d))
	return nil
}

func runStatus(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	st, err := m.Status()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !st.Running {
		fmt.Fprintln(out, internal.InactiveStyle.Render("stopped"))
		return nil
	}
	line := fmt.Sprintf("running since %s (%s)",
		timelog.FormatTimestamp(st.Current.Start), timelog.FormatDuration(st.Elapsed))
	if st.Current.Comment != "" {
		line += " " + st.Current.Comment
	}
	fmt.Fprintln(out, internal.RunningStyle.Render(line))
	return nil
}

func runList(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	entries, err := m.Entries()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries logged")
		return nil
	}

	now := m.Now()
	table := tablewriter.NewWriter(out)
	table.Header("Start", "End", "Duration", "Comment")
	for _, e := range entries {
		end := "running"
		if e.End != nil {
			end = timelog.FormatTimestamp(*e.End)
		}
		if err := table.Append(
			timelog.FormatTimestamp(e.Start),
			end,
			timelog.FormatDuration(e.Elapsed(now)),
			e.Comment,
		); err != nil {
			return fmt.Errorf("failed to render entries: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render entries: %w", err)
	}

	fmt.Fprintf(out, "\nTotal entries: %d\n", len(entries))
	return nil
}

func runWatch(a *app, cmd *cobra.Command, m *tracker.Manager) error {
	model, err := internal.NewModel(m)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p.Send(internal.MsgTick{})
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run live view: %w", err)
	}
	return nil
}
