package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"thesis_tracker/internal/config"
	"thesis_tracker/internal/logger"
	"thesis_tracker/internal/timelog"
	"thesis_tracker/internal/tracker"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const version = "0.1.0"

// Process exit codes.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitUnknownOperation = 2
	ExitEmptyLog         = 3
	ExitNoTimer          = 253 // -3
	ExitTimerRunning     = 254 // -2
)

var ErrUnknownOperation = errors.New("unknown operation")

type Option func(*app)

// WithClock replaces time.Now for every operation.
func WithClock(now func() time.Time) Option {
	return func(a *app) {
		a.now = now
	}
}

type app struct {
	now func() time.Time

	comment      string
	reuseComment bool
	logFilePath  string
	cfgFile      string
	verbose      bool
}

// NewRootCmd builds the command line interface.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:   "thesis-time-tracker operation",
		Short: "Logs the time spent working on the thesis.",
		Long: `Logs the time spent working on the thesis.

'start' adds a new log entry with the current start time. 'stop' completes the last
entry with the current end time. 'total', 'this_week' and 'avg_week' report the time
logged overall, in the current ISO week and on average per week. 'status', 'list' and
'watch' show the running timer, every entry, or a live view.`,
		Example:   "  thesis-time-tracker start -c \"chapter 2\"\n  thesis-time-tracker stop\n  thesis-time-tracker this_week",
		Version:   version,
		ValidArgs: operationNames(),
		Args:      cobra.ArbitraryArgs,
		RunE:      a.run,

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&a.comment, "comment", "c", "", "a comment to be stored along the logged start/end time")
	flags.BoolVarP(&a.reuseComment, "reuse-comment", "r", false, "use the same comment as in the previous entry")
	flags.StringVarP(&a.logFilePath, "log-file-path", "f", config.DefaultLogFilePath, "the path to the log file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "print diagnostic logs")
	flags.BoolP("version", "V", false, "print the version and exit")
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.thesis-time-tracker.yaml)")
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)

	return cmd
}

// Execute runs the command line with os.Args and returns the process exit code.
func Execute() int {
	return Run(NewRootCmd(), os.Args[1:])
}

// Run executes cmd with args and maps the outcome to an exit code.
func Run(cmd *cobra.Command, args []string) int {
	cmd.InitDefaultHelpFlag()
	known, unknown := splitUnknownFlags(cmd.Flags(), args)
	cmd.SetContext(context.WithValue(context.Background(), unknownFlagsKey{}, unknown))
	cmd.SetArgs(known)
	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	switch {
	case errors.Is(err, tracker.ErrTimerRunning):
		fmt.Fprintln(out, "Current timer should be stopped before you can start a new timer.")
		return ExitTimerRunning
	case errors.Is(err, tracker.ErrNoTimer):
		fmt.Fprintln(out, "There is no timer that can be stopped. You should start a new timer instead.")
		return ExitNoTimer
	case errors.Is(err, tracker.ErrEmptyLog):
		fmt.Fprintln(out, "The log is empty, no weekly average can be computed.")
		return ExitEmptyLog
	case errors.Is(err, ErrUnknownOperation):
		fmt.Fprintf(errOut, "Error: %v\n", err)
		fmt.Fprintln(errOut, cmd.UseLine())
		return ExitUnknownOperation
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	return ExitFailure
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: expected one of %s", ErrUnknownOperation, strings.Join(operationNames(), ", "))
	}
	op, ok := lookupOperation(args[0])
	if !ok {
		return fmt.Errorf("%w %q: expected one of %s", ErrUnknownOperation, args[0], strings.Join(operationNames(), ", "))
	}

	out := cmd.OutOrStdout()
	unknown, _ := cmd.Context().Value(unknownFlagsKey{}).([]string)
	if remaining := append(append([]string(nil), unknown...), args[1:]...); len(remaining) > 0 {
		fmt.Fprintf(out, "Unexpected program arguments found: %q. They will be ignored.\n", remaining)
	}

	cfg, err := config.NewLoader(a.cfgFile, cmd.Flags()).Load()
	if err != nil {
		return err
	}
	log := a.logger(cfg, cmd.ErrOrStderr())
	log.Debug().Str("operation", op.name).Str("log_file_path", cfg.LogFilePath).Msg("running")

	store := timelog.NewStore(cfg.LogFilePath, log)
	created, err := store.Ensure()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(out, "Log file created.")
	}

	m := tracker.New(store, tracker.WithClock(a.now), tracker.WithLogger(log))
	return op.run(a, cmd, m)
}

type unknownFlagsKey struct{}

// splitUnknownFlags moves flags the command does not define out of args so they can
// be reported and ignored. Known flags keep their value argument.
func splitUnknownFlags(flags *pflag.FlagSet, args []string) (known, unknown []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		takesNext := false
		switch {
		case arg == "--":
			return append(known, args[i:]...), unknown
		case strings.HasPrefix(arg, "--"):
			name, _, hasValue := strings.Cut(arg[2:], "=")
			f := flags.Lookup(name)
			if f == nil {
				unknown = append(unknown, arg)
				continue
			}
			takesNext = !hasValue && f.NoOptDefVal == ""
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			var ok bool
			takesNext, ok = scanShorthands(flags, arg[1:])
			if !ok {
				unknown = append(unknown, arg)
				continue
			}
		}
		known = append(known, arg)
		if takesNext && i+1 < len(args) {
			i++
			known = append(known, args[i])
		}
	}
	return known, unknown
}

// scanShorthands walks a shorthand group such as "rv" or "cdraft". It reports whether
// every shorthand is defined and whether the group ends in a flag whose value is the
// next argument.
func scanShorthands(flags *pflag.FlagSet, group string) (takesNext, ok bool) {
	for j := 0; j < len(group); j++ {
		f := flags.ShorthandLookup(group[j : j+1])
		if f == nil {
			return false, false
		}
		if f.NoOptDefVal == "" {
			// The rest of the group is the value.
			return j == len(group)-1, true
		}
	}
	return false, true
}

func (a *app) logger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := cfg.LogLevel
	if a.verbose {
		level = zerolog.LevelDebugValue
	}
	return logger.New(logger.Config{Level: level, Pretty: true, Out: w})
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
