package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"thesis_tracker/internal/timelog"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t    *testing.T
	dir  string
	path string
	now  time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return &harness{
		t:    t,
		dir:  dir,
		path: filepath.Join(dir, "tracker.csv"),
		// Monday
		now: time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local),
	}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	cmd := NewRootCmd(WithClock(func() time.Time { return h.now }))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	code := Run(cmd, args)
	return code, out.String(), errOut.String()
}

// exec runs an operation against the harness log file.
func (h *harness) exec(args ...string) (int, string, string) {
	h.t.Helper()
	return h.run(append(args, "-f", h.path)...)
}

func (h *harness) entries() timelog.Log {
	h.t.Helper()
	entries, err := timelog.NewStore(h.path, zerolog.Nop()).Load()
	require.NoError(h.t, err)
	return entries
}

func (h *harness) write(content string) {
	h.t.Helper()
	require.NoError(h.t, os.WriteFile(h.path, []byte(content), 0644))
}

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		h := newHarness(t)
		for _, flag := range []string{"-V", "--version"} {
			code, out, _ := h.run(flag)
			assert.Equal(t, ExitOK, code)
			assert.Equal(t, "thesis-time-tracker "+GetVersion()+"\n", out)
		}
	})

	t.Run("help flag", func(t *testing.T) {
		h := newHarness(t)
		code, out, _ := h.run("--help")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, "Logs the time spent working on the thesis.")
		assert.Contains(t, out, "--reuse-comment")
		assert.Contains(t, out, "--log-file-path")
	})

	t.Run("flags", func(t *testing.T) {
		cmd := NewRootCmd()
		tests := []struct {
			name, shorthand, def string
		}{
			{"comment", "c", ""},
			{"reuse-comment", "r", "false"},
			{"log-file-path", "f", "tracker.csv"},
			{"verbose", "v", "false"},
			{"version", "V", "false"},
		}
		for _, tt := range tests {
			f := cmd.Flags().Lookup(tt.name)
			require.NotNil(t, f, tt.name)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		}
	})

	t.Run("missing operation", func(t *testing.T) {
		h := newHarness(t)
		code, _, errOut := h.exec()
		assert.Equal(t, ExitUnknownOperation, code)
		assert.Contains(t, errOut, "unknown operation")
		assert.NoFileExists(t, h.path)
	})

	t.Run("unknown operation", func(t *testing.T) {
		h := newHarness(t)
		code, _, errOut := h.exec("pause")
		assert.Equal(t, ExitUnknownOperation, code)
		assert.Contains(t, errOut, `"pause"`)
		assert.NoFileExists(t, h.path)
	})

	t.Run("extra arguments are ignored", func(t *testing.T) {
		h := newHarness(t)
		code, out, _ := h.exec("total", "now", "please")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, `Unexpected program arguments found: ["now" "please"]. They will be ignored.`)
		assert.Contains(t, out, "0:00:00")
	})

	t.Run("unknown flags are reported and ignored", func(t *testing.T) {
		h := newHarness(t)
		code, out, _ := h.exec("total", "--colour")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, `Unexpected program arguments found: ["--colour"]. They will be ignored.`)
		assert.Contains(t, out, "0:00:00")
	})

	t.Run("unknown flag with a value still runs the operation", func(t *testing.T) {
		h := newHarness(t)
		code, out, _ := h.exec("start", "--tag", "x", "-c", "draft")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, `Unexpected program arguments found: ["--tag" "x"]. They will be ignored.`)

		entries := h.entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "draft", entries[0].Comment)
	})
}

func TestSplitUnknownFlags(t *testing.T) {
	flags := NewRootCmd().Flags()

	tests := []struct {
		name    string
		args    []string
		known   []string
		unknown []string
	}{
		{"no flags", []string{"total"}, []string{"total"}, nil},
		{"known long flag with value", []string{"start", "--comment", "--odd"}, []string{"start", "--comment", "--odd"}, nil},
		{"known long flag with equals", []string{"start", "--comment=x"}, []string{"start", "--comment=x"}, nil},
		{"known bool flag keeps next arg positional", []string{"-r", "start"}, []string{"-r", "start"}, nil},
		{"shorthand group", []string{"start", "-rv"}, []string{"start", "-rv"}, nil},
		{"shorthand group ending in value flag", []string{"start", "-rc", "A"}, []string{"start", "-rc", "A"}, nil},
		{"attached shorthand value", []string{"start", "-cdraft"}, []string{"start", "-cdraft"}, nil},
		{"unknown long flag", []string{"total", "--colour"}, []string{"total"}, []string{"--colour"}},
		{"unknown long flag with equals", []string{"total", "--since=monday"}, []string{"total"}, []string{"--since=monday"}},
		{"unknown shorthand", []string{"-x", "stop"}, []string{"stop"}, []string{"-x"}},
		{"unknown shorthand in group", []string{"start", "-rq"}, []string{"start"}, []string{"-rq"}},
		{"double dash ends flags", []string{"total", "--", "--colour"}, []string{"total", "--", "--colour"}, nil},
		{"single dash is positional", []string{"total", "-"}, []string{"total", "-"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			known, unknown := splitUnknownFlags(flags, tt.args)
			assert.Equal(t, tt.known, known)
			assert.Equal(t, tt.unknown, unknown)
		})
	}
}

func TestBootstrap(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.exec("total")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Log file created.")
	data, err := os.ReadFile(h.path)
	require.NoError(t, err)
	assert.Equal(t, "start,end,comment\n", string(data))

	code, out, _ = h.exec("start")
	assert.Equal(t, ExitOK, code)
	assert.NotContains(t, out, "Log file created.")
	assert.Len(t, h.entries(), 1)
}

func TestStartStop(t *testing.T) {
	t.Run("alternation", func(t *testing.T) {
		h := newHarness(t)

		code, _, _ := h.exec("start", "-c", "chapter 1")
		require.Equal(t, ExitOK, code)

		code, out, _ := h.exec("start")
		assert.Equal(t, ExitTimerRunning, code)
		assert.Contains(t, out, "Current timer should be stopped before you can start a new timer.")
		require.Len(t, h.entries(), 1)

		h.now = h.now.Add(90 * time.Minute)
		code, _, _ = h.exec("stop")
		require.Equal(t, ExitOK, code)

		code, out, _ = h.exec("stop")
		assert.Equal(t, ExitNoTimer, code)
		assert.Contains(t, out, "There is no timer that can be stopped. You should start a new timer instead.")

		entries := h.entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "chapter 1", entries[0].Comment)
		assert.Equal(t, 90*time.Minute, entries[0].Duration())
	})

	t.Run("stop on empty log", func(t *testing.T) {
		h := newHarness(t)
		code, _, _ := h.exec("stop")
		assert.Equal(t, ExitNoTimer, code)
		assert.Empty(t, h.entries())
	})

	t.Run("rejected start leaves the file untouched", func(t *testing.T) {
		h := newHarness(t)
		content := "start,end,comment\n2024-06-10 08:00:00,,running\n"
		h.write(content)

		code, _, _ := h.exec("start", "-c", "new")
		assert.Equal(t, ExitTimerRunning, code)
		data, err := os.ReadFile(h.path)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("reuse comment", func(t *testing.T) {
		h := newHarness(t)

		code, _, _ := h.exec("start", "-c", "A")
		require.Equal(t, ExitOK, code)
		h.now = h.now.Add(time.Hour)
		code, _, _ = h.exec("stop")
		require.Equal(t, ExitOK, code)
		h.now = h.now.Add(time.Hour)
		code, _, _ = h.exec("start", "-r", "-c", "B")
		require.Equal(t, ExitOK, code)

		entries := h.entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "A", entries[1].Comment)
		assert.True(t, entries[1].Open())
	})
}

func TestReports(t *testing.T) {
	t.Run("total", func(t *testing.T) {
		h := newHarness(t)
		h.write("start,end,comment\n" +
			"2024-06-03 09:00:00,2024-06-03 10:30:00,\n" +
			"2024-06-03 14:00:00,2024-06-03 14:45:00,\n")

		code, out, _ := h.exec("total")
		assert.Equal(t, ExitOK, code)
		assert.Equal(t, "2:15:00\n", out)
	})

	t.Run("this week", func(t *testing.T) {
		h := newHarness(t)
		h.write("start,end,comment\n" +
			"2024-06-09 22:00:00,2024-06-09 23:30:00,sunday\n" +
			"2024-06-10 07:00:00,2024-06-10 08:00:00,monday\n" +
			"2024-06-10 08:30:00,,open\n")

		code, out, _ := h.exec("this_week")
		assert.Equal(t, ExitOK, code)
		assert.Equal(t, "1:00:00\n", out)
	})

	t.Run("avg week", func(t *testing.T) {
		h := newHarness(t)
		h.write("start,end,comment\n" +
			"2024-06-10 07:00:00,2024-06-10 08:00:00,\n" +
			"2024-06-10 08:00:00,2024-06-10 09:00:00,\n")

		code, out, _ := h.exec("avg_week")
		assert.Equal(t, ExitOK, code)
		assert.Equal(t, "2:00:00\n", out)
	})

	t.Run("avg week on empty log", func(t *testing.T) {
		h := newHarness(t)

		code, out, _ := h.exec("avg_week")
		assert.Equal(t, ExitEmptyLog, code)
		assert.Contains(t, out, "The log is empty, no weekly average can be computed.")
	})

	t.Run("malformed log", func(t *testing.T) {
		h := newHarness(t)
		h.write("when,until,why\n")

		code, _, errOut := h.exec("total")
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, errOut, "malformed log file")
	})
}

func TestStatusAndList(t *testing.T) {
	t.Run("status stopped", func(t *testing.T) {
		h := newHarness(t)
		code, out, _ := h.exec("status")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, "stopped")
	})

	t.Run("status running", func(t *testing.T) {
		h := newHarness(t)
		h.write("start,end,comment\n2024-06-10 08:15:00,,chapter 3\n")

		code, out, _ := h.exec("status")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, "running since 2024-06-10 08:15:00 (0:45:00) chapter 3")
	})

	t.Run("list", func(t *testing.T) {
		h := newHarness(t)
		h.write("start,end,comment\n" +
			"2024-06-03 09:00:00,2024-06-03 10:30:00,outline\n" +
			"2024-06-10 08:00:00,,draft\n")

		code, out, _ := h.exec("list")
		assert.Equal(t, ExitOK, code)
		for _, want := range []string{"outline", "draft", "1:30:00", "1:00:00", "running", "Total entries: 2"} {
			assert.Contains(t, out, want)
		}
		assert.True(t, strings.Index(out, "outline") < strings.Index(out, "draft"))
	})

	t.Run("list empty", func(t *testing.T) {
		h := newHarness(t)
		code, out, _ := h.exec("list")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, "No entries logged")
	})
}

func TestConfigFile(t *testing.T) {
	h := newHarness(t)
	logPath := filepath.Join(h.dir, "from-config.csv")
	cfgPath := filepath.Join(h.dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_file_path: "+logPath+"\n"), 0644))

	code, _, _ := h.run("start", "--config", cfgPath)
	require.Equal(t, ExitOK, code)
	assert.FileExists(t, logPath)

	code, _, _ = h.run("stop", "--config", cfgPath, "-f", h.path)
	assert.Equal(t, ExitNoTimer, code, "the flag wins over the config file")
}

func TestVerboseLogsToStderr(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.exec("start", "-v")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, errOut, "timer started")
	assert.NotContains(t, out, "timer started")
}
