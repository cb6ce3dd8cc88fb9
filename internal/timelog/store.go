package timelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// ErrMalformedLog is returned when the log file cannot be parsed.
var ErrMalformedLog = errors.New("malformed log file")

var header = []string{"start", "end", "comment"}

// Store reads and rewrites the CSV log file.
type Store struct {
	path string
	log  zerolog.Logger
}

func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{path: path, log: log}
}

func (s *Store) Path() string {
	return s.path
}

// Ensure creates a header-only log file if none exists at the store path.
// It reports whether a file was created.
func (s *Store) Ensure() (bool, error) {
	fi, err := os.Stat(s.path)
	if err == nil {
		if fi.IsDir() {
			return false, fmt.Errorf("log file path %s is a directory", s.path)
		}
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat log file: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	if err := writeLog(f, nil); err != nil {
		return false, fmt.Errorf("failed to write log header: %w", err)
	}
	s.log.Debug().Str("path", s.path).Msg("created log file")
	return true, nil
}

func (s *Store) Load() (Log, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	entries, err := readLog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	s.log.Debug().Str("path", s.path).Int("entries", len(entries)).Msg("loaded log")
	return entries, nil
}

// Save rewrites the whole log file. The new content is written next to the original
// and renamed over it, keeping its permissions. A symlinked log is replaced at its
// target.
func (s *Store) Save(entries Log) error {
	target := s.path
	if resolved, err := filepath.EvalSymlinks(s.path); err == nil {
		target = resolved
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(target); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp log file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeLog(tmp, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write log file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace log file: %w", err)
	}
	s.log.Debug().Str("path", s.path).Int("entries", len(entries)).Msg("saved log")
	return nil
}

func readLog(r io.Reader) (Log, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedLog)
	}
	if err != nil {
		return nil, readError(err)
	}
	for i, name := range header {
		if head[i] != name {
			return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformedLog, head)
		}
	}

	var entries Log
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		line, _ := cr.FieldPos(0)

		if len(entries) > 0 && entries[len(entries)-1].Open() {
			return nil, fmt.Errorf("%w: line %d: open entry is not the last one", ErrMalformedLog, line-1)
		}

		e, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLog, line, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseRecord(record []string) (Entry, error) {
	start, err := ParseTimestamp(record[0])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid start %q", record[0])
	}
	e := Entry{Start: start, Comment: record[2]}
	if record[1] != "" {
		end, err := ParseTimestamp(record[1])
		if err != nil {
			return Entry{}, fmt.Errorf("invalid end %q", record[1])
		}
		e.End = &end
	}
	return e, nil
}

func writeLog(w io.Writer, entries Log) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		end := ""
		if e.End != nil {
			end = FormatTimestamp(*e.End)
		}
		if err := cw.Write([]string{FormatTimestamp(e.Start), end, e.Comment}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Truncate drops sub-second precision, matching what the file can hold.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

// readError keeps CSV syntax errors apart from failures of the underlying reader.
func readError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	return fmt.Errorf("failed to read log file: %w", err)
}
