package timelog

import (
	"fmt"
	"time"
)

// TimestampLayout is the on-disk format of start and end fields.
const TimestampLayout = "2006-01-02 15:04:05"

// Entry represents one recorded work session. A nil End marks the open timer.
type Entry struct {
	Start   time.Time
	End     *time.Time
	Comment string
}

func (e Entry) Open() bool {
	return e.End == nil
}

// Duration is the length of a closed session; open sessions count as zero.
func (e Entry) Duration() time.Duration {
	if e.End == nil {
		return 0
	}
	return e.End.Sub(e.Start)
}

// Elapsed is the running length of the session measured at now.
func (e Entry) Elapsed(now time.Time) time.Duration {
	if e.End != nil {
		return e.Duration()
	}
	return now.Sub(e.Start)
}

// Log is the ordered sequence of entries kept in the log file.
type Log []Entry

// Last returns the most recent entry, if any.
func (l Log) Last() (Entry, bool) {
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[len(l)-1], true
}

// HasOpenTimer reports whether the last entry is still running.
func (l Log) HasOpenTimer() bool {
	last, ok := l.Last()
	return ok && last.Open()
}

// Sum adds up the closed entries accepted by keep. A nil keep accepts all.
func (l Log) Sum(keep func(Entry) bool) time.Duration {
	var total time.Duration
	for _, e := range l {
		if e.Open() {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		total += e.Duration()
	}
	return total
}

// EarliestStart returns the minimum start over all entries.
func (l Log) EarliestStart() (time.Time, bool) {
	if len(l) == 0 {
		return time.Time{}, false
	}
	earliest := l[0].Start
	for _, e := range l[1:] {
		if e.Start.Before(earliest) {
			earliest = e.Start
		}
	}
	return earliest, true
}

// FormatTimestamp renders t the way the log file stores it.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp reads a log file timestamp in local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}

// FormatDuration renders d as "H:MM:SS", prefixed by "N day(s), " for spans of a day
// or more.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	clock := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	switch {
	case days == 1:
		return fmt.Sprintf("%s1 day, %s", sign, clock)
	case days > 1:
		return fmt.Sprintf("%s%d days, %s", sign, days, clock)
	}
	return sign + clock
}
