package logmerge

import (
	"strings"
	"time"
)

// TimestampLayout is the layout of the timestamp prefix of an entry-start line.
const TimestampLayout = "2006-01-02 15:04:05.000"

// Entry is one log entry. Message holds the text after the timestamp, plus
// any continuation lines joined by "\n".
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Lines returns the source lines the entry was parsed from.
func (e Entry) Lines() []string {
	lines := strings.Split(e.Message, "\n")
	lines[0] = e.Timestamp.Format(TimestampLayout) + " " + lines[0]
	return lines
}

// Format writes entries back into log text, one line per source line. Lines
// ending in "\r" are terminated with "\r\n" so that parsing keeps the "\r".
func Format(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		for _, line := range e.Lines() {
			sb.WriteString(line)
			if strings.HasSuffix(line, "\r") {
				sb.WriteByte('\r')
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// MergedEntry is one row of the merged view. Left and Right hold the messages
// from the first and second log; an empty string means that log had no entry
// for this row.
type MergedEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Left      string    `json:"left"`
	Right     string    `json:"right"`
}

// Paired reports whether the row combines entries from both logs.
func (m MergedEntry) Paired() bool {
	return m.Left != "" && m.Right != ""
}

// Stats summarises a merge result.
type Stats struct {
	Rows      int `json:"rows"`
	Paired    int `json:"paired"`
	LeftOnly  int `json:"left_only"`
	RightOnly int `json:"right_only"`
}

// Add counts one row.
func (s *Stats) Add(row MergedEntry) {
	s.Rows++
	switch {
	case row.Paired():
		s.Paired++
	case row.Left != "":
		s.LeftOnly++
	case row.Right != "":
		s.RightOnly++
	}
}

// Summarize counts the kinds of rows in a merge result.
func Summarize(rows []MergedEntry) Stats {
	var stats Stats
	for _, row := range rows {
		stats.Add(row)
	}
	return stats
}
