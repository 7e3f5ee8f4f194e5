package logmerge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// MaxLineLength is the longest line ParseReader accepts.
const MaxLineLength = 1 << 20

// ErrMalformedTimestamp is returned when an entry-start line carries a
// timestamp that is not a valid calendar date and time, e.g. month 13.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// entryStart matches an entry-start line. Group 1 is the timestamp, group 2
// the message.
var entryStart = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}) (.*\S.*)$`)

// Parse splits log text into entries. See the package documentation for the
// accepted format. Lines may be of any length.
//
// If an entry-start line holds an invalid timestamp, Parse returns no entries
// and an error wrapping ErrMalformedTimestamp.
func Parse(text string) ([]Entry, error) {
	var p parser
	for line := range strings.Lines(text) {
		line = strings.TrimSuffix(line, "\n")
		if err := p.feed(strings.TrimSuffix(line, "\r")); err != nil {
			return nil, err
		}
	}
	return p.finish(), nil
}

// ParseReader is like Parse but reads the log from r. Lines longer than
// MaxLineLength fail with bufio.ErrTooLong.
func ParseReader(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)

	var p parser
	for scanner.Scan() {
		if err := p.feed(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log after line %d: %w", p.lineNo, err)
	}
	return p.finish(), nil
}

// parser folds lines, without their terminators, into entries.
type parser struct {
	entries []Entry
	acc     accumulator
	lineNo  int
}

func (p *parser) feed(line string) error {
	p.lineNo++

	m := entryStart.FindStringSubmatch(line)
	if m == nil {
		p.acc.appendLine(line)
		return nil
	}

	ts, err := time.Parse(TimestampLayout, m[1])
	if err != nil {
		return fmt.Errorf("line %d: %w %q: %w", p.lineNo, ErrMalformedTimestamp, m[1], err)
	}
	if e, ok := p.acc.finish(); ok {
		p.entries = append(p.entries, e)
	}
	p.acc.start(ts, m[2])
	return nil
}

func (p *parser) finish() []Entry {
	if e, ok := p.acc.finish(); ok {
		p.entries = append(p.entries, e)
	}
	return p.entries
}

// accumulator holds the entry that is still receiving continuation lines.
type accumulator struct {
	open bool
	ts   time.Time
	msg  strings.Builder
}

func (a *accumulator) start(ts time.Time, msg string) {
	a.open = true
	a.ts = ts
	a.msg.Reset()
	a.msg.WriteString(msg)
}

// appendLine adds a continuation line. Without an open entry the line has
// nothing to attach to and is dropped.
func (a *accumulator) appendLine(line string) {
	if !a.open {
		return
	}
	a.msg.WriteByte('\n')
	a.msg.WriteString(line)
}

func (a *accumulator) finish() (Entry, bool) {
	if !a.open {
		return Entry{}, false
	}
	a.open = false
	return Entry{Timestamp: a.ts, Message: a.msg.String()}, true
}

// IsEntryStart reports whether line begins a new entry. It checks the shape
// only; the timestamp may still be an invalid date.
func IsEntryStart(line string) bool {
	return entryStart.MatchString(line)
}
