// Package inputtype guesses what kind of content an uploaded or opened file
// holds before it is handed to the log parser.
package inputtype

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"logmerge/pkg/logmerge"
)

// InputType represents the detected type of input
type InputType string

const (
	InputTypeUnknown InputType = "unknown"
	InputTypeBinary  InputType = "binary"
	InputTypeText    InputType = "text"
	InputTypeANSI    InputType = "ansi"
	InputTypeLog     InputType = "log"
)

// SniffLimit is how many leading bytes Sniff looks at.
const SniffLimit = 8192

// maxLines ends detection early once this many lines were seen.
const maxLines = 50

// Detector analyzes the first lines of a file to detect its type.
// It is not safe for concurrent use.
type Detector struct {
	detectedType    InputType
	detectionReason string
	detected        bool
	bytesSeen       int

	lineCount     int
	entryStarts   int
	hasColorCodes bool
}

// NewDetector creates a new input type detector
func NewDetector() *Detector {
	return &Detector{detectedType: InputTypeUnknown}
}

// AnalyzeLine analyzes a line of input and updates detection state.
// Returns true if the type has been detected (stop calling after this).
func (d *Detector) AnalyzeLine(line string) bool {
	if d.detected {
		return true
	}

	d.bytesSeen += len(line)
	d.lineCount++

	// Binary wins over everything else
	if isBinaryData(line) {
		d.detectedType = InputTypeBinary
		d.detectionReason = "null bytes or high proportion of non-printable characters detected"
		d.detected = true
		return true
	}

	if logmerge.IsEntryStart(strings.TrimSuffix(line, "\r")) {
		d.entryStarts++
	}
	if containsSGR(line) {
		d.hasColorCodes = true
	}

	if d.bytesSeen >= SniffLimit || d.lineCount >= maxLines {
		d.Finish()
		return true
	}
	return false
}

// Finish settles the type from the lines seen so far. It is a no-op once the
// type is detected.
func (d *Detector) Finish() {
	if d.detected {
		return
	}
	d.detected = true

	switch {
	case d.lineCount == 0:
		d.detectedType = InputTypeUnknown
		d.detectionReason = "no input"
	case d.hasColorCodes:
		// ANSI codes are reported even in timestamped logs, they end up
		// verbatim in the merged messages.
		d.detectedType = InputTypeANSI
		d.detectionReason = "ANSI color codes detected"
	case d.entryStarts > 0:
		d.detectedType = InputTypeLog
		d.detectionReason = "timestamped entry lines detected"
	default:
		d.detectedType = InputTypeText
		d.detectionReason = "no timestamped entry lines detected"
	}
}

// GetDetectedType returns the detected type and reason
func (d *Detector) GetDetectedType() (InputType, string) {
	return d.detectedType, d.detectionReason
}

// IsDetected returns true if type has been determined
func (d *Detector) IsDetected() bool {
	return d.detected
}

// ErrBinary is returned by Check for content that is not text.
var ErrBinary = errors.New("binary content")

// Sniff detects the type of r from its first SniffLimit bytes. The returned
// reader yields the complete content of r, including the sniffed bytes.
func Sniff(r io.Reader) (InputType, string, io.Reader, error) {
	br := bufio.NewReaderSize(r, SniffLimit)
	head, err := br.Peek(SniffLimit)
	if err != nil && !errors.Is(err, io.EOF) {
		return InputTypeUnknown, "", br, err
	}

	d := NewDetector()
	for line := range strings.Lines(string(head)) {
		if d.AnalyzeLine(strings.TrimSuffix(line, "\n")) {
			break
		}
	}
	if !d.IsDetected() {
		// Short input ends before the line or byte limit is reached.
		d.Finish()
	}

	typ, reason := d.GetDetectedType()
	return typ, reason, br, nil
}

// Check is Sniff for callers that only need to refuse binary content.
// Errors wrap ErrBinary.
func Check(r io.Reader) (io.Reader, InputType, error) {
	typ, reason, br, err := Sniff(r)
	if err != nil {
		return br, typ, err
	}
	if typ == InputTypeBinary {
		return br, typ, &binaryError{reason: reason}
	}
	return br, typ, nil
}

type binaryError struct {
	reason string
}

func (e *binaryError) Error() string {
	return ErrBinary.Error() + ": " + e.reason
}

func (e *binaryError) Unwrap() error {
	return ErrBinary
}

// isBinaryData checks if a line contains binary data
func isBinaryData(line string) bool {
	if len(line) == 0 {
		return false
	}

	nonPrintableCount := 0
	for _, r := range line {
		// Null bytes are a definitive indicator of binary data
		if r == 0 {
			return true
		}
		// ESC is left out, it starts ANSI sequences
		if r < 32 && r != '\t' && r != '\n' && r != '\r' && r != 0x1B {
			nonPrintableCount++
		} else if r > 126 && r < 160 {
			// Control characters in extended ASCII
			nonPrintableCount++
		}
	}

	// If more than 30% of characters are non-printable, consider it binary
	threshold := float64(len(line)) * 0.3
	return float64(nonPrintableCount) > threshold
}

// containsSGR checks for SGR (Select Graphic Rendition) escape sequences like \x1b[<n>m
func containsSGR(line string) bool {
	idx := strings.Index(line, "\x1b[")
	for idx != -1 && idx+2 < len(line) {
		// Look for pattern: ESC [ <digits or semicolons> m
		j := idx + 2
		hasContent := false
		for j < len(line) && (line[j] >= '0' && line[j] <= '9' || line[j] == ';') {
			hasContent = true
			j++
		}
		if hasContent && j < len(line) && line[j] == 'm' {
			return true
		}
		next := strings.Index(line[idx+2:], "\x1b[")
		if next == -1 {
			return false
		}
		idx += 2 + next
	}
	return false
}
