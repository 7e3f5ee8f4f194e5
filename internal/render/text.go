package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"logmerge/pkg/logmerge"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 120

const (
	timestampWidth = len(logmerge.TimestampLayout)
	minColumnWidth = 10
	gap            = "  "
)

var (
	styleTimestamp = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stylePaired    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	styleLeft      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleRight     = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	styleHeader    = lipgloss.NewStyle().Bold(true).Underline(true)
	styleSummary   = lipgloss.NewStyle().Faint(true)
)

// TextRenderer prints rows as three aligned columns: timestamp, left, right.
// Long and multi-line messages wrap inside their column.
type TextRenderer struct {
	width int
}

func NewTextRenderer(width int) *TextRenderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &TextRenderer{width: width}
}

// columnWidth is the width of each message column.
func (r *TextRenderer) columnWidth() int {
	w := (r.width - timestampWidth - 2*len(gap)) / 2
	return max(w, minColumnWidth)
}

func (r *TextRenderer) Render(w io.Writer, leftName, rightName string, rows []logmerge.MergedEntry) error {
	col := r.columnWidth()

	header := r.line(col,
		styleHeader.Render("timestamp"),
		styleHeader.Render(leftName),
		styleHeader.Render(rightName))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for _, row := range rows {
		tsStyle := styleTimestamp
		if row.Paired() {
			tsStyle = stylePaired
		}
		line := r.line(col,
			tsStyle.Render(row.Timestamp.Format(logmerge.TimestampLayout)),
			styleLeft.Render(expandTabs(row.Left)),
			styleRight.Render(expandTabs(row.Right)))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	stats := logmerge.Summarize(rows)
	_, err := fmt.Fprintln(w, styleSummary.Render(fmt.Sprintf(
		"%d rows: %d paired, %d only in %s, %d only in %s",
		stats.Rows, stats.Paired, stats.LeftOnly, leftName, stats.RightOnly, rightName)))
	return err
}

func (r *TextRenderer) line(col int, ts, left, right string) string {
	cell := lipgloss.NewStyle().Width(col)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(timestampWidth).Render(ts), gap,
		cell.Render(left), gap,
		cell.Render(right))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
