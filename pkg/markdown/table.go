package markdown

import (
	"fmt"
	"html"
	"strings"

	"logmerge/pkg/logmerge"
)

// markdownPunct are the characters blackfriday treats as escapable.
const markdownPunct = "\\`*_{}[]()#+-.!:|~"

// Document returns a markdown document describing a merge: a heading, a
// summary line and the merged table.
func Document(leftName, rightName string, rows []logmerge.MergedEntry) string {
	stats := logmerge.Summarize(rows)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s ⇄ %s\n\n", escapeCell(leftName), escapeCell(rightName))
	fmt.Fprintf(&sb, "%d rows: %d paired, %d only in %s, %d only in %s\n\n",
		stats.Rows, stats.Paired,
		stats.LeftOnly, escapeCell(leftName),
		stats.RightOnly, escapeCell(rightName))
	sb.WriteString(Table(leftName, rightName, rows))
	return sb.String()
}

// Table renders merged rows as a markdown table with one column per log.
// Cell text is escaped so log content never turns into markup; multi-line
// messages use <br> between lines.
func Table(leftName, rightName string, rows []logmerge.MergedEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "| Timestamp | %s | %s |\n", escapeCell(leftName), escapeCell(rightName))
	sb.WriteString("| --- | --- | --- |\n")
	for _, row := range rows {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n",
			row.Timestamp.Format(logmerge.TimestampLayout),
			escapeCell(row.Left),
			escapeCell(row.Right))
	}
	return sb.String()
}

func escapeCell(s string) string {
	var sb strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			sb.WriteString("<br>")
		}
		for _, r := range line {
			switch {
			case r == '\t':
				sb.WriteString("&nbsp;&nbsp;&nbsp;&nbsp;")
			case r == '\r':
			case strings.ContainsRune(markdownPunct, r):
				sb.WriteByte('\\')
				sb.WriteRune(r)
			default:
				sb.WriteString(html.EscapeString(string(r)))
			}
		}
	}
	return sb.String()
}
