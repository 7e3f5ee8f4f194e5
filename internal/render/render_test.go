package render

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"

	"logmerge/pkg/logmerge"
)

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func sampleRows() []logmerge.MergedEntry {
	return []logmerge.MergedEntry{
		{Timestamp: t0, Left: "A", Right: "B"},
		{Timestamp: t0.Add(2 * time.Minute), Right: "first\nsecond"},
		{Timestamp: t0.Add(5 * time.Minute), Left: "C"},
	}
}

func TestNew(t *testing.T) {
	for _, format := range Formats {
		r, err := New(format, 80)
		require.NoError(t, err, format)
		require.NotNil(t, r)
	}

	_, err := New("yaml", 80)
	require.ErrorContains(t, err, `unknown format "yaml"`)
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer

	err := NewTextRenderer(100).Render(&buf, "app.log", "db.log", sampleRows())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// header, three rows (one spans two lines), summary
	require.Len(t, lines, 6)
	require.Contains(t, lines[0], "app.log")
	require.Contains(t, lines[0], "db.log")
	require.Contains(t, lines[1], "2024-01-01 10:00:00.000")
	require.Contains(t, lines[1], "A")
	require.Contains(t, lines[1], "B")
	require.Contains(t, lines[2], "first")
	require.Contains(t, lines[3], "second")
	require.Contains(t, lines[4], "2024-01-01 10:05:00.000")
	require.Equal(t, "3 rows: 1 paired, 1 only in app.log, 1 only in db.log", strings.TrimSpace(lines[5]))
}

func TestTextRenderer_Columns(t *testing.T) {
	require.Equal(t, (DefaultWidth-23-4)/2, NewTextRenderer(0).columnWidth())
	require.Equal(t, minColumnWidth, NewTextRenderer(20).columnWidth())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&buf, "l", "r", sampleRows()))

	var got []map[string]string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var m map[string]string
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		got = append(got, m)
	}
	require.Len(t, got, 3)
	require.Equal(t, map[string]string{"timestamp": "2024-01-01T10:00:00Z", "left": "A", "right": "B"}, got[0])
	require.Equal(t, "first\nsecond", got[1]["right"])
}

func TestMarkdownAndHTMLRenderers(t *testing.T) {
	var md, html bytes.Buffer
	require.NoError(t, MarkdownRenderer{}.Render(&md, "l", "r", sampleRows()))
	require.NoError(t, HTMLRenderer{}.Render(&html, "l", "r", sampleRows()))

	require.Contains(t, md.String(), "| 2024-01-01 10:00:00.000 | A | B |")
	require.Contains(t, html.String(), "<table>")
	require.Contains(t, html.String(), "first<br>second")
}
