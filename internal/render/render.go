// Package render writes merged logs to a terminal or file in one of several
// formats.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"

	"logmerge/pkg/logmerge"
	"logmerge/pkg/markdown"
)

// Formats lists the names accepted by New.
var Formats = []string{"text", "json", "markdown", "html"}

// Renderer writes one merge result.
type Renderer interface {
	Render(w io.Writer, leftName, rightName string, rows []logmerge.MergedEntry) error
}

// New returns the renderer for format. width is only used by the text
// renderer.
func New(format string, width int) (Renderer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return NewTextRenderer(width), nil
	case "json":
		return JSONRenderer{}, nil
	case "markdown", "md":
		return MarkdownRenderer{}, nil
	case "html":
		return HTMLRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// ---------------------------------------------------------------------------
// JSON Renderer (one object per row, for piping)
// ---------------------------------------------------------------------------

type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, _, _ string, rows []logmerge.MergedEntry) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Markdown / HTML Renderers
// ---------------------------------------------------------------------------

type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(w io.Writer, leftName, rightName string, rows []logmerge.MergedEntry) error {
	_, err := io.WriteString(w, markdown.Document(leftName, rightName, rows))
	return err
}

type HTMLRenderer struct{}

func (HTMLRenderer) Render(w io.Writer, leftName, rightName string, rows []logmerge.MergedEntry) error {
	_, err := io.WriteString(w, markdown.RenderToHTML(markdown.Document(leftName, rightName, rows)))
	return err
}
