package markdown

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// policy is shared; bluemonday policies are safe for concurrent use once built.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span", "table", "td", "th")
	p.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// RenderToHTML converts markdown text to sanitized HTML.
// Parsing is done by blackfriday with table support; bluemonday then strips
// anything that is not safe user content.
func RenderToHTML(markdown string) string {
	unsafeHTML := blackfriday.Run(
		[]byte(markdown),
		blackfriday.WithExtensions(
			blackfriday.CommonExtensions|
				blackfriday.AutoHeadingIDs,
		),
	)
	return string(policy.SanitizeBytes(unsafeHTML))
}
