package web

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

// Entry bodies are prose typed into a plain text area: every newline the
// writer typed is kept as a line break, and raw HTML is never passed through.
var (
	entryMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(goldhtml.WithHardWraps()),
	)
	entryPolicy = bluemonday.UGCPolicy()
)

// RenderMarkdown converts an entry body to sanitized HTML for the editor
// preview. Empty bodies render as "".
func RenderMarkdown(body string) string {
	if body == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := entryMarkdown.Convert([]byte(body), &buf); err != nil {
		return "<p>" + html.EscapeString(body) + "</p>"
	}
	return entryPolicy.Sanitize(buf.String())
}
