// Package render converts note bodies to HTML. Note descriptions are
// authored rich text; raw HTML embedded in them passes through unchanged.
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(),
	),
)

// HTML renders a note body to HTML.
func HTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
