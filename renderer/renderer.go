package renderer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/w-h-a/recall"
)

// ErrInvalidFormat is returned for unsupported render targets.
var ErrInvalidFormat = errors.New("invalid format")

const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

const (
	ContentTypeJSON     = "application/json"
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeHTML     = "text/html; charset=utf-8"
)

// Render is a pure function from a structured result and a requested
// format to output bytes plus a content type. Empty format defaults to
// structured data.
func Render(result recall.Result, format string) ([]byte, string, error) {
	switch format {
	case "", FormatJSON:
		out, err := json.Marshal(result)
		if err != nil {
			return nil, "", err
		}
		return out, ContentTypeJSON, nil
	case FormatMarkdown:
		return []byte(Markdown(result)), ContentTypeMarkdown, nil
	case FormatHTML:
		return HTML(result), ContentTypeHTML, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}

// Markdown renders the fixed template: heading, reply body, a sources
// section when provenance is non-empty, and a session footer.
func Markdown(result recall.Result) string {
	var b strings.Builder

	b.WriteString("# Summary of Your Conversation Topics\n\n")
	b.WriteString("Based on your past conversations, here is a categorized overview:\n\n")

	b.WriteString(result.Response)
	b.WriteString("\n\n")

	if len(result.Sources) > 0 {
		b.WriteString("---\n\n## Sources Referenced\n\n")
		for _, src := range result.Sources {
			id := src.ChunkId
			if len(id) == 0 && len(src.MessageIds) > 0 {
				id = src.MessageIds[0]
			}
			sessionNote := ""
			if len(src.SessionId) > 0 {
				sessionNote = fmt.Sprintf(" (session `%s`)", src.SessionId)
			}
			fmt.Fprintf(&b, "- `%s`%s\n", id, sessionNote)
		}
		b.WriteString("\n")
	}

	if len(result.SessionId) > 0 {
		fmt.Fprintf(&b, "---\n_Session ID: `%s`_\n", result.SessionId)
	}

	return b.String()
}

// HTML renders the markdown variant through a markdown-to-hypertext
// transform. Deterministic: same result in, same bytes out.
func HTML(result recall.Result) []byte {
	md := Markdown(result)

	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})

	return markdown.ToHTML([]byte(md), p, r)
}
