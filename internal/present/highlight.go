package present

import (
	"strings"

	"github.com/artpar/httphub/internal/core"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter colours JSON for terminal output.
type Highlighter struct {
	key     lipgloss.Style
	str     lipgloss.Style
	number  lipgloss.Style
	boolean lipgloss.Style
	null    lipgloss.Style
	punct   lipgloss.Style
}

// NewHighlighter creates a highlighter with the default palette.
func NewHighlighter() *Highlighter {
	return &Highlighter{
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		str:     lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		number:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		boolean: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		null:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		punct:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

// Render presents body and colours it when the result is pretty JSON.
func (h *Highlighter) Render(body string, format core.RawFormat, mode Mode) string {
	if mode != ModePretty || format != core.FormatJSON {
		return Present(body, format, mode)
	}
	pretty, ok := PrettyJSON(body)
	if !ok {
		return body
	}
	return h.Highlight(pretty)
}

// Highlight colours already formatted JSON. Whitespace and unknown bytes
// pass through untouched, so stripping the styles yields the input.
func (h *Highlighter) Highlight(src string) string {
	var out strings.Builder
	out.Grow(len(src) * 2)

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"':
			end := stringEnd(src, i)
			tok := src[i:end]
			if nextNonSpace(src, end) == ':' {
				out.WriteString(h.key.Render(tok))
			} else {
				out.WriteString(h.str.Render(tok))
			}
			i = end
		case c == '-' || (c >= '0' && c <= '9'):
			end := i + 1
			for end < len(src) && strings.IndexByte("0123456789.eE+-", src[end]) >= 0 {
				end++
			}
			out.WriteString(h.number.Render(src[i:end]))
			i = end
		case strings.HasPrefix(src[i:], "true"):
			out.WriteString(h.boolean.Render("true"))
			i += 4
		case strings.HasPrefix(src[i:], "false"):
			out.WriteString(h.boolean.Render("false"))
			i += 5
		case strings.HasPrefix(src[i:], "null"):
			out.WriteString(h.null.Render("null"))
			i += 4
		case strings.IndexByte("{}[]:,", c) >= 0:
			out.WriteString(h.punct.Render(string(c)))
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// stringEnd returns the index just past the string literal starting at i.
func stringEnd(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(src)
}

func nextNonSpace(src string, i int) byte {
	for ; i < len(src); i++ {
		switch src[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return src[i]
		}
	}
	return 0
}
