// Package present turns a response body into the text shown for each
// response view mode.
package present

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/artpar/httphub/internal/core"
	"github.com/goccy/go-json"
)

// Mode selects how a response body is displayed.
type Mode string

const (
	ModePretty  Mode = "pretty"
	ModeRaw     Mode = "raw"
	ModePreview Mode = "preview"
)

// PreviewPlaceholder is shown in preview mode; HTML is never rendered.
const PreviewPlaceholder = "rendering not implemented"

// Modes returns the view modes in display order.
func Modes() []Mode {
	return []Mode{ModePretty, ModeRaw, ModePreview}
}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown view mode %q (want pretty, raw or preview)", s)
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	modes := Modes()
	for i, known := range modes {
		if known == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return ModePretty
}

// Title is the label used on the view switcher.
func (m Mode) Title() string {
	switch m {
	case ModePretty:
		return "Pretty"
	case ModeRaw:
		return "Raw"
	case ModePreview:
		return "Preview"
	default:
		return string(m)
	}
}

// Present returns the display text for body. It never fails: anything it
// cannot format is returned unchanged.
func Present(body string, format core.RawFormat, mode Mode) string {
	switch mode {
	case ModePreview:
		return PreviewPlaceholder
	case ModePretty:
		if format != core.FormatJSON {
			return body
		}
		if pretty, ok := PrettyJSON(body); ok {
			return pretty
		}
		return body
	default:
		return body
	}
}

// PrettyJSON indents body with two spaces. ok is false for invalid JSON.
func PrettyJSON(body string) (string, bool) {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(body), "", "  "); err != nil {
		return body, false
	}
	return out.String(), true
}
