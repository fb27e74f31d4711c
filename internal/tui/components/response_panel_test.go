package components

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/present"
	"github.com/artpar/httphub/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestView(status int, body string) core.ResponseViewModel {
	return core.ResponseViewModel{
		Status:     status,
		StatusText: fmt.Sprintf("%d OK", status),
		Headers:    []core.KeyValue{{Key: "Content-Type", Value: "application/json"}},
		BodyText:   body,
		Duration:   42 * time.Millisecond,
	}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func focusedResponsePanel() *ResponsePanel {
	p := NewResponsePanel()
	p.SetSize(80, 20)
	p.Focus()
	return p
}

func TestNewResponsePanel(t *testing.T) {
	p := NewResponsePanel()
	assert.Equal(t, "Response", p.Title())
	assert.Equal(t, core.EmptyView(), p.Response())
	assert.Equal(t, present.ModePretty, p.Mode())
	assert.Equal(t, ResponseTabBody, p.ActiveTab())
	assert.False(t, p.Focused())
}

func TestResponsePanel_View(t *testing.T) {
	t.Run("empty before sizing", func(t *testing.T) {
		assert.Empty(t, NewResponsePanel().View())
	})

	t.Run("placeholders", func(t *testing.T) {
		p := focusedResponsePanel()
		assert.Contains(t, p.View(), "No response yet")

		p.SetResponse(core.LoadingView(), core.FormatJSON)
		assert.Contains(t, p.View(), "Sending...")

		p.SetResponse(core.ErrorView("dial tcp: refused"), core.FormatJSON)
		assert.Contains(t, p.View(), "Error: dial tcp: refused")
	})

	t.Run("status line", func(t *testing.T) {
		p := focusedResponsePanel()
		p.SetResponse(newTestView(201, `{"id":1}`), core.FormatJSON)
		out := p.View()
		assert.Contains(t, out, "201 OK")
		assert.Contains(t, out, "42ms")
		assert.Contains(t, out, "[Pretty]")
		assert.Contains(t, out, "Headers")
	})
}

func TestResponsePanel_RenderedBody(t *testing.T) {
	body := `{"a":1}`

	t.Run("pretty json", func(t *testing.T) {
		p := NewResponsePanel()
		p.SetResponse(newTestView(200, body), core.FormatJSON)
		assert.Contains(t, p.RenderedBody(), "\n")
	})

	t.Run("raw keeps the body", func(t *testing.T) {
		p := NewResponsePanel()
		p.SetResponse(newTestView(200, body), core.FormatJSON)
		p.SetMode(present.ModeRaw)
		assert.Equal(t, body, p.RenderedBody())
	})

	t.Run("pretty on a non-json draft keeps the body", func(t *testing.T) {
		p := NewResponsePanel()
		p.SetResponse(newTestView(200, body), core.FormatText)
		assert.Equal(t, body, p.RenderedBody())
	})

	t.Run("preview placeholder", func(t *testing.T) {
		p := NewResponsePanel()
		p.SetResponse(newTestView(200, "<h1>x</h1>"), core.FormatHTML)
		p.SetMode(present.ModePreview)
		assert.Equal(t, present.PreviewPlaceholder, p.RenderedBody())
	})
}

func TestResponsePanel_Keys(t *testing.T) {
	t.Run("ignored when unfocused", func(t *testing.T) {
		p := NewResponsePanel()
		p.SetSize(80, 20)
		_, cmd := p.Update(runeKey("v"))
		assert.Nil(t, cmd)
		assert.Equal(t, present.ModePretty, p.Mode())
	})

	t.Run("v cycles the mode", func(t *testing.T) {
		p := focusedResponsePanel()
		_, cmd := p.Update(runeKey("v"))
		assert.Equal(t, present.ModeRaw, p.Mode())
		require.NotNil(t, cmd)
		assert.Equal(t, tui.FeedbackMsg{Message: "View: Raw"}, cmd())

		p.Update(runeKey("v"))
		p.Update(runeKey("v"))
		assert.Equal(t, present.ModePretty, p.Mode())
	})

	t.Run("tabs", func(t *testing.T) {
		p := focusedResponsePanel()
		p.Update(runeKey("]"))
		assert.Equal(t, ResponseTabHeaders, p.ActiveTab())
		p.Update(runeKey("]"))
		assert.Equal(t, ResponseTabBody, p.ActiveTab())
		p.Update(runeKey("["))
		assert.Equal(t, ResponseTabHeaders, p.ActiveTab())

		p.SetResponse(newTestView(200, "x"), core.FormatText)
		assert.Contains(t, p.View(), "Content-Type")
	})

	t.Run("scrolling", func(t *testing.T) {
		p := focusedResponsePanel()
		lines := make([]string, 100)
		for i := range lines {
			lines[i] = fmt.Sprintf("line %d", i)
		}
		p.SetResponse(newTestView(200, strings.Join(lines, "\n")), core.FormatText)

		p.Update(runeKey("j"))
		p.Update(runeKey("j"))
		assert.Equal(t, 2, p.ScrollOffset())
		p.Update(runeKey("k"))
		assert.Equal(t, 1, p.ScrollOffset())

		p.Update(runeKey("G"))
		assert.Equal(t, 100-13, p.ScrollOffset())
		p.Update(tea.KeyMsg{Type: tea.KeyPgDown})
		assert.Equal(t, 100-13, p.ScrollOffset())

		p.Update(runeKey("g"))
		p.Update(runeKey("g"))
		assert.Equal(t, 0, p.ScrollOffset())
		p.Update(runeKey("k"))
		assert.Equal(t, 0, p.ScrollOffset())
	})

	t.Run("a new response resets the scroll", func(t *testing.T) {
		p := focusedResponsePanel()
		p.SetResponse(newTestView(200, strings.Repeat("x\n", 50)), core.FormatText)
		p.Update(runeKey("j"))
		p.SetResponse(newTestView(200, "y"), core.FormatText)
		assert.Equal(t, 0, p.ScrollOffset())
	})

	t.Run("y copies the raw body", func(t *testing.T) {
		p := focusedResponsePanel()
		_, cmd := p.Update(runeKey("y"))
		require.NotNil(t, cmd)
		assert.Equal(t, tui.FeedbackMsg{Message: "No response to copy", IsError: true}, cmd())

		p.SetResponse(newTestView(200, `{"a":1}`), core.FormatJSON)
		_, cmd = p.Update(runeKey("y"))
		require.NotNil(t, cmd)
		assert.Equal(t, tui.CopyMsg{Content: `{"a":1}`}, cmd())
	})
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512B", FormatSize(512))
	assert.Equal(t, "1.5KB", FormatSize(1536))
	assert.Equal(t, "2.0MB", FormatSize(2*1024*1024))
}
