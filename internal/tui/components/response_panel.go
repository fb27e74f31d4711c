package components

import (
	"fmt"
	"strings"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/present"
	"github.com/artpar/httphub/internal/tui"
	"github.com/artpar/httphub/internal/tui/vim"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ResponseTab represents the active tab in the response panel.
type ResponseTab int

const (
	ResponseTabBody ResponseTab = iota
	ResponseTabHeaders
)

var responseTabNames = []string{"Body", "Headers"}

// ResponsePanel displays the current response view model.
type ResponsePanel struct {
	*tui.BaseComponent

	view         core.ResponseViewModel
	format       core.RawFormat
	mode         present.Mode
	highlighter  *present.Highlighter
	activeTab    ResponseTab
	scrollOffset int
	sequences    *vim.KeySequenceHandler
}

// NewResponsePanel creates a new response panel.
func NewResponsePanel() *ResponsePanel {
	p := &ResponsePanel{
		BaseComponent: tui.NewBaseComponent("Response"),
		view:          core.EmptyView(),
		format:        core.FormatJSON,
		mode:          present.ModePretty,
		highlighter:   present.NewHighlighter(),
		sequences:     vim.NewKeySequenceHandler(),
	}
	p.sequences.Register("gg", func() tea.Cmd {
		p.scrollOffset = 0
		return nil
	})
	p.sequences.Register("G", func() tea.Cmd {
		p.scrollOffset = p.maxScrollOffset()
		return nil
	})
	return p
}

// Update handles messages. Keys are ignored unless the panel is focused.
func (p *ResponsePanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	if p.HandleCommon(msg) {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && p.Focused() {
		return p, p.handleKeyMsg(key)
	}
	return p, nil
}

func (p *ResponsePanel) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	pageSize := p.visibleLines()

	switch msg.String() {
	case "pgup", "ctrl+u":
		p.scroll(-pageSize)
	case "pgdown", "ctrl+d":
		p.scroll(pageSize)
	case "j", "down":
		p.scroll(1)
	case "k", "up":
		p.scroll(-1)
	case "[":
		p.switchTab(-1)
	case "]":
		p.switchTab(1)
	case "v":
		p.mode = p.mode.Next()
		p.scrollOffset = 0
		return feedback("View: "+p.mode.Title(), false)
	case "y":
		if p.view.Status == 0 {
			return feedback("No response to copy", true)
		}
		body := p.view.BodyText
		return func() tea.Msg { return tui.CopyMsg{Content: body} }
	default:
		if msg.Type == tea.KeyRunes {
			return p.sequences.Handle(string(msg.Runes)).Execute()
		}
	}
	p.sequences.Reset()
	return nil
}

func feedback(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return tui.FeedbackMsg{Message: text, IsError: isError}
	}
}

func (p *ResponsePanel) scroll(delta int) {
	p.scrollOffset += delta
	if limit := p.maxScrollOffset(); p.scrollOffset > limit {
		p.scrollOffset = limit
	}
	if p.scrollOffset < 0 {
		p.scrollOffset = 0
	}
}

func (p *ResponsePanel) switchTab(delta int) {
	n := len(responseTabNames)
	p.activeTab = ResponseTab((int(p.activeTab) + delta + n) % n)
	p.scrollOffset = 0
}

func (p *ResponsePanel) visibleLines() int {
	// border, title, status, separator and the two tab bar lines
	if v := p.Height() - 7; v > 0 {
		return v
	}
	return 1
}

func (p *ResponsePanel) maxScrollOffset() int {
	if n := len(p.contentLines()) - p.visibleLines(); n > 0 {
		return n
	}
	return 0
}

// View renders the component.
func (p *ResponsePanel) View() string {
	if p.Width() == 0 || p.Height() == 0 {
		return ""
	}

	innerWidth := p.Width() - 4
	innerHeight := p.Height() - 2
	if innerWidth < 1 {
		innerWidth = 1
	}
	if innerHeight < 2 {
		innerHeight = 2
	}

	title := tui.RenderTitle(p.Title(), innerWidth, p.Focused())

	placeholder := func(text, color string) string {
		body := lipgloss.NewStyle().
			Width(innerWidth).
			Height(innerHeight-1).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(lipgloss.Color(color)).
			Render(text)
		return tui.RenderBorder(title+"\n"+body, p.Width(), p.Height(), p.Focused())
	}

	switch {
	case p.view.Loading:
		return placeholder("Sending...", "214")
	case p.view.Failed():
		return placeholder("Error: "+p.view.Error, "196")
	case p.view.Status == 0:
		return placeholder("No response yet", "240")
	}

	separator := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Render(strings.Repeat("─", innerWidth))
	tabBar := tui.RenderTabBar(responseTabNames, int(p.activeTab), innerWidth, p.Focused())
	content := tui.FitLines(p.contentLines(), p.scrollOffset, innerHeight-5)

	return tui.RenderBorder(
		title+"\n"+p.renderStatusLine()+"\n"+separator+"\n"+tabBar+"\n"+content,
		p.Width(), p.Height(), p.Focused())
}

func (p *ResponsePanel) renderStatusLine() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Render("Response:")

	statusText := p.view.StatusText
	if statusText == "" {
		statusText = fmt.Sprintf("%d", p.view.Status)
	}
	status := statusStyle(p.view.Status).Render(statusText)

	timing := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Background(lipgloss.Color("238")).
		Padding(0, 1).
		Render(fmt.Sprintf("%dms", p.view.Duration.Milliseconds()))

	size := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(FormatSize(int64(len(p.view.BodyText))))
	mode := lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Render("[" + p.mode.Title() + "]")

	return fmt.Sprintf(" %s %s  %s  %s  %s", label, status, timing, size, mode)
}

func statusStyle(code int) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch {
	case code >= 200 && code < 300:
		return style.Background(lipgloss.Color("34")).Foreground(lipgloss.Color("255"))
	case code >= 300 && code < 400:
		return style.Background(lipgloss.Color("214")).Foreground(lipgloss.Color("0"))
	case code >= 400 && code < 500:
		return style.Background(lipgloss.Color("208")).Foreground(lipgloss.Color("255"))
	case code >= 500:
		return style.Background(lipgloss.Color("160")).Foreground(lipgloss.Color("255"))
	default:
		return style.Background(lipgloss.Color("240"))
	}
}

// FormatSize renders a byte count for the status line.
func FormatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
}

func (p *ResponsePanel) contentLines() []string {
	switch p.activeTab {
	case ResponseTabHeaders:
		keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
		lines := make([]string, 0, len(p.view.Headers))
		for _, h := range p.view.Headers {
			lines = append(lines, keyStyle.Render(h.Key)+": "+h.Value)
		}
		if len(lines) == 0 {
			lines = append(lines, "No headers")
		}
		return lines
	default:
		return strings.Split(p.RenderedBody(), "\n")
	}
}

// RenderedBody returns the body as shown in the current mode.
func (p *ResponsePanel) RenderedBody() string {
	return p.highlighter.Render(p.view.BodyText, p.format, p.mode)
}

// SetResponse replaces the displayed view model. The format of the draft's
// raw body decides how the pretty mode treats it.
func (p *ResponsePanel) SetResponse(view core.ResponseViewModel, format core.RawFormat) {
	p.view = view
	p.format = format
	p.scrollOffset = 0
}

// Response returns the displayed view model.
func (p *ResponsePanel) Response() core.ResponseViewModel {
	return p.view
}

// Mode returns the body display mode.
func (p *ResponsePanel) Mode() present.Mode {
	return p.mode
}

// SetMode sets the body display mode.
func (p *ResponsePanel) SetMode(mode present.Mode) {
	p.mode = mode
}

// ActiveTab returns the active tab.
func (p *ResponsePanel) ActiveTab() ResponseTab {
	return p.activeTab
}

// ScrollOffset returns the scroll position.
func (p *ResponsePanel) ScrollOffset() int {
	return p.scrollOffset
}
