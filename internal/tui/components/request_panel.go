package components

import (
	"fmt"
	"strings"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DraftTabs are the request tabs shown by the panel, in order.
var DraftTabs = []core.Tab{core.TabHeaders, core.TabBody, core.TabAuth, core.TabParams}

// AuthField is one editable field of the selected auth variant.
type AuthField struct {
	Name   string // key in core.AuthFields
	Label  string
	Value  string
	Secret bool
}

// AuthFieldsOf lists the editable fields of an auth variant.
func AuthFieldsOf(auth core.AuthConfig) []AuthField {
	f := core.FieldsOf(auth)
	switch core.AuthKind(f.Type) {
	case core.AuthBasic:
		return []AuthField{
			{Name: "username", Label: "Username", Value: f.Username},
			{Name: "password", Label: "Password", Value: f.Password, Secret: true},
		}
	case core.AuthBearer, core.AuthOAuth2:
		return []AuthField{{Name: "token", Label: "Token", Value: f.Token, Secret: true}}
	case core.AuthAPIKey:
		return []AuthField{
			{Name: "key", Label: "Key", Value: f.Key},
			{Name: "value", Label: "Value", Value: f.Value, Secret: true},
			{Name: "in", Label: "Add to", Value: f.In},
		}
	default:
		return nil
	}
}

// RequestPanel renders the draft and tracks the selected row of the
// active tab. The draft itself is owned by the screen.
type RequestPanel struct {
	*tui.BaseComponent

	draft  *core.RequestDraft
	cursor int
}

// NewRequestPanel creates a new request panel.
func NewRequestPanel() *RequestPanel {
	return &RequestPanel{
		BaseComponent: tui.NewBaseComponent("Request"),
	}
}

// Update handles messages.
func (p *RequestPanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	if p.HandleCommon(msg) {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && p.Focused() {
		switch key.String() {
		case "j", "down":
			p.moveCursor(1)
		case "k", "up":
			p.moveCursor(-1)
		}
	}
	return p, nil
}

func (p *RequestPanel) moveCursor(delta int) {
	p.SetCursor(p.cursor + delta)
}

// RowCount returns the number of selectable rows in the active tab.
func (p *RequestPanel) RowCount() int {
	if p.draft == nil {
		return 0
	}
	switch p.draft.ActiveTab {
	case core.TabHeaders:
		return len(p.draft.Headers)
	case core.TabParams:
		return len(p.draft.QueryParams)
	case core.TabBody:
		if p.draft.BodyType == core.BodyFormData {
			return len(p.draft.FormData)
		}
	case core.TabAuth:
		return len(AuthFieldsOf(p.draft.Auth))
	}
	return 0
}

// Cursor returns the selected row.
func (p *RequestPanel) Cursor() int {
	return p.cursor
}

// SetCursor selects a row, clamped to the active tab.
func (p *RequestPanel) SetCursor(pos int) {
	if n := p.RowCount(); pos >= n {
		pos = n - 1
	}
	if pos < 0 {
		pos = 0
	}
	p.cursor = pos
}

// Draft returns the rendered draft.
func (p *RequestPanel) Draft() *core.RequestDraft {
	return p.draft
}

// SetDraft sets the draft to render.
func (p *RequestPanel) SetDraft(d *core.RequestDraft) {
	p.draft = d
	p.SetCursor(p.cursor)
}

// View renders the component.
func (p *RequestPanel) View() string {
	if p.Width() == 0 || p.Height() == 0 || p.draft == nil {
		return ""
	}

	innerWidth := p.Width() - 4
	innerHeight := p.Height() - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	title := tui.RenderTitle(p.Title(), innerWidth, p.Focused())
	urlBar := p.renderURLBar(innerWidth)

	active := 0
	for i, tab := range DraftTabs {
		if tab == p.draft.ActiveTab {
			active = i
		}
	}
	names := make([]string, len(DraftTabs))
	for i, tab := range DraftTabs {
		names[i] = string(tab)
	}
	tabBar := tui.RenderTabBar(names, active, innerWidth, p.Focused())

	// title, url bar and two tab bar lines
	height := innerHeight - 4
	lines := p.tabLines(innerWidth)
	offset := 0
	if p.cursor >= height && height > 0 {
		offset = p.cursor - height + 1
	}
	content := tui.FitLines(lines, offset, height)

	return tui.RenderBorder(title+"\n"+urlBar+"\n"+tabBar+"\n"+content, p.Width(), p.Height(), p.Focused())
}

func (p *RequestPanel) renderURLBar(width int) string {
	method := MethodStyle(p.draft.Method).Render(string(p.draft.Method))
	url := p.draft.URL
	if url == "" {
		url = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("Enter request URL (u)")
	} else {
		url = tui.Truncate(url, width-lipgloss.Width(method)-2)
	}
	return method + " " + url
}

func (p *RequestPanel) tabLines(width int) []string {
	d := p.draft
	switch d.ActiveTab {
	case core.TabHeaders:
		return p.pairLines(d.Headers, ": ", "No headers (a to add)")
	case core.TabParams:
		return p.pairLines(d.QueryParams, " = ", "No query parameters (a to add)")
	case core.TabBody:
		return p.bodyLines(width)
	case core.TabAuth:
		return p.authLines()
	}
	return nil
}

func (p *RequestPanel) pairLines(pairs []core.KeyValue, sep, empty string) []string {
	if len(pairs) == 0 {
		return []string{mutedStyle.Render(empty)}
	}
	lines := make([]string, len(pairs))
	for i, kv := range pairs {
		lines[i] = p.row(i, keyStyle.Render(kv.Key)+sep+kv.Value)
	}
	return lines
}

func (p *RequestPanel) bodyLines(width int) []string {
	d := p.draft
	header := fmt.Sprintf("%s  %s", keyStyle.Render("Mode:"), d.BodyType)
	if d.BodyType != core.BodyFormData {
		header += fmt.Sprintf("  %s %s", keyStyle.Render("Format:"), d.RawFormat)
	}
	if !d.Method.AllowsBody() {
		header += mutedStyle.Render("  (not sent with " + string(d.Method) + ")")
	}
	lines := []string{header, ""}

	if d.BodyType == core.BodyFormData {
		if len(d.FormData) == 0 {
			return append(lines, mutedStyle.Render("No fields (a to add, A for a file)"))
		}
		for i, item := range d.FormData {
			value := item.Value
			if item.Kind == core.FormFile && item.File != nil {
				value = "@" + item.File.URI
				if item.File.MIME != "" {
					value += mutedStyle.Render(" (" + item.File.MIME + ")")
				}
			}
			lines = append(lines, p.row(i, keyStyle.Render(item.Key)+" = "+value))
		}
		return lines
	}

	if d.RawBody == "" {
		return append(lines, mutedStyle.Render("Empty body (e to edit)"))
	}
	for _, line := range strings.Split(d.RawBody, "\n") {
		lines = append(lines, tui.Truncate(line, width))
	}
	return lines
}

func (p *RequestPanel) authLines() []string {
	lines := []string{keyStyle.Render("Type:") + "  " + core.DisplayName(p.draft.Auth)}
	fields := AuthFieldsOf(p.draft.Auth)
	if len(fields) == 0 {
		return append(lines, "", mutedStyle.Render("No authentication (m to change)"))
	}
	lines = append(lines, "")
	for i, f := range fields {
		value := f.Value
		if f.Secret && value != "" {
			value = strings.Repeat("•", min(len(value), 12))
		}
		lines = append(lines, p.row(i, keyStyle.Render(tui.PadRight(f.Label, 9))+value))
	}
	return lines
}

func (p *RequestPanel) row(i int, text string) string {
	if i == p.cursor && p.Focused() {
		return selectedStyle.Render("▸ ") + text
	}
	return "  " + text
}

var (
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// MethodStyle returns the badge style for an HTTP method.
func MethodStyle(method core.Method) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("255"))

	switch method {
	case core.MethodGet:
		return style.Background(lipgloss.Color("34"))
	case core.MethodPost:
		return style.Background(lipgloss.Color("214")).Foreground(lipgloss.Color("0"))
	case core.MethodPut:
		return style.Background(lipgloss.Color("33"))
	case core.MethodPatch:
		return style.Background(lipgloss.Color("141"))
	case core.MethodDelete:
		return style.Background(lipgloss.Color("160"))
	default:
		return style.Background(lipgloss.Color("240"))
	}
}
