package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/curl"
	"github.com/artpar/httphub/internal/executor"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"github.com/artpar/httphub/internal/tui"
	"github.com/artpar/httphub/internal/tui/components"
	"github.com/artpar/httphub/internal/tui/vim"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Pane identifies the focused panel.
type Pane int

const (
	PaneRequest Pane = iota
	PaneResponse
)

// Edit targets of the insert-mode line.
const (
	editURL    = "url"
	editName   = "name"
	editBody   = "body"
	editHeader = "header"
	editParam  = "param"
	editForm   = "form"
	editAuth   = "auth"
)

// sendDoneMsg carries the result of one send back to the screen.
type sendDoneMsg struct {
	result executor.Result
	format core.RawFormat
}

// clearNotificationMsg is sent to clear the notification.
type clearNotificationMsg struct{}

// RequestView is the request screen. It owns one draft and one response
// session; nothing else writes to either.
type RequestView struct {
	width  int
	height int

	ctx       context.Context
	draft     *core.RequestDraft
	session   *executor.Session
	draftPath string
	copy      func(string) error
	paste     func() (string, error)

	request  *components.RequestPanel
	response *components.ResponsePanel
	panes    *tui.ComponentList

	modes     *vim.ModeManager
	keys      *vim.KeyMap
	sequences *vim.KeySequenceHandler
	editIndex int

	showHelp     bool
	notification string
	notifyError  bool
}

// Option configures a RequestView.
type Option func(*RequestView)

// WithDraft starts the screen from d instead of an empty draft.
func WithDraft(d *core.RequestDraft) Option {
	return func(v *RequestView) {
		if d != nil {
			v.draft = d
		}
	}
}

// WithDraftFile lets ctrl+w write the draft back to path.
func WithDraftFile(path string) Option {
	return func(v *RequestView) {
		v.draftPath = path
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(v *RequestView) {
		v.copy = write
	}
}

// WithClipboardReader replaces the system clipboard reader used by paste.
func WithClipboardReader(read func() (string, error)) Option {
	return func(v *RequestView) {
		v.paste = read
	}
}

// WithContext sets the parent context of every send.
func WithContext(ctx context.Context) Option {
	return func(v *RequestView) {
		v.ctx = ctx
	}
}

// NewRequestView creates the request screen around session.
func NewRequestView(session *executor.Session, opts ...Option) *RequestView {
	v := &RequestView{
		ctx:       context.Background(),
		draft:     core.NewDraft(),
		session:   session,
		copy:      clipboard.WriteAll,
		paste:     clipboard.ReadAll,
		request:   components.NewRequestPanel(),
		response:  components.NewResponsePanel(),
		modes:     vim.NewModeManager(),
		sequences: vim.NewKeySequenceHandler(),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.panes = tui.NewComponentList(v.request, v.response)
	v.request.SetDraft(v.draft)
	v.response.SetResponse(session.Response(), v.draft.RawFormat)
	v.keys = v.keyMap()
	v.sequences.Register("dd", func() tea.Cmd { return v.deleteRow() })
	v.setTab(v.draft.ActiveTab)
	return v
}

func (v *RequestView) keyMap() *vim.KeyMap {
	km := vim.NewKeyMap()
	n := vim.ModeNormal
	km.Register(n, "ctrl+s", "Send", func() tea.Cmd { return v.send() })
	km.Register(n, "esc", "Cancel", func() tea.Cmd { return v.cancel() })
	km.Register(n, "tab", "Next tab", func() tea.Cmd { v.cycleTab(1); return nil })
	km.Register(n, "shift+tab", "Prev tab", func() tea.Cmd { v.cycleTab(-1); return nil })
	km.Register(n, "u", "Edit URL", func() tea.Cmd { v.startEdit(editURL, v.draft.URL, 0); return nil })
	km.Register(n, "N", "Rename", func() tea.Cmd { v.startEdit(editName, v.draft.Name, 0); return nil })
	km.Register(n, "m", "Method", func() tea.Cmd { v.cycleMethod(); return nil })
	km.Register(n, "e/enter", "Edit", func() tea.Cmd { return v.editSelected() })
	km.Register(n, "a", "Add", func() tea.Cmd { return v.addRow(false) })
	km.Register(n, "A", "Add file", func() tea.Cmd { return v.addRow(true) })
	km.Register(n, "b", "Body mode", func() tea.Cmd { return v.toggleBodyType() })
	km.Register(n, "f", "Format", func() tea.Cmd { return v.cycleRawFormat() })
	km.Register(n, "t", "Auth type", func() tea.Cmd { return v.cycleAuth() })
	km.Register(n, "l", "Key location", func() tea.Cmd { return v.toggleAPIKeyLocation() })
	km.Register(n, "c", "Clear", func() tea.Cmd { return v.clearResponse() })
	km.Register(n, "ctrl+y", "Copy body", func() tea.Cmd { return v.copyResponse() })
	km.Register(n, "C", "Copy as curl", func() tea.Cmd { return v.copyCurl() })
	km.Register(n, "P", "Paste curl", func() tea.Cmd { return v.pasteCurl() })
	km.Register(n, "ctrl+w", "Write draft", func() tea.Cmd { return v.writeDraft() })
	km.Register(n, "?", "Help", func() tea.Cmd { v.showHelp = true; return nil })
	km.Register(n, "q/ctrl+c", "Quit", func() tea.Cmd { v.session.Cancel(); return tea.Quit })

	i := vim.ModeInsert
	km.Register(i, "enter", "Save", func() tea.Cmd { return v.commitEdit() })
	km.Register(i, "esc", "Cancel", func() tea.Cmd { v.modes.Reset(); return nil })
	km.Register(i, "backspace", "Delete", func() tea.Cmd { v.modes.Backspace(); return nil })
	km.Register(i, "ctrl+u", "Clear", func() tea.Cmd { v.modes.ClearBuffer(); return nil })
	km.Register(i, "alt+enter", "Newline", func() tea.Cmd { v.modes.Append("\n"); return nil })
	km.Register(i, "ctrl+c", "Quit", func() tea.Cmd { v.session.Cancel(); return tea.Quit })
	return km
}

// Init initializes the view.
func (v *RequestView) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (v *RequestView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v, v.handleKeyMsg(msg)

	case sendDoneMsg:
		if msg.result.Applied {
			v.response.SetResponse(msg.result.View, msg.format)
			v.setTab(core.TabResponse)
		}
		return v, nil

	case tui.CopyMsg:
		return v, v.handleCopy(msg.Content)

	case tui.FeedbackMsg:
		return v, v.notify(msg.Message, msg.IsError)

	case clearNotificationMsg:
		v.notification = ""
		return v, nil
	}

	return v, nil
}

func (v *RequestView) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if v.showHelp {
		if msg.String() == "esc" || msg.String() == "?" || msg.String() == "q" {
			v.showHelp = false
		}
		return nil
	}

	mode := v.modes.Current()
	if binding, ok := v.keys.FindBinding(mode, msg); ok {
		v.sequences.Reset()
		return binding.Execute()
	}

	if mode == vim.ModeInsert {
		switch msg.Type {
		case tea.KeyRunes:
			v.modes.Append(string(msg.Runes))
		case tea.KeySpace:
			v.modes.Append(" ")
		}
		return nil
	}

	if msg.String() == "d" || v.sequences.Buffer() != "" {
		res := v.sequences.Handle(msg.String())
		if res.Status != vim.SequenceInvalid {
			return res.Execute()
		}
	}

	_, cmd := v.panes.Focused().Update(msg)
	return cmd
}

// send starts a new generation now and runs the call off the update loop.
func (v *RequestView) send() tea.Cmd {
	d := v.draft.Clone()
	run := v.session.Start(v.ctx, d)
	v.response.SetResponse(v.session.Response(), d.RawFormat)
	return func() tea.Msg {
		return sendDoneMsg{result: run(), format: d.RawFormat}
	}
}

func (v *RequestView) cancel() tea.Cmd {
	if !v.session.Response().Loading {
		return nil
	}
	v.session.Cancel()
	return v.notify("Cancelling request", false)
}

func (v *RequestView) clearResponse() tea.Cmd {
	v.session.Clear()
	v.response.SetResponse(v.session.Response(), v.draft.RawFormat)
	return nil
}

func (v *RequestView) setTab(tab core.Tab) {
	v.draft.SetTab(tab)
	if tab == core.TabResponse {
		v.panes.SetFocusIndex(int(PaneResponse))
	} else {
		v.panes.SetFocusIndex(int(PaneRequest))
	}
	v.request.SetCursor(0)
}

func (v *RequestView) cycleTab(delta int) {
	tabs := core.Tabs()
	current := 0
	for i, tab := range tabs {
		if tab == v.draft.ActiveTab {
			current = i
		}
	}
	v.setTab(tabs[(current+delta+len(tabs))%len(tabs)])
}

func (v *RequestView) cycleMethod() {
	methods := core.Methods()
	for i, m := range methods {
		if m == v.draft.Method {
			v.draft.SetMethod(methods[(i+1)%len(methods)])
			return
		}
	}
	v.draft.SetMethod(core.MethodGet)
}

func (v *RequestView) toggleBodyType() tea.Cmd {
	if v.draft.BodyType == core.BodyFormData {
		v.draft.SetBodyType(core.BodyRaw)
	} else {
		v.draft.SetBodyType(core.BodyFormData)
	}
	v.setTab(core.TabBody)
	return nil
}

func (v *RequestView) cycleRawFormat() tea.Cmd {
	formats := core.RawFormats()
	for i, f := range formats {
		if f == v.draft.RawFormat {
			v.draft.SetRawFormat(formats[(i+1)%len(formats)])
			return v.notify("Format: "+string(v.draft.RawFormat), false)
		}
	}
	v.draft.SetRawFormat(core.FormatJSON)
	return nil
}

func (v *RequestView) cycleAuth() tea.Cmd {
	kinds := core.AuthKinds()
	next := kinds[0]
	for i, k := range kinds {
		if v.draft.Auth != nil && k == v.draft.Auth.Kind() {
			next = kinds[(i+1)%len(kinds)]
		}
	}
	v.draft.SwitchAuth(next)
	v.setTab(core.TabAuth)
	return nil
}

func (v *RequestView) toggleAPIKeyLocation() tea.Cmd {
	auth, ok := v.draft.Auth.(core.APIKeyAuth)
	if !ok {
		return nil
	}
	if auth.Location == core.APIKeyInQuery {
		auth.Location = core.APIKeyInHeader
	} else {
		auth.Location = core.APIKeyInQuery
	}
	v.draft.SetAuth(auth)
	return nil
}

func (v *RequestView) startEdit(target, initial string, index int) {
	v.modes.StartEditing(target, initial)
	v.editIndex = index
}

func (v *RequestView) editSelected() tea.Cmd {
	d := v.draft
	i := v.request.Cursor()
	switch d.ActiveTab {
	case core.TabHeaders:
		if i < len(d.Headers) {
			v.startEdit(editHeader, d.Headers[i].Key+": "+d.Headers[i].Value, i)
		}
	case core.TabParams:
		if i < len(d.QueryParams) {
			v.startEdit(editParam, d.QueryParams[i].Key+"="+d.QueryParams[i].Value, i)
		}
	case core.TabBody:
		if d.BodyType != core.BodyFormData {
			v.startEdit(editBody, d.RawBody, 0)
		} else if i < len(d.FormData) {
			v.startEdit(editForm, core.FormatFormLine(d.FormData[i]), i)
		}
	case core.TabAuth:
		fields := components.AuthFieldsOf(d.Auth)
		if i < len(fields) {
			v.startEdit(editAuth, fields[i].Value, i)
		}
	}
	return nil
}

// addRow opens the editor on a new row. The row is only created when the
// edit is saved.
func (v *RequestView) addRow(file bool) tea.Cmd {
	switch v.draft.ActiveTab {
	case core.TabHeaders:
		v.startEdit(editHeader, "", -1)
	case core.TabParams:
		v.startEdit(editParam, "", -1)
	case core.TabBody:
		if v.draft.BodyType != core.BodyFormData {
			return v.notify("Switch to form-data (b) to add fields", true)
		}
		initial := ""
		if file {
			initial = "=@"
		}
		v.startEdit(editForm, initial, -1)
	}
	return nil
}

func (v *RequestView) deleteRow() tea.Cmd {
	d := v.draft
	i := v.request.Cursor()
	switch d.ActiveTab {
	case core.TabHeaders:
		d.RemoveHeader(i)
	case core.TabParams:
		d.RemoveParam(i)
	case core.TabBody:
		if d.BodyType == core.BodyFormData {
			d.RemoveFormData(i)
		}
	default:
		return nil
	}
	v.request.SetCursor(i)
	return nil
}

// commitEdit writes the edit line back to the draft. Invalid input keeps
// the editor open.
func (v *RequestView) commitEdit() tea.Cmd {
	if err := v.applyEdit(v.modes.Target(), v.modes.Buffer()); err != nil {
		return v.notify(err.Error(), true)
	}
	v.modes.Reset()
	return nil
}

func (v *RequestView) applyEdit(target, value string) error {
	d := v.draft
	i := v.editIndex
	switch target {
	case editURL:
		d.SetURL(strings.TrimSpace(value))
	case editName:
		d.SetName(strings.TrimSpace(value))
	case editBody:
		d.SetRawBody(value)
	case editHeader:
		kv, err := core.ParseHeaderLine(value)
		if err != nil {
			return err
		}
		d.SetHeaders(replaceOrAppend(d.Headers, i, kv))
	case editParam:
		kv, err := core.ParseParamLine(value)
		if err != nil {
			return err
		}
		d.SetParams(replaceOrAppend(d.QueryParams, i, kv))
	case editForm:
		item, err := core.ParseFormLine(value)
		if err != nil {
			return err
		}
		d.SetFormData(replaceOrAppend(d.FormData, i, item))
	case editAuth:
		return v.applyAuthField(i, value)
	}
	if i < 0 {
		v.request.SetCursor(v.request.RowCount() - 1)
	}
	return nil
}

func replaceOrAppend[T any](rows []T, i int, row T) []T {
	out := append([]T(nil), rows...)
	if i < 0 || i >= len(out) {
		return append(out, row)
	}
	out[i] = row
	return out
}

func (v *RequestView) applyAuthField(i int, value string) error {
	fields := components.AuthFieldsOf(v.draft.Auth)
	if i < 0 || i >= len(fields) {
		return nil
	}
	f := core.FieldsOf(v.draft.Auth)
	switch fields[i].Name {
	case "username":
		f.Username = value
	case "password":
		f.Password = value
	case "token":
		f.Token = value
	case "key":
		f.Key = value
	case "value":
		f.Value = value
	case "in":
		f.In = strings.ToLower(strings.TrimSpace(value))
	}
	auth, err := f.ToAuth()
	if err != nil {
		return err
	}
	v.draft.SetAuth(auth)
	return nil
}

func (v *RequestView) copyResponse() tea.Cmd {
	view := v.session.Response()
	if view.Status == 0 {
		return v.notify("No response to copy", true)
	}
	return v.handleCopy(view.BodyText)
}

func (v *RequestView) copyCurl() tea.Cmd {
	command, err := curl.NewExporter().Export(v.draft)
	if err != nil {
		return v.notify("✗ "+err.Error(), true)
	}
	return v.handleCopy(command)
}

// pasteCurl replaces the draft with the curl command on the clipboard.
func (v *RequestView) pasteCurl() tea.Cmd {
	text, err := v.paste()
	if err != nil {
		return v.notify("✗ Paste failed", true)
	}
	d, err := curl.Parse(strings.TrimSpace(text))
	if err != nil {
		return v.notify("✗ "+err.Error(), true)
	}
	v.draft = d
	v.request.SetDraft(d)
	v.setTab(d.ActiveTab)
	return v.notify("✓ Imported "+d.Name, false)
}

func (v *RequestView) handleCopy(content string) tea.Cmd {
	if err := v.copy(content); err != nil {
		return v.notify("✗ Copy failed", true)
	}
	return v.notify("✓ Copied "+components.FormatSize(int64(len(content))), false)
}

func (v *RequestView) writeDraft() tea.Cmd {
	if v.draftPath == "" {
		return v.notify("No draft file (start with --file)", true)
	}
	if err := filesystem.WriteDraft(v.draftPath, v.draft); err != nil {
		return v.notify(err.Error(), true)
	}
	return v.notify("Saved "+v.draftPath, false)
}

func (v *RequestView) notify(text string, isError bool) tea.Cmd {
	v.notification = text
	v.notifyError = isError
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}

// View renders the screen.
func (v *RequestView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}
	if v.showHelp {
		return v.renderHelp()
	}
	panes := lipgloss.JoinVertical(lipgloss.Left, v.request.View(), v.response.View())
	return lipgloss.JoinVertical(lipgloss.Left, panes, v.renderHelpBar(), v.renderStatusBar())
}

func (v *RequestView) renderHelpBar() string {
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(" │ ")

	var hints []string
	if v.modes.IsInsert() {
		for _, kb := range v.keys.GetBindings(vim.ModeInsert) {
			hints = append(hints, keyStyle.Render(kb.Key())+descStyle.Render(" "+kb.Description()))
		}
	} else {
		hints = []string{
			keyStyle.Render("ctrl+s") + descStyle.Render(" Send"),
			keyStyle.Render("tab") + descStyle.Render(" Tabs"),
			keyStyle.Render("u") + descStyle.Render(" URL"),
			keyStyle.Render("e") + descStyle.Render(" Edit"),
		}
		if v.draft.ActiveTab == core.TabResponse {
			hints = append(hints,
				keyStyle.Render("v")+descStyle.Render(" View"),
				keyStyle.Render("y")+descStyle.Render(" Copy"))
		}
		hints = append(hints,
			keyStyle.Render("?")+descStyle.Render(" Help"),
			keyStyle.Render("q")+descStyle.Render(" Quit"))
	}

	return lipgloss.NewStyle().
		Width(v.width).
		Background(lipgloss.Color("235")).
		MaxHeight(1).
		Padding(0, 1).
		Render(strings.Join(hints, sep))
}

func (v *RequestView) renderStatusBar() string {
	modeStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if v.modes.IsInsert() {
		modeStyle = modeStyle.Background(lipgloss.Color("34")).Foreground(lipgloss.Color("255"))
	} else {
		modeStyle = modeStyle.Background(lipgloss.Color("62")).Foreground(lipgloss.Color("255"))
	}
	items := []string{modeStyle.Render(v.modes.Current().String())}

	if v.modes.IsInsert() {
		label := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(editLabel(v.modes.Target()) + ">")
		buffer := strings.ReplaceAll(v.modes.Buffer(), "\n", "⏎")
		items = append(items, label+" "+buffer+"█")
	} else {
		name := v.draft.Name
		if name == "" {
			name = "Untitled"
		}
		items = append(items, lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render(name))
		if v.notification != "" {
			color := lipgloss.Color("34")
			if v.notifyError {
				color = lipgloss.Color("196")
			}
			items = append(items, lipgloss.NewStyle().Foreground(color).Render(v.notification))
		}
	}

	return lipgloss.NewStyle().Width(v.width).Render(strings.Join(items, " "))
}

func editLabel(target string) string {
	switch target {
	case editURL:
		return "URL"
	case editName:
		return "Name"
	case editBody:
		return "Body"
	case editHeader:
		return "Header (Key: Value)"
	case editParam:
		return "Param (key=value)"
	case editForm:
		return "Field (key=value or key=@path)"
	case editAuth:
		return "Auth"
	default:
		return target
	}
}

func (v *RequestView) renderHelp() string {
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	var b strings.Builder
	b.WriteString(tui.RenderTitle("Keys", v.width-4, true) + "\n\n")
	for _, kb := range v.keys.GetBindings(vim.ModeNormal) {
		fmt.Fprintf(&b, "  %s %s\n", keyStyle.Render(tui.PadRight(kb.Key(), 12)), kb.Description())
	}
	b.WriteString("\n  Response: j/k scroll, [ ] tabs, v view mode, y copy, gg/G top/bottom\n")
	b.WriteString("  Rows: j/k select, dd delete\n")
	return tui.RenderBorder(b.String(), v.width, v.height, true)
}

// Title returns the screen title.
func (v *RequestView) Title() string { return "Request" }

// Focused is always true for the screen.
func (v *RequestView) Focused() bool { return true }

// Focus is a no-op.
func (v *RequestView) Focus() {}

// Blur is a no-op.
func (v *RequestView) Blur() {}

// SetSize lays out the panels: request on top, response below, then the
// help and status bars.
func (v *RequestView) SetSize(width, height int) {
	v.width = width
	v.height = height

	available := height - 2
	if available < 2 {
		available = 2
	}
	top := available * 2 / 5
	v.request.SetSize(width, top)
	v.response.SetSize(width, available-top)
}

// Width returns the width.
func (v *RequestView) Width() int { return v.width }

// Height returns the height.
func (v *RequestView) Height() int { return v.height }

// Draft returns the draft owned by the screen.
func (v *RequestView) Draft() *core.RequestDraft { return v.draft }

// FocusedPane returns the focused panel.
func (v *RequestView) FocusedPane() Pane { return Pane(v.panes.FocusIndex()) }

// RequestPanel returns the request panel.
func (v *RequestView) RequestPanel() *components.RequestPanel { return v.request }

// ResponsePanel returns the response panel.
func (v *RequestView) ResponsePanel() *components.ResponsePanel { return v.response }

// Mode returns the editing mode.
func (v *RequestView) Mode() vim.Mode { return v.modes.Current() }

// Notification returns the current notification message.
func (v *RequestView) Notification() string { return v.notification }

// ShowingHelp reports whether the key list is shown.
func (v *RequestView) ShowingHelp() bool { return v.showHelp }
