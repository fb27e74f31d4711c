package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is the interface for all TUI components.
type Component interface {
	// Init initializes the component.
	Init() tea.Cmd

	// Update handles messages and returns the updated component.
	Update(msg tea.Msg) (Component, tea.Cmd)

	// View renders the component.
	View() string

	// Title returns the component title.
	Title() string

	// Focused returns true if the component is focused.
	Focused() bool

	// Focus sets the component as focused.
	Focus()

	// Blur removes focus from the component.
	Blur()

	// SetSize sets the component dimensions.
	SetSize(width, height int)

	// Width returns the component width.
	Width() int

	// Height returns the component height.
	Height() int
}

// FocusMsg is sent when a component should gain focus.
type FocusMsg struct{}

// BlurMsg is sent when a component should lose focus.
type BlurMsg struct{}

// CopyMsg asks the screen to put Content on the clipboard.
type CopyMsg struct {
	Content string
}

// FeedbackMsg is a short notification for the status bar.
type FeedbackMsg struct {
	Message string
	IsError bool
}

// BaseComponent holds the title, focus and size shared by all panels.
// Panels embed it and override Update and View.
type BaseComponent struct {
	title   string
	focused bool
	width   int
	height  int
}

// NewBaseComponent creates a new base component.
func NewBaseComponent(title string) *BaseComponent {
	return &BaseComponent{
		title: title,
	}
}

// Init initializes the component.
func (c *BaseComponent) Init() tea.Cmd {
	return nil
}

// Update handles size and focus messages.
func (c *BaseComponent) Update(msg tea.Msg) (Component, tea.Cmd) {
	c.HandleCommon(msg)
	return c, nil
}

// HandleCommon applies size and focus messages and reports whether msg was
// one of them.
func (c *BaseComponent) HandleCommon(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.SetSize(msg.Width, msg.Height)
	case FocusMsg:
		c.focused = true
	case BlurMsg:
		c.focused = false
	default:
		return false
	}
	return true
}

// View renders the component.
func (c *BaseComponent) View() string {
	return RenderBorder("[ "+c.title+" ]", c.width, c.height, c.focused)
}

// Title returns the component title.
func (c *BaseComponent) Title() string {
	return c.title
}

// Focused returns true if focused.
func (c *BaseComponent) Focused() bool {
	return c.focused
}

// Focus sets the component as focused.
func (c *BaseComponent) Focus() {
	c.focused = true
}

// Blur removes focus.
func (c *BaseComponent) Blur() {
	c.focused = false
}

// SetSize sets dimensions.
func (c *BaseComponent) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *BaseComponent) Width() int {
	return c.width
}

// Height returns the height.
func (c *BaseComponent) Height() int {
	return c.height
}

// ComponentList manages a list of components with focus cycling.
type ComponentList struct {
	components []Component
	focusIndex int
}

// NewComponentList creates a new component list.
func NewComponentList(components ...Component) *ComponentList {
	return &ComponentList{
		components: components,
		focusIndex: -1,
	}
}

// Add adds a component to the list.
func (cl *ComponentList) Add(c Component) {
	cl.components = append(cl.components, c)
}

// Len returns the number of components.
func (cl *ComponentList) Len() int {
	return len(cl.components)
}

// Get returns a component by index.
func (cl *ComponentList) Get(index int) Component {
	if index < 0 || index >= len(cl.components) {
		return nil
	}
	return cl.components[index]
}

// FocusFirst focuses the first component.
func (cl *ComponentList) FocusFirst() {
	if len(cl.components) == 0 {
		return
	}
	cl.setFocus(0)
}

// FocusNext cycles focus to the next component.
func (cl *ComponentList) FocusNext() {
	if len(cl.components) == 0 {
		return
	}
	cl.setFocus((cl.focusIndex + 1) % len(cl.components))
}

// FocusIndex returns the current focus index.
func (cl *ComponentList) FocusIndex() int {
	return cl.focusIndex
}

// SetFocusIndex sets focus to a specific index.
func (cl *ComponentList) SetFocusIndex(index int) {
	if index < 0 || index >= len(cl.components) {
		return
	}
	cl.setFocus(index)
}

// Focused returns the currently focused component.
func (cl *ComponentList) Focused() Component {
	if cl.focusIndex < 0 || cl.focusIndex >= len(cl.components) {
		return nil
	}
	return cl.components[cl.focusIndex]
}

func (cl *ComponentList) setFocus(index int) {
	if cl.focusIndex >= 0 && cl.focusIndex < len(cl.components) {
		cl.components[cl.focusIndex].Blur()
	}
	cl.focusIndex = index
	cl.components[index].Focus()
}

// RenderTitle renders a title bar.
func RenderTitle(title string, width int, focused bool) string {
	style := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Bold(true)

	if focused {
		style = style.Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62"))
	} else {
		style = style.Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238"))
	}

	return style.Render(title)
}

// RenderBorder renders content with a rounded border. A zero width or height
// leaves that dimension to the content.
func RenderBorder(content string, width, height int, focused bool) string {
	style := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}
	if height > 2 {
		style = style.Height(height - 2)
	}

	if focused {
		style = style.BorderForeground(lipgloss.Color("62"))
	} else {
		style = style.BorderForeground(lipgloss.Color("244"))
	}

	return style.Render(content)
}

// RenderTabBar renders tab names with an underline under the active one.
func RenderTabBar(names []string, active, width int, focused bool) string {
	var top, bottom []string
	for i, name := range names {
		n := lipgloss.Width(name) + 2
		if i == active {
			color := lipgloss.Color("214")
			if !focused {
				color = lipgloss.Color("252")
			}
			top = append(top, lipgloss.NewStyle().Foreground(color).Bold(true).Padding(0, 1).Render(name))
			bottom = append(bottom, lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("━", n)))
		} else {
			top = append(top, lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1).Render(name))
			bottom = append(bottom, strings.Repeat(" ", n))
		}
	}

	topRow := strings.Join(top, " ")
	bottomRow := strings.Join(bottom, " ")
	if rest := width - lipgloss.Width(bottomRow); rest > 0 {
		bottomRow += lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Render(strings.Repeat("─", rest))
	}
	return topRow + "\n" + bottomRow
}

// FitLines scrolls lines by offset and pads or cuts them to height.
func FitLines(lines []string, offset, height int) string {
	if offset > 0 && offset < len(lines) {
		lines = lines[offset:]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	if height >= 0 && len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// Truncate truncates a string to fit within a width.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// PadRight pads a string to a given width.
func PadRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
