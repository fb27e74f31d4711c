package vim

// Mode represents the current editing mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeInsert:
		return "INSERT"
	default:
		return "UNKNOWN"
	}
}

// ModeManager tracks the mode and the line being edited in insert mode.
// Target names the field the buffer will be written back to.
type ModeManager struct {
	current Mode
	target  string
	buffer  []rune
}

// NewModeManager creates a new mode manager starting in normal mode.
func NewModeManager() *ModeManager {
	return &ModeManager{current: ModeNormal}
}

// Current returns the current mode.
func (m *ModeManager) Current() Mode {
	return m.current
}

// IsNormal returns true if in normal mode.
func (m *ModeManager) IsNormal() bool {
	return m.current == ModeNormal
}

// IsInsert returns true if in insert mode.
func (m *ModeManager) IsInsert() bool {
	return m.current == ModeInsert
}

// StartEditing enters insert mode with the buffer set to initial.
func (m *ModeManager) StartEditing(target, initial string) {
	m.current = ModeInsert
	m.target = target
	m.buffer = []rune(initial)
}

// Target returns the field being edited, or "" in normal mode.
func (m *ModeManager) Target() string {
	return m.target
}

// Buffer returns the current edit buffer.
func (m *ModeManager) Buffer() string {
	return string(m.buffer)
}

// Append adds typed text to the buffer.
func (m *ModeManager) Append(s string) {
	m.buffer = append(m.buffer, []rune(s)...)
}

// Backspace removes the last character from the buffer.
func (m *ModeManager) Backspace() {
	if len(m.buffer) > 0 {
		m.buffer = m.buffer[:len(m.buffer)-1]
	}
}

// ClearBuffer empties the buffer without leaving insert mode.
func (m *ModeManager) ClearBuffer() {
	m.buffer = m.buffer[:0]
}

// Reset discards any edit and returns to normal mode.
func (m *ModeManager) Reset() {
	m.current = ModeNormal
	m.target = ""
	m.buffer = nil
}
