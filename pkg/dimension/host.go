package dimension

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Host is a minimal parent for a dimension modal. It records the
// submitted state the modal reports and quits when the modal closes.
type Host struct {
	Modal     *Model
	Submitted bool
	Closed    bool
}

// NewHost wraps m.
func NewHost(m *Model) *Host {
	return &Host{Modal: m, Submitted: m.Submitted()}
}

// Init implements tea.Model.
func (h *Host) Init() tea.Cmd {
	return h.Modal.Init()
}

// Update implements tea.Model.
func (h *Host) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SubmittedMsg:
		if msg.DimensionID == h.Modal.Dimension().ID {
			h.Submitted = true
			h.Modal.SetSubmitted(true)
		}
		return h, nil
	case ClosedMsg:
		h.Closed = true
		return h, tea.Quit
	}
	_, cmd := h.Modal.Update(msg)
	return h, cmd
}

// View implements tea.Model.
func (h *Host) View() string {
	if h.Closed {
		return ""
	}
	return h.Modal.View()
}
