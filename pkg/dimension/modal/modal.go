package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// ActionCancel is returned by HandleKey when Esc is pressed.
const ActionCancel = "cancel"

// Variant selects the modal's frame color.
type Variant int

const (
	VariantDefault Variant = iota
	VariantDanger
	VariantWarning
	VariantInfo
)

// Section is one block of modal content.
type Section interface {
	// Render draws the section for contentWidth columns. focusID is the id
	// of the currently focused element.
	Render(contentWidth int, focusID string) RenderedSection
	// Update handles a message while focusID is focused and may return an
	// action id.
	Update(msg tea.Msg, focusID string) (string, tea.Cmd)
}

// RenderedSection is the output of Section.Render.
type RenderedSection struct {
	Content    string
	Focusables []FocusableInfo
	// hidden sections take no lines.
	hidden bool
}

// FocusableInfo describes a focusable element inside a rendered section,
// positioned relative to the section's top-left corner.
type FocusableInfo struct {
	ID      string
	OffsetX int
	OffsetY int
	Width   int
	Height  int
}

// Option configures a Modal.
type Option func(*Modal)

// WithWidth sets the outer width of the modal.
func WithWidth(w int) Option {
	return func(m *Modal) {
		if w > 10 {
			m.width = w
		}
	}
}

// WithVariant sets the visual style.
func WithVariant(v Variant) Option {
	return func(m *Modal) { m.variant = v }
}

// WithHints shows or hides the key hint line.
func WithHints(show bool) Option {
	return func(m *Modal) { m.showHints = show }
}

// WithPrimaryAction sets the action returned when Enter is pressed on an
// element that does not produce one itself.
func WithPrimaryAction(action string) Option {
	return func(m *Modal) { m.primaryAction = action }
}

// Modal is a declarative dialog.
type Modal struct {
	title         string
	width         int
	variant       Variant
	showHints     bool
	primaryAction string

	sections []Section
	// owners maps a focusable id to the section that reported it.
	owners   map[string]Section
	focusIDs []string
	focusIdx int
	measured bool
}

// New returns an empty modal with the given title.
func New(title string, opts ...Option) *Modal {
	m := &Modal{
		title:     title,
		width:     50,
		showHints: true,
		owners:    make(map[string]Section),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddSection appends s and returns the modal for chaining.
func (m *Modal) AddSection(s Section) *Modal {
	m.sections = append(m.sections, s)
	m.measured = false
	return m
}

// Invalidate forces focusables to be re-collected on the next key or
// render, for sections whose visibility changed.
func (m *Modal) Invalidate() { m.measured = false }

// Title returns the modal title.
func (m *Modal) Title() string { return m.title }

// Width returns the outer width.
func (m *Modal) Width() int { return m.width }

// ContentWidth is the usable width inside the frame and padding.
func (m *Modal) ContentWidth() int {
	return max(1, m.width-4)
}

// FocusedID returns the id of the focused element, or "".
func (m *Modal) FocusedID() string {
	m.ensureMeasured()
	if len(m.focusIDs) == 0 {
		return ""
	}
	return m.focusIDs[clamp(m.focusIdx, 0, len(m.focusIDs)-1)]
}

// SetFocus focuses id if it is present. It reports whether focus moved.
func (m *Modal) SetFocus(id string) bool {
	m.ensureMeasured()
	for i, fid := range m.focusIDs {
		if fid == id {
			m.focusIdx = i
			return true
		}
	}
	return false
}

// FocusIDs returns the focusable ids in navigation order.
func (m *Modal) FocusIDs() []string {
	m.ensureMeasured()
	return append([]string(nil), m.focusIDs...)
}

// HandleKey processes a key press. It returns the action id triggered by
// the key, if any.
func (m *Modal) HandleKey(msg tea.KeyMsg) (string, tea.Cmd) {
	m.ensureMeasured()

	switch msg.String() {
	case "tab":
		m.cycleFocus(1)
		return "", nil
	case "shift+tab":
		m.cycleFocus(-1)
		return "", nil
	case "esc":
		return ActionCancel, nil
	}

	focusID := m.FocusedID()
	if owner, ok := m.owners[focusID]; ok {
		action, cmd := owner.Update(msg, focusID)
		if action != "" || cmd != nil {
			return action, cmd
		}
	}

	if msg.String() == "enter" && m.primaryAction != "" {
		return m.primaryAction, nil
	}
	return "", nil
}

// Update forwards non-key messages (cursor blinks and the like) to the
// focused section.
func (m *Modal) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		_, cmd := m.HandleKey(key)
		return cmd
	}
	focusID := m.FocusedID()
	if owner, ok := m.owners[focusID]; ok {
		_, cmd := owner.Update(msg, focusID)
		return cmd
	}
	return nil
}

func (m *Modal) cycleFocus(delta int) {
	n := len(m.focusIDs)
	if n == 0 {
		return
	}
	m.focusIdx = ((m.focusIdx+delta)%n + n) % n
}

// ensureMeasured renders once so focusables are known before the first
// View call.
func (m *Modal) ensureMeasured() {
	if !m.measured {
		m.renderBody()
	}
}

// renderBody renders every section, records focusables and returns the
// joined content.
func (m *Modal) renderBody() string {
	prevFocus := ""
	if len(m.focusIDs) > 0 {
		prevFocus = m.focusIDs[clamp(m.focusIdx, 0, len(m.focusIDs)-1)]
	}

	width := m.ContentWidth()
	var parts []string
	m.focusIDs = m.focusIDs[:0]
	m.owners = make(map[string]Section, len(m.owners))

	for _, s := range m.sections {
		r := s.Render(width, prevFocus)
		for _, f := range r.Focusables {
			if _, dup := m.owners[f.ID]; dup {
				continue
			}
			m.focusIDs = append(m.focusIDs, f.ID)
			m.owners[f.ID] = s
		}
		if !r.hidden {
			parts = append(parts, r.Content)
		}
	}

	m.focusIdx = 0
	for i, id := range m.focusIDs {
		if id == prevFocus {
			m.focusIdx = i
			break
		}
	}
	m.measured = true

	// Sections were drawn with the previous focus; redraw if it moved.
	if cur := m.FocusedID(); cur != prevFocus {
		parts = parts[:0]
		for _, s := range m.sections {
			if r := s.Render(width, cur); !r.hidden {
				parts = append(parts, r.Content)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// View renders the modal box without positioning it.
func (m *Modal) View() string {
	body := m.renderBody()
	width := m.ContentWidth()

	var sb strings.Builder
	if m.title != "" {
		sb.WriteString(ModalTitle.Render(ansi.Truncate(m.title, width, "…")))
		sb.WriteString("\n\n")
	}
	sb.WriteString(body)
	if m.showHints {
		sb.WriteString("\n\n")
		sb.WriteString(MutedText.Render(ansi.Truncate("tab: next • enter: select • esc: close", width, "…")))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor(m.variant)).
		Padding(0, 1).
		Width(m.width - 2)
	return box.Render(sb.String())
}

// Render draws the modal centered on a screenW x screenH canvas.
func (m *Modal) Render(screenW, screenH int) string {
	view := m.View()
	if screenW <= 0 || screenH <= 0 {
		return view
	}
	return lipgloss.Place(screenW, screenH, lipgloss.Center, lipgloss.Center, view)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
