package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// textSection renders wrapped static text.
type textSection struct {
	text  string
	style lipgloss.Style
}

// Text creates a static text section wrapped to the content width.
func Text(s string) Section {
	return &textSection{text: s, style: Body}
}

// StyledText is Text with a custom style.
func StyledText(s string, style lipgloss.Style) Section {
	return &textSection{text: s, style: style}
}

func (s *textSection) Render(contentWidth int, _ string) RenderedSection {
	wrapped := ansi.Wordwrap(s.text, contentWidth, "")
	return RenderedSection{Content: s.style.Render(wrapped)}
}

func (s *textSection) Update(tea.Msg, string) (string, tea.Cmd) { return "", nil }

// Spacer creates a blank line.
func Spacer() Section { return &textSection{style: Body} }

// ButtonDef is one button in a Buttons row.
type ButtonDef struct {
	Label    string
	ID       string
	danger   bool
	disabled bool
}

// ButtonOption configures a ButtonDef.
type ButtonOption func(*ButtonDef)

// BtnDanger styles the button as destructive.
func BtnDanger() ButtonOption {
	return func(b *ButtonDef) { b.danger = true }
}

// BtnDisabled greys the button out and removes it from focus order.
func BtnDisabled(disabled bool) ButtonOption {
	return func(b *ButtonDef) { b.disabled = disabled }
}

// Btn creates a button that triggers action id.
func Btn(label, id string, opts ...ButtonOption) ButtonDef {
	b := ButtonDef{Label: label, ID: id}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

type buttonsSection struct {
	buttons []ButtonDef
}

// Buttons creates a row of buttons.
func Buttons(btns ...ButtonDef) Section {
	return &buttonsSection{buttons: btns}
}

func (s *buttonsSection) Render(_ int, focusID string) RenderedSection {
	var rendered []string
	var focusables []FocusableInfo
	x := 0
	for i, b := range s.buttons {
		style := Button
		switch {
		case b.disabled:
			style = ButtonDisabled
		case b.danger && b.ID == focusID:
			style = ButtonDangerFocused
		case b.danger:
			style = ButtonDanger
		case b.ID == focusID:
			style = ButtonFocused
		}
		r := style.Render(b.Label)
		w := lipgloss.Width(r)
		if !b.disabled {
			focusables = append(focusables, FocusableInfo{ID: b.ID, OffsetX: x, Width: w, Height: 1})
		}
		rendered = append(rendered, r)
		x += w
		if i < len(s.buttons)-1 {
			rendered = append(rendered, " ")
			x++
		}
	}
	return RenderedSection{
		Content:    lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
		Focusables: focusables,
	}
}

func (s *buttonsSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return "", nil
	}
	switch key.String() {
	case "enter", " ":
		for _, b := range s.buttons {
			if b.ID == focusID && !b.disabled {
				return b.ID, nil
			}
		}
	}
	return "", nil
}

// InputOption configures an Input section.
type InputOption func(*inputSection)

// WithLabel shows label above the input.
func WithLabel(label string) InputOption {
	return func(s *inputSection) { s.label = label }
}

// WithSubmitAction makes Enter in the input return action.
func WithSubmitAction(action string) InputOption {
	return func(s *inputSection) { s.submitAction = action }
}

// WithOnChange is called with the new value after every edit.
func WithOnChange(fn func(string)) InputOption {
	return func(s *inputSection) { s.onChange = fn }
}

type inputSection struct {
	id           string
	model        *textinput.Model
	label        string
	submitAction string
	onChange     func(string)
}

// Input creates a single-line text input bound to model.
func Input(id string, model *textinput.Model, opts ...InputOption) Section {
	s := &inputSection{id: id, model: model}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *inputSection) Render(contentWidth int, focusID string) RenderedSection {
	focused := focusID == s.id
	if focused {
		s.model.Focus()
	} else {
		s.model.Blur()
	}
	s.model.Width = max(1, contentWidth-lipgloss.Width(s.model.Prompt)-1)

	var sb strings.Builder
	offsetY := 0
	if s.label != "" {
		style := InputLabel
		if focused {
			style = InputLabelFocused
		}
		sb.WriteString(style.Render(ansi.Truncate(s.label, contentWidth, "…")))
		sb.WriteString("\n")
		offsetY = 1
	}
	sb.WriteString(s.model.View())

	return RenderedSection{
		Content: sb.String(),
		Focusables: []FocusableInfo{{
			ID:      s.id,
			OffsetY: offsetY,
			Width:   contentWidth,
			Height:  1,
		}},
	}
}

func (s *inputSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if focusID != s.id {
		return "", nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		return s.submitAction, nil
	}
	if !s.model.Focused() {
		s.model.Focus()
	}
	before := s.model.Value()
	var cmd tea.Cmd
	*s.model, cmd = s.model.Update(msg)
	if s.onChange != nil && s.model.Value() != before {
		s.onChange(s.model.Value())
	}
	return "", cmd
}

type whenSection struct {
	cond    func() bool
	section Section
}

// When renders section only while cond returns true.
func When(cond func() bool, section Section) Section {
	return &whenSection{cond: cond, section: section}
}

func (s *whenSection) Render(contentWidth int, focusID string) RenderedSection {
	if !s.cond() {
		return RenderedSection{hidden: true}
	}
	return s.section.Render(contentWidth, focusID)
}

func (s *whenSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if !s.cond() {
		return "", nil
	}
	return s.section.Update(msg, focusID)
}

type customSection struct {
	render func(contentWidth int, focusID string) RenderedSection
	update func(msg tea.Msg, focusID string) (string, tea.Cmd)
}

// Custom wraps arbitrary render and update functions. update may be nil.
func Custom(
	render func(contentWidth int, focusID string) RenderedSection,
	update func(msg tea.Msg, focusID string) (string, tea.Cmd),
) Section {
	return &customSection{render: render, update: update}
}

func (s *customSection) Render(contentWidth int, focusID string) RenderedSection {
	return s.render(contentWidth, focusID)
}

func (s *customSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if s.update == nil {
		return "", nil
	}
	return s.update(msg, focusID)
}

// Hidden is the RenderedSection of a section that takes no lines.
func Hidden() RenderedSection { return RenderedSection{hidden: true} }
