package dimension

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/pkg/dimension/modal"
)

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		if m.form != nil {
			m.form = m.form.WithWidth(m.formWidth())
		}
		return m, nil

	case GenerateResultMsg:
		return m, m.handleGenerateResult(msg)

	case VerifyResultMsg:
		return m, m.handleVerifyResult(msg)

	case ClearStatusMsg:
		m.StatusMessage = ""
		m.StatusIsError = false
		return m, nil

	case spinner.TickMsg:
		if !m.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case configFormDoneMsg:
		if m.form != nil {
			return m, m.ApplyConfigForm()
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	if m.form != nil {
		return m, m.updateForm(msg)
	}
	return m, m.modal.Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return m.closeCmd()
	}

	// A blocking alert swallows every key until dismissed.
	if m.alert != nil {
		if action, _ := m.alert.HandleKey(msg); action != "" {
			m.alert = nil
		}
		return nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		return m.closeCmd()

	case key.Matches(msg, m.keys.NewKey):
		if !m.editing {
			m.ToggleEdit()
		}
		m.modal.SetFocus(focusNewKey)
		return nil

	case key.Matches(msg, m.keys.Delete):
		if k, ok := m.criterionAt(m.modal.FocusedID()); ok {
			m.HandleDeleteCriteria(k)
		}
		return nil
	}

	// Letter shortcuts only apply outside text inputs.
	if !m.focusInInput() {
		switch {
		case key.Matches(msg, m.keys.Edit):
			m.ToggleEdit()
			return nil
		case key.Matches(msg, m.keys.Generate):
			return m.Generate()
		case key.Matches(msg, m.keys.Verify):
			return m.Verify()
		case key.Matches(msg, m.keys.Configure):
			return m.EditConfig()
		case key.Matches(msg, m.keys.Copy):
			return m.CopyContent()
		case key.Matches(msg, m.keys.CopyMD):
			return m.CopyMarkdown()
		}
	}

	action, cmd := m.modal.HandleKey(msg)
	return tea.Batch(cmd, m.handleAction(action))
}

func (m *Model) handleAction(action string) tea.Cmd {
	switch action {
	case "":
		return nil
	case actionToggleEdit:
		m.ToggleEdit()
	case actionAdd:
		m.HandleAddCriteria()
		m.modal.SetFocus(focusNewKey)
	case actionGenerate:
		return m.Generate()
	case actionConfigure:
		return m.EditConfig()
	case actionCopy:
		return m.CopyContent()
	case actionVerify:
		return m.Verify()
	case actionClose, modal.ActionCancel:
		return m.closeCmd()
	default:
		if fn := blackbox.Function(action); fn.IsValid() && fn != m.function {
			m.HandleFunctionChange(fn)
		}
	}
	return nil
}
