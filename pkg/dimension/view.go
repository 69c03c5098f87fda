package dimension

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/pkg/dimension/modal"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Focus ids and actions.
const (
	focusNewKey    = "new-key"
	focusFunction  = "function"
	focusOutput    = "output"
	criterionFocus = "crit:"

	actionToggleEdit = "edit"
	actionAdd        = "add"
	actionGenerate   = "generate"
	actionConfigure  = "configure"
	actionCopy       = "copy"
	actionVerify     = "verify"
	actionClose      = "close"
)

const placeholderText = "Generated content will appear here..."

// screen returns the layout size, falling back to 80x24 before the first
// WindowSizeMsg.
func (m *Model) screen() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	return w, h
}

func (m *Model) modalWidth() int {
	w, _ := m.screen()
	mw := w - 4
	if mw > 90 {
		mw = 90
	}
	if mw < 40 {
		mw = 40
	}
	return mw
}

func (m *Model) outputHeight() int {
	_, h := m.screen()
	oh := h - 32
	if oh > 15 {
		oh = 15
	}
	if oh < 4 {
		oh = 4
	}
	return oh
}

// valueInput returns the edit-mode input for key, creating it on first use.
func (m *Model) valueInput(key string) *textinput.Model {
	if in, ok := m.valueInputs[key]; ok {
		return in
	}
	in := textinput.New()
	in.Prompt = "  "
	v, _ := m.criteria.Get(key)
	in.SetValue(v)
	m.valueInputs[key] = &in
	return &in
}

// criterionAt maps a focus id back to its key.
func (m *Model) criterionAt(focusID string) (string, bool) {
	if !strings.HasPrefix(focusID, criterionFocus) {
		return "", false
	}
	i, err := strconv.Atoi(strings.TrimPrefix(focusID, criterionFocus))
	keys := m.criteria.Keys()
	if err != nil || i < 0 || i >= len(keys) {
		return "", false
	}
	return keys[i], true
}

func (m *Model) focusInInput() bool {
	id := m.modal.FocusedID()
	return id == focusNewKey || strings.HasPrefix(id, criterionFocus)
}

// rebuild recreates the modal from the current state, keeping focus.
func (m *Model) rebuild() {
	prev := ""
	if m.modal != nil {
		prev = m.modal.FocusedID()
	}

	md := modal.New("", modal.WithWidth(m.modalWidth()), modal.WithHints(false))
	md.AddSection(modal.Custom(m.renderHeader, nil))
	md.AddSection(modal.Spacer())

	md.AddSection(modal.StyledText("Atelier", modal.SectionTitle))
	if !m.submitted {
		label := " Edit "
		if m.editing {
			label = " Done "
		}
		md.AddSection(modal.Buttons(modal.Btn(label, actionToggleEdit)))
	}
	if m.editing && !m.submitted {
		md.AddSection(modal.Input(focusNewKey, &m.newKey, modal.WithSubmitAction(actionAdd)))
		md.AddSection(modal.Buttons(modal.Btn(" Add ", actionAdd)))
	}
	m.addCriteriaSections(md)
	md.AddSection(modal.Spacer())

	md.AddSection(modal.StyledText("Black Box", modal.SectionTitle))
	md.AddSection(modal.List(focusFunction, m.functionItems(), &m.fnCursor, modal.WithMaxVisible(len(blackbox.Functions))))
	md.AddSection(modal.Custom(m.renderConfigSummary, nil))
	md.AddSection(modal.Spacer())
	md.AddSection(modal.Custom(m.renderOutput, m.updateOutput))
	md.AddSection(modal.Custom(m.renderStatus, nil))
	md.AddSection(modal.Spacer())

	verifyLabel := " Verify "
	if m.submitted {
		verifyLabel = " ✓ Verified "
	} else if m.verifying {
		verifyLabel = " Verifying… "
	}
	md.AddSection(modal.Buttons(
		modal.Btn(" Generate ", actionGenerate, modal.BtnDisabled(m.criteria.Len() == 0 || m.Loading())),
		modal.Btn(" Settings ", actionConfigure),
		modal.Btn(" Copy ", actionCopy, modal.BtnDisabled(m.content == "")),
		modal.Btn(verifyLabel, actionVerify, modal.BtnDisabled(!m.CanVerify())),
		modal.Btn(" Close ", actionClose, modal.BtnDanger()),
	))
	md.AddSection(modal.Custom(m.renderHints, nil))

	m.modal = md
	if prev != "" {
		md.SetFocus(prev)
	}
}

func (m *Model) addCriteriaSections(md *modal.Modal) {
	keys := m.criteria.Keys()
	if len(keys) == 0 {
		md.AddSection(modal.StyledText("No criteria", modal.MutedText))
		return
	}
	for i, k := range keys {
		key := k
		if m.editing && !m.submitted {
			md.AddSection(modal.Input(criterionFocus+strconv.Itoa(i), m.valueInput(key),
				modal.WithLabel(key),
				modal.WithOnChange(func(v string) { m.HandleEdit(key, v) }),
			))
			continue
		}
		v, _ := m.criteria.Get(key)
		md.AddSection(modal.Custom(func(w int, _ string) modal.RenderedSection {
			line := modal.InputLabel.Render(key+": ") + v
			return modal.RenderedSection{Content: ansi.Wordwrap(line, w, "")}
		}, nil))
	}
}

func (m *Model) functionItems() []modal.ListItem {
	items := make([]modal.ListItem, len(blackbox.Functions))
	for i, fn := range blackbox.Functions {
		items[i] = modal.ListItem{ID: string(fn), Label: fn.Label()}
		if fn == m.function {
			items[i].Marker = "●"
		}
	}
	return items
}

func (m *Model) renderHeader(w int, _ string) modal.RenderedSection {
	name := m.dimension.Name
	if name == "" {
		name = "Dimension"
	}
	header := modal.ModalTitle.Render(name) + modal.MutedText.Render(fmt.Sprintf("  #%d", m.dimension.ID))
	switch {
	case m.submitted:
		header += "  " + modal.SuccessText.Render("✓ Verified")
	case m.verifying:
		header += "  " + modal.MutedText.Render("verifying…")
	}
	return modal.RenderedSection{Content: ansi.Truncate(header, w, "…")}
}

func (m *Model) renderConfigSummary(w int, _ string) modal.RenderedSection {
	lines := configSummary(m.config)
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, w, "…")
	}
	return modal.RenderedSection{Content: modal.MutedText.Render(strings.Join(lines, "\n"))}
}

// configSummary lists the active settings one per line.
func configSummary(cfg blackbox.Config) []string {
	switch c := cfg.(type) {
	case *blackbox.TextConfig:
		return []string{
			"target words: " + strings.Join(c.TargetWords, ", "),
			fmt.Sprintf("tokens: %d • language: %s • keep order: %t", c.Tokens, c.Language, c.IsOrder),
			"context: " + c.CompanyContext,
		}
	case *blackbox.DescriptionsConfig:
		return []string{fmt.Sprintf("tokens: %d • language: %s", c.Tokens, c.Language)}
	case *blackbox.AxesConfig:
		return []string{
			fmt.Sprintf("count: %d • language: %s", c.Count, c.Language),
			"hidden: " + strings.Join(c.ListHide, ", "),
			"context: " + c.Context,
		}
	case *blackbox.SumLettersConfig:
		return []string{"positions: " + FormatPositions(c.Positions)}
	case *blackbox.TransformDictConfig:
		return []string{"input: criteria with blank names skipped"}
	}
	return nil
}

func (m *Model) renderOutput(w int, _ string) modal.RenderedSection {
	title := modal.SectionTitle.Render("Generated content")
	switch {
	case m.Loading():
		return modal.RenderedSection{Content: title + "\n" + m.spinner.View() + " Generating…"}
	case m.content == "":
		return modal.RenderedSection{Content: title + "\n" + modal.MutedText.Render(placeholderText)}
	}

	wrapped := wrap.String(wordwrap.String(m.content, w), w)
	lines := strings.Count(wrapped, "\n") + 1
	m.output.Width = w
	m.output.Height = min(lines, m.outputHeight())
	m.output.SetContent(wrapped)

	body := m.output.View()
	if lines > m.output.Height {
		body += "\n" + modal.MutedText.Render(fmt.Sprintf("%3.f%% • ↑/↓ scroll", m.output.ScrollPercent()*100))
	}
	return modal.RenderedSection{
		Content: title + "\n" + body,
		Focusables: []modal.FocusableInfo{{
			ID:      focusOutput,
			OffsetY: 1,
			Width:   w,
			Height:  m.output.Height,
		}},
	}
}

func (m *Model) updateOutput(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if focusID != focusOutput {
		return "", nil
	}
	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return "", cmd
}

func (m *Model) renderStatus(w int, _ string) modal.RenderedSection {
	if m.StatusMessage == "" {
		return modal.Hidden()
	}
	style := modal.SuccessText
	if m.StatusIsError {
		style = modal.ErrorText
	}
	return modal.RenderedSection{Content: style.Render(ansi.Wordwrap(m.StatusMessage, w, ""))}
}

func (m *Model) renderHints(w int, _ string) modal.RenderedSection {
	hints := "tab: focus • " + m.keys.hints(m.editing && !m.submitted)
	return modal.RenderedSection{Content: modal.MutedText.Render(ansi.Wordwrap(hints, w, ""))}
}

// View renders the modal, or the alert or settings form on top of it.
func (m *Model) View() string {
	w, h := m.screen()
	if m.alert != nil {
		return m.alert.Render(w, h)
	}
	if m.form != nil {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(modal.Primary).
			Padding(0, 1).
			Render(modal.ModalTitle.Render("Settings • "+m.function.Label()) + "\n\n" + m.form.View() +
				"\n" + modal.MutedText.Render("esc: cancel"))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
	}
	return m.modal.Render(w, h)
}
