// Package modal provides a declarative modal dialog for bubbletea programs.
//
// A modal is a titled box built from sections. Sections render themselves
// for a given content width and report which parts of their output can take
// focus; the modal collects those focusables in order and drives keyboard
// navigation (Tab/Shift+Tab, Enter, Esc) over them.
//
// # Quick Start
//
//	m := modal.New("Verification failed", modal.WithVariant(modal.VariantDanger)).
//	    AddSection(modal.Text("Failed to verify submission. Please try again.")).
//	    AddSection(modal.Spacer()).
//	    AddSection(modal.Buttons(
//	        modal.Btn(" OK ", "ok"),
//	    ))
//
//	// In View():
//	content := m.Render(screenW, screenH)
//
//	// In Update():
//	if action, cmd := m.HandleKey(keyMsg); action != "" {
//	    switch action {
//	    case "ok", modal.ActionCancel:
//	        return closeAlert()
//	    }
//	}
//
// # Built-in Sections
//
//   - Text(s string) - static text, wrapped to the content width
//   - StyledText(s string, style) - Text drawn with a lipgloss style
//   - Spacer() - blank line
//   - Buttons(btns ...ButtonDef) - button row with focus styling
//   - Input(id string, model *textinput.Model, opts...) - single-line input
//   - List(id string, items []ListItem, selectedIdx *int, opts...) - scrollable list
//   - When(condition func() bool, section) - conditional rendering
//   - Custom(renderFn, updateFn) - caller-drawn content; return Hidden()
//     from renderFn to take no lines
//
// # Options
//
//   - WithWidth(w int) - set modal width (default: 50)
//   - WithVariant(v Variant) - set visual style (Default, Danger, Warning, Info)
//   - WithHints(show bool) - show/hide keyboard hints at bottom
//   - WithPrimaryAction(actionID string) - action for implicit Enter submit
package modal
