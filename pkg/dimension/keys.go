package dimension

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Edit      key.Binding
	NewKey    key.Binding
	Delete    key.Binding
	Generate  key.Binding
	Verify    key.Binding
	Configure key.Binding
	Copy      key.Binding
	CopyMD    key.Binding
	Close     key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		NewKey:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new criteria")),
		Delete:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete criteria")),
		Generate:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "generate")),
		Verify:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verify")),
		Configure: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "configure")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		CopyMD:    key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy as markdown")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// hints renders the enabled bindings as "key: desc" pairs.
func (k keyMap) hints(editing bool) string {
	bindings := []key.Binding{k.Generate, k.Verify, k.Configure, k.Copy, k.Edit, k.Close}
	if editing {
		bindings = []key.Binding{k.NewKey, k.Delete, k.Edit, k.Close}
	}
	var parts []string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
