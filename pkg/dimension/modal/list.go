package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// ListItem represents an item in a list section.
type ListItem struct {
	ID    string // Action returned when the item is chosen
	Label string
	// Marker is drawn after the label, e.g. to flag the active item.
	Marker string
}

// ListOption is a functional option for List sections.
type ListOption func(*listSection)

type listSection struct {
	id           string
	items        []ListItem
	selectedIdx  *int
	maxVisible   int
	scrollOffset int
}

// List creates a list section. selectedIdx points at the cursor position
// and is moved by up/down; Enter returns the item's ID as the action.
func List(id string, items []ListItem, selectedIdx *int, opts ...ListOption) Section {
	s := &listSection{
		id:          id,
		items:       items,
		selectedIdx: selectedIdx,
		maxVisible:  5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithMaxVisible sets the maximum number of visible items.
func WithMaxVisible(n int) ListOption {
	return func(s *listSection) {
		if n > 0 {
			s.maxVisible = n
		}
	}
}

func (s *listSection) selected() int {
	if s.selectedIdx == nil {
		return -1
	}
	return *s.selectedIdx
}

func (s *listSection) Render(contentWidth int, focusID string) RenderedSection {
	if len(s.items) == 0 {
		return RenderedSection{Content: MutedText.Render("(no items)")}
	}

	visibleCount := min(s.maxVisible, len(s.items))
	sel := s.selected()

	// Keep the cursor in view
	if sel >= 0 && sel < s.scrollOffset {
		s.scrollOffset = sel
	} else if sel >= s.scrollOffset+visibleCount {
		s.scrollOffset = sel - visibleCount + 1
	}
	s.scrollOffset = clamp(s.scrollOffset, 0, max(0, len(s.items)-visibleCount))

	focused := focusID == s.id
	var lines []string
	if s.scrollOffset > 0 {
		lines = append(lines, MutedText.Render("↑ more above"))
	}
	for i := s.scrollOffset; i < s.scrollOffset+visibleCount && i < len(s.items); i++ {
		item := s.items[i]
		style := ListItemNormal
		cursor := "  "
		if i == sel {
			cursor = ListCursor.Render("> ")
			style = ListItemSelected
			if focused {
				style = ListItemFocused
			}
		}
		label := item.Label
		if item.Marker != "" {
			label += " " + item.Marker
		}
		lines = append(lines, cursor+style.Render(ansi.Truncate(label, max(1, contentWidth-2), "…")))
	}
	if s.scrollOffset+visibleCount < len(s.items) {
		lines = append(lines, MutedText.Render("↓ more below"))
	}

	// The list is one focusable; tab moves past it rather than through items.
	return RenderedSection{
		Content: strings.Join(lines, "\n"),
		Focusables: []FocusableInfo{{
			ID:     s.id,
			Width:  contentWidth,
			Height: len(lines),
		}},
	}
}

func (s *listSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if focusID != s.id || s.selectedIdx == nil {
		return "", nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return "", nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if *s.selectedIdx > 0 {
			*s.selectedIdx--
		}
	case "down", "j":
		if *s.selectedIdx < len(s.items)-1 {
			*s.selectedIdx++
		}
	case "home":
		*s.selectedIdx = 0
	case "end":
		*s.selectedIdx = len(s.items) - 1
	case "enter":
		if *s.selectedIdx >= 0 && *s.selectedIdx < len(s.items) {
			return s.items[*s.selectedIdx].ID, nil
		}
	}
	return "", nil
}
