package dimension

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/marcus/atelier/internal/blackbox"
)

// configFormValues holds the string form of every editable config field.
// huh binds to these; apply converts them back.
type configFormValues struct {
	CompanyContext string
	TargetWords    string
	Tokens         string
	Language       string
	IsOrder        bool
	Context        string
	Count          string
	ListHide       string
	Positions      string
}

func valuesFromConfig(cfg blackbox.Config) *configFormValues {
	v := &configFormValues{}
	switch c := cfg.(type) {
	case *blackbox.TextConfig:
		v.CompanyContext = c.CompanyContext
		v.TargetWords = strings.Join(c.TargetWords, ", ")
		v.Tokens = strconv.Itoa(c.Tokens)
		v.Language = c.Language
		v.IsOrder = c.IsOrder
	case *blackbox.DescriptionsConfig:
		v.Tokens = strconv.Itoa(c.Tokens)
		v.Language = c.Language
	case *blackbox.AxesConfig:
		v.Context = c.Context
		v.Count = strconv.Itoa(c.Count)
		v.Language = c.Language
		v.ListHide = strings.Join(c.ListHide, ", ")
	case *blackbox.SumLettersConfig:
		v.Positions = FormatPositions(c.Positions)
	}
	return v
}

// apply returns a copy of cfg with the form values written into it.
func (v *configFormValues) apply(cfg blackbox.Config) (blackbox.Config, error) {
	out := blackbox.CloneConfig(cfg)
	switch c := out.(type) {
	case *blackbox.TextConfig:
		tokens, err := strconv.Atoi(strings.TrimSpace(v.Tokens))
		if err != nil {
			return nil, fmt.Errorf("tokens: %w", err)
		}
		c.CompanyContext = strings.TrimSpace(v.CompanyContext)
		c.TargetWords = splitList(v.TargetWords)
		c.Tokens = tokens
		c.Language = strings.TrimSpace(v.Language)
		c.IsOrder = v.IsOrder
	case *blackbox.DescriptionsConfig:
		tokens, err := strconv.Atoi(strings.TrimSpace(v.Tokens))
		if err != nil {
			return nil, fmt.Errorf("tokens: %w", err)
		}
		c.Tokens = tokens
		c.Language = strings.TrimSpace(v.Language)
	case *blackbox.AxesConfig:
		count, err := strconv.Atoi(strings.TrimSpace(v.Count))
		if err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
		c.Context = strings.TrimSpace(v.Context)
		c.Count = count
		c.Language = strings.TrimSpace(v.Language)
		c.ListHide = splitList(v.ListHide)
	case *blackbox.SumLettersConfig:
		pos, err := ParsePositions(v.Positions)
		if err != nil {
			return nil, err
		}
		c.Positions = pos
	}
	if err := blackbox.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FormatPositions renders positions as "1-3, 3-4".
func FormatPositions(pos [][2]int) string {
	parts := make([]string, len(pos))
	for i, p := range pos {
		parts[i] = fmt.Sprintf("%d-%d", p[0], p[1])
	}
	return strings.Join(parts, ", ")
}

// ParsePositions parses "1-3, 3-4" into position pairs.
func ParsePositions(s string) ([][2]int, error) {
	var out [][2]int
	for _, part := range splitList(s) {
		a, b, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("position %q: want A-B", part)
		}
		x, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("position %q: %w", part, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("position %q: %w", part, err)
		}
		out = append(out, [2]int{x, y})
	}
	return out, nil
}

func validInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func validPositions(s string) error {
	pos, err := ParsePositions(s)
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return fmt.Errorf("at least one position is required")
	}
	return nil
}

// buildConfigForm returns the huh form for cfg, or nil when the function
// has no settings.
func buildConfigForm(cfg blackbox.Config, v *configFormValues, width int) *huh.Form {
	var fields []huh.Field
	switch cfg.(type) {
	case *blackbox.TextConfig:
		fields = []huh.Field{
			huh.NewText().Title("Company context").Value(&v.CompanyContext).Lines(4).Validate(notBlank),
			huh.NewInput().Title("Target words").Description("comma separated").Value(&v.TargetWords).Validate(notBlank),
			huh.NewInput().Title("Tokens").Value(&v.Tokens).Validate(validInt),
			huh.NewInput().Title("Language").Value(&v.Language).Validate(notBlank),
			huh.NewConfirm().Title("Keep word order").Value(&v.IsOrder),
		}
	case *blackbox.DescriptionsConfig:
		fields = []huh.Field{
			huh.NewInput().Title("Language").Value(&v.Language).Validate(notBlank),
			huh.NewInput().Title("Tokens").Value(&v.Tokens).Validate(validInt),
		}
	case *blackbox.AxesConfig:
		fields = []huh.Field{
			huh.NewText().Title("Context").Value(&v.Context).Lines(4).Validate(notBlank),
			huh.NewInput().Title("Count").Value(&v.Count).Validate(validInt),
			huh.NewInput().Title("Language").Value(&v.Language).Validate(notBlank),
			huh.NewInput().Title("Hidden words").Description("comma separated").Value(&v.ListHide),
		}
	case *blackbox.SumLettersConfig:
		fields = []huh.Field{
			huh.NewInput().Title("Positions").Description("pairs like 1-3, 3-4").Value(&v.Positions).Validate(validPositions),
		}
	default:
		return nil
	}

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(true).
		WithWidth(width)
	form.SubmitCmd = func() tea.Msg { return configFormDoneMsg{} }
	form.CancelCmd = nil
	return form
}

// EditConfig opens the settings form for the active config.
func (m *Model) EditConfig() tea.Cmd {
	if m.config == nil {
		return nil
	}
	values := valuesFromConfig(m.config)
	form := buildConfigForm(m.config, values, m.formWidth())
	if form == nil {
		return m.setStatus(m.function.Label()+" has no settings", false)
	}
	m.form = form
	m.formValues = values
	return form.Init()
}

// ConfigFormOpen reports whether the settings form is shown.
func (m *Model) ConfigFormOpen() bool { return m.form != nil }

// ApplyConfigForm writes the form values into the active config.
func (m *Model) ApplyConfigForm() tea.Cmd {
	if m.formValues == nil {
		return nil
	}
	cfg, err := m.formValues.apply(m.config)
	m.form = nil
	m.formValues = nil
	if err != nil {
		m.logger.Warn("config rejected", "err", err, "function", m.function)
		return m.setStatus(err.Error(), true)
	}
	m.config = cfg
	m.configs[m.function] = cfg
	m.rebuild()
	return m.setStatus("Settings updated", false)
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.form = nil
		m.formValues = nil
		return nil
	}
	if _, ok := msg.(configFormDoneMsg); ok {
		return m.ApplyConfigForm()
	}

	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return tea.Batch(cmd, m.ApplyConfigForm())
	case huh.StateAborted:
		m.form = nil
		m.formValues = nil
	}
	return cmd
}

func (m *Model) formWidth() int {
	w := m.width * 80 / 100
	if w > 80 {
		w = 80
	}
	if w < 40 {
		w = 40
	}
	return w
}
