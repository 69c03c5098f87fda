// Package dimension implements the dimension modal: a bubbletea model for
// editing a criteria record, running a generation function against it and
// submitting the result as a verification.
package dimension

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/internal/models"
	"github.com/marcus/atelier/pkg/dimension/modal"
)

// Generator runs a generation function. *blackbox.Client implements it.
type Generator interface {
	Generate(ctx context.Context, cfg blackbox.Config, criteria *models.Criteria) (blackbox.Result, error)
}

// Submitter posts verification records. *jeux.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, req models.VerifyRequest) (*models.Verification, error)
}

// GenState is the lifecycle of the generated content.
type GenState int

const (
	GenIdle GenState = iota
	GenLoading
	GenLoaded
	GenError
)

func (s GenState) String() string {
	switch s {
	case GenLoading:
		return "loading"
	case GenLoaded:
		return "loaded"
	case GenError:
		return "error"
	default:
		return "idle"
	}
}

// Model is the dimension modal.
type Model struct {
	dimension models.Dimension
	criteria  *models.Criteria
	function  blackbox.Function
	config    blackbox.Config
	content   string
	state     GenState

	// configs keeps each function's settings across function switches.
	configs map[blackbox.Function]blackbox.Config

	submitted bool
	editing   bool
	verifying bool

	// epoch identifies the current generation; results from older epochs
	// are dropped.
	epoch  int
	cancel context.CancelFunc

	generator Generator
	submitter Submitter
	logger    *slog.Logger
	ctx       context.Context
	timeout   time.Duration
	copyFn    func(string) error

	// StatusMessage is shown under the output until ClearStatusMsg.
	StatusMessage string
	StatusIsError bool

	newKey      textinput.Model
	valueInputs map[string]*textinput.Model
	fnCursor    int
	spinner     spinner.Model
	output      viewport.Model
	modal       *modal.Modal
	alert       *modal.Modal
	form        *huh.Form
	formValues  *configFormValues
	keys        keyMap

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithCriteria sets the initial record. It is cloned.
func WithCriteria(c *models.Criteria) Option {
	return func(m *Model) {
		if c != nil {
			m.criteria = c.Clone()
		}
	}
}

// WithSubmission initializes the record from a team submission.
func WithSubmission(s *models.TeamCriteriaSubmission) Option {
	return func(m *Model) {
		if s != nil && s.CriteriaData != nil {
			m.criteria = s.CriteriaData.Clone()
		}
	}
}

// WithSubmitted starts the modal in the submitted state.
func WithSubmitted(submitted bool) Option {
	return func(m *Model) { m.submitted = submitted }
}

// WithFunction selects the initial function.
func WithFunction(fn blackbox.Function) Option {
	return func(m *Model) {
		if fn.IsValid() {
			m.function = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithTimeout bounds each generation and verification request.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		if fn != nil {
			m.copyFn = fn
		}
	}
}

// New returns a modal for dim using gen for generation and sub for
// verification.
func New(dim models.Dimension, gen Generator, sub Submitter, opts ...Option) *Model {
	m := &Model{
		dimension:   dim,
		criteria:    models.NewCriteria(),
		function:    blackbox.FunctionText,
		generator:   gen,
		submitter:   sub,
		logger:      slog.Default(),
		ctx:         context.Background(),
		copyFn:      clipboard.WriteAll,
		valueInputs: make(map[string]*textinput.Model),
		keys:        defaultKeyMap(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.newKey = textinput.New()
	m.newKey.Placeholder = "New criteria name"
	m.newKey.Prompt = "+ "
	m.newKey.CharLimit = 120

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.spinner.Style = modal.ListCursor
	m.output = viewport.New(60, 10)

	m.configs = make(map[blackbox.Function]blackbox.Config, len(blackbox.Functions))
	m.config, _ = m.configFor(m.function)
	m.fnCursor = functionIndex(m.function)
	m.rebuild()
	return m
}

// Dimension returns the dimension the modal was opened for.
func (m *Model) Dimension() models.Dimension { return m.dimension }

// Criteria returns the live criteria record.
func (m *Model) Criteria() *models.Criteria { return m.criteria }

// Function returns the selected function.
func (m *Model) Function() blackbox.Function { return m.function }

// Config returns the active configuration.
func (m *Model) Config() blackbox.Config { return m.config }

// Content returns the generated content.
func (m *Model) Content() string { return m.content }

// State returns the generation state.
func (m *Model) State() GenState { return m.state }

// Loading reports whether a generation is in flight.
func (m *Model) Loading() bool { return m.state == GenLoading }

// Editing reports whether edit mode is on.
func (m *Model) Editing() bool { return m.editing }

// Submitted reports whether the dimension has been verified.
func (m *Model) Submitted() bool { return m.submitted }

// Verifying reports whether a verification post is in flight.
func (m *Model) Verifying() bool { return m.verifying }

// AlertOpen reports whether a blocking alert is shown.
func (m *Model) AlertOpen() bool { return m.alert != nil }

// SetSubmitted is called by the parent once it records the verification.
// Submitting ends edit mode.
func (m *Model) SetSubmitted(submitted bool) {
	m.submitted = submitted
	if submitted {
		m.editing = false
	}
	m.rebuild()
}

// SetSize sets the screen size used for layout.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.rebuild()
}

// HandleEdit replaces the value of an existing key. Unknown keys and the
// submitted state leave the record unchanged.
func (m *Model) HandleEdit(key, value string) {
	if m.submitted || !m.criteria.Has(key) {
		return
	}
	m.criteria.Set(key, value)
	if in, ok := m.valueInputs[key]; ok && in.Value() != value {
		in.SetValue(value)
	}
}

// SetNewKey sets the pending new-criteria name.
func (m *Model) SetNewKey(s string) {
	m.newKey.SetValue(s)
}

// NewKey returns the pending new-criteria name.
func (m *Model) NewKey() string { return m.newKey.Value() }

// HandleAddCriteria adds the pending name with an empty value and clears
// the input. A blank name changes nothing. An existing key is reset to "".
func (m *Model) HandleAddCriteria() {
	if m.submitted {
		return
	}
	name := m.newKey.Value()
	if strings.TrimSpace(name) == "" {
		return
	}
	m.criteria.Set(name, "")
	if in, ok := m.valueInputs[name]; ok {
		in.SetValue("")
	}
	m.newKey.SetValue("")
	m.rebuild()
}

// HandleDeleteCriteria removes key from the record.
func (m *Model) HandleDeleteCriteria(key string) {
	if m.submitted {
		return
	}
	m.criteria.Delete(key)
	delete(m.valueInputs, key)
	m.rebuild()
}

// ToggleEdit switches edit mode. It does nothing once submitted.
func (m *Model) ToggleEdit() {
	if m.submitted {
		return
	}
	m.editing = !m.editing
	if m.editing {
		m.valueInputs = make(map[string]*textinput.Model, m.criteria.Len())
	}
	m.rebuild()
	if m.editing {
		m.modal.SetFocus(focusNewKey)
	}
}

// HandleFunctionChange selects fn. The generated content is cleared and
// any generation in flight is abandoned. fn's config is the one it had
// when last selected, or its default on first use, re-seeded from the
// current record.
func (m *Model) HandleFunctionChange(fn blackbox.Function) {
	if !fn.IsValid() {
		return
	}
	m.abandonGeneration()
	m.function = fn
	m.fnCursor = functionIndex(fn)
	m.content = ""
	m.state = GenIdle
	cfg, err := m.configFor(fn)
	if err != nil {
		m.logger.Error("default config", "err", err, "function", fn)
		return
	}
	m.config = cfg
	m.form = nil
	m.formValues = nil
	m.rebuild()
}

// configFor returns the stored config for fn, creating it from the
// defaults the first time. Criteria-derived fields are refreshed.
func (m *Model) configFor(fn blackbox.Function) (blackbox.Config, error) {
	cfg, ok := m.configs[fn]
	if !ok {
		var err error
		if cfg, err = blackbox.DefaultConfig(fn, m.criteria); err != nil {
			return nil, err
		}
		m.configs[fn] = cfg
		return cfg, nil
	}
	if s, ok := cfg.(blackbox.Seeder); ok {
		s.Seed(m.criteria)
	}
	return cfg, nil
}

// CanVerify reports whether Verify would submit.
func (m *Model) CanVerify() bool {
	return m.content != "" && !m.submitted && !m.verifying
}

// CopyContent copies the generated content to the clipboard.
func (m *Model) CopyContent() tea.Cmd {
	if m.content == "" {
		return m.setStatus("Nothing to copy", true)
	}
	if err := m.copyFn(m.content); err != nil {
		m.logger.Error("copy to clipboard", "err", err)
		return m.setStatus("Copy failed: "+err.Error(), true)
	}
	return m.setStatus("Copied to clipboard", false)
}

// CopyMarkdown copies the criteria and generated content as markdown.
func (m *Model) CopyMarkdown() tea.Cmd {
	if err := m.copyFn(formatDimensionAsMarkdown(m.dimension, m.criteria, m.function, m.content)); err != nil {
		m.logger.Error("copy to clipboard", "err", err)
		return m.setStatus("Copy failed: "+err.Error(), true)
	}
	return m.setStatus("Copied as markdown", false)
}

// setStatus shows msg and schedules its removal.
func (m *Model) setStatus(msg string, isError bool) tea.Cmd {
	m.StatusMessage = msg
	m.StatusIsError = isError
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

func (m *Model) closeCmd() tea.Cmd {
	m.abandonGeneration()
	return func() tea.Msg { return ClosedMsg{} }
}

func functionIndex(fn blackbox.Function) int {
	for i, f := range blackbox.Functions {
		if f == fn {
			return i
		}
	}
	return 0
}

func (m *Model) requestContext() (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(m.ctx, m.timeout)
	}
	return context.WithCancel(m.ctx)
}

func describeErr(prefix string, err error) string {
	return fmt.Sprintf("%s: %v", prefix, err)
}
