package dimension

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/atelier/internal/blackbox"
)

// Generate starts the selected function against the current record. It
// does nothing while a generation is in flight or when no generator is
// configured, and only sets an error status when the record is empty.
func (m *Model) Generate() tea.Cmd {
	if m.Loading() {
		return nil
	}
	if m.criteria.Len() == 0 {
		return m.setStatus("Add criteria before generating", true)
	}
	if m.generator == nil || m.config == nil {
		return nil
	}

	m.abandonGeneration()
	ctx, cancel := m.requestContext()
	m.cancel = cancel
	m.state = GenLoading

	epoch := m.epoch
	gen := m.generator
	cfg := blackbox.CloneConfig(m.config)
	criteria := m.criteria.Clone()

	m.logger.Debug("generate", "function", cfg.Function(), "epoch", epoch, "dimension_id", m.dimension.ID)

	run := func() tea.Msg {
		res, err := gen.Generate(ctx, cfg, criteria)
		return GenerateResultMsg{Epoch: epoch, Result: res, Err: err}
	}
	m.rebuild()
	return tea.Batch(m.spinner.Tick, run)
}

// abandonGeneration cancels the request in flight, if any, and moves to a
// new epoch so its result is discarded.
func (m *Model) abandonGeneration() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.epoch++
	if m.state == GenLoading {
		m.state = GenIdle
	}
}

func (m *Model) handleGenerateResult(msg GenerateResultMsg) tea.Cmd {
	if msg.Epoch != m.epoch {
		m.logger.Debug("stale generation result dropped", "epoch", msg.Epoch, "current", m.epoch)
		return nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	defer m.rebuild()

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			m.state = GenIdle
			return nil
		}
		m.state = GenError
		m.logger.Error("generate content", "err", msg.Err, "function", m.function, "dimension_id", m.dimension.ID)
		return m.setStatus(describeErr("Generation failed", msg.Err), true)
	}

	m.state = GenLoaded
	if msg.Result.Updated {
		m.content = msg.Result.Content
		m.output.GotoTop()
	}
	return nil
}
