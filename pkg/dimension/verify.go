package dimension

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/atelier/internal/models"
	"github.com/marcus/atelier/pkg/dimension/modal"
)

const verifyFailedText = "Failed to verify submission. Please try again."

// Verify posts the criteria values and generated content for the
// dimension. It returns nil when CanVerify is false.
func (m *Model) Verify() tea.Cmd {
	if !m.CanVerify() || m.submitter == nil {
		return nil
	}
	m.verifying = true
	m.rebuild()

	req := models.NewVerifyRequest(m.dimension.ID, m.criteria, m.content)
	sub := m.submitter
	ctx, cancel := m.requestContext()
	return func() tea.Msg {
		defer cancel()
		v, err := sub.Submit(ctx, req)
		return VerifyResultMsg{Verification: v, Err: err}
	}
}

func (m *Model) handleVerifyResult(msg VerifyResultMsg) tea.Cmd {
	m.verifying = false
	defer m.rebuild()

	if msg.Err != nil {
		m.logger.Error("submit verification", "err", msg.Err, "dimension_id", m.dimension.ID)
		m.alert = newAlert(verifyFailedText)
		return nil
	}

	m.logger.Info("dimension verified", "dimension_id", m.dimension.ID)
	id := m.dimension.ID
	v := msg.Verification
	return func() tea.Msg {
		return SubmittedMsg{DimensionID: id, Verification: v}
	}
}

func newAlert(text string) *modal.Modal {
	return modal.New("Verification failed",
		modal.WithVariant(modal.VariantDanger),
		modal.WithWidth(44),
		modal.WithHints(false),
		modal.WithPrimaryAction("ok"),
	).
		AddSection(modal.Text(text)).
		AddSection(modal.Spacer()).
		AddSection(modal.Buttons(modal.Btn(" OK ", "ok")))
}
