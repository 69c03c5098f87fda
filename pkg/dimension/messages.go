package dimension

import (
	"github.com/marcus/atelier/internal/blackbox"
	"github.com/marcus/atelier/internal/models"
)

// ClosedMsg is sent when the user dismisses the modal. It carries no side
// effects.
type ClosedMsg struct{}

// SubmittedMsg is sent after a verification was accepted by the
// submission API.
type SubmittedMsg struct {
	DimensionID  int
	Verification *models.Verification
}

// GenerateResultMsg delivers the outcome of one generation request.
// Results whose Epoch is not the model's current epoch are stale.
type GenerateResultMsg struct {
	Epoch  int
	Result blackbox.Result
	Err    error
}

// VerifyResultMsg delivers the outcome of a verification post.
type VerifyResultMsg struct {
	Verification *models.Verification
	Err          error
}

// ClearStatusMsg clears the status line.
type ClearStatusMsg struct{}

// configFormDoneMsg is sent by the config form when it is submitted.
type configFormDoneMsg struct{}
