package models

import "time"

// Dimension identifies the grouping a criteria record is verified under.
type Dimension struct {
	ID   int
	Name string
}

// TeamCriteriaSubmission is the record a dimension modal is opened with.
type TeamCriteriaSubmission struct {
	DimensionID  int       `json:"dimension_id" yaml:"dimension_id"`
	CriteriaData *Criteria `json:"criteria_data" yaml:"criteria_data"`
}

// VerifyRequest is the body posted to the submission API when a dimension
// is verified. Atelier carries the criteria values in key order and Bbox
// the generated content.
type VerifyRequest struct {
	DimensionID int      `json:"dimension_id"`
	Atelier     []string `json:"atelier"`
	Bbox        []string `json:"bbox"`
}

// NewVerifyRequest packages criteria values and generated content for a
// dimension.
func NewVerifyRequest(dimensionID int, criteria *Criteria, content string) VerifyRequest {
	return VerifyRequest{
		DimensionID: dimensionID,
		Atelier:     criteria.Values(),
		Bbox:        []string{content},
	}
}

// Verification is a stored, accepted VerifyRequest.
type Verification struct {
	ID          string    `json:"id"`
	DimensionID int       `json:"dimension_id"`
	Atelier     []string  `json:"atelier"`
	Bbox        []string  `json:"bbox"`
	CreatedAt   time.Time `json:"created_at"`
}
