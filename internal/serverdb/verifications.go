package serverdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcus/atelier/internal/models"
)

// ErrConflict is returned when a dimension already has a verification.
var ErrConflict = errors.New("dimension already verified")

// Submission outcomes recorded in submission_events.
const (
	OutcomeAccepted = "accepted"
	OutcomeConflict = "conflict"
)

const verificationColumns = `seq, id, dimension_id, atelier, bbox, created_at`

// CreateVerification stores req as the verification of its dimension.
func (db *ServerDB) CreateVerification(req models.VerifyRequest) (*models.Verification, error) {
	atelier, err := json.Marshal(nonNil(req.Atelier))
	if err != nil {
		return nil, fmt.Errorf("encode atelier: %w", err)
	}
	bbox, err := json.Marshal(nonNil(req.Bbox))
	if err != nil {
		return nil, fmt.Errorf("encode bbox: %w", err)
	}

	v := &models.Verification{
		ID:          "vf_" + uuid.NewString(),
		DimensionID: req.DimensionID,
		Atelier:     nonNil(req.Atelier),
		Bbox:        nonNil(req.Bbox),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	_, err = db.conn.Exec(
		`INSERT INTO verifications (id, dimension_id, atelier, bbox, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.DimensionID, string(atelier), string(bbox), v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			db.recordEvent(req.DimensionID, OutcomeConflict)
			return nil, fmt.Errorf("create verification for dimension %d: %w", req.DimensionID, ErrConflict)
		}
		return nil, fmt.Errorf("create verification: %w", err)
	}
	db.recordEvent(req.DimensionID, OutcomeAccepted)
	return v, nil
}

// GetVerification returns the verification for a dimension, or nil if
// there is none.
func (db *ServerDB) GetVerification(dimensionID int) (*models.Verification, error) {
	row := db.conn.QueryRow(
		`SELECT `+verificationColumns+` FROM verifications WHERE dimension_id = ?`, dimensionID,
	)
	v, _, err := scanVerification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	return v, nil
}

// ListVerifications returns a page of verifications, newest first.
func (db *ServerDB) ListVerifications(limit int, cursor string) (*Page[models.Verification], error) {
	return pageQuery(db.conn,
		`SELECT `+verificationColumns+` FROM verifications`,
		nil, limit, cursor, "seq",
		func(rows *sql.Rows) (models.Verification, int64, error) {
			v, seq, err := scanVerification(rows)
			if err != nil {
				return models.Verification{}, 0, err
			}
			return *v, seq, nil
		},
	)
}

// CountSubmissionEvents returns how many submissions were recorded with
// the given outcome.
func (db *ServerDB) CountSubmissionEvents(outcome string) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM submission_events WHERE outcome = ?`, outcome).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count submission events: %w", err)
	}
	return n, nil
}

func (db *ServerDB) recordEvent(dimensionID int, outcome string) {
	// Best effort; the audit trail never blocks a submission.
	_, _ = db.conn.Exec(
		`INSERT INTO submission_events (dimension_id, outcome) VALUES (?, ?)`, dimensionID, outcome,
	)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerification(s scanner) (*models.Verification, int64, error) {
	var (
		v       models.Verification
		seq     int64
		atelier string
		bbox    string
	)
	if err := s.Scan(&seq, &v.ID, &v.DimensionID, &atelier, &bbox, &v.CreatedAt); err != nil {
		return nil, 0, err
	}
	if err := json.Unmarshal([]byte(atelier), &v.Atelier); err != nil {
		return nil, 0, fmt.Errorf("decode atelier: %w", err)
	}
	if err := json.Unmarshal([]byte(bbox), &v.Bbox); err != nil {
		return nil, 0, fmt.Errorf("decode bbox: %w", err)
	}
	return &v, seq, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
