package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcus/atelier/internal/models"
	"github.com/marcus/atelier/internal/serverdb"
)

// handleCreateVerification handles POST /v1/jeux.
func (s *Server) handleCreateVerification(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, ErrValidation, "invalid JSON body")
		return
	}
	if msg := validateVerifyRequest(req); msg != "" {
		writeError(w, http.StatusBadRequest, ErrValidation, msg)
		return
	}

	v, err := s.store.CreateVerification(req)
	if err != nil {
		if errors.Is(err, serverdb.ErrConflict) {
			s.metrics.verifications.WithLabelValues(serverdb.OutcomeConflict).Inc()
			writeError(w, http.StatusConflict, ErrConflict, "dimension "+strconv.Itoa(req.DimensionID)+" already verified")
			return
		}
		s.logger.Error("create verification", "err", err, "dimension_id", req.DimensionID)
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to store verification")
		return
	}

	s.metrics.verifications.WithLabelValues(serverdb.OutcomeAccepted).Inc()
	s.logger.Info("verification stored", "dimension_id", v.DimensionID, "id", v.ID)
	writeJSON(w, http.StatusCreated, v)
}

func validateVerifyRequest(req models.VerifyRequest) string {
	if req.DimensionID <= 0 {
		return "dimension_id must be positive"
	}
	if len(req.Bbox) == 0 {
		return "bbox must not be empty"
	}
	if strings.TrimSpace(strings.Join(req.Bbox, "")) == "" {
		return "bbox must contain generated content"
	}
	return ""
}

// handleGetVerification handles GET /v1/jeux/{dimension_id}.
func (s *Server) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("dimension_id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, ErrValidation, "dimension_id must be a positive integer")
		return
	}

	v, err := s.store.GetVerification(id)
	if err != nil {
		s.logger.Error("get verification", "err", err, "dimension_id", id)
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to read verification")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, ErrNotFound, "no verification for dimension "+strconv.Itoa(id))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleListVerifications handles GET /v1/jeux?limit=&cursor=.
func (s *Server) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrValidation, "limit must be an integer")
			return
		}
		limit = n
	}

	page, err := s.store.ListVerifications(limit, r.URL.Query().Get("cursor"))
	if err != nil {
		if strings.Contains(err.Error(), "invalid cursor") {
			writeError(w, http.StatusBadRequest, ErrValidation, "invalid cursor")
			return
		}
		s.logger.Error("list verifications", "err", err)
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to list verifications")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
