package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
)

// handleListMocks implements GET /_admin/mocks (spec §4.7).
func (s *Server) handleListMocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.expectations.List())
}

// handleExport implements GET /_admin/export: identical content to the
// list endpoint (spec §4.7, §8 round-trip invariant).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.expectations.Export())
}

// handleAddMock implements POST /_admin/mocks.
func (s *Server) handleAddMock(w http.ResponseWriter, r *http.Request) {
	body, err := readLimitedBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var exp expectation.Expectation
	if err := json.Unmarshal(body, &exp); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid expectation JSON: "+err.Error())
		return
	}

	created := s.expectations.Add(r.Context(), exp)
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateMock implements PUT /_admin/mocks/{id}.
func (s *Server) handleUpdateMock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var exp expectation.Expectation
	if err := json.Unmarshal(body, &exp); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid expectation JSON: "+err.Error())
		return
	}

	if !s.expectations.Update(r.Context(), id, exp) {
		writeJSONError(w, http.StatusNotFound, "no expectation with that id")
		return
	}

	exp.ID = id
	writeJSON(w, http.StatusOK, exp)
}

// handleDeleteMock implements DELETE /_admin/mocks/{id}.
func (s *Server) handleDeleteMock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if !s.expectations.Delete(r.Context(), id) {
		writeJSONError(w, http.StatusNotFound, "no expectation with that id")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleImport implements POST /_admin/import: replaces the entire list.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := readLimitedBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var list []expectation.Expectation
	if err := json.Unmarshal(body, &list); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid expectation list JSON: "+err.Error())
		return
	}

	s.expectations.Import(r.Context(), list)
	writeJSON(w, http.StatusOK, s.expectations.List())
}

// handleMetrics implements GET /_admin/metrics: text exposition from the
// metrics collaborator (spec §4.7, §6).
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write(s.metrics.Expose())
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid id: "+raw)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
