package http

import (
	"net/http"
	"strconv"
	"strings"

	"financeiro/internal/core"
	applog "financeiro/internal/log"
)

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	ms, err := s.movements.Query(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementResponses(ms))
}

func (s *Server) handleGetMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	m, err := s.movements.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementResponse(m))
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readMovement(w, r)
	if !ok {
		return
	}
	id, err := s.movements.Add(r.Context(), req.Date, core.NormalizeKind(req.Kind), req.Account, req.Amount, req.Note)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	m, err := s.movements.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/movements/"+strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusCreated, toMovementResponse(m))
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	req, ok := s.readMovement(w, r)
	if !ok {
		return
	}
	if err := s.movements.Update(r.Context(), id, req.Date, core.NormalizeKind(req.Kind), req.Account, req.Amount, req.Note); err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	m, err := s.movements.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementResponse(m))
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := s.movements.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readMovement(w http.ResponseWriter, r *http.Request) (MovementRequest, bool) {
	var req MovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return req, false
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Note = strings.TrimSpace(req.Note)
	if err := s.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return req, false
	}
	return req, true
}
