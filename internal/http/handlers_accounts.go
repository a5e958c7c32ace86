package http

import (
	"net/http"
	"strings"

	applog "financeiro/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	names, err := s.accounts.List(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}
	id, err := s.accounts.Add(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	n, err := s.accounts.Remove(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}
