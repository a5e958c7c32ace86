package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"financeiro/internal/core"
	"financeiro/internal/export"
	applog "financeiro/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.movements.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	kind := core.NormalizeKind(pathParam(r, "kind"))
	total, err := s.movements.Total(r.Context(), kind)
	if err != nil {
		writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"kind":  kind.String(),
		"total": core.FormatAmount(total),
	})
}

// handleExport renders the whole file before writing so that failures can
// still be reported with an error status.
func (s *Server) handleExport(format export.Format) http.HandlerFunc {
	filename := "movimentacoes." + string(format)
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r.URL.Query())
		if err != nil {
			writeServiceError(w, r, applog.OpExport, err)
			return
		}

		var buf bytes.Buffer
		if err := s.movements.ExportTo(r.Context(), &buf, format, f); err != nil {
			writeServiceError(w, r, applog.OpExport, err)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.maxImportBytes)
	n, err := s.movements.Import(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "import file too large", nil)
			return
		}
		writeServiceError(w, r, applog.OpImport, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
