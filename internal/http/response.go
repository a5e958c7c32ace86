package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"financeiro/internal/core"
	applog "financeiro/internal/log"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// writeValidation reports field level failures from the request validator.
func writeValidation(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fmt.Sprintf("failed on '%s' tag", fe.Tag())
	}
	writeError(w, http.StatusBadRequest, "invalid request", details)
}

var badRequestErrors = []error{
	core.ErrInvalidDateFormat,
	core.ErrInvalidKind,
	core.ErrInvalidAccount,
	core.ErrInvalidAmount,
	core.ErrInvalidRange,
	core.ErrInvalidCompare,
	core.ErrImport,
}

// statusFor maps a ledger error onto an HTTP status.
func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeServiceError answers with the status for err. Server side failures
// are logged with their cause and reported with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldOperation, op, applog.FieldError, err)
		msg := "internal error"
		switch {
		case errors.Is(err, core.ErrStorage):
			msg = "storage failure"
		case errors.Is(err, core.ErrExport):
			msg = "export failure"
		}
		writeError(w, status, msg, nil)
		return
	}
	writeError(w, status, err.Error(), nil)
}
