package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// statusFor maps error kinds to response codes. Snapshot problems are
// checked first because a malformed snapshot also wraps a validation error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrIO):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		fields := applog.NewFields().WithError(err)
		fields[applog.FieldPath] = r.URL.Path
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}
