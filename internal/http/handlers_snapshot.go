package http

import (
	"fmt"
	"io"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/services"
	"budget/internal/snapshot"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Reconciler.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("budget-export-%s.json", snap.ExportDate.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := snapshot.Encode(w, snap); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write export", applog.FieldError, err)
	}
}

// handleImport reads a snapshot document from the body. ?mode= selects
// merge (default) or replace.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mode, err := services.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := snapshot.Decode(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, &core.IOError{Err: err})
		return
	}

	result, err := s.svc.Reconciler.Import(r.Context(), snap, mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Snapshot imported",
		applog.FieldMode, mode.String(),
		"transactions_inserted", result.TransactionsInserted,
		"rules_inserted", result.RulesInserted)
	writeJSON(w, http.StatusOK, result)
}
