package http

import (
	"fmt"
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Query.Query(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Ledger.Store().GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.svc.Ledger.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = id

	fields := applog.NewFields().
		WithTransaction(id, t.Description, t.Category, t.Amount.StringFixed(2)).
		WithOperation(applog.OpCreate)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created", fields.ToSlice()...)

	w.Header().Set("Location", fmt.Sprintf("/api/transactions/%d", id))
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.svc.Query.Summarize(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	points, err := s.svc.Query.RunningBalance(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Query.Info(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var (
		report any
		err    error
	)
	switch kind := r.PathValue("kind"); kind {
	case "monthly":
		report, err = s.svc.Query.MonthlyReport(r.Context(), s.now())
	case "category", "person":
		var f core.Filter
		if f, err = parseFilter(r.URL.Query()); err != nil {
			break
		}
		if kind == "category" {
			report, err = s.svc.Query.CategoryReport(r.Context(), f)
		} else {
			report, err = s.svc.Query.PersonReport(r.Context(), f)
		}
	default:
		err = fmt.Errorf("report %q: %w", kind, core.ErrNotFound)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
