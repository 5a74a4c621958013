package http

import (
	"net/http"

	"budget/internal/core"
	applog "budget/internal/log"
)

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	all, err := boolParam(r.URL.Query(), "all")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rules, err := s.svc.Ledger.ListRecurringRules(r.Context(), all)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rules == nil {
		rules = []core.RecurringRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := req.toRule()
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.svc.Ledger.AddRecurringRule(r.Context(), rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rule.ID = id
	rule.Active = true

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Recurring rule created",
		applog.FieldRuleID, id,
		applog.FieldDescription, rule.Description,
		"frequency", rule.Frequency)
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleSetRuleActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.svc.Ledger.SetRecurringRuleActive(r.Context(), id, active); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": active})
	}
}

type processResponse struct {
	Processed int `json:"processed"`
}

// handleProcessDue runs ProcessDue once, or CatchUp with ?catch_up=true.
func (s *Server) handleProcessDue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	catchUp, err := boolParam(q, "catch_up")
	if err != nil {
		writeError(w, r, err)
		return
	}
	maxRounds, err := intParam(q, "max_rounds")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var n int
	if catchUp {
		n, err = s.svc.Processor.CatchUp(r.Context(), s.now(), maxRounds)
	} else {
		n, err = s.svc.Processor.ProcessDue(r.Context(), s.now())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processResponse{Processed: n})
}
