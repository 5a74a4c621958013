package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
)

const maxBodyBytes = 10 << 20

// flexString accepts a JSON string or number and keeps its literal text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(b))
	}
	*f = flexString(n.String())
	return nil
}

type transactionRequest struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Amount      flexString `json:"amount"`
	Type        string     `json:"type"`
	Person      string     `json:"person"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Amount:      amount,
		Type:        typ,
		Person:      strings.TrimSpace(req.Person),
	}, nil
}

type ruleRequest struct {
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Amount      flexString `json:"amount"`
	Type        string     `json:"type"`
	Person      string     `json:"person"`
	Frequency   string     `json:"frequency"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
}

func (req ruleRequest) toRule() (core.RecurringRule, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.RecurringRule{}, err
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.RecurringRule{}, err
	}
	freq, err := core.ParseFrequency(req.Frequency)
	if err != nil {
		return core.RecurringRule{}, err
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("start date: %w", err)
	}
	var end core.Date
	if strings.TrimSpace(req.EndDate) != "" {
		if end, err = core.ParseDate(req.EndDate); err != nil {
			return core.RecurringRule{}, fmt.Errorf("end date: %w", err)
		}
	}
	return core.RecurringRule{
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Amount:      amount,
		Type:        typ,
		Person:      strings.TrimSpace(req.Person),
		Frequency:   freq,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

// decodeBody reads a single JSON document. Malformed bodies are validation errors.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", core.ErrValidation, err)
	}
	return nil
}

// parseFilter reads start, end, category, person and type query parameters.
func parseFilter(q url.Values) (core.Filter, error) {
	var f core.Filter
	var err error
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		if f.StartDate, err = core.ParseDate(v); err != nil {
			return core.Filter{}, err
		}
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		if f.EndDate, err = core.ParseDate(v); err != nil {
			return core.Filter{}, err
		}
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	f.Person = strings.TrimSpace(q.Get("person"))
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		if f.Type, err = core.ParseTransactionType(v); err != nil {
			return core.Filter{}, err
		}
	}
	return f, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrValidation, r.PathValue("id"))
	}
	return id, nil
}

func boolParam(q url.Values, key string) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", core.ErrValidation, key)
	}
	return b, nil
}

func intParam(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrValidation, key)
	}
	return n, nil
}
