package google

import (
	"fmt"
	"strconv"
	"strings"

	"budget/internal/core"
)

func formatRow(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		t.Description,
		t.Category,
		t.Amount.StringFixed(2),
		string(t.Type),
		t.Person,
		t.ID,
	}
}

// parseRow converts one sheet row back into a transaction. Header rows,
// short rows and rows with an unreadable date, amount, type or id are rejected.
func parseRow(cols []string) (core.Transaction, bool) {
	if len(cols) < 7 {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(cols[0])
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseAmount(cols[3])
	if err != nil {
		return core.Transaction{}, false
	}
	typ, err := core.ParseTransactionType(cols[4])
	if err != nil {
		return core.Transaction{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(cols[6]), 10, 64)
	if err != nil {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:          id,
		Date:        date,
		Description: strings.TrimSpace(cols[1]),
		Category:    strings.TrimSpace(cols[2]),
		Amount:      amount,
		Type:        typ,
		Person:      strings.TrimSpace(cols[5]),
	}, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
