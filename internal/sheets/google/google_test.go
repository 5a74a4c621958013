package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Ledger")
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := serviceAccountCredentials(); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
	b, err := serviceAccountCredentials()
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("inline json: got %q, %v", b, err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	b, err = serviceAccountCredentials()
	if err != nil || string(b) != `{"from":"file"}` {
		t.Fatalf("credentials file: got %q, %v", b, err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", filepath.Join(t.TempDir(), "missing.json"))
	if _, err := serviceAccountCredentials(); err == nil {
		t.Fatal("expected read error for missing file")
	}
}

func TestAppendTransaction_ValidatesFirst(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Ledger"}

	_, err := c.AppendTransaction(context.Background(), core.Transaction{})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}

	valid := core.Transaction{
		ID: 1, Date: core.NewDate(2024, 1, 1), Description: "Rent", Category: "Housing",
		Amount: decimal.NewFromInt(800), Type: core.Expense, Person: "Both",
	}
	_, err = c.AppendTransaction(context.Background(), valid)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected uninitialized service error, got %v", err)
	}
}

func TestRowRoundTrip(t *testing.T) {
	in := core.Transaction{
		ID:          42,
		Date:        core.NewDate(2024, 2, 29),
		Description: "Gym (Auto)",
		Category:    "Health",
		Amount:      decimal.RequireFromString("29.9"),
		Type:        core.Expense,
		Person:      "Person 1",
	}

	row := formatRow(in)
	if row[3] != "29.90" {
		t.Errorf("amount cell = %v, want 29.90", row[3])
	}

	out, ok := parseRow(toStrings(row))
	if !ok {
		t.Fatal("row did not parse")
	}
	if out.ID != in.ID || !out.Date.Equal(in.Date) || out.Description != in.Description ||
		!out.Amount.Equal(in.Amount) || out.Type != in.Type || out.Person != in.Person {
		t.Errorf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestParseRow_Rejects(t *testing.T) {
	rows := [][]string{
		{"Date", "Description", "Category", "Amount", "Type", "Person", "ID"},
		{"2024-01-01", "Rent", "Housing", "800"},
		{"2024-01-01", "Rent", "Housing", "lots", "Expense", "Both", "1"},
		{"2024-01-01", "Rent", "Housing", "800", "Refund", "Both", "1"},
		{"2024-01-01", "Rent", "Housing", "800", "Expense", "Both", ""},
	}
	for _, row := range rows {
		if _, ok := parseRow(row); ok {
			t.Errorf("row %v should be rejected", row)
		}
	}

	// Sheets renders numbers with a decimal comma in some locales.
	if tx, ok := parseRow([]string{"2024-01-01", "Rent", "Housing", "800,50", "Expense", "Both", "7"}); !ok || tx.Amount.String() != "800.5" {
		t.Errorf("decimal comma row: %+v ok=%v", tx, ok)
	}
}

func TestIDCache(t *testing.T) {
	c := &Client{cacheValidDuration: 100 * time.Millisecond}

	c.mu.Lock()
	valid := time.Now().Before(c.cacheExpiresAt)
	c.mu.Unlock()
	if valid {
		t.Error("cache should start expired")
	}

	c.mu.Lock()
	c.cachedIDs = map[int64]struct{}{1: {}}
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	ok, err := c.HasTransaction(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("cached id 1: ok=%v err=%v", ok, err)
	}

	c.rememberID(2)
	ok, err = c.HasTransaction(context.Background(), 2)
	if err != nil || !ok {
		t.Fatalf("remembered id 2: ok=%v err=%v", ok, err)
	}

	c.InvalidateIDCache()
	// Expired cache with no service falls through to a read, which fails.
	if _, err := c.HasTransaction(context.Background(), 1); err == nil {
		t.Error("expected read error after invalidation")
	}
}

// fakeSheets records the calls a Client makes against the Sheets API.
type fakeSheets struct {
	mu          sync.Mutex
	inputOption string
	renderOpt   string
	appended    string
	rows        string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		body, _ := io.ReadAll(r.Body)
		f.inputOption = r.URL.Query().Get("valueInputOption")
		f.appended = string(body)
		fmt.Fprint(w, `{"updates":{"updatedRange":"Ledger!A2:G2"}}`)
	case r.Method == http.MethodGet:
		f.renderOpt = r.URL.Query().Get("valueRenderOption")
		fmt.Fprintf(w, `{"range":"Ledger!A1:G10","values":%s}`, f.rows)
	default:
		http.NotFound(w, r)
	}
}

func newFakeClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return newClient(svc, "sheet-id", "Ledger")
}

func TestAppendTransaction_WritesRawCells(t *testing.T) {
	f := &fakeSheets{rows: "[]"}
	c := newFakeClient(t, f)

	tx := core.Transaction{
		ID: 7, Date: core.NewDate(2024, 3, 1), Description: "Rent", Category: "Housing",
		Amount: decimal.RequireFromString("800.5"), Type: core.Expense, Person: "Both",
	}
	ref, err := c.AppendTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "Ledger!A2:G2", ref)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "RAW", f.inputOption)
	assert.Contains(t, f.appended, `"2024-03-01"`)
	assert.Contains(t, f.appended, `"800.50"`)
}

func TestHasTransaction_ReadsFormattedRows(t *testing.T) {
	f := &fakeSheets{rows: `[["Date","Description","Category","Amount","Type","Person","ID"],` +
		`["2024-03-01","Rent","Housing","800.50","Expense","Both","7"]]`}
	c := newFakeClient(t, f)

	ok, err := c.HasTransaction(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.HasTransaction(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "FORMATTED_VALUE", f.renderOpt)
}
