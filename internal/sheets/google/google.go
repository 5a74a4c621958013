package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
	ports "budget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultCacheDuration = 2 * time.Minute

// Client mirrors ledger transactions into one sheet of a spreadsheet.
// Columns: A date, B description, C category, D amount, E type, F person,
// G ledger id.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Ledger ids already present in the sheet, refreshed after expiry.
	mu                 sync.Mutex
	cachedIDs          map[int64]struct{}
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var (
	_ ports.Mirror            = (*Client)(nil)
	_ ports.TransactionLister = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return newClient(svc, spreadsheetID, sheetName), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		cacheValidDuration: defaultCacheDuration,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}

	applog.For(ctx, applog.ComponentSheets).InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAccountCredentials() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendTransaction appends t after the last row of the sheet. Cells are
// written RAW so Sheets keeps the ISO date and amount text as given.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{formatRow(t)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	c.rememberID(t.ID)

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// ListTransactions reads every mirrored row. Rows that do not parse are skipped.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	values, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(values))
	for _, row := range values {
		if t, ok := parseRow(toStrings(row)); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// HasTransaction reports whether a row with ledger id already exists.
func (c *Client) HasTransaction(ctx context.Context, id int64) (bool, error) {
	c.mu.Lock()
	if c.cachedIDs != nil && time.Now().Before(c.cacheExpiresAt) {
		_, ok := c.cachedIDs[id]
		c.mu.Unlock()
		return ok, nil
	}
	c.mu.Unlock()

	txs, err := c.ListTransactions(ctx)
	if err != nil {
		return false, err
	}
	ids := make(map[int64]struct{}, len(txs))
	for _, t := range txs {
		ids[t.ID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedIDs = ids
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	_, ok := ids[id]
	return ok, nil
}

// InvalidateIDCache forces the next HasTransaction to re-read the sheet.
func (c *Client) InvalidateIDCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheExpiresAt = time.Time{}
}

func (c *Client) rememberID(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedIDs != nil {
		c.cachedIDs[id] = struct{}{}
	}
}

func (c *Client) readAll(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}
