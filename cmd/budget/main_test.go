package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

// useLedger points the commands at a fresh sqlite file.
func useLedger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budget.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", path)
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(&app{now: func() time.Time { return fixedNow }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "budget %v\n%s", args, out)
	return out
}

func TestAddAndList(t *testing.T) {
	useLedger(t)

	out := mustRun(t, "add", "--type", "income", "--amount", "2500", "--category", "Salary",
		"--description", "March salary", "--person", "Person 1", "--date", "2024-03-01")
	assert.Contains(t, out, "Added income #1")

	out = mustRun(t, "add", "-t", "expense", "-a", "54,20", "-c", "Food", "-d", "Groceries", "-p", "Person 2")
	assert.Contains(t, out, "2024-03-15", "date defaults to today")

	out = mustRun(t, "list")
	assert.Contains(t, out, "March salary")
	assert.Contains(t, out, "-54.20")

	out = mustRun(t, "list", "--category", "Food")
	assert.Contains(t, out, "Groceries")
	assert.NotContains(t, out, "March salary")
}

func TestAddRejectsInvalidInput(t *testing.T) {
	useLedger(t)

	_, err := run(t, "add", "--amount=-5", "--category", "Food", "--description", "x", "--person", "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = run(t, "add", "--amount", "5", "--category", "Food", "--description", "x", "--person", "p", "--date", "2024-02-30")
	require.Error(t, err)

	out := mustRun(t, "list")
	assert.Contains(t, out, "No transactions.")
}

func TestRulesAndProcessDue(t *testing.T) {
	useLedger(t)

	out := mustRun(t, "rules", "add", "-d", "Rent", "-c", "Housing", "-a", "800", "-p", "Both",
		"-f", "monthly", "--start", "2024-02-16")
	assert.Contains(t, out, "Added monthly rule #1")

	out = mustRun(t, "process-due")
	assert.Contains(t, out, "Processed 1 recurring transaction(s)")

	out = mustRun(t, "process-due")
	assert.Contains(t, out, "Processed 0 recurring transaction(s)", "next occurrence is in April")

	out = mustRun(t, "list")
	assert.Contains(t, out, "Rent"+core.AutoSuffix)
	assert.Contains(t, out, "2024-03-15")

	out = mustRun(t, "rules", "list")
	assert.Contains(t, out, "Rent")
	assert.Contains(t, out, "active")
}

func TestProcessDueCatchUp(t *testing.T) {
	useLedger(t)

	mustRun(t, "rules", "add", "-d", "Gym", "-c", "Health", "-a", "30", "-p", "Person 1",
		"-f", "monthly", "--start", "2023-12-11")

	out := mustRun(t, "process-due", "--catch-up", "--max-rounds", "2")
	assert.Contains(t, out, "Processed 2 recurring")

	out = mustRun(t, "process-due", "--catch-up")
	assert.Contains(t, out, "Processed 1 recurring")

	out = mustRun(t, "balance")
	assert.Contains(t, out, "-90.00")
}

func TestPauseAndResume(t *testing.T) {
	useLedger(t)

	mustRun(t, "rules", "add", "-d", "Netflix", "-c", "Fun", "-a", "12.99", "-p", "Both",
		"-f", "monthly", "--start", "2024-02-16")

	assert.Contains(t, mustRun(t, "rules", "pause", "1"), "Paused rule #1")
	assert.Contains(t, mustRun(t, "rules", "list"), "No recurring rules.")
	assert.Contains(t, mustRun(t, "rules", "list", "--all"), "paused")
	assert.Contains(t, mustRun(t, "process-due"), "Processed 0")

	assert.Contains(t, mustRun(t, "rules", "resume", "1"), "Resumed rule #1")
	assert.Contains(t, mustRun(t, "process-due"), "Processed 1")

	_, err := run(t, "rules", "pause", "99")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = run(t, "rules", "pause", "abc")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestReports(t *testing.T) {
	useLedger(t)

	mustRun(t, "add", "-t", "income", "-a", "1000", "-c", "Salary", "-d", "Pay", "-p", "Person 1", "--date", "2024-03-01")
	mustRun(t, "add", "-a", "250", "-c", "Food", "-d", "Groceries", "-p", "Person 1", "--date", "2024-03-05")
	mustRun(t, "add", "-a", "100", "-c", "Fun", "-d", "Cinema", "-p", "Person 2", "--date", "2024-02-20")

	out := mustRun(t, "summary")
	assert.Contains(t, out, "650.00")
	assert.Contains(t, out, "Food")

	out = mustRun(t, "report", "monthly")
	assert.Contains(t, out, "Monthly report 2024-03")
	assert.Contains(t, out, "2024-03-01 to 2024-03-15")
	assert.Contains(t, out, "Food")
	assert.NotContains(t, out, "Fun")

	out = mustRun(t, "report", "category")
	assert.Contains(t, out, "Salary")

	out = mustRun(t, "report", "person", "--person", "Person 2")
	assert.Contains(t, out, "Person 2")
	assert.NotContains(t, out, "Person 1")

	_, err := run(t, "report", "weekly")
	assert.ErrorIs(t, err, core.ErrValidation)

	out = mustRun(t, "info")
	assert.Contains(t, out, "Transactions")
	assert.Contains(t, out, "Groceries")
}

func TestExportImport(t *testing.T) {
	useLedger(t)

	mustRun(t, "add", "-a", "20", "-c", "Food", "-d", "Lunch", "-p", "Person 1", "--date", "2024-03-02")
	mustRun(t, "rules", "add", "-d", "Rent", "-c", "Housing", "-a", "800", "-p", "Both", "--start", "2024-01-01")

	snap := filepath.Join(t.TempDir(), "snapshot.json")
	assert.Contains(t, mustRun(t, "export", snap), "Exported ledger")
	_, err := os.Stat(snap)
	require.NoError(t, err)

	out := mustRun(t, "import", snap)
	assert.Contains(t, out, "transactions: 0 added, 1 skipped")
	assert.Contains(t, out, "rules:        0 added, 1 skipped")

	useLedger(t)
	out = mustRun(t, "import", "--mode", "replace", snap)
	assert.Contains(t, out, "Import (replace) complete")
	assert.Contains(t, out, "transactions: 1 added")
	assert.Contains(t, mustRun(t, "list"), "Lunch")

	_, err = run(t, "import", "--mode", "append", snap)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = run(t, "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestInvalidConfig(t *testing.T) {
	useLedger(t)
	t.Setenv("DATA_BACKEND", "postgres")

	_, err := run(t, "info")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestReadCommandsProcessDueRulesFirst(t *testing.T) {
	useLedger(t)
	mustRun(t, "rules", "add", "-d", "Rent", "-c", "Housing", "-a", "800", "-p", "Both",
		"-f", "monthly", "--start", "2024-02-16")

	t.Setenv("PROCESS_ON_START", "false")
	assert.Contains(t, mustRun(t, "list"), "No transactions.")

	t.Setenv("PROCESS_ON_START", "true")
	out := mustRun(t, "list")
	assert.Contains(t, out, "Rent"+core.AutoSuffix)
	assert.Contains(t, out, "2024-03-15")

	assert.Contains(t, mustRun(t, "process-due"), "Processed 0", "already materialized by list")
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return strconv.Itoa(port)
}

func TestServeProcessesOnStartWithoutInterval(t *testing.T) {
	useLedger(t)
	port := freePort(t)
	t.Setenv("PORT", port)
	t.Setenv("PROCESS_INTERVAL", "0")
	mustRun(t, "rules", "add", "-d", "Rent", "-c", "Housing", "-a", "800", "-p", "Both",
		"-f", "monthly", "--start", "2024-02-16")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := newRootCmd(&app{now: func() time.Time { return fixedNow }})
	cmd.SetArgs([]string{"serve"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	errc := make(chan error, 1)
	go func() { errc <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + port + "/readyz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}

	t.Setenv("PROCESS_ON_START", "false")
	assert.Contains(t, mustRun(t, "list"), "Rent"+core.AutoSuffix)
}
