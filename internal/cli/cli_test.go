package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"expensetracker/internal/form"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"EXPENSES_CONFIG", "AMQP_URL", "PORT", "SQLITE_DB_PATH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, sess := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if cerr := sess.close(); cerr != nil {
		t.Fatalf("close session: %v", cerr)
	}
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

// addedID extracts the id from "Added <id>: ...".
func addedID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Added" {
		t.Fatalf("unexpected add output %q", out)
	}
	return strings.TrimSuffix(fields[1], ":")
}

func TestAddListAndPersistence(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "add", "--title", "Coffee", "--amount", "4.50", "--category", "Dining Out", "--date", "2024-03-01")
	if !strings.Contains(out, "Coffee $4.50 (Dining Out, 2024-03-01)") {
		t.Fatalf("add output = %q", out)
	}
	mustRun(t, "add", "-t", "Rent", "-a", "1200", "-c", "Rent/Mortgage", "-d", "2024-03-05")
	mustRun(t, "add", "-t", "Gizmo", "-a", "3", "-c", "Gadgets", "-d", "2024-01-01")

	out = mustRun(t, "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("list output = %q", out)
	}
	if !strings.Contains(lines[1], "Rent") || !strings.Contains(lines[2], "Coffee") || !strings.Contains(lines[3], "Gizmo") {
		t.Fatalf("expected newest first, got %q", out)
	}
	if !strings.Contains(lines[3], "Other") {
		t.Fatalf("unknown category should display as Other: %q", lines[3])
	}

	out = mustRun(t, "list", "--insertion-order")
	lines = strings.Split(strings.TrimSpace(out), "\n")
	if !strings.Contains(lines[1], "Coffee") {
		t.Fatalf("expected insertion order, got %q", out)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	setupEnv(t)

	cases := [][]string{
		{"add", "--title", "", "--amount", "5"},
		{"add", "--title", "Snack", "--amount", "0"},
		{"add", "--title", "Snack", "--amount", "lots"},
		{"add", "--title", "Snack", "--amount", "5", "--date", "tomorrow"},
	}
	for _, args := range cases {
		if _, err := run(t, args...); !errors.Is(err, form.ErrInvalid) {
			t.Fatalf("%v: err = %v, want ErrInvalid", args, err)
		}
	}
	if out := mustRun(t, "list"); !strings.Contains(out, "No expenses yet") {
		t.Fatalf("nothing should be stored, got %q", out)
	}
}

func TestEditAndDelete(t *testing.T) {
	setupEnv(t)
	id := addedID(t, mustRun(t, "add", "-t", "Taxi", "-a", "12.30", "-c", "Transportation", "-d", "2024-04-01"))

	out := mustRun(t, "edit", id, "--title", "Taxi home")
	if !strings.Contains(out, "Taxi home $12.30 (Transportation, 2024-04-01)") {
		t.Fatalf("edit output = %q", out)
	}

	if _, err := run(t, "edit", id, "--amount=-3"); !errors.Is(err, form.ErrInvalid) {
		t.Fatalf("invalid edit err = %v", err)
	}
	if _, err := run(t, "edit", "missing", "--title", "x"); err == nil {
		t.Fatal("expected error for unknown id")
	}

	mustRun(t, "delete", id)
	if out := mustRun(t, "list"); !strings.Contains(out, "No expenses yet") {
		t.Fatalf("list after delete = %q", out)
	}
}

func TestSummary(t *testing.T) {
	setupEnv(t)
	if out := mustRun(t, "summary"); !strings.Contains(out, "Total: $0.00 across 0 expense(s)") {
		t.Fatalf("empty summary = %q", out)
	}

	mustRun(t, "add", "-t", "A", "-a", "10", "-c", "Groceries", "-d", "2024-01-01")
	mustRun(t, "add", "-t", "B", "-a", "30", "-c", "Travel", "-d", "2024-01-02")

	out := mustRun(t, "summary")
	for _, want := range []string{"Total: $40.00 across 2 expense(s)", "Groceries", "25%", "Travel", "75%"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %q", want, out)
		}
	}
}

func TestExport(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "out", "export.csv")

	if _, err := run(t, "export", "-o", path); !errors.Is(err, errNothingToDo) {
		t.Fatalf("empty export err = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be written for an empty export")
	}

	id := addedID(t, mustRun(t, "add", "-t", `Say "hi"`, "-a", "4.5", "-c", "Other", "-d", "2024-03-01"))
	mustRun(t, "export", "-o", path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "ID,Title,Amount,Category,Date\n" + id + `,"Say ""hi""",4.50,Other,2024-03-01`
	if string(data) != want {
		t.Fatalf("export = %q, want %q", data, want)
	}

	if out := mustRun(t, "export", "-o", "-"); out != want {
		t.Fatalf("stdout export = %q", out)
	}
}

func TestChart(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "chart.png")

	if _, err := run(t, "chart", "-o", path); !errors.Is(err, errNothingToDo) {
		t.Fatalf("empty chart err = %v", err)
	}

	mustRun(t, "add", "-t", "A", "-a", "10", "-c", "Groceries", "-d", "2024-01-01")
	mustRun(t, "chart", "-o", path, "--width", "400", "--height", "300")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("chart is not a PNG")
	}
}

func TestWelcome(t *testing.T) {
	setupEnv(t)

	if out := mustRun(t, "welcome"); !strings.Contains(out, "Welcome to Expense Tracker") {
		t.Fatalf("welcome = %q", out)
	}
	mustRun(t, "welcome", "--dismiss")
	if out := mustRun(t, "welcome"); !strings.Contains(out, "dismissed") {
		t.Fatalf("welcome after dismiss = %q", out)
	}
	mustRun(t, "welcome", "--reset")
	if out := mustRun(t, "welcome"); !strings.Contains(out, "Welcome to Expense Tracker") {
		t.Fatalf("welcome after reset = %q", out)
	}
	if _, err := run(t, "welcome", "--dismiss", "--reset"); err == nil {
		t.Fatal("expected error for conflicting flags")
	}
}

func TestWatchRequiresAMQP(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "watch"); err == nil || !strings.Contains(err.Error(), "AMQP_URL") {
		t.Fatalf("watch err = %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("DATA_BACKEND", "sheets")
	if _, err := run(t, "list"); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	setupEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")

	sess := &session{logOut: io.Discard}
	a, err := sess.open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sess.close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, a, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve() error = %v", err)
	}
}
