// README: Completion quota tests (lazy monthly reset and quota boundary logic).
package aiusage

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestConsumeCrossMonthReset verifies that a client with nothing left from a previous month
// is automatically reset and the request succeeds.
func TestConsumeCrossMonthReset(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "INSERT INTO ai_usage VALUES ('client_reset', 0, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Consume(ctx, "client_reset"); err != nil {
		t.Fatalf("Consume after cross-month reset: %v", err)
	}

	if remaining := remainingOf(t, db, "client_reset"); remaining != DefaultMonthlyCompletions-1 {
		t.Fatalf("expected %d remaining, got %d", DefaultMonthlyCompletions-1, remaining)
	}
}

// TestConsumeInsufficientCheck verifies that a client at 0 in the current month is blocked.
func TestConsumeInsufficientCheck(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "INSERT INTO ai_usage (client_key, completions_remaining, last_reset_month) VALUES ('client_zero', 0, TO_CHAR(NOW() AT TIME ZONE 'UTC', 'YYYY-MM'))"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := svc.Consume(ctx, "client_zero")
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
}

// TestConsumeNewClient verifies that a client absent from the table is initialised on first call.
func TestConsumeNewClient(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	if remaining, err := svc.Remaining(ctx, "client_new"); err != nil || remaining != DefaultMonthlyCompletions {
		t.Fatalf("Remaining before first use = %d, %v", remaining, err)
	}

	if err := svc.Consume(ctx, "client_new"); err != nil {
		t.Fatalf("Consume for new client: %v", err)
	}

	if remaining := remainingOf(t, db, "client_new"); remaining != DefaultMonthlyCompletions-1 {
		t.Fatalf("expected %d remaining after first use, got %d", DefaultMonthlyCompletions-1, remaining)
	}
}

// TestConsumeExhaustsAllowance spends a small allowance down to zero.
func TestConsumeExhaustsAllowance(t *testing.T) {
	_, db := setupTestService(t)
	svc := NewService(NewStore(db), 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.Consume(ctx, "client_small"); err != nil {
			t.Fatalf("use %d: %v", i, err)
		}
	}
	if err := svc.Consume(ctx, "client_small"); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
}

func remainingOf(t *testing.T, db *pgxpool.Pool, key string) int {
	t.Helper()
	u, ok, err := NewStore(db).Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	if !ok {
		t.Fatalf("no ai_usage row for %s", key)
	}
	return u.CompletionsRemaining
}

func TestStoreGetUnknownClient(t *testing.T) {
	_, db := setupTestService(t)

	_, ok, err := NewStore(db).Get(context.Background(), "client_missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected no row for an unseen client")
	}
}

func TestConsumeUsesInjectedClock(t *testing.T) {
	_, db := setupTestService(t)
	ctx := context.Background()

	store := NewStore(db)
	store.now = func() time.Time { return time.Date(2031, time.March, 31, 23, 0, 0, 0, time.UTC) }
	if err := store.EnsureClient(ctx, "client_clock", 3); err != nil {
		t.Fatalf("EnsureClient: %v", err)
	}
	if err := store.Consume(ctx, "client_clock", 3); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	store.now = func() time.Time { return time.Date(2031, time.April, 1, 0, 30, 0, 0, time.UTC) }
	if err := store.Consume(ctx, "client_clock", 3); err != nil {
		t.Fatalf("Consume after rollover: %v", err)
	}

	u, _, err := store.Get(ctx, "client_clock")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.LastResetMonth != "2031-04" || u.CompletionsRemaining != 2 {
		t.Fatalf("expected 2031-04 with 2 left, got %+v", u)
	}
}

// setupTestService creates a real postgres-backed Service for integration tests.
// It skips the test when TABI_TEST_DSN is not set.
func setupTestService(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TABI_TEST_DSN")
	if dsn == "" {
		t.Skip("TABI_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE ai_usage"); err != nil {
		t.Fatalf("truncate ai_usage: %v", err)
	}

	return NewService(NewStore(db), DefaultMonthlyCompletions), db
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	migrations := []string{
		"0001_ai_usage.sql",
	}
	for _, name := range migrations {
		path := filepath.Join(root, "migrations", name)
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		cleaned := stripSQLComments(string(content))
		for _, stmt := range splitSQL(cleaned) {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
