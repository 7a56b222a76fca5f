package prefs

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	if err := s.PutString(ctx, KeySaltKey, "abc"); err != nil {
		t.Fatalf("PutString() failed: %v", err)
	}
	s.Close()

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite() iteration %d failed: %v", i, err)
		}
		got, ok, err := s.GetString(ctx, KeySaltKey)
		if err != nil || !ok || got != "abc" {
			t.Errorf("GetString() = %q, %v, %v; want \"abc\", true, nil", got, ok, err)
		}
		s.Close()
	}
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/prefs.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &SQLiteStore{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.want); err != nil {
			t.Error(err)
		}
	}
}

func TestGetString_Missing(t *testing.T) {
	s := openTestStore(t)

	got, ok, err := s.GetString(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetString() failed: %v", err)
	}
	if ok || got != "" {
		t.Errorf("GetString() = %q, %v; want \"\", false", got, ok)
	}
}

func TestPutString_Overwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, v := range []string{"first", "second", ""} {
		if err := s.PutString(ctx, KeyCustomOverrides, v); err != nil {
			t.Fatalf("PutString(%q) failed: %v", v, err)
		}
		got, ok, err := s.GetString(ctx, KeyCustomOverrides)
		if err != nil || !ok {
			t.Fatalf("GetString() = %v, %v", ok, err)
		}
		if got != v {
			t.Errorf("GetString() = %q, want %q", got, v)
		}
	}
}

func TestPutAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	values := map[string]string{
		KeySaltKey:           "salt",
		KeyDefaultIterations: "20000",
		KeyCustomOverrides:   `{"example.com":"|5000||"}`,
	}
	if err := s.PutAll(ctx, values); err != nil {
		t.Fatalf("PutAll() failed: %v", err)
	}

	for k, want := range values {
		got, ok, err := s.GetString(ctx, k)
		if err != nil || !ok || got != want {
			t.Errorf("GetString(%q) = %q, %v, %v; want %q", k, got, ok, err, want)
		}
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	want := []string{KeyCustomOverrides, KeyDefaultIterations, KeySaltKey}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestPutAll_CancelledContextWritesNothing(t *testing.T) {
	s := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.PutAll(ctx, map[string]string{KeySaltKey: "salt"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	_, ok, err := s.GetString(context.Background(), KeySaltKey)
	if err != nil {
		t.Fatalf("GetString() failed: %v", err)
	}
	if ok {
		t.Error("PutAll with cancelled context must not write")
	}
}

func TestMigrateToV1_AddsUpdatedAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A version 0 database without updated_at.
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE prefs (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO prefs (key, value) VALUES ('saltKey', 'legacy')`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	db.Close()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	has, err := hasColumn(s.db, "prefs", "updated_at")
	if err != nil {
		t.Fatalf("hasColumn() failed: %v", err)
	}
	if !has {
		t.Error("updated_at column missing after migration")
	}

	got, ok, err := s.GetString(context.Background(), KeySaltKey)
	if err != nil || !ok || got != "legacy" {
		t.Errorf("GetString() = %q, %v, %v; want legacy row preserved", got, ok, err)
	}
	if err := s.PutString(context.Background(), KeySaltKey, "new"); err != nil {
		t.Errorf("PutString() after migration failed: %v", err)
	}
}
