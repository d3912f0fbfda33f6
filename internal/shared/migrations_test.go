package shared

import (
	"database/sql"
	"strings"
	"testing"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n); err != nil {
		t.Fatalf("failed to inspect schema: %v", err)
	}
	return n == 1
}

func TestMigrations(t *testing.T) {
	t.Run("embedded files pair up", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}
		for i, m := range migrations {
			if i > 0 && m.Version <= migrations[i-1].Version {
				t.Errorf("version %d sorted after %d", m.Version, migrations[i-1].Version)
			}
			if m.Up == "" || m.Down == "" {
				t.Errorf("version %d is missing a direction", m.Version)
			}
		}
	})

	t.Run("creates the audit schema", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"sync_runs", "sync_runs_sequence", "match_decisions", "schema_migrations"} {
			if !tableExists(t, db, table) {
				t.Errorf("expected table %s", table)
			}
		}

		var seq int
		if err := db.QueryRow("SELECT value FROM sync_runs_sequence WHERE id = 1").Scan(&seq); err != nil {
			t.Fatalf("sequence row missing: %v", err)
		}
		if seq != 0 {
			t.Errorf("expected sequence to start at 0, got %d", seq)
		}
	})

	t.Run("reruns are no-ops", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		for range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations: %v", err)
			}
		}

		var applied int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
			t.Fatalf("failed to count applied migrations: %v", err)
		}
		migrations, _ := loadMigrations()
		if applied != len(migrations) {
			t.Errorf("expected %d applied migrations, got %d", len(migrations), applied)
		}
	})

	t.Run("rollback drops the latest version", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to roll back: %v", err)
		}
		if tableExists(t, db, "match_decisions") || tableExists(t, db, "sync_runs") {
			t.Error("expected audit tables to be dropped")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with nothing left to roll back")
		}
	})
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "CREATE TABLE a (id INT)", "CREATE TABLE a (id INT)"},
		{"leading comment line", "-- note\nDROP TABLE a", "DROP TABLE a"},
		{"trailing comment", "DROP TABLE a -- gone", "DROP TABLE a"},
		{"only comments", "-- one\n  -- two", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.TrimSpace(stripComments(tt.in)); got != tt.want {
				t.Errorf("stripComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
