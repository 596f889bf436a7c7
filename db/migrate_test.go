package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationFilesArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatalf("expected at least one migration")
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("migration %s has no down file", version)
		}
	}
}

func TestInitMigrationDeclaresUniqueConstraints(t *testing.T) {
	raw, err := fs.ReadFile(migrationFiles, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	sql := string(raw)

	for _, want := range []string{
		"TEXT NOT NULL UNIQUE",
		"UNIQUE (user_email, loan_title)",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected init migration to contain %q", want)
		}
	}
}
