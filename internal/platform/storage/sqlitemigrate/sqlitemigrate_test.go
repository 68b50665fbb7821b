package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyRecordsMigrationsInOrder(t *testing.T) {
	db := openInMemoryDB(t)

	migrations := fstest.MapFS{
		"002_tasks.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE tasks(id TEXT PRIMARY KEY, entity_id TEXT REFERENCES entities(id));"),
		},
		"001_entities.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE entities(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE entities;"),
		},
		"README.md": &fstest.MapFile{Data: []byte("not a migration")},
	}

	if err := Apply(context.Background(), db, migrations, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 2 {
		t.Fatalf("migration rows = %d, want 2", got)
	}
	for _, table := range []string{"entities", "tasks"} {
		if !tableExists(t, db, table) {
			t.Fatalf("expected table %s", table)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"001_runs.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE runs(id TEXT PRIMARY KEY);"),
		},
	}
	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), db, migrations, ""); err != nil {
			t.Fatalf("apply pass %d: %v", i, err)
		}
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 1 {
		t.Fatalf("migration rows = %d, want 1", got)
	}
}

func TestApplyDoesNotRecordFailedMigration(t *testing.T) {
	db := openInMemoryDB(t)

	bad := fstest.MapFS{
		"001_rules.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREAT TABLE rules(position INT);"),
		},
	}
	if err := Apply(context.Background(), db, bad, ""); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 0 {
		t.Fatalf("failed migration recorded: %d rows", got)
	}

	good := fstest.MapFS{
		"001_rules.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE rules(position INTEGER PRIMARY KEY);"),
		},
	}
	if err := Apply(context.Background(), db, good, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 1 {
		t.Fatalf("fixed migration rows = %d, want 1", got)
	}
}

func TestApplyUsesRootInMigrationName(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"fiscal/001_graph.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE decision_graph(id INTEGER PRIMARY KEY);"),
		},
	}
	if err := Apply(context.Background(), db, migrations, "fiscal"); err != nil {
		t.Fatalf("apply migrations with root: %v", err)
	}
	if got := queryString(t, db, "SELECT name FROM schema_migrations LIMIT 1"); got != "fiscal/001_graph.sql" {
		t.Fatalf("migration name = %q", got)
	}
}

func TestApplyRejectsNilDB(t *testing.T) {
	if err := Apply(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected nil db error")
	}
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no markers", content: "CREATE TABLE a(id INT);", want: "CREATE TABLE a(id INT);"},
		{name: "up only", content: "-- +migrate Up\nCREATE TABLE a(id INT);", want: "\nCREATE TABLE a(id INT);"},
		{name: "up and down", content: "-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;", want: "\nSELECT 1;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpSection(tt.content); got != tt.want {
				t.Fatalf("UpSection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func queryInt64(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var value int64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		t.Fatalf("query int value: %v", err)
	}
	return value
}

func queryString(t *testing.T, db *sql.DB, query string) string {
	t.Helper()
	var value string
	if err := db.QueryRow(query).Scan(&value); err != nil {
		t.Fatalf("query string value: %v", err)
	}
	return value
}

func tableExists(t *testing.T, db *sql.DB, tableName string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", tableName).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("check table exists: %v", err)
	}
	return name == tableName
}
