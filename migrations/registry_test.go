package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	inspection "github.com/thehariompandey/Resturant-Inspection-Automation-System"
	_ "github.com/mattn/go-sqlite3"
)

func TestSources_ReturnsPostgresThenSQLite(t *testing.T) {
	sources, err := Sources(nil)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Dialect != DialectPostgres || sources[1].Dialect != DialectSQLite {
		t.Fatalf("unexpected dialect order %q, %q", sources[0].Dialect, sources[1].Dialect)
	}
	for _, source := range sources {
		up := source.Up()
		if len(up) != 2 || up[0] != "00001_inspection_catalog.up.sql" {
			t.Fatalf("expected ordered %s up files, got %v", source.Dialect, up)
		}
	}
	if sources[1].Path != "data/sql/migrations/sqlite" {
		t.Fatalf("expected sqlite path, got %q", sources[1].Path)
	}
}

func TestSourceFor_RequiresDownPairs(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/00001_a.up.sql":        {Data: []byte("CREATE TABLE a (id TEXT);")},
		"data/sql/migrations/sqlite/00001_a.up.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
	}
	if _, err := SourceFor(root, DialectPostgres); err == nil {
		t.Fatalf("expected missing down file to fail")
	}
	if _, err := SourceFor(root, Dialect("mysql")); err == nil {
		t.Fatalf("expected unsupported dialect to fail")
	}
}

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{
		"postgres":   DialectPostgres,
		"PostgreSQL": DialectPostgres,
		"sqlite3":    DialectSQLite,
		" sqlite ":   DialectSQLite,
	}
	for input, expected := range cases {
		got, err := ParseDialect(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != expected {
			t.Fatalf("expected %q for %q, got %q", expected, input, got)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Fatalf("expected unknown dialect to fail")
	}
}

func TestRegister_HandsSelectedTree(t *testing.T) {
	var registered []fs.FS
	source, err := Register(context.Background(), func(fsys fs.FS) {
		registered = append(registered, fsys)
	}, DialectSQLite)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(registered) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(registered))
	}
	if source.Dialect != DialectSQLite {
		t.Fatalf("expected sqlite source, got %q", source.Dialect)
	}
	content, err := fs.ReadFile(registered[0], "00002_inspection_responses.up.sql")
	if err != nil {
		t.Fatalf("read registered tree: %v", err)
	}
	if strings.Contains(string(content), "TIMESTAMPTZ") {
		t.Fatalf("expected sqlite variant, got postgres SQL")
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil, DialectSQLite); err == nil {
		t.Fatalf("expected missing register function to fail")
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := inspection.GetMigrationsFS()
	for _, name := range []string{"00001_inspection_catalog", "00002_inspection_responses"} {
		for _, dir := range []string{"data/sql/migrations/", "data/sql/migrations/sqlite/"} {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				migrationPath := dir + name + suffix
				content, err := fs.ReadFile(root, migrationPath)
				if err != nil {
					t.Fatalf("read migration %s: %v", migrationPath, err)
				}
				if strings.TrimSpace(string(content)) == "" {
					t.Fatalf("expected migration %s to have SQL content", migrationPath)
				}
			}
		}
	}
}

func TestSQLiteMigrations_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-inspection?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(inspection.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	for _, migration := range []string{
		"00001_inspection_catalog.up.sql",
		"00002_inspection_responses.up.sql",
	} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}

	for _, tableName := range []string{
		"inspection_restaurants",
		"inspection_sections",
		"inspection_questions",
		"inspection_responses",
	} {
		if count := countTables(t, db, tableName); count != 1 {
			t.Fatalf("expected table %s to exist after up migration", tableName)
		}
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO inspection_sections (id, restaurant_id, name) VALUES ('s1', 'missing', 'Dining')`,
	); err == nil {
		t.Fatalf("expected foreign key violation for unknown restaurant")
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO inspection_responses (id, employee_phone, employee_name, submitted_at) VALUES ('r1', '1', 'Unknown', '2026-01-01T00:00:00Z')`,
	); err != nil {
		t.Fatalf("expected response without references to insert: %v", err)
	}

	for _, migration := range []string{
		"00002_inspection_responses.down.sql",
		"00001_inspection_catalog.down.sql",
	} {
		if err := execSQLMigration(ctx, db, sqliteMigrations, migration); err != nil {
			t.Fatalf("apply migration %s: %v", migration, err)
		}
	}
	if count := countTables(t, db, "inspection_responses"); count != 0 {
		t.Fatalf("expected inspection_responses to be dropped after down migration")
	}
}

func countTables(t *testing.T, db *sql.DB, tableName string) int {
	t.Helper()
	var count int
	if err := db.QueryRowContext(
		context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		tableName,
	).Scan(&count); err != nil {
		t.Fatalf("query sqlite_master for %s: %v", tableName, err)
	}
	return count
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
