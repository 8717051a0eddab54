// Package migrations resolves the embedded inspection schema per SQL dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	inspection "github.com/thehariompandey/Resturant-Inspection-Automation-System"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const rootPath = "data/sql/migrations"

// dialectDirs places each dialect's files relative to rootPath.
var dialectDirs = map[Dialect]string{
	DialectPostgres: ".",
	DialectSQLite:   "sqlite",
}

// ParseDialect accepts driver names as well as dialect names.
func ParseDialect(value string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", value)
	}
}

// Source is one dialect's migration tree.
type Source struct {
	Dialect Dialect
	Path    string
	FS      fs.FS
	Files   []string
}

// Up lists the *.up.sql files in apply order.
func (s Source) Up() []string {
	return filterSuffix(s.Files, ".up.sql")
}

// Sources returns every dialect tree found under root, postgres first. A nil
// root selects the embedded schema.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = inspection.GetMigrationsFS()
	}
	dialects := []Dialect{DialectPostgres, DialectSQLite}
	out := make([]Source, 0, len(dialects))
	for _, dialect := range dialects {
		source, err := SourceFor(root, dialect)
		if err != nil {
			return nil, err
		}
		out = append(out, source)
	}
	return out, nil
}

// SourceFor resolves a single dialect tree and requires at least one up/down pair.
func SourceFor(root fs.FS, dialect Dialect) (Source, error) {
	if root == nil {
		root = inspection.GetMigrationsFS()
	}
	dir, ok := dialectDirs[dialect]
	if !ok {
		return Source{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	path := rootPath
	if dir != "." {
		path = rootPath + "/" + dir
	}
	sub, err := fs.Sub(root, path)
	if err != nil {
		return Source{}, fmt.Errorf("migrations: resolve %s tree %q: %w", dialect, path, err)
	}
	files, err := fs.Glob(sub, "*.sql")
	if err != nil {
		return Source{}, fmt.Errorf("migrations: list %s tree %q: %w", dialect, path, err)
	}
	sort.Strings(files)
	source := Source{Dialect: dialect, Path: path, FS: sub, Files: files}
	if err := source.checkPairs(); err != nil {
		return Source{}, err
	}
	return source, nil
}

func (s Source) checkPairs() error {
	ups := s.Up()
	if len(ups) == 0 {
		return fmt.Errorf("migrations: %s tree %q has no *.up.sql files", s.Dialect, s.Path)
	}
	downs := map[string]struct{}{}
	for _, name := range filterSuffix(s.Files, ".down.sql") {
		downs[strings.TrimSuffix(name, ".down.sql")] = struct{}{}
	}
	for _, name := range ups {
		base := strings.TrimSuffix(name, ".up.sql")
		if _, ok := downs[base]; !ok {
			return fmt.Errorf("migrations: %s migration %s has no down file", s.Dialect, base)
		}
	}
	return nil
}

// RegisterFunc receives a dialect tree, typically forwarding it to
// persistence.Client.RegisterSQLMigrations.
type RegisterFunc func(fsys fs.FS)

// Register hands the embedded tree for dialect to register.
func Register(ctx context.Context, register RegisterFunc, dialect Dialect) (Source, error) {
	if register == nil {
		return Source{}, fmt.Errorf("migrations: register function is required")
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Source{}, err
		}
	}
	source, err := SourceFor(nil, dialect)
	if err != nil {
		return Source{}, err
	}
	register(source.FS)
	return source, nil
}

func filterSuffix(files []string, suffix string) []string {
	out := make([]string, 0, len(files))
	for _, name := range files {
		if strings.HasSuffix(name, suffix) {
			out = append(out, name)
		}
	}
	return out
}
