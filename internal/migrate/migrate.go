package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/phrazzld/pgfixture/internal/platform/logger"
)

// DefaultTable is the table goose records applied versions in.
const DefaultTable = "schema_migrations"

// Errors returned by Load and Apply.
var (
	ErrDirNotFound = errors.New("migrations directory not found")
	ErrApply       = errors.New("failed to apply migrations")
)

// Set is a migration set read from a directory.
type Set struct {
	dir  string
	fsys fs.FS
}

// Load returns the migration set stored in dir. The directory must exist; an
// empty directory is a valid set with nothing to apply.
func Load(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %w", ErrDirNotFound, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirNotFound, dir)
	}
	return &Set{dir: dir, fsys: os.DirFS(dir)}, nil
}

// FromFS returns a migration set backed by fsys, e.g. an embed.FS sub-tree.
// label is used in error messages only.
func FromFS(fsys fs.FS, label string) *Set {
	return &Set{dir: label, fsys: fsys}
}

// Dir returns the directory (or label) the set was loaded from.
func (s *Set) Dir() string {
	return s.dir
}

// Files lists the migration source files in the set, sorted by name.
func (s *Set) Files() []string {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch path.Ext(entry.Name()) {
		case ".sql", ".go":
			names = append(names, entry.Name())
		}
	}
	return names
}

// Apply runs every pending migration against db in version order and returns
// the versions it applied. table names the goose version table; empty means
// DefaultTable. Progress is logged to the logger carried by ctx. When a
// migration fails, the versions applied before it are still returned
// alongside the error.
func (s *Set) Apply(ctx context.Context, db *sql.DB, table string) ([]int64, error) {
	log := logger.FromContext(ctx)
	if table == "" {
		table = DefaultTable
	}

	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create version store: %w", ErrApply, err)
	}

	provider, err := goose.NewProvider("", db, s.fsys, goose.WithStore(store))
	if err != nil {
		if errors.Is(err, goose.ErrNoMigrations) {
			log.Debug("no migrations to apply", "migrations_dir", s.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to load migrations from %s: %w", ErrApply, s.dir, err)
	}

	results, err := provider.Up(ctx)
	applied := logResults(log, results)

	if err != nil {
		var partial *goose.PartialError
		if errors.As(err, &partial) {
			applied = logResults(log, partial.Applied)
			if partial.Failed != nil && partial.Failed.Source != nil {
				return applied, fmt.Errorf("%w: migration %s (version %d) failed: %w",
					ErrApply, path.Base(partial.Failed.Source.Path), partial.Failed.Source.Version, partial.Err)
			}
		}
		return applied, fmt.Errorf("%w in %s (available migrations: %s): %w",
			ErrApply, s.dir, strings.Join(s.Files(), ", "), err)
	}

	log.Debug("migrations applied", "migrations_dir", s.dir, "count", len(applied))
	return applied, nil
}

func logResults(log *slog.Logger, results []*goose.MigrationResult) []int64 {
	versions := make([]int64, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		versions = append(versions, r.Source.Version)
		log.Debug("applied migration",
			"version", r.Source.Version,
			"file", path.Base(r.Source.Path),
			"duration_ms", r.Duration.Milliseconds(),
		)
	}
	return versions
}
