package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var embedded embed.FS

// DefaultDir is the on-disk location used by -cmd=create and -cmd=validate.
const DefaultDir = "pkg/migrate/migrations"

// EmbeddedFS exposes the migrations compiled into the binary.
func EmbeddedFS() fs.FS {
	return embedded
}

// EmbeddedDir returns the embedded directory for a goose dialect.
func EmbeddedDir(dialect string) string {
	return path.Join("migrations", dialect)
}

func prepare(dialect string, fsys fs.FS) error {
	if dialect == "" {
		return fmt.Errorf("dialect is required")
	}
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command against dir. When dir is empty the embedded
// migrations for dialect are used.
func Run(ctx context.Context, db *sql.DB, dialect, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	var fsys fs.FS
	if dir == "" {
		fsys = embedded
		dir = EmbeddedDir(dialect)
	}
	if err := prepare(dialect, fsys); err != nil {
		return err
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending embedded migration.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	return Run(ctx, db, dialect, "", "up")
}

// Version returns the current schema version.
func Version(db *sql.DB, dialect string) (int64, error) {
	if err := prepare(dialect, embedded); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	var fsys fs.FS
	if dir == "" {
		fsys = embedded
		dir = EmbeddedDir(dialect)
	}
	if err := prepare(dialect, fsys); err != nil {
		return err
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil

	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil

	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
