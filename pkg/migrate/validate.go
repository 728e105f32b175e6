package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

// Dialects lists the goose dialects that ship migrations.
var Dialects = []string{"sqlite3", "postgres"}

// ValidateDir validates every dialect folder under an on-disk migrations root.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks that each dialect folder has well-formed file names,
// goose annotations, and the same set of versions as the others.
func ValidateFS(fsys fs.FS) error {
	var reference map[string]string
	var referenceDialect string

	for _, dialect := range Dialects {
		versions, err := validateDialect(fsys, dialect)
		if err != nil {
			return err
		}
		if reference == nil {
			reference, referenceDialect = versions, dialect
			continue
		}
		for version, name := range reference {
			if _, ok := versions[version]; !ok {
				return fmt.Errorf("migration %q in %s has no %s counterpart", name, referenceDialect, dialect)
			}
		}
		for version, name := range versions {
			if _, ok := reference[version]; !ok {
				return fmt.Errorf("migration %q in %s has no %s counterpart", name, dialect, referenceDialect)
			}
		}
	}
	return nil
}

func validateDialect(fsys fs.FS, dialect string) (map[string]string, error) {
	entries, err := fs.ReadDir(fsys, dialect)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dialect, err)
	}

	seen := map[string]string{} // version -> filename

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, path.Join(dialect, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}

		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
	}

	return seen, nil
}
