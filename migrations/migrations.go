// Package migrations embeds the SQL schema files.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.sql
var files embed.FS

// Names returns the migration files for direction "up" or "down" in the
// order they must run.
func Names(direction string) ([]string, error) {
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("direction must be up or down, got %q", direction)
	}

	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	suffix := "." + direction + ".sql"
	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), suffix) {
			names = append(names, entry.Name())
		}
	}

	slices.Sort(names)
	if direction == "down" {
		slices.Reverse(names)
	}

	return names, nil
}

// Run applies every migration for direction, calling onFile before each one.
func Run(ctx context.Context, db *sql.DB, direction string, onFile func(name string)) (int, error) {
	names, err := Names(direction)
	if err != nil {
		return 0, err
	}

	for _, name := range names {
		content, err := fs.ReadFile(files, name)
		if err != nil {
			return 0, fmt.Errorf("read migration file %s: %w", name, err)
		}
		if onFile != nil {
			onFile(name)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return 0, fmt.Errorf("execute migration %s: %w", name, err)
		}
	}

	return len(names), nil
}
