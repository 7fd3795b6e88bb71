package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/msc/internal/database"
)

// MigrationOptions selects where the replay_nonces schema lives and which way to move it.
type MigrationOptions struct {
	Driver           string
	ConnectionString string
	// Dir holds one subdirectory per driver ("postgresql" and "mysql").
	Dir string
	// Down rolls back every applied migration instead of applying pending ones.
	Down   bool
	Format string
}

type migrationResult struct {
	Driver    string `json:"driver"`
	Direction string `json:"direction"`
	Version   uint   `json:"version"`
	Dirty     bool   `json:"dirty"`
	Changed   bool   `json:"changed"`
}

// RunMigrations applies or rolls back the replay_nonces schema for the configured driver
// and reports the resulting schema version.
func RunMigrations(logger *slog.Logger, w io.Writer, opts MigrationOptions) error {
	if err := validateFormat(opts.Format); err != nil {
		return err
	}

	sourceDir, err := migrationSourceDir(opts.Dir, opts.Driver)
	if err != nil {
		return err
	}

	direction := "up"
	if opts.Down {
		direction = "down"
	}
	logger.Info("running database migrations",
		slog.String("driver", opts.Driver),
		slog.String("direction", direction),
	)

	m, err := migrate.New("file://"+filepath.ToSlash(sourceDir), opts.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	step := m.Up
	if opts.Down {
		step = m.Down
	}

	changed := true
	if err := step(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		changed = false
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	result := migrationResult{
		Driver:    opts.Driver,
		Direction: direction,
		Version:   version,
		Dirty:     dirty,
		Changed:   changed,
	}
	if opts.Format == "json" {
		if err := writeJSON(w, result); err != nil {
			return err
		}
	} else if changed {
		_, _ = fmt.Fprintf(w, "Migrated %s schema %s to version %d\n", opts.Driver, direction, version)
	} else {
		_, _ = fmt.Fprintf(w, "%s schema already at version %d, nothing to do\n", opts.Driver, version)
	}

	logger.Info("migrations completed",
		slog.Uint64("version", uint64(version)),
		slog.Bool("changed", changed),
	)
	return nil
}

func migrationSourceDir(dir, driver string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	switch driver {
	case database.DriverPostgres:
		return filepath.Join(dir, "postgresql"), nil
	case database.DriverMySQL:
		return filepath.Join(dir, "mysql"), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}
