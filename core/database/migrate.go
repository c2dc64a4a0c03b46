package database

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/meteobot/core/logger"
)

const (
	readyTimeout  = 30 * time.Second
	readyInterval = 2 * time.Second
)

// upFile is one forward migration, e.g. 0001_weather_lookups.up.sql.
type upFile struct {
	version uint64
	name    string
}

// upFiles lists the forward migrations in dir ordered by version. Files
// without a numeric prefix are ignored.
func upFiles(fsys fs.FS, dir string) []upFile {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil
	}
	files := make([]upFile, 0, len(matches))
	for _, m := range matches {
		name := path.Base(m)
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, upFile{version: v, name: name})
	}
	slices.SortFunc(files, func(a, b upFile) int {
		return cmp.Or(cmp.Compare(a.version, b.version), strings.Compare(a.name, b.name))
	})
	return files
}

// between names the files with from < version <= to.
func between(files []upFile, from, to uint64) []string {
	var names []string
	for _, f := range files {
		if f.version > from && f.version <= to {
			names = append(names, f.name)
		}
	}
	return names
}

// RunMigrations waits for the server and applies every pending up migration
// in dir of fsys.
func RunMigrations(cfg Config, fsys fs.FS, dir string) error {
	ctx := logger.Background()
	if err := WaitForPostgres(ctx, cfg.DSN(), readyTimeout, readyInterval); err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", "fail"), slog.Any("err", err))
		return fmt.Errorf("database not ready: %w", err)
	}

	files := upFiles(fsys, dir)
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", "fail"), slog.Any("err", err))
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	attrs := []slog.Attr{
		slog.Int("files_total", len(files)),
		slog.Uint64("from_ver", uint64(from)),
		slog.Duration("duration", logger.Took(start)),
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
			append(attrs, slog.String("status", "skip"))...)
		return nil
	}
	if upErr != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "apply",
			append(attrs, slog.String("status", "fail"), slog.Any("err", upErr))...)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	to, _, _ := m.Version()
	applied := between(files, uint64(from), uint64(to))
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary", append(attrs,
		slog.String("status", "ok"),
		slog.Uint64("to_ver", uint64(to)),
		slog.String("applied", strings.Join(applied, ",")),
	)...)
	return nil
}
