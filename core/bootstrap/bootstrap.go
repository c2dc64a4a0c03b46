package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/meteobot/core/config"
	coredatabase "github.com/m3rciful/meteobot/core/database"
	"github.com/m3rciful/meteobot/core/logger"
)

// Options describe the infrastructure to bring up before the bot starts.
// The function fields default to the real implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	// Migrations holds *.up.sql/*.down.sql files under MigrationsDir.
	Migrations    fs.FS
	MigrationsDir string

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(cfg coredatabase.Config, fsys fs.FS, dir string) error
}

func (o Options) withDefaults() Options {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	if o.MigrationsDir == "" {
		o.MigrationsDir = "."
	}
	return o
}

// Result is the infrastructure Run brought up. DB is nil when the database
// is disabled.
type Result struct {
	DB *sqlx.DB
}

// Close releases the infrastructure. Safe on a nil or empty Result.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes logging, then, if the database is enabled, migrates it
// and opens the pool.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts = opts.withDefaults()
	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	ctx := logger.Background()
	if !opts.Database.Enabled {
		logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.connect",
			slog.String("status", "skip"), slog.String("cause", "disabled"))
		return &Result{}, nil
	}
	if opts.Migrations != nil {
		if err := opts.Migrate(opts.Database, opts.Migrations, opts.MigrationsDir); err != nil {
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}
	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	return &Result{DB: db}, nil
}
