package bootstrap

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/meteobot/core/config"
	coredatabase "github.com/m3rciful/meteobot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	assert.Error(t, err)
}

func TestRunDatabaseDisabled(t *testing.T) {
	called := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			called = true
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.False(t, called)
	assert.NoError(t, res.Close())
}

func TestRunMigratesBeforeConnect(t *testing.T) {
	var order []string
	migrations := fstest.MapFS{"migrations/0001_x.up.sql": {Data: []byte("SELECT 1;")}}
	_, err := Run(Options{
		Config:        &coreconfig.Config{},
		Database:      coredatabase.Config{Enabled: true},
		Migrations:    migrations,
		MigrationsDir: "migrations",
		LoggerInit:    noLogger,
		Migrate: func(_ coredatabase.Config, fsys fs.FS, dir string) error {
			assert.Equal(t, "migrations", dir)
			order = append(order, "migrate")
			return nil
		},
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			order = append(order, "connect")
			return nil, errors.New("refused")
		},
	})
	require.Error(t, err)
	assert.Equal(t, []string{"migrate", "connect"}, order)
}

func TestRunLoggerFailure(t *testing.T) {
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("bad level") },
	})
	assert.ErrorContains(t, err, "logger init failed")
}
