package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalize(t *testing.T) {
	disabled := Config{}
	require.NoError(t, disabled.Normalize())

	incomplete := Config{Enabled: true, Host: "db"}
	require.Error(t, incomplete.Normalize())

	cfg := Config{Enabled: true, Host: "db", Name: "meteo", User: "bot"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 5, cfg.MaxConnections)
}

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss/word", Name: "meteo", SSLMode: "disable"}
	assert.Equal(t, "postgres://bot:p%40ss%2Fword@db:5432/meteo?sslmode=disable", cfg.URL())
	assert.Contains(t, cfg.DSN(), "dbname=meteo")
}

func TestUpFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0010_c.up.sql":   {},
		"migrations/0002_b.up.sql":   {},
		"migrations/0001_a.up.sql":   {},
		"migrations/0001_a.down.sql": {},
		"migrations/seed.up.sql":     {},
		"migrations/README.md":       {},
	}
	files := upFiles(fsys, "migrations")
	require.Len(t, files, 3)
	assert.Equal(t, upFile{version: 10, name: "0010_c.up.sql"}, files[2])

	assert.Equal(t, []string{"0002_b.up.sql", "0010_c.up.sql"}, between(files, 1, 10))
	assert.Empty(t, between(files, 10, 10))
	assert.Empty(t, upFiles(fsys, "missing"))
}
