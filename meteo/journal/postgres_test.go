package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meteobot/core/database"
)

// Runs against a disposable PostgreSQL configured through DB_* variables,
// e.g. DB_HOST=localhost DB_USER=postgres DB_NAME=meteobot_test.
func TestPostgresJournal(t *testing.T) {
	if os.Getenv("JOURNAL_PG_TEST") == "" {
		t.Skip("set JOURNAL_PG_TEST=1 and DB_* to run against PostgreSQL")
	}
	cfg := database.Config{
		Enabled:  true,
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
	}
	require.NoError(t, cfg.Normalize())
	require.NoError(t, database.RunMigrations(cfg, Migrations, "migrations"))

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`TRUNCATE weather_lookups`)
	require.NoError(t, err)

	store := NewPostgres(db)
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Record(ctx, Entry{At: at, UserID: 7, ChatID: 7, Mode: ModeCity, Query: "Москва", Outcome: OutcomeOK, Place: "Москва", TempC: 5.3}))
	require.NoError(t, store.Record(ctx, Entry{At: at.Add(time.Second), UserID: 7, ChatID: 7, Mode: ModeCity, Query: "Атлантида", Outcome: OutcomeFailed, ErrorKind: "unknown"}))

	s, err := store.Summary(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 2, s.ByMode[ModeCity])
	assert.Equal(t, 1, s.ByOutcome[OutcomeFailed])
	require.Len(t, s.Recent, 2)
	assert.Equal(t, "Атлантида", s.Recent[0].Query)
	assert.Equal(t, 5.3, s.Recent[1].TempC)
}
