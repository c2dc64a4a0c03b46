package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/meteobot/core/logger"
)

// Postgres persists the journal in the weather_lookups table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection. The schema comes from Migrations.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

const insertLookup = `
INSERT INTO weather_lookups (at, user_id, chat_id, mode, query, outcome, error_kind, place, temp_c)
VALUES (:at, :user_id, :chat_id, :mode, :query, :outcome, :error_kind, :place, :temp_c)`

// Record inserts e.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	start := time.Now()
	if _, err := p.db.NamedExecContext(ctx, insertLookup, e); err != nil {
		return fmt.Errorf("journal: insert lookup: %w", err)
	}
	if logger.ShouldSampleDebug() {
		logger.SVCJournal.LogAttrs(ctx, slog.LevelDebug, "",
			slog.String("event", "journal.insert"),
			slog.String("mode", e.Mode),
			slog.String("outcome", e.Outcome),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}

type countRow struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// Summary aggregates the table and loads the newest entries.
func (p *Postgres) Summary(ctx context.Context, recent int) (Summary, error) {
	s := newSummary()
	if err := p.db.GetContext(ctx, &s.Total, `SELECT count(*) FROM weather_lookups`); err != nil {
		return Summary{}, fmt.Errorf("journal: count lookups: %w", err)
	}

	var modes []countRow
	if err := p.db.SelectContext(ctx, &modes,
		`SELECT mode AS key, count(*) AS count FROM weather_lookups GROUP BY mode`); err != nil {
		return Summary{}, fmt.Errorf("journal: group by mode: %w", err)
	}
	for _, r := range modes {
		s.ByMode[r.Key] = r.Count
	}

	var outcomes []countRow
	if err := p.db.SelectContext(ctx, &outcomes,
		`SELECT outcome AS key, count(*) AS count FROM weather_lookups GROUP BY outcome`); err != nil {
		return Summary{}, fmt.Errorf("journal: group by outcome: %w", err)
	}
	for _, r := range outcomes {
		s.ByOutcome[r.Key] = r.Count
	}

	if recent > 0 {
		if err := p.db.SelectContext(ctx, &s.Recent,
			`SELECT at, user_id, chat_id, mode, query, outcome, error_kind, place, temp_c
			 FROM weather_lookups ORDER BY at DESC, id DESC LIMIT $1`, recent); err != nil {
			return Summary{}, fmt.Errorf("journal: recent lookups: %w", err)
		}
	}
	return s, nil
}
