// Package journal records completed weather lookups for operators.
package journal

import (
	"context"
	"embed"
	"time"
)

// Migrations holds the schema for the PostgreSQL journal.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Lookup modes.
const (
	ModeCity     = "city"
	ModeLocation = "location"
)

// Lookup outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "fail"
)

// Entry is one completed lookup.
type Entry struct {
	At        time.Time `db:"at" json:"at"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ChatID    int64     `db:"chat_id" json:"chat_id"`
	Mode      string    `db:"mode" json:"mode"`
	Query     string    `db:"query" json:"query"`
	Outcome   string    `db:"outcome" json:"outcome"`
	ErrorKind string    `db:"error_kind" json:"error_kind,omitempty"`
	Place     string    `db:"place" json:"place,omitempty"`
	TempC     float64   `db:"temp_c" json:"temp_c"`
}

// Summary aggregates the journal.
type Summary struct {
	Total     int            `json:"total"`
	ByMode    map[string]int `json:"by_mode"`
	ByOutcome map[string]int `json:"by_outcome"`
	// Recent lists the newest entries first.
	Recent []Entry `json:"recent"`
}

// Recorder accepts completed lookups.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store is a Recorder that can also summarize what it holds.
type Store interface {
	Recorder
	Summary(ctx context.Context, recent int) (Summary, error)
}

func newSummary() Summary {
	return Summary{
		ByMode:    make(map[string]int),
		ByOutcome: make(map[string]int),
	}
}
