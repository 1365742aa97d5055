package domain

import (
	"database/sql"
	"time"
)

// Job links an event to a processing attempt. Jobs are created by the external
// submission system; the worker claims them, increments attempts, and records
// the outcome. Jobs are never deleted here.
type Job struct {
	ID          string         `db:"id"`
	EventID     string         `db:"event_id"`
	Status      string         `db:"status"`
	Processed   bool           `db:"processed"`
	Attempts    int            `db:"attempts"`
	LastError   sql.NullString `db:"last_error"`
	CreatedAt   time.Time      `db:"created_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
}
