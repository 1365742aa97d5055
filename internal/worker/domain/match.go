package domain

import "time"

// RawItem is a post or comment as fetched from the social platform, before
// normalization into a MatchRecord.
type RawItem struct {
	Kind         string
	SourceTarget string
	ExternalID   string
	Title        string
	Body         string
	Author       string
	CreatedAt    time.Time
	ParentPostID string
	Extra        map[string]string
}

// MatchRecord is a normalized, deduplicated stored result linked to an event.
// (event_id, external_id) is the idempotency key: a record is created once and
// never updated or deleted.
type MatchRecord struct {
	EventID    string            `db:"event_id"`
	ExternalID string            `db:"external_id"`
	Source     string            `db:"source"`
	Kind       string            `db:"kind"`
	Title      string            `db:"title"`
	Body       string            `db:"body"`
	Author     string            `db:"author"`
	Sentiment  float64           `db:"sentiment"`
	ObservedAt time.Time         `db:"observed_at"`
	Extra      map[string]string `db:"-"`
}

// FailedRecord pairs a record that could not be persisted with the reason.
type FailedRecord struct {
	Record MatchRecord
	Reason error
}

// PersistOutcome summarizes a persistence attempt for a batch of records.
type PersistOutcome struct {
	Inserted         int
	SkippedDuplicate int
	Failed           []FailedRecord
}
