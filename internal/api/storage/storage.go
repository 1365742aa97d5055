// Package storage provides the read-only queries behind the status API.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Storage runs the status API's read queries.
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// JobCounts returns the number of jobs per status.
func (s *Storage) JobCounts(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM jobs GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// MatchCount returns the total number of stored match records.
func (s *Storage) MatchCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM match_records`); err != nil {
		return 0, fmt.Errorf("failed to count match records: %w", err)
	}
	return count, nil
}

// EventMatch is a match record row as exposed by the status API.
type EventMatch struct {
	ExternalID string    `db:"external_id" json:"external_id"`
	Source     string    `db:"source" json:"source"`
	Kind       string    `db:"kind" json:"kind"`
	Title      string    `db:"title" json:"title,omitempty"`
	Author     string    `db:"author" json:"author,omitempty"`
	Sentiment  float64   `db:"sentiment" json:"sentiment"`
	ObservedAt time.Time `db:"observed_at" json:"observed_at"`
}

// EventMatches lists the newest match records for an event.
func (s *Storage) EventMatches(ctx context.Context, eventID string, limit int) ([]EventMatch, error) {
	query := `
		SELECT external_id, source, kind, title, author, sentiment, observed_at
		FROM match_records
		WHERE event_id = $1
		ORDER BY observed_at DESC
		LIMIT $2
	`

	var matches []EventMatch
	if err := s.db.SelectContext(ctx, &matches, query, eventID, limit); err != nil {
		return nil, fmt.Errorf("failed to list event matches: %w", err)
	}
	return matches, nil
}
