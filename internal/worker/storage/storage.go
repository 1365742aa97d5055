// Package storage handles all database operations for the worker: job
// claiming and outcome bookkeeping, event lookup, the match-record dedup
// gate, and the discovery watermark.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

// Storage executes the worker's queries against PostgreSQL.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimJobs claims up to batch unprocessed jobs, oldest first, incrementing
// attempts before any work begins so a crash mid-processing still reflects a
// consumed attempt. SKIP LOCKED keeps concurrent worker instances from
// claiming the same rows.
func (s *Storage) ClaimJobs(ctx context.Context, batch int) ([]domain.Job, error) {
	query := `
		UPDATE jobs
		SET attempts = attempts + 1,
		    updated_at = NOW()
		WHERE id IN (
			SELECT id FROM jobs
			WHERE processed = FALSE
			  AND status <> $1
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, status, processed, attempts, last_error, created_at, completed_at
	`

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, domain.JobStatusAbandoned, batch); err != nil {
		return nil, fmt.Errorf("failed to claim jobs: %w", err)
	}

	return jobs, nil
}

// MarkProcessed transitions a job to its PROCESSED terminal state.
func (s *Storage) MarkProcessed(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    processed = TRUE,
		    last_error = NULL,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusProcessed, jobID); err != nil {
		return fmt.Errorf("failed to mark job processed: %w", err)
	}

	s.logger.Info("Job processed",
		slog.String("job_id", jobID),
	)

	return nil
}

// MarkErrored records a failure reason and leaves the job eligible for a
// future claim cycle.
func (s *Storage) MarkErrored(ctx context.Context, jobID, reason string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusErrored, reason, jobID); err != nil {
		return fmt.Errorf("failed to mark job errored: %w", err)
	}

	return nil
}

// MarkAbandoned transitions a job to its ABANDONED terminal state; claim
// queries exclude it forever after.
func (s *Storage) MarkAbandoned(ctx context.Context, jobID, reason string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    last_error = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, domain.JobStatusAbandoned, reason, jobID); err != nil {
		return fmt.Errorf("failed to mark job abandoned: %w", err)
	}

	s.logger.Warn("Job abandoned",
		slog.String("job_id", jobID),
		slog.String("reason", reason),
	)

	return nil
}

// eventRow is the raw events row; tags and subreddits are serialized lists
// written by the submission system.
type eventRow struct {
	ID          string         `db:"id"`
	Title       sql.NullString `db:"title"`
	Description sql.NullString `db:"description"`
	Tags        sql.NullString `db:"tags"`
	Subreddits  sql.NullString `db:"subreddits"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r eventRow) toEvent() domain.Event {
	return domain.Event{
		ID:          r.ID,
		Title:       r.Title.String,
		Description: r.Description.String,
		Tags:        domain.DecodeList(r.Tags.String),
		Subreddits:  domain.DecodeList(r.Subreddits.String),
		CreatedAt:   r.CreatedAt,
	}
}

// GetEvent retrieves an event by id.
func (s *Storage) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `
		SELECT id, title, description, tags, subreddits, created_at
		FROM events
		WHERE id = $1
	`

	var row eventRow
	if err := s.db.GetContext(ctx, &row, query, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event := row.toEvent()
	return &event, nil
}

// ListEventsSince retrieves events created after the watermark, oldest first.
// Used by the watermark discovery mode instead of job claiming.
func (s *Storage) ListEventsSince(ctx context.Context, since time.Time) ([]domain.Event, error) {
	query := `
		SELECT id, title, description, tags, subreddits, created_at
		FROM events
		WHERE created_at > $1
		ORDER BY created_at ASC
	`

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}

	return events, nil
}

// HasMatches reports whether any match record exists for the event. Used as
// an event-level fetch-saving shortcut; the uniqueness constraint on
// (event_id, external_id) remains the correctness guarantee.
func (s *Storage) HasMatches(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM match_records WHERE event_id = $1)`

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, eventID); err != nil {
		return false, fmt.Errorf("failed to check existing matches: %w", err)
	}

	return exists, nil
}

// InsertMatches persists records one at a time. A record that already exists
// under (event_id, external_id) is an expected duplicate, counted and
// absorbed silently; any other failure is retryable and surfaced with the
// offending record.
func (s *Storage) InsertMatches(ctx context.Context, records []domain.MatchRecord) domain.PersistOutcome {
	query := `
		INSERT INTO match_records
			(event_id, external_id, source, kind, title, body, author, sentiment, observed_at, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id, external_id) DO NOTHING
	`

	var outcome domain.PersistOutcome
	for _, record := range records {
		extra, err := json.Marshal(record.Extra)
		if err != nil {
			outcome.Failed = append(outcome.Failed, domain.FailedRecord{
				Record: record,
				Reason: fmt.Errorf("failed to encode extra payload: %w", err),
			})
			continue
		}

		result, err := s.db.ExecContext(ctx, query,
			record.EventID,
			record.ExternalID,
			record.Source,
			record.Kind,
			record.Title,
			record.Body,
			record.Author,
			record.Sentiment,
			record.ObservedAt,
			extra,
		)
		if err != nil {
			if isUniqueViolation(err) {
				outcome.SkippedDuplicate++
				continue
			}
			outcome.Failed = append(outcome.Failed, domain.FailedRecord{
				Record: record,
				Reason: domain.NewRetryableError(err),
			})
			continue
		}

		affected, err := result.RowsAffected()
		if err == nil && affected == 0 {
			outcome.SkippedDuplicate++
			continue
		}

		outcome.Inserted++
	}

	return outcome
}

// GetWatermark retrieves the last-processed timestamp for the named scan.
// Returns the zero time if no watermark has been saved.
func (s *Storage) GetWatermark(ctx context.Context, name string) (time.Time, error) {
	query := `SELECT last_seen_at FROM watermarks WHERE name = $1`

	var ts time.Time
	if err := s.db.GetContext(ctx, &ts, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get watermark: %w", err)
	}

	return ts, nil
}

// AdvanceWatermark upserts the watermark so the next cycle scans from ts.
func (s *Storage) AdvanceWatermark(ctx context.Context, name string, ts time.Time) error {
	query := `
		INSERT INTO watermarks (name, last_seen_at, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET last_seen_at = $2, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, name, ts); err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
