package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
	"github.com/campuspulse/social-pulse/internal/worker/plan"
)

// processJob runs the pipeline for one claimed job and records the outcome.
// Failures are recorded on the job and never escape to the cycle.
func (w *Worker) processJob(ctx context.Context, job domain.Job) {
	logger := w.logger.With(
		slog.String("job_id", job.ID),
		slog.String("event_id", job.EventID),
		slog.Int("attempts", job.Attempts),
	)

	if job.Attempts > w.maxAttempts {
		reason := fmt.Sprintf("attempts %d exceeded max %d", job.Attempts, w.maxAttempts)
		if err := w.store.MarkAbandoned(ctx, job.ID, reason); err != nil {
			logger.Error("Failed to abandon job",
				slog.String("error", err.Error()),
			)
		}
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	event, err := w.store.GetEvent(callCtx, job.EventID)
	cancel()
	if err != nil {
		reason := fmt.Sprintf("resolve event %s: %s", job.EventID, err)
		if errors.Is(err, domain.ErrEventNotFound) {
			reason = fmt.Sprintf("event %s not found", job.EventID)
		}
		logger.Error("Failed to resolve event",
			slog.String("error", err.Error()),
		)
		if markErr := w.store.MarkErrored(ctx, job.ID, reason); markErr != nil {
			logger.Error("Failed to record job error",
				slog.String("error", markErr.Error()),
			)
		}
		return
	}

	if err := w.processEvent(ctx, *event); err != nil {
		logger.Error("Pipeline failed",
			slog.String("error", err.Error()),
		)
		if markErr := w.store.MarkErrored(ctx, job.ID, err.Error()); markErr != nil {
			logger.Error("Failed to record job error",
				slog.String("error", markErr.Error()),
			)
		}
		return
	}

	if err := w.store.MarkProcessed(ctx, job.ID); err != nil {
		logger.Error("Failed to mark job processed",
			slog.String("error", err.Error()),
		)
	}
}

// processEvent runs plan -> fetch -> transform -> persist for one event.
// An event with no derivable keywords, or one that already has matches, is
// skipped successfully. A failing target is logged and skipped; the remaining
// targets still run. Non-duplicate persistence failures make the whole event
// retryable.
func (w *Worker) processEvent(ctx context.Context, event domain.Event) error {
	logger := w.logger.With(slog.String("event_id", event.ID))

	searchPlan, ok := plan.Build(event)
	if !ok {
		logger.Info("No keywords derivable, skipping event")
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	exists, err := w.store.HasMatches(callCtx, event.ID)
	cancel()
	if err != nil {
		return domain.NewRetryableError(fmt.Errorf("check existing matches: %w", err))
	}
	if exists {
		logger.Info("Event already has matches, skipping")
		return nil
	}

	var inserted, skipped, failed int
	var firstFailure error

	for _, target := range searchPlan.Targets {
		fetchCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
		items, err := w.fetcher.Fetch(fetchCtx, target, searchPlan.Query, w.maxPosts, w.maxComments)
		cancel()
		if err != nil {
			logger.Warn("Target fetch failed, continuing with remaining targets",
				slog.String("target", target),
				slog.String("error", err.Error()),
			)
			continue
		}

		records := make([]domain.MatchRecord, 0, len(items))
		for _, item := range items {
			records = append(records, w.transformer.ToRecord(event.ID, item, target))
		}
		if len(records) == 0 {
			continue
		}

		persistCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
		outcome := w.store.InsertMatches(persistCtx, records)
		cancel()

		inserted += outcome.Inserted
		skipped += outcome.SkippedDuplicate
		failed += len(outcome.Failed)
		if firstFailure == nil && len(outcome.Failed) > 0 {
			firstFailure = outcome.Failed[0].Reason
		}
	}

	logger.Info("Event processed",
		slog.String("query", searchPlan.Query),
		slog.Int("targets", len(searchPlan.Targets)),
		slog.Int("inserted", inserted),
		slog.Int("skipped_duplicate", skipped),
		slog.Int("failed", failed),
	)

	if failed > 0 {
		return domain.NewRetryableError(fmt.Errorf("persist failed for %d records: %w", failed, firstFailure))
	}

	return nil
}
