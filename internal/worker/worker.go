// Package worker implements the job scheduler: a single logical claim loop
// that drives the plan/fetch/transform/persist pipeline for each event and
// records job outcomes with bounded retries.
package worker

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

// Discovery modes.
const (
	ModeQueue     = "queue"
	ModeWatermark = "watermark"
)

// eventWatermark names the watermark row used by ModeWatermark.
const eventWatermark = "event_scan"

// jitterCap bounds the random sleep added to each cycle.
const jitterCap = 30 * time.Second

// Store is the storage capability consumed by the scheduler.
type Store interface {
	ClaimJobs(ctx context.Context, batch int) ([]domain.Job, error)
	MarkProcessed(ctx context.Context, jobID string) error
	MarkErrored(ctx context.Context, jobID, reason string) error
	MarkAbandoned(ctx context.Context, jobID, reason string) error
	GetEvent(ctx context.Context, eventID string) (*domain.Event, error)
	ListEventsSince(ctx context.Context, since time.Time) ([]domain.Event, error)
	HasMatches(ctx context.Context, eventID string) (bool, error)
	InsertMatches(ctx context.Context, records []domain.MatchRecord) domain.PersistOutcome
	GetWatermark(ctx context.Context, name string) (time.Time, error)
	AdvanceWatermark(ctx context.Context, name string, ts time.Time) error
}

// Fetcher fetches raw matches for one target of a search plan.
type Fetcher interface {
	Fetch(ctx context.Context, target, query string, maxPosts, maxComments int) ([]domain.RawItem, error)
}

// Transformer normalizes a raw item into a match record.
type Transformer interface {
	ToRecord(eventID string, item domain.RawItem, target string) domain.MatchRecord
}

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	Store        Store
	Fetcher      Fetcher
	Transformer  Transformer
	Mode         string
	PollInterval time.Duration
	CallTimeout  time.Duration
	MaxPosts     int
	MaxComments  int
	BatchSize    int
	MaxAttempts  int

	// Wake, when non-nil, lets an external notifier cut a sleep short.
	Wake <-chan struct{}
}

// Worker is the background scheduler instance.
type Worker struct {
	logger       *slog.Logger
	store        Store
	fetcher      Fetcher
	transformer  Transformer
	mode         string
	pollInterval time.Duration
	callTimeout  time.Duration
	maxPosts     int
	maxComments  int
	batchSize    int
	maxAttempts  int
	wake         <-chan struct{}
	workerID     string
	stopChan     chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	workerID := "worker-" + uuid.New().String()[:8]

	return &Worker{
		logger:       cfg.Logger.With(slog.String("worker_id", workerID)),
		store:        cfg.Store,
		fetcher:      cfg.Fetcher,
		transformer:  cfg.Transformer,
		mode:         cfg.Mode,
		pollInterval: cfg.PollInterval,
		callTimeout:  cfg.CallTimeout,
		maxPosts:     cfg.MaxPosts,
		maxComments:  cfg.MaxComments,
		batchSize:    cfg.BatchSize,
		maxAttempts:  cfg.MaxAttempts,
		wake:         cfg.Wake,
		workerID:     workerID,
		stopChan:     make(chan struct{}),
	}
}

// Start runs the claim loop until the context is canceled or Stop is called.
// A single cycle's failure never terminates the loop.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("mode", w.mode),
		slog.Duration("poll_interval", w.pollInterval),
		slog.Int("batch_size", w.batchSize),
		slog.Int("max_attempts", w.maxAttempts),
	)

	for {
		w.runCycle(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("Worker context canceled, stopping")
			return nil
		case <-w.stopChan:
			w.logger.Info("Worker stop requested")
			return nil
		case <-time.After(w.sleepDuration()):
		case <-w.wake:
			w.logger.Debug("Woken early by notification")
		}
	}
}

// Stop requests the loop to exit at the next cycle boundary.
func (w *Worker) Stop() {
	close(w.stopChan)
}

// runCycle executes one full cycle. Panics and errors are contained here so
// the outer loop always proceeds to sleep and retry.
func (w *Worker) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Cycle panicked",
				slog.Any("panic", r),
			)
		}
	}()

	switch w.mode {
	case ModeWatermark:
		w.runWatermarkCycle(ctx)
	default:
		w.runQueueCycle(ctx)
	}
}

// runQueueCycle claims a batch of jobs and processes each one.
func (w *Worker) runQueueCycle(ctx context.Context) {
	claimCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	jobs, err := w.store.ClaimJobs(claimCtx, w.batchSize)
	cancel()
	if err != nil {
		w.logger.Error("Failed to claim jobs",
			slog.String("error", err.Error()),
		)
		return
	}

	if len(jobs) == 0 {
		w.logger.Debug("No pending jobs")
		return
	}

	w.logger.Info("Claimed jobs",
		slog.Int("count", len(jobs)),
	)

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.processJob(ctx, job)
	}
}

// runWatermarkCycle processes events created since the watermark and advances
// the watermark to the cycle's start time regardless of processing outcome.
// Events that fail in this mode are not retried automatically.
func (w *Worker) runWatermarkCycle(ctx context.Context) {
	since, err := w.store.GetWatermark(ctx, eventWatermark)
	if err != nil {
		w.logger.Error("Failed to read watermark",
			slog.String("error", err.Error()),
		)
		return
	}

	cycleStart := time.Now().UTC()

	events, err := w.store.ListEventsSince(ctx, since)
	if err != nil {
		w.logger.Error("Failed to list events",
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Info("Scanning events",
		slog.Int("count", len(events)),
		slog.Time("since", since),
	)

	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			w.logger.Error("Event processing failed",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := w.store.AdvanceWatermark(ctx, eventWatermark, cycleStart); err != nil {
		w.logger.Error("Failed to advance watermark",
			slog.String("error", err.Error()),
		)
	}
}

// sleepDuration returns the poll interval plus up to 10% random jitter,
// capped, to avoid synchronized retry storms against the API.
func (w *Worker) sleepDuration() time.Duration {
	jitterMax := w.pollInterval / 10
	if jitterMax > jitterCap {
		jitterMax = jitterCap
	}
	if jitterMax <= 0 {
		return w.pollInterval
	}
	return w.pollInterval + time.Duration(rand.Int63n(int64(jitterMax)))
}
