package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

type fakeStore struct {
	events      map[string]domain.Event
	eventsSince []domain.Event
	hasMatches  map[string]bool
	matchesErr  error
	insertFail  error

	inserted       []domain.MatchRecord
	processedJobs  []string
	erroredJobs    map[string]string
	abandonedJobs  map[string]string
	watermark      time.Time
	watermarkMoved bool
	getEventCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        make(map[string]domain.Event),
		hasMatches:    make(map[string]bool),
		erroredJobs:   make(map[string]string),
		abandonedJobs: make(map[string]string),
	}
}

func (s *fakeStore) ClaimJobs(context.Context, int) ([]domain.Job, error) { return nil, nil }

func (s *fakeStore) MarkProcessed(_ context.Context, jobID string) error {
	s.processedJobs = append(s.processedJobs, jobID)
	return nil
}

func (s *fakeStore) MarkErrored(_ context.Context, jobID, reason string) error {
	s.erroredJobs[jobID] = reason
	return nil
}

func (s *fakeStore) MarkAbandoned(_ context.Context, jobID, reason string) error {
	s.abandonedJobs[jobID] = reason
	return nil
}

func (s *fakeStore) GetEvent(_ context.Context, eventID string) (*domain.Event, error) {
	s.getEventCalls++
	event, ok := s.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &event, nil
}

func (s *fakeStore) ListEventsSince(context.Context, time.Time) ([]domain.Event, error) {
	return s.eventsSince, nil
}

func (s *fakeStore) HasMatches(_ context.Context, eventID string) (bool, error) {
	if s.matchesErr != nil {
		return false, s.matchesErr
	}
	return s.hasMatches[eventID], nil
}

func (s *fakeStore) InsertMatches(_ context.Context, records []domain.MatchRecord) domain.PersistOutcome {
	if s.insertFail != nil {
		failed := make([]domain.FailedRecord, len(records))
		for i, record := range records {
			failed[i] = domain.FailedRecord{Record: record, Reason: domain.NewRetryableError(s.insertFail)}
		}
		return domain.PersistOutcome{Failed: failed}
	}
	s.inserted = append(s.inserted, records...)
	return domain.PersistOutcome{Inserted: len(records)}
}

func (s *fakeStore) GetWatermark(context.Context, string) (time.Time, error) {
	return s.watermark, nil
}

func (s *fakeStore) AdvanceWatermark(_ context.Context, _ string, ts time.Time) error {
	s.watermark = ts
	s.watermarkMoved = true
	return nil
}

type fakeFetcher struct {
	itemsByTarget map[string][]domain.RawItem
	errByTarget   map[string]error
	fetchCalls    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, target, _ string, _, _ int) ([]domain.RawItem, error) {
	f.fetchCalls = append(f.fetchCalls, target)
	if err := f.errByTarget[target]; err != nil {
		return nil, err
	}
	return f.itemsByTarget[target], nil
}

type passthroughTransformer struct{}

func (passthroughTransformer) ToRecord(eventID string, item domain.RawItem, target string) domain.MatchRecord {
	return domain.MatchRecord{
		EventID:    eventID,
		ExternalID: item.Kind + "_" + item.ExternalID,
		Source:     target,
		Kind:       item.Kind,
	}
}

func newTestWorker(store Store, fetcher Fetcher) *Worker {
	return NewWorker(&Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:        store,
		Fetcher:      fetcher,
		Transformer:  passthroughTransformer{},
		Mode:         ModeQueue,
		PollInterval: time.Second,
		CallTimeout:  time.Second,
		MaxPosts:     20,
		MaxComments:  50,
		BatchSize:    10,
		MaxAttempts:  5,
	})
}

func TestProcessJob_AbandonsBeyondMaxAttempts(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{}
	w := newTestWorker(store, fetcher)

	w.processJob(context.Background(), domain.Job{ID: "J1", EventID: "E1", Attempts: 6})

	require.Contains(t, store.abandonedJobs, "J1")
	assert.Contains(t, store.abandonedJobs["J1"], "exceeded max")
	assert.Zero(t, store.getEventCalls)
	assert.Empty(t, fetcher.fetchCalls)
	assert.Empty(t, store.processedJobs)
}

func TestProcessJob_EventNotFound(t *testing.T) {
	store := newFakeStore()
	fetcher := &fakeFetcher{}
	w := newTestWorker(store, fetcher)

	w.processJob(context.Background(), domain.Job{ID: "J1", EventID: "missing", Attempts: 1})

	require.Contains(t, store.erroredJobs, "J1")
	assert.Contains(t, store.erroredJobs["J1"], "not found")
	assert.Empty(t, fetcher.fetchCalls)
	assert.Empty(t, store.processedJobs)
}

func TestProcessJob_EventAlreadyProcessedSkipsFetching(t *testing.T) {
	store := newFakeStore()
	store.events["E1"] = domain.Event{ID: "E1", Title: "AI Hackathon", Tags: []string{"hackathon"}}
	store.hasMatches["E1"] = true
	fetcher := &fakeFetcher{}
	w := newTestWorker(store, fetcher)

	w.processJob(context.Background(), domain.Job{ID: "J1", EventID: "E1", Attempts: 1})

	assert.Empty(t, fetcher.fetchCalls)
	assert.Equal(t, []string{"J1"}, store.processedJobs)
}

func TestProcessJob_NoKeywordsIsSuccessfulSkip(t *testing.T) {
	store := newFakeStore()
	store.events["E1"] = domain.Event{ID: "E1"}
	fetcher := &fakeFetcher{}
	w := newTestWorker(store, fetcher)

	w.processJob(context.Background(), domain.Job{ID: "J1", EventID: "E1", Attempts: 1})

	assert.Empty(t, fetcher.fetchCalls)
	assert.Equal(t, []string{"J1"}, store.processedJobs)
	assert.Empty(t, store.erroredJobs)
}

func TestProcessJob_FailingTargetDoesNotAbortRemainingTargets(t *testing.T) {
	store := newFakeStore()
	store.events["E1"] = domain.Event{
		ID:         "E1",
		Title:      "Crypto Night",
		Subreddits: []string{"blockchain_fans", "programming"},
	}
	fetcher := &fakeFetcher{
		errByTarget: map[string]error{
			"blockchain_fans": domain.ErrTargetNotFound,
		},
		itemsByTarget: map[string][]domain.RawItem{
			"programming": {{Kind: domain.KindPost, ExternalID: "p1"}},
		},
	}
	w := newTestWorker(store, fetcher)

	w.processJob(context.Background(), domain.Job{ID: "J1", EventID: "E1", Attempts: 1})

	assert.Equal(t, []string{"blockchain_fans", "programming"}, fetcher.fetchCalls)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "post_p1", store.inserted[0].ExternalID)
	assert.Equal(t, []string{"J1"}, store.processedJobs)
	assert.Empty(t, store.erroredJobs)
}

func TestProcessJob_PersistFailureLeavesJobRetryable(t *testing.T) {
	store := newFakeStore()
	store.events["E1"] = domain.Event{ID: "E1", Title: "AI Hackathon", Tags: []string{"hackathon"}}
	store.insertFail = errors.New("connection reset")
	fetcher := &fakeFetcher{
		itemsByTarget: map[string][]domain.RawItem{
			"programming": {{Kind: domain.KindPost, ExternalID: "p1"}},
			"technology":  {{Kind: domain.KindPost, ExternalID: "p2"}},
		},
	}
	w := newTestWorker(store, fetcher)

	w.processJob(context.Background(), domain.Job{ID: "J1", EventID: "E1", Attempts: 1})

	require.Contains(t, store.erroredJobs, "J1")
	assert.Contains(t, store.erroredJobs["J1"], "persist failed")
	assert.Empty(t, store.processedJobs)
}

func TestRunWatermarkCycle_AdvancesDespiteFailures(t *testing.T) {
	store := newFakeStore()
	store.eventsSince = []domain.Event{
		{ID: "E1", Title: "AI Hackathon", Tags: []string{"hackathon"}},
	}
	store.matchesErr = errors.New("db unavailable")
	fetcher := &fakeFetcher{}
	w := newTestWorker(store, fetcher)
	w.mode = ModeWatermark

	before := time.Now().UTC()
	w.runCycle(context.Background())

	assert.True(t, store.watermarkMoved)
	assert.False(t, store.watermark.Before(before))
}

func TestSleepDuration_JitterBounds(t *testing.T) {
	w := newTestWorker(newFakeStore(), &fakeFetcher{})
	w.pollInterval = 100 * time.Second

	for i := 0; i < 50; i++ {
		d := w.sleepDuration()
		assert.GreaterOrEqual(t, d, 100*time.Second)
		assert.Less(t, d, 110*time.Second)
	}
}
