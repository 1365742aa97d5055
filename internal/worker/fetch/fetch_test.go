package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

type fakeSite struct {
	searchResults map[string][]domain.RawItem
	searchErrs    map[string]error
	hotResults    map[string][]domain.RawItem
	hotErrs       map[string]error
	commentsByID  map[string][]domain.RawItem
	commentErrs   map[string]error

	searchCalls []string
	hotCalls    []string
}

func (f *fakeSite) Search(_ context.Context, subreddit, _, _ string, _ int) ([]domain.RawItem, error) {
	f.searchCalls = append(f.searchCalls, subreddit)
	if err := f.searchErrs[subreddit]; err != nil {
		return nil, err
	}
	return f.searchResults[subreddit], nil
}

func (f *fakeSite) Hot(_ context.Context, subreddit string, _ int) ([]domain.RawItem, error) {
	f.hotCalls = append(f.hotCalls, subreddit)
	if err := f.hotErrs[subreddit]; err != nil {
		return nil, err
	}
	return f.hotResults[subreddit], nil
}

func (f *fakeSite) Comments(_ context.Context, postID string, _ int) ([]domain.RawItem, error) {
	if err := f.commentErrs[postID]; err != nil {
		return nil, err
	}
	return f.commentsByID[postID], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(id string) domain.RawItem {
	return domain.RawItem{Kind: domain.KindPost, ExternalID: id}
}

func comment(id string) domain.RawItem {
	return domain.RawItem{Kind: domain.KindComment, ExternalID: id}
}

func TestFetch_PostsWithComments(t *testing.T) {
	site := &fakeSite{
		searchResults: map[string][]domain.RawItem{
			"programming": {post("p1"), post("p2")},
		},
		commentsByID: map[string][]domain.RawItem{
			"p1": {comment("c1"), comment("c2")},
		},
	}

	items, err := New(site, testLogger()).Fetch(context.Background(), "programming", "hackathon", 20, 50)

	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "p1", items[0].ExternalID)
	assert.Equal(t, "c1", items[1].ExternalID)
	assert.Equal(t, "p1", items[1].ParentPostID)
	assert.Equal(t, "programming", items[1].SourceTarget)
	assert.Equal(t, "c2", items[2].ExternalID)
	assert.Equal(t, "p2", items[3].ExternalID)
}

func TestFetch_CommentFailureDoesNotAbortSiblings(t *testing.T) {
	site := &fakeSite{
		searchResults: map[string][]domain.RawItem{
			"college": {post("p1"), post("p2")},
		},
		commentErrs: map[string]error{
			"p1": errors.New("comments unavailable"),
		},
		commentsByID: map[string][]domain.RawItem{
			"p2": {comment("c5")},
		},
	}

	items, err := New(site, testLogger()).Fetch(context.Background(), "college", "q", 20, 50)

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "p1", items[0].ExternalID)
	assert.Equal(t, "p2", items[1].ExternalID)
	assert.Equal(t, "c5", items[2].ExternalID)
}

func TestFetch_HotListingFallback(t *testing.T) {
	site := &fakeSite{
		searchErrs: map[string]error{
			"ghost_town": domain.ErrTargetNotFound,
		},
		hotResults: map[string][]domain.RawItem{
			"hackathon": {post("h1")},
		},
	}

	items, err := New(site, testLogger()).Fetch(context.Background(), "ghost_town", "hackathon", 20, 50)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "h1", items[0].ExternalID)
	assert.Equal(t, "ghost_town", items[0].SourceTarget)
	assert.Equal(t, []string{"hackathon"}, site.hotCalls)
}

func TestFetch_AllSearchFallback(t *testing.T) {
	site := &fakeSite{
		searchErrs: map[string]error{
			"ghost_town": domain.ErrTargetForbidden,
		},
		hotErrs: map[string]error{
			"hackathon": domain.ErrTargetNotFound,
		},
		searchResults: map[string][]domain.RawItem{
			"all": {post("a1")},
		},
	}

	items, err := New(site, testLogger()).Fetch(context.Background(), "ghost_town", "hackathon", 20, 50)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a1", items[0].ExternalID)
	assert.Equal(t, []string{"ghost_town", "all"}, site.searchCalls)
}

func TestFetch_EveryStrategyFailing(t *testing.T) {
	site := &fakeSite{
		searchErrs: map[string]error{
			"ghost_town": domain.ErrTargetNotFound,
			"all":        errors.New("rate limited"),
		},
		hotErrs: map[string]error{
			"hackathon": domain.ErrTargetNotFound,
		},
	}

	items, err := New(site, testLogger()).Fetch(context.Background(), "ghost_town", "hackathon", 20, 50)

	require.Error(t, err)
	assert.Nil(t, items)
}

func TestFetch_TransientSearchErrorIsNotRetriedViaFallback(t *testing.T) {
	site := &fakeSite{
		searchErrs: map[string]error{
			"college": errors.New("timeout"),
		},
	}

	_, err := New(site, testLogger()).Fetch(context.Background(), "college", "q", 20, 50)

	require.Error(t, err)
	assert.Empty(t, site.hotCalls)
}
