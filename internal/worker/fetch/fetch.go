// Package fetch executes a search plan against the social platform, one
// target at a time, isolating per-post failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

// Site is the social-platform capability consumed by the fetcher. Search and
// Hot return posts; Comments returns up to limit top-level comments of a post.
type Site interface {
	Search(ctx context.Context, subreddit, query, sort string, limit int) ([]domain.RawItem, error)
	Hot(ctx context.Context, subreddit string, limit int) ([]domain.RawItem, error)
	Comments(ctx context.Context, postID string, limit int) ([]domain.RawItem, error)
}

// Fetcher fetches matching posts and their comments for one target.
type Fetcher struct {
	site   Site
	logger *slog.Logger
}

// New creates a Fetcher over the given site capability.
func New(site Site, logger *slog.Logger) *Fetcher {
	return &Fetcher{site: site, logger: logger}
}

// Fetch searches target for query (newest first) and collects each matched
// post followed by its top-level comments. Failing to fetch comments for one
// post is logged and never aborts the remaining posts. An error is returned
// only when no strategy could produce posts for the target; the caller skips
// the target and continues with the rest of the plan.
func (f *Fetcher) Fetch(ctx context.Context, target, query string, maxPosts, maxComments int) ([]domain.RawItem, error) {
	posts, err := f.searchWithFallback(ctx, target, query, maxPosts)
	if err != nil {
		return nil, err
	}

	items := make([]domain.RawItem, 0, len(posts))
	for _, post := range posts {
		post.SourceTarget = target
		items = append(items, post)

		comments, err := f.site.Comments(ctx, post.ExternalID, maxComments)
		if err != nil {
			f.logger.Warn("Failed to fetch comments, continuing with next post",
				slog.String("target", target),
				slog.String("post_id", post.ExternalID),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, comment := range comments {
			comment.SourceTarget = target
			comment.ParentPostID = post.ExternalID
			items = append(items, comment)
		}
	}

	return items, nil
}

// searchWithFallback tries the primary search, then the query as a plain
// subreddit's hot listing, then a search of r/all.
func (f *Fetcher) searchWithFallback(ctx context.Context, target, query string, maxPosts int) ([]domain.RawItem, error) {
	posts, err := f.site.Search(ctx, target, query, "new", maxPosts)
	if err == nil {
		return posts, nil
	}

	if !isTargetUnavailable(err) {
		return nil, fmt.Errorf("search %q: %w", target, err)
	}

	f.logger.Warn("Target not searchable, trying hot listing fallback",
		slog.String("target", target),
		slog.String("error", err.Error()),
	)

	posts, hotErr := f.site.Hot(ctx, query, maxPosts)
	if hotErr == nil {
		return posts, nil
	}

	posts, allErr := f.site.Search(ctx, "all", query, "new", maxPosts)
	if allErr == nil {
		return posts, nil
	}

	return nil, fmt.Errorf("all fetch strategies failed for %q: %w", target, allErr)
}

func isTargetUnavailable(err error) bool {
	return errors.Is(err, domain.ErrTargetNotFound) || errors.Is(err, domain.ErrTargetForbidden)
}
