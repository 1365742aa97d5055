// Package transform maps fetched posts and comments into normalized match
// records ready for persistence.
package transform

import (
	"time"

	"github.com/campuspulse/social-pulse/internal/sentiment"
	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

// Transformer builds MatchRecords from raw fetched items.
type Transformer struct {
	scorer sentiment.Scorer
	now    func() time.Time
}

// New creates a Transformer using the given sentiment scorer.
func New(scorer sentiment.Scorer) *Transformer {
	return &Transformer{scorer: scorer, now: time.Now}
}

// ToRecord normalizes a raw item into a MatchRecord for the given event.
//
// External ids are namespaced by kind so a post and a comment with the same
// raw id can never collide. Sentiment is scored over title+body for posts and
// body alone for comments; missing fields are empty strings, never errors.
// A missing creation time falls back to the current time.
func (t *Transformer) ToRecord(eventID string, item domain.RawItem, target string) domain.MatchRecord {
	text := item.Body
	if item.Kind == domain.KindPost {
		text = item.Title + " " + item.Body
	}

	observedAt := item.CreatedAt
	if observedAt.IsZero() {
		observedAt = t.now().UTC()
	}

	return domain.MatchRecord{
		EventID:    eventID,
		ExternalID: item.Kind + "_" + item.ExternalID,
		Source:     target,
		Kind:       item.Kind,
		Title:      item.Title,
		Body:       item.Body,
		Author:     item.Author,
		Sentiment:  t.scorer.Score(text),
		ObservedAt: observedAt,
		Extra:      item.Extra,
	}
}
