package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

// recordingScorer returns a fixed score and remembers the text it was given.
type recordingScorer struct {
	score    float64
	lastText string
}

func (s *recordingScorer) Score(text string) float64 {
	s.lastText = text
	return s.score
}

func TestToRecord_Post(t *testing.T) {
	scorer := &recordingScorer{score: 0.75}
	tr := New(scorer)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := tr.ToRecord("E1", domain.RawItem{
		Kind:       domain.KindPost,
		ExternalID: "p1",
		Title:      "AI Hackathon this weekend",
		Body:       "Come join us",
		Author:     "organizer",
		CreatedAt:  created,
		Extra:      map[string]string{"permalink": "/r/programming/p1"},
	}, "programming")

	assert.Equal(t, "E1", record.EventID)
	assert.Equal(t, "post_p1", record.ExternalID)
	assert.Equal(t, "programming", record.Source)
	assert.Equal(t, domain.KindPost, record.Kind)
	assert.Equal(t, 0.75, record.Sentiment)
	assert.Equal(t, created, record.ObservedAt)
	assert.Equal(t, "AI Hackathon this weekend Come join us", scorer.lastText)
}

func TestToRecord_Comment(t *testing.T) {
	scorer := &recordingScorer{score: -0.2}
	tr := New(scorer)

	record := tr.ToRecord("E1", domain.RawItem{
		Kind:       domain.KindComment,
		ExternalID: "c9",
		Body:       "not great",
		Author:     "someone",
		CreatedAt:  time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC),
	}, "programming")

	assert.Equal(t, "comment_c9", record.ExternalID)
	assert.Equal(t, domain.KindComment, record.Kind)
	// comments score the body alone
	assert.Equal(t, "not great", scorer.lastText)
	assert.Equal(t, -0.2, record.Sentiment)
}

func TestToRecord_KindNamespacingAvoidsCollisions(t *testing.T) {
	tr := New(&recordingScorer{})

	post := tr.ToRecord("E1", domain.RawItem{Kind: domain.KindPost, ExternalID: "abc"}, "college")
	comment := tr.ToRecord("E1", domain.RawItem{Kind: domain.KindComment, ExternalID: "abc"}, "college")

	assert.NotEqual(t, post.ExternalID, comment.ExternalID)
}

func TestToRecord_MissingFields(t *testing.T) {
	scorer := &recordingScorer{}
	tr := New(scorer)

	record := tr.ToRecord("E1", domain.RawItem{
		Kind:       domain.KindPost,
		ExternalID: "p2",
	}, "college")

	assert.Equal(t, " ", scorer.lastText)
	assert.Empty(t, record.Title)
	assert.Empty(t, record.Body)
	assert.Empty(t, record.Author)
}

func TestToRecord_ObservedAtFallsBackToNow(t *testing.T) {
	tr := New(&recordingScorer{})
	now := time.Date(2025, 7, 4, 9, 30, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	record := tr.ToRecord("E1", domain.RawItem{
		Kind:       domain.KindComment,
		ExternalID: "c1",
		Body:       "late reply",
	}, "college")

	assert.Equal(t, now, record.ObservedAt)
}
