package reddit

import (
	"time"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

// thingListing is Reddit's generic Listing envelope.
type thingListing struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

// thing is a single kind-tagged item: "t3" for posts, "t1" for comments.
type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

type thingData struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	LinkID     string  `json:"link_id"`
}

func (l thingListing) posts() []domain.RawItem {
	items := make([]domain.RawItem, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		items = append(items, domain.RawItem{
			Kind:       domain.KindPost,
			ExternalID: child.Data.ID,
			Title:      child.Data.Title,
			Body:       child.Data.SelfText,
			Author:     child.Data.Author,
			CreatedAt:  epochTime(child.Data.CreatedUTC),
			Extra: map[string]string{
				"permalink": child.Data.Permalink,
				"url":       child.Data.URL,
			},
		})
	}
	return items
}

// comments keeps top-level comments only; "more" stubs are dropped.
func (l thingListing) comments(limit int) []domain.RawItem {
	items := make([]domain.RawItem, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		items = append(items, domain.RawItem{
			Kind:       domain.KindComment,
			ExternalID: child.Data.ID,
			Body:       child.Data.Body,
			Author:     child.Data.Author,
			CreatedAt:  epochTime(child.Data.CreatedUTC),
			Extra: map[string]string{
				"link_id": child.Data.LinkID,
			},
		})
		if len(items) == limit {
			break
		}
	}
	return items
}

func epochTime(seconds float64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(seconds), 0).UTC()
}
