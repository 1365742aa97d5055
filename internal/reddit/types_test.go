package reddit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuspulse/social-pulse/internal/worker/domain"
)

const searchListingJSON = `{
	"kind": "Listing",
	"data": {
		"children": [
			{"kind": "t3", "data": {
				"id": "p1",
				"title": "AI Hackathon this weekend",
				"selftext": "Sign up now",
				"author": "organizer",
				"created_utc": 1750000000,
				"permalink": "/r/programming/comments/p1/",
				"url": "https://example.com/p1"
			}},
			{"kind": "t5", "data": {"id": "sub1"}}
		]
	}
}`

const commentListingJSON = `{
	"kind": "Listing",
	"data": {
		"children": [
			{"kind": "t1", "data": {
				"id": "c1",
				"body": "sounds great",
				"author": "student",
				"created_utc": 1750000100,
				"link_id": "t3_p1"
			}},
			{"kind": "more", "data": {"id": "m1"}},
			{"kind": "t1", "data": {
				"id": "c2",
				"body": "count me in",
				"author": "another",
				"created_utc": 1750000200,
				"link_id": "t3_p1"
			}}
		]
	}
}`

func TestListingPosts(t *testing.T) {
	var listing thingListing
	require.NoError(t, json.Unmarshal([]byte(searchListingJSON), &listing))

	posts := listing.posts()

	require.Len(t, posts, 1)
	assert.Equal(t, domain.KindPost, posts[0].Kind)
	assert.Equal(t, "p1", posts[0].ExternalID)
	assert.Equal(t, "AI Hackathon this weekend", posts[0].Title)
	assert.Equal(t, "Sign up now", posts[0].Body)
	assert.Equal(t, "organizer", posts[0].Author)
	assert.Equal(t, time.Unix(1750000000, 0).UTC(), posts[0].CreatedAt)
	assert.Equal(t, "/r/programming/comments/p1/", posts[0].Extra["permalink"])
	assert.Equal(t, "https://example.com/p1", posts[0].Extra["url"])
}

func TestListingComments(t *testing.T) {
	var listing thingListing
	require.NoError(t, json.Unmarshal([]byte(commentListingJSON), &listing))

	t.Run("keeps top-level comments, drops more stubs", func(t *testing.T) {
		comments := listing.comments(50)

		require.Len(t, comments, 2)
		assert.Equal(t, domain.KindComment, comments[0].Kind)
		assert.Equal(t, "c1", comments[0].ExternalID)
		assert.Equal(t, "sounds great", comments[0].Body)
		assert.Equal(t, "t3_p1", comments[0].Extra["link_id"])
		assert.Equal(t, "c2", comments[1].ExternalID)
	})

	t.Run("respects the limit", func(t *testing.T) {
		comments := listing.comments(1)
		require.Len(t, comments, 1)
		assert.Equal(t, "c1", comments[0].ExternalID)
	})
}

func TestEpochTime(t *testing.T) {
	assert.True(t, epochTime(0).IsZero())
	assert.Equal(t, time.Unix(1750000000, 0).UTC(), epochTime(1750000000))
}
