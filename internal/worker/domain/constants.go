package domain

// Job status constants
const (
	JobStatusPending   = "PENDING"
	JobStatusProcessed = "PROCESSED"
	JobStatusErrored   = "ERRORED"
	JobStatusAbandoned = "ABANDONED"
)

// Match kind constants
const (
	KindPost    = "post"
	KindComment = "comment"
)
