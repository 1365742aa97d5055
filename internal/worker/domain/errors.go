package domain

import "errors"

var (
	// ErrEventNotFound is returned when a job references an event that does not exist
	ErrEventNotFound = errors.New("event not found")

	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrTargetNotFound is returned when a search target does not exist on the social platform
	ErrTargetNotFound = errors.New("target not found")

	// ErrTargetForbidden is returned when a search target exists but is not accessible
	ErrTargetForbidden = errors.New("target forbidden")

	// ErrMaxAttemptsExceeded is returned when a job has exhausted its retry budget
	ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")
)

// RetryableError wraps transient errors that leave the job eligible for reclaim
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err should leave the job open for another attempt
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}
