package qwen

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the client. All of them are matchable
// with errors.Is; wrapped transport errors keep their cause reachable
// through errors.Unwrap.
var (
	ErrEmptyText          = errors.New("text cannot be empty")
	ErrInvalidTokenLength = errors.New("session token length must be positive")
	ErrMalformedResponse  = errors.New("malformed service response")
	ErrStreamCorrupted    = errors.New("event stream corrupted")
	ErrMissingArtifact    = errors.New("completed event carries no audio URL")
)

// StatusError reports a non-success HTTP response from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service returned status %d: %s", e.Code, e.Body)
}

// JobFailedError reports that the service itself declared the job
// failed on the event stream. Reason is whatever the service supplied,
// possibly empty.
type JobFailedError struct {
	Reason string
}

func (e *JobFailedError) Error() string {
	if e.Reason == "" {
		return "synthesis job failed remotely"
	}
	return fmt.Sprintf("synthesis job failed remotely: %s", e.Reason)
}
