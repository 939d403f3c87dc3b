package entities

import (
	"encoding/json"
	"errors"
)

// JobRequest describes one synthesis job to be submitted to the queue.
// SessionHash binds the submission to the event stream that reports its
// progress; every call must use a fresh one.
type JobRequest struct {
	Text        string `json:"text"`
	Voice       string `json:"voice"`
	Mode        string `json:"mode"`
	FnIndex     int    `json:"fn_index"`
	TriggerID   int    `json:"trigger_id"`
	SessionHash string `json:"session_hash"`
}

// QueueAcknowledgement is the service's response to joining the queue.
// It only confirms enqueueing; success or failure of the job itself is
// reported exclusively on the event stream.
type QueueAcknowledgement struct {
	EventID     string          `json:"event_id"`
	Rank        int             `json:"rank"`
	QueueFull   bool            `json:"queue_full"`
	SessionHash string          `json:"session_hash"`
	Raw         json.RawMessage `json:"-"`
}

// Domain validation methods
func (j *JobRequest) Validate() error {
	if j.Text == "" {
		return errors.New("text is required")
	}
	if j.SessionHash == "" {
		return errors.New("session hash is required")
	}
	return nil
}
