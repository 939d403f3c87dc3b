package entities

// EventType classifies a frame received on the queue's event stream.
type EventType string

// Supported event types
const (
	EventQueued    EventType = "queued"
	EventStarted   EventType = "started"
	EventHeartbeat EventType = "heartbeat"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventUnknown   EventType = "unknown"
)

// Terminal reports whether an event of this type ends polling for its
// session. Only completed and failed are terminal; everything else,
// including unrecognized types, keeps the stream open.
func (t EventType) Terminal() bool {
	return t == EventCompleted || t == EventFailed
}

// StreamEvent is one classified frame from the event stream.
//
// Payload carries the frame's decoded JSON object as-is, since the
// service is free to attach fields this client has never seen. Msg
// preserves the wire-level discriminator so unknown events stay
// inspectable. Err is set only on the final item of a stream that
// failed mid-flight; such an item carries no payload.
type StreamEvent struct {
	Type    EventType
	Msg     string
	Payload map[string]interface{}
	Err     error
}
