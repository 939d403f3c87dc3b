package qwen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/voxkit/qwentts/domain/entities"
	"github.com/voxkit/qwentts/internal/sse"
)

// Gradio message-type discriminators observed on the queue-data stream.
const (
	msgEstimation       = "estimation"
	msgProcessStarts    = "process_starts"
	msgHeartbeat        = "heartbeat"
	msgProcessCompleted = "process_completed"
)

// classifyFrame decodes one SSE data payload into a typed event. The
// second return is false when the payload is not a JSON object at all;
// such frames are skipped by the poller rather than surfaced.
func classifyFrame(frame string) (entities.StreamEvent, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(frame), &payload); err != nil {
		return entities.StreamEvent{}, false
	}

	msg, _ := payload["msg"].(string)
	event := entities.StreamEvent{Msg: msg, Payload: payload}

	switch msg {
	case msgEstimation:
		event.Type = entities.EventQueued
	case msgProcessStarts:
		event.Type = entities.EventStarted
	case msgHeartbeat:
		event.Type = entities.EventHeartbeat
	case msgProcessCompleted:
		if success, _ := payload["success"].(bool); success {
			event.Type = entities.EventCompleted
		} else {
			event.Type = entities.EventFailed
		}
	default:
		// Message types this client has never seen are passed through,
		// not rejected, so newer service versions keep working.
		event.Type = entities.EventUnknown
	}

	return event, true
}

// Events opens the event stream for a session hash and returns the
// classified events as a channel. The channel is closed after the
// first terminal event, when the configured poll timeout elapses, or
// when ctx is cancelled; a stream that breaks mid-flight delivers one
// final item with Err set. The underlying connection is closed on
// every exit path, including the caller abandoning consumption by
// cancelling ctx. A session hash streams once; polling again requires
// a new submission under a new hash.
func (c *Client) Events(ctx context.Context, sessionHash string) (<-chan entities.StreamEvent, error) {
	return c.events(ctx, sessionHash, c.pollTimeout)
}

func (c *Client) events(ctx context.Context, sessionHash string, timeout time.Duration) (<-chan entities.StreamEvent, error) {
	if sessionHash == "" {
		return nil, errors.New("session hash is required")
	}

	// The deadline covers the whole stream, counted from poll start.
	streamCtx, cancel := context.WithTimeout(ctx, timeout)

	endpoint := fmt.Sprintf("%s/gradio_api/queue/data?session_hash=%s",
		c.baseURL, url.QueryEscape(sessionHash))
	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.Info("Polling event stream", zap.String("sessionHash", sessionHash))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	events := make(chan entities.StreamEvent)

	go func() {
		defer close(events)
		defer resp.Body.Close()
		defer cancel()

		reader := sse.NewReader(resp.Body)
		skipped := 0

		for {
			frame, err := reader.Next()
			if err != nil {
				if err == io.EOF {
					c.logger.Info("Event stream ended without terminal event",
						zap.String("sessionHash", sessionHash))
					return
				}
				if streamCtx.Err() != nil {
					// Deadline expiry or caller cancellation closed the
					// body underneath the reader. Not a stream failure.
					c.logger.Info("Event stream deadline reached",
						zap.String("sessionHash", sessionHash))
					return
				}
				c.send(streamCtx, events, entities.StreamEvent{
					Err: fmt.Errorf("failed to read event stream: %w", err),
				})
				return
			}

			event, ok := classifyFrame(frame)
			if !ok {
				skipped++
				c.logger.Warn("Skipping undecodable frame",
					zap.String("sessionHash", sessionHash),
					zap.Int("skipped", skipped))
				if skipped > maxMalformedFrames {
					c.send(streamCtx, events, entities.StreamEvent{Err: ErrStreamCorrupted})
					return
				}
				continue
			}

			if !c.send(streamCtx, events, event) {
				return
			}
			if event.Type.Terminal() {
				c.logger.Info("Received terminal event",
					zap.String("sessionHash", sessionHash),
					zap.String("type", string(event.Type)))
				return
			}
		}
	}()

	return events, nil
}

// send delivers one event unless the stream context ends first. The
// false return lets the poll loop exit, which closes the connection,
// when the consumer has gone away.
func (c *Client) send(ctx context.Context, events chan<- entities.StreamEvent, event entities.StreamEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
