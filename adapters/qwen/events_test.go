package qwen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/voxkit/qwentts/domain/entities"
)

func TestClassifyFrame(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantType entities.EventType
		wantOK   bool
	}{
		{
			name:     "estimation maps to queued",
			frame:    `{"msg":"estimation","rank":0,"queue_size":3}`,
			wantType: entities.EventQueued,
			wantOK:   true,
		},
		{
			name:     "process_starts maps to started",
			frame:    `{"msg":"process_starts"}`,
			wantType: entities.EventStarted,
			wantOK:   true,
		},
		{
			name:     "heartbeat",
			frame:    `{"msg":"heartbeat"}`,
			wantType: entities.EventHeartbeat,
			wantOK:   true,
		},
		{
			name:     "successful completion",
			frame:    `{"msg":"process_completed","success":true,"output":{}}`,
			wantType: entities.EventCompleted,
			wantOK:   true,
		},
		{
			name:     "unsuccessful completion maps to failed",
			frame:    `{"msg":"process_completed","success":false}`,
			wantType: entities.EventFailed,
			wantOK:   true,
		},
		{
			name:     "completion without success flag maps to failed",
			frame:    `{"msg":"process_completed"}`,
			wantType: entities.EventFailed,
			wantOK:   true,
		},
		{
			name:     "unrecognized message type maps to unknown",
			frame:    `{"msg":"progress","progress_data":[]}`,
			wantType: entities.EventUnknown,
			wantOK:   true,
		},
		{
			name:     "object without msg field maps to unknown",
			frame:    `{"foo":"bar"}`,
			wantType: entities.EventUnknown,
			wantOK:   true,
		},
		{
			name:   "not JSON at all",
			frame:  "<<garbage>>",
			wantOK: false,
		},
		{
			name:   "JSON array is not a frame object",
			frame:  `[1,2,3]`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := classifyFrame(tt.frame)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantType, event.Type)
				assert.NotNil(t, event.Payload)
			}
		})
	}
}

// sseHandler streams the given frames and then either returns, closing
// the stream, or hangs until the client disconnects.
func sseHandler(t *testing.T, frames []string, hang bool) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session_hash") == "" {
			http.Error(w, "session_hash is required", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}

		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
		if hang {
			<-r.Context().Done()
		}
	}
}

func collect(t *testing.T, events <-chan entities.StreamEvent) []entities.StreamEvent {
	t.Helper()
	var got []entities.StreamEvent
	for event := range events {
		got = append(got, event)
	}
	return got
}

func newStreamClient(t *testing.T, baseURL string, pollTimeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, PollTimeout: pollTimeout}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestEvents_TerminatesOnCompletion(t *testing.T) {
	completed := `{"msg":"process_completed","success":true,"output":{"data":[{"url":"https://host/audio.wav"}]}}`
	frames := []string{
		`{"msg":"estimation","rank":0}`,
		`{"msg":"something_new"}`,
		`{"msg":"another_new_thing"}`,
		`{"msg":"yet_another"}`,
		completed,
		`{"msg":"heartbeat"}`, // must never reach the consumer
	}
	server := httptest.NewServer(sseHandler(t, frames, true))
	defer server.Close()

	client := newStreamClient(t, server.URL, 5*time.Second)

	events, err := client.Events(context.Background(), "abc123def")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 5)

	assert.Equal(t, entities.EventQueued, got[0].Type)
	for _, event := range got[1:4] {
		assert.Equal(t, entities.EventUnknown, event.Type)
	}
	assert.Equal(t, entities.EventCompleted, got[4].Type)
	for _, event := range got {
		assert.NoError(t, event.Err)
	}
}

func TestEvents_TerminatesOnFailure(t *testing.T) {
	frames := []string{
		`{"msg":"process_starts"}`,
		`{"msg":"process_completed","success":false,"output":{"error":"synthesis exploded"}}`,
	}
	server := httptest.NewServer(sseHandler(t, frames, true))
	defer server.Close()

	client := newStreamClient(t, server.URL, 5*time.Second)

	events, err := client.Events(context.Background(), "abc123def")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	assert.Equal(t, entities.EventStarted, got[0].Type)
	assert.Equal(t, entities.EventFailed, got[1].Type)
}

func TestEvents_DeadlineExpiry(t *testing.T) {
	frames := []string{
		`{"msg":"heartbeat"}`,
		`{"msg":"heartbeat"}`,
		`{"msg":"heartbeat"}`,
	}
	server := httptest.NewServer(sseHandler(t, frames, true))
	defer server.Close()

	client := newStreamClient(t, server.URL, 300*time.Millisecond)

	start := time.Now()
	events, err := client.Events(context.Background(), "abc123def")
	require.NoError(t, err)

	got := collect(t, events)
	elapsed := time.Since(start)

	// Only heartbeats, then a quiet close: no error item, and the
	// deadline respected within a small margin.
	for _, event := range got {
		assert.Equal(t, entities.EventHeartbeat, event.Type)
		assert.NoError(t, event.Err)
	}
	assert.Less(t, elapsed, 2*time.Second)
}

func TestEvents_ToleratesMalformedFrames(t *testing.T) {
	frames := []string{
		"not json",
		`{"msg":"estimation"}`,
		"still not json",
		"%%%",
		`{"msg":"process_completed","success":true,"output":{"data":[{"url":"https://host/a.wav"}]}}`,
	}
	server := httptest.NewServer(sseHandler(t, frames, true))
	defer server.Close()

	client := newStreamClient(t, server.URL, 5*time.Second)

	events, err := client.Events(context.Background(), "abc123def")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	assert.Equal(t, entities.EventQueued, got[0].Type)
	assert.Equal(t, entities.EventCompleted, got[1].Type)
}

func TestEvents_StreamCorruption(t *testing.T) {
	frames := make([]string, 0, maxMalformedFrames+1)
	for i := 0; i <= maxMalformedFrames; i++ {
		frames = append(frames, fmt.Sprintf("garbage frame %d", i))
	}
	server := httptest.NewServer(sseHandler(t, frames, true))
	defer server.Close()

	client := newStreamClient(t, server.URL, 5*time.Second)

	events, err := client.Events(context.Background(), "abc123def")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, ErrStreamCorrupted)
}

func TestEvents_CleanStreamEndWithoutTerminal(t *testing.T) {
	frames := []string{`{"msg":"estimation"}`}
	server := httptest.NewServer(sseHandler(t, frames, false))
	defer server.Close()

	client := newStreamClient(t, server.URL, 5*time.Second)

	events, err := client.Events(context.Background(), "abc123def")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, entities.EventQueued, got[0].Type)
	assert.NoError(t, got[0].Err)
}

func TestEvents_CallerAbandonment(t *testing.T) {
	disconnected := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"msg\":\"heartbeat\"}\n\n")
		flusher.Flush()
		<-r.Context().Done()
		close(disconnected)
	}))
	defer server.Close()

	client := newStreamClient(t, server.URL, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := client.Events(ctx, "abc123def")
	require.NoError(t, err)

	<-events // consume the first event, then walk away
	cancel()

	// Abandonment must tear down the connection...
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("Server never saw the client disconnect")
	}

	// ...and the channel must close instead of leaking the goroutine.
	select {
	case _, open := <-events:
		for open {
			_, open = <-events
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Event channel never closed")
	}
}

func TestEvents_HTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such session", http.StatusNotFound)
	}))
	defer server.Close()

	client := newStreamClient(t, server.URL, time.Second)

	_, err := client.Events(context.Background(), "abc123def")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestEvents_EmptySessionHash(t *testing.T) {
	client := newStreamClient(t, "http://localhost:7860", time.Second)

	_, err := client.Events(context.Background(), "")
	assert.Error(t, err)
}

func TestEvents_ScopedToSessionHash(t *testing.T) {
	sawHash := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawHash <- r.URL.Query().Get("session_hash")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"msg\":\"process_completed\",\"success\":true}\n\n")
	}))
	defer server.Close()

	client := newStreamClient(t, server.URL, time.Second)

	events, err := client.Events(context.Background(), "zxy987abc")
	require.NoError(t, err)
	collect(t, events)

	assert.Equal(t, "zxy987abc", <-sawHash)
}

func TestEvents_ErrorsAreTerminal(t *testing.T) {
	// The error item, when present, must be the last thing delivered.
	frames := make([]string, 0, maxMalformedFrames+2)
	frames = append(frames, `{"msg":"estimation"}`)
	for i := 0; i <= maxMalformedFrames; i++ {
		frames = append(frames, "junk")
	}
	server := httptest.NewServer(sseHandler(t, frames, true))
	defer server.Close()

	client := newStreamClient(t, server.URL, 5*time.Second)

	events, err := client.Events(context.Background(), "abc123def")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	require.NoError(t, got[0].Err)
	assert.True(t, errors.Is(got[1].Err, ErrStreamCorrupted))
}
