// Package stub emulates the Gradio queue protocol of the Qwen TTS
// Space for local development: queue join, the SSE event stream, and
// the configuration endpoint. It lets the client and applications
// built on it run without touching the real Space.
package stub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Config holds configuration for the stub server
type Config struct {
	// AudioURL is returned inside every completion event. When empty,
	// a URL pointing back at the stub itself is synthesized.
	AudioURL string
	// EventDelay is the pause between successive stream events.
	EventDelay time.Duration
	// FailureReason, when set, makes every job report a remote failure
	// carrying this reason instead of completing.
	FailureReason string
	// Silent suppresses terminal events entirely; the stream emits
	// heartbeats until the client goes away. Useful for exercising
	// deadline behavior.
	Silent bool
}

// Server is the stub service.
type Server struct {
	echo   *echo.Echo
	config Config
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]jobParams
}

type jobParams struct {
	text  string
	voice string
	mode  string
}

type joinRequest struct {
	Data        []interface{} `json:"data"`
	FnIndex     int           `json:"fn_index"`
	TriggerID   int           `json:"trigger_id"`
	SessionHash string        `json:"session_hash"`
}

// New creates a stub server.
func New(config Config, logger *zap.Logger) *Server {
	s := &Server{
		config: config,
		logger: logger,
		jobs:   make(map[string]jobParams),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "qwentts-stub",
		})
	})
	e.POST("/gradio_api/queue/join", s.joinQueue)
	e.GET("/gradio_api/queue/data", s.streamEvents)
	e.GET("/config", s.serviceConfig)
	e.GET("/stub/audio.wav", s.audioFile)

	s.echo = e
	return s
}

// Handler exposes the stub as an http.Handler, which is how tests
// mount it on an httptest server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the stub on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the stub gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) joinQueue(c echo.Context) error {
	var req joinRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Error("Failed to bind join request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request format",
		})
	}

	if req.SessionHash == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "session_hash is required",
		})
	}
	if len(req.Data) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "data is required",
		})
	}

	params := jobParams{}
	if text, ok := req.Data[0].(string); ok {
		params.text = text
	}
	if len(req.Data) > 1 {
		params.voice, _ = req.Data[1].(string)
	}
	if len(req.Data) > 2 {
		params.mode, _ = req.Data[2].(string)
	}
	if params.text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "text is required",
		})
	}

	s.mu.Lock()
	s.jobs[req.SessionHash] = params
	rank := len(s.jobs)
	s.mu.Unlock()

	s.logger.Info("Job joined stub queue",
		zap.String("sessionHash", req.SessionHash),
		zap.String("voice", params.voice))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"event_id":   uuid.NewString(),
		"rank":       rank,
		"queue_full": false,
	})
}

func (s *Server) streamEvents(c echo.Context) error {
	sessionHash := c.QueryParam("session_hash")
	if sessionHash == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "session_hash is required",
		})
	}

	s.mu.Lock()
	_, known := s.jobs[sessionHash]
	delete(s.jobs, sessionHash)
	s.mu.Unlock()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	write := func(frame string) error {
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", frame); err != nil {
			return err
		}
		resp.Flush()
		s.pause(c.Request().Context())
		return nil
	}

	if !known {
		// The real service also streams for hashes it has never seen;
		// it simply has nothing to report beyond heartbeats.
		s.logger.Warn("Stream requested for unknown session",
			zap.String("sessionHash", sessionHash))
	}

	if s.config.Silent {
		for c.Request().Context().Err() == nil {
			if err := write(`{"msg":"heartbeat"}`); err != nil {
				return nil
			}
		}
		return nil
	}

	if err := write(`{"msg":"estimation","rank":0,"queue_size":1}`); err != nil {
		return nil
	}
	if err := write(`{"msg":"process_starts"}`); err != nil {
		return nil
	}

	if s.config.FailureReason != "" {
		frame := fmt.Sprintf(
			`{"msg":"process_completed","success":false,"output":{"error":%q}}`,
			s.config.FailureReason)
		_ = write(frame)
		return nil
	}

	audioURL := s.config.AudioURL
	if audioURL == "" {
		audioURL = "http://" + c.Request().Host + "/stub/audio.wav"
	}
	frame := fmt.Sprintf(
		`{"msg":"process_completed","success":true,"output":{"data":[{"url":%q}]}}`,
		audioURL)
	_ = write(frame)
	return nil
}

func (s *Server) serviceConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version": "stub",
		"components": []map[string]interface{}{
			{
				"id":   1,
				"type": "dropdown",
				"props": map[string]interface{}{
					"label": "Voice",
					"choices": [][]string{
						{"Roy / 闽南-阿杰", "Roy"},
						{"Cherry / 芊悦", "Cherry"},
						{"Ethan / 晨煦", "Ethan"},
					},
				},
			},
			{
				"id":   2,
				"type": "dropdown",
				"props": map[string]interface{}{
					"label": "Language",
					"choices": [][]string{
						{"Auto / 自动", "Auto"},
						{"Chinese / 中文", "Chinese"},
						{"English / 英文", "English"},
					},
				},
			},
		},
	})
}

// audioFile serves a minimal valid WAV header so the artifact URL the
// stub hands out actually resolves.
func (s *Server) audioFile(c echo.Context) error {
	header := []byte{
		'R', 'I', 'F', 'F', 36, 0, 0, 0, 'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ', 16, 0, 0, 0, 1, 0, 1, 0,
		0x40, 0x1f, 0, 0, 0x80, 0x3e, 0, 0, 2, 0, 16, 0,
		'd', 'a', 't', 'a', 0, 0, 0, 0,
	}
	return c.Blob(http.StatusOK, "audio/wav", header)
}

func (s *Server) pause(ctx context.Context) {
	if s.config.EventDelay <= 0 {
		return
	}
	select {
	case <-time.After(s.config.EventDelay):
	case <-ctx.Done():
	}
}
