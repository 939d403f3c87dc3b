// Package qwen implements a client for the Qwen3 TTS Gradio Space.
//
// The Space exposes an asynchronous job queue: a submission joins the
// queue under a caller-generated session token, and progress is then
// reported on a Server-Sent Events stream scoped to that token, ending
// with a terminal event that carries the synthesized audio's URL.
package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxkit/qwentts/domain/entities"
)

// Client talks to one Qwen TTS Space. It holds no per-call state, so a
// single instance is safe for concurrent use; every call generates its
// own session token and owns its own streaming connection.
type Client struct {
	baseURL     string
	voice       string
	mode        string
	fnIndex     int
	triggerID   int
	pollTimeout time.Duration
	tokenLength int
	httpClient  *http.Client
	tokenGen    TokenGenerator
	logger      *zap.Logger
}

// joinRequest is the wire payload of the queue-join endpoint. The
// Gradio API takes the component inputs as an ordered array.
type joinRequest struct {
	Data        []interface{} `json:"data"`
	EventData   interface{}   `json:"event_data"`
	FnIndex     int           `json:"fn_index"`
	TriggerID   int           `json:"trigger_id"`
	SessionHash string        `json:"session_hash"`
}

// NewClient creates a new Qwen TTS client
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	// Validate configuration
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	// Apply defaults where needed
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
		logger.Info("Using default base URL", zap.String("baseURL", baseURL))
	}
	baseURL = strings.TrimRight(baseURL, "/")

	voice := config.Voice
	if voice == "" {
		voice = defaultVoice
		logger.Info("Using default voice", zap.String("voice", voice))
	}

	mode := config.Mode
	if mode == "" {
		mode = defaultMode
		logger.Info("Using default mode", zap.String("mode", mode))
	}

	fnIndex := config.FnIndex
	if fnIndex == 0 {
		fnIndex = defaultFnIndex
	}

	triggerID := config.TriggerID
	if triggerID == 0 {
		triggerID = defaultTriggerID
	}

	pollTimeout := config.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = defaultPollTimeout
		logger.Info("Using default poll timeout", zap.Duration("pollTimeout", pollTimeout))
	}

	tokenLength := config.TokenLength
	if tokenLength == 0 {
		tokenLength = defaultTokenLength
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		// No global Timeout here: it would cap the event stream read.
		// Deadlines are applied per call through contexts.
		httpClient = &http.Client{}
	}

	tokenGen := config.TokenGenerator
	if tokenGen == nil {
		tokenGen = NewSessionToken
	}

	return &Client{
		baseURL:     baseURL,
		voice:       voice,
		mode:        mode,
		fnIndex:     fnIndex,
		triggerID:   triggerID,
		pollTimeout: pollTimeout,
		tokenLength: tokenLength,
		httpClient:  httpClient,
		tokenGen:    tokenGen,
		logger:      logger,
	}, nil
}

// Submit sends one job to the queue-join endpoint. It returns as soon
// as the service acknowledges the submission; completion is observable
// only on the event stream for the job's session hash. No retries are
// attempted, that policy is left to the caller.
func (c *Client) Submit(ctx context.Context, job entities.JobRequest) (*entities.QueueAcknowledgement, error) {
	if strings.TrimSpace(job.Text) == "" {
		return nil, ErrEmptyText
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job request: %w", err)
	}

	// Unset job parameters fall back to the client's configuration.
	if job.Voice == "" {
		job.Voice = c.voice
	}
	if job.Mode == "" {
		job.Mode = c.mode
	}
	if job.FnIndex == 0 {
		job.FnIndex = c.fnIndex
	}
	if job.TriggerID == 0 {
		job.TriggerID = c.triggerID
	}

	payload := joinRequest{
		Data:        []interface{}{job.Text, job.Voice, job.Mode},
		EventData:   nil,
		FnIndex:     job.FnIndex,
		TriggerID:   job.TriggerID,
		SessionHash: job.SessionHash,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal join request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	url := c.baseURL + "/gradio_api/queue/join"
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("Joining synthesis queue",
		zap.String("sessionHash", job.SessionHash),
		zap.Int("textLength", len(job.Text)),
		zap.String("voice", job.Voice))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to join queue: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read join response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	ack := &entities.QueueAcknowledgement{}
	if err := json.Unmarshal(respBody, ack); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	ack.SessionHash = job.SessionHash
	ack.Raw = respBody

	c.logger.Info("Joined synthesis queue",
		zap.String("sessionHash", job.SessionHash),
		zap.String("eventID", ack.EventID),
		zap.Int("rank", ack.Rank))

	return ack, nil
}
