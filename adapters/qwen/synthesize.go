package qwen

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxkit/qwentts/domain/entities"
)

// Option overrides one of the client's defaults for a single call.
type Option func(*callOptions)

type callOptions struct {
	voice   string
	mode    string
	timeout time.Duration
}

// WithVoice selects the voice for this call.
func WithVoice(voice string) Option {
	return func(o *callOptions) { o.voice = voice }
}

// WithMode selects the synthesis mode for this call.
func WithMode(mode string) Option {
	return func(o *callOptions) { o.mode = mode }
}

// WithTimeout bounds how long this call waits for a terminal event.
func WithTimeout(timeout time.Duration) Option {
	return func(o *callOptions) { o.timeout = timeout }
}

// Synthesize submits text for synthesis and blocks until the job
// produces an audio URL, fails, or the poll timeout elapses. The empty
// string is returned when no artifact was produced, with the outcome
// recorded in the log; an error is returned only for invalid input,
// never for ordinary remote failure or timeout. Callers that need to
// react to individual lifecycle transitions should use Submit and
// Events directly.
func (c *Client) Synthesize(ctx context.Context, text string, opts ...Option) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	options := callOptions{
		voice:   c.voice,
		mode:    c.mode,
		timeout: c.pollTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	// Exactly one fresh token per call.
	sessionHash, err := c.tokenGen(c.tokenLength)
	if err != nil {
		return "", err
	}

	job := entities.JobRequest{
		Text:        text,
		Voice:       options.voice,
		Mode:        options.mode,
		FnIndex:     c.fnIndex,
		TriggerID:   c.triggerID,
		SessionHash: sessionHash,
	}

	if _, err := c.Submit(ctx, job); err != nil {
		c.logger.Error("Failed to submit synthesis job",
			zap.String("sessionHash", sessionHash),
			zap.Error(err))
		return "", nil
	}

	events, err := c.events(ctx, sessionHash, options.timeout)
	if err != nil {
		c.logger.Error("Failed to open event stream",
			zap.String("sessionHash", sessionHash),
			zap.Error(err))
		return "", nil
	}

	for event := range events {
		if event.Err != nil {
			c.logger.Error("Event stream failed",
				zap.String("sessionHash", sessionHash),
				zap.Error(event.Err))
			return "", nil
		}

		switch event.Type {
		case entities.EventCompleted:
			audioURL, err := ExtractArtifact(event)
			if err != nil {
				c.logger.Error("Completed event without usable artifact",
					zap.String("sessionHash", sessionHash),
					zap.Error(err))
				return "", nil
			}
			c.logger.Info("Synthesis completed",
				zap.String("sessionHash", sessionHash),
				zap.String("audioURL", audioURL))
			return audioURL, nil

		case entities.EventFailed:
			_, err := ExtractArtifact(event)
			c.logger.Warn("Synthesis failed remotely",
				zap.String("sessionHash", sessionHash),
				zap.Error(err))
			return "", nil

		default:
			c.logger.Debug("Synthesis in progress",
				zap.String("sessionHash", sessionHash),
				zap.String("type", string(event.Type)))
		}
	}

	// Channel closed without a terminal event: the deadline won.
	c.logger.Warn("No terminal event before deadline",
		zap.String("sessionHash", sessionHash),
		zap.Duration("timeout", options.timeout))
	return "", nil
}
