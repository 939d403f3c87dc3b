package qwen

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL     = "https://qwen-qwen3-tts-demo.hf.space"
	defaultVoice       = "Roy / 闽南-阿杰"
	defaultMode        = "Auto / 自动"
	defaultFnIndex     = 1
	defaultTriggerID   = 7
	defaultPollTimeout = 30 * time.Second
	defaultTokenLength = 9

	submitTimeout   = 30 * time.Second
	metadataTimeout = 10 * time.Second

	// A stream that keeps producing undecodable frames is broken, not
	// merely ahead of this client. Polling gives up once more than this
	// many frames have been skipped.
	maxMalformedFrames = 5
)

// Config holds configuration for the Qwen TTS client
// All fields are optional and fall back to the public demo Space:
// - BaseURL: The base URL of the Gradio Space (default: "https://qwen-qwen3-tts-demo.hf.space")
// - Voice: The default voice option (default: "Roy / 闽南-阿杰")
// - Mode: The default synthesis mode (default: "Auto / 自动")
// - FnIndex: The Gradio function index of the synthesis endpoint (default: 1)
// - TriggerID: The Gradio trigger identifier (default: 7)
// - PollTimeout: How long to wait for a terminal event (default: 30s)
// - TokenLength: The session token length (default: 9)
// - HTTPClient: The HTTP client to use; must not carry a global timeout,
//   event-stream reads are bounded per call instead
// - TokenGenerator: Replacement session-token source, for deterministic tests
type Config struct {
	BaseURL        string
	Voice          string
	Mode           string
	FnIndex        int
	TriggerID      int
	PollTimeout    time.Duration
	TokenLength    int
	HTTPClient     *http.Client
	TokenGenerator TokenGenerator
}

// ValidateConfig validates the Config
func ValidateConfig(config Config) error {
	if config.PollTimeout < 0 {
		return fmt.Errorf("poll timeout must not be negative, got %s", config.PollTimeout)
	}

	if config.TokenLength < 0 {
		return fmt.Errorf("token length must not be negative, got %d", config.TokenLength)
	}

	if config.FnIndex < 0 {
		return fmt.Errorf("fn index must not be negative, got %d", config.FnIndex)
	}

	return nil
}

// NewConfigFromEnv creates a new Config from environment variables.
// This is a helper function to simplify configuring the client from a
// .env file or the process environment.
func NewConfigFromEnv() Config {
	config := Config{
		BaseURL: os.Getenv("QWEN_TTS_BASE_URL"),
		Voice:   os.Getenv("QWEN_TTS_VOICE"),
		Mode:    os.Getenv("QWEN_TTS_MODE"),
	}

	if fnIndexStr := os.Getenv("QWEN_TTS_FN_INDEX"); fnIndexStr != "" {
		if fnIndex, err := strconv.Atoi(fnIndexStr); err == nil && fnIndex >= 0 {
			config.FnIndex = fnIndex
		}
	}

	if triggerIDStr := os.Getenv("QWEN_TTS_TRIGGER_ID"); triggerIDStr != "" {
		if triggerID, err := strconv.Atoi(triggerIDStr); err == nil && triggerID > 0 {
			config.TriggerID = triggerID
		}
	}

	if timeoutStr := os.Getenv("QWEN_TTS_POLL_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil && timeout > 0 {
			config.PollTimeout = timeout
		}
	}

	if lengthStr := os.Getenv("QWEN_TTS_TOKEN_LENGTH"); lengthStr != "" {
		if length, err := strconv.Atoi(lengthStr); err == nil && length > 0 {
			config.TokenLength = length
		}
	}

	return config
}
