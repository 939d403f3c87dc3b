package speech

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"go.uber.org/zap"

	"github.com/voxkit/qwentts/domain/repositories"
)

// MockSynthesizer is a placeholder implementation of speech synthesis
// for applications that want to run without the remote service. It
// answers every request with a deterministic fake artifact URL.
type MockSynthesizer struct {
	logger *zap.Logger
}

// NewMockSynthesizer creates a new mock synthesizer
func NewMockSynthesizer(logger *zap.Logger) repositories.SpeechSynthesizer {
	return &MockSynthesizer{
		logger: logger,
	}
}

// Synthesize implements repositories.SpeechSynthesizer
func (s *MockSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	s.logger.Info("Processing mock synthesis",
		zap.Int("textLength", len(text)))

	// Deterministic per input, so repeated calls stay comparable
	h := fnv.New32a()
	h.Write([]byte(text))

	return fmt.Sprintf("https://mock.invalid/audio/%08x.wav", h.Sum32()), nil
}
