package repositories

import "context"

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
