package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/voxkit/qwentts/adapters/qwen"
)

func main() {
	godotenv.Load()

	// Create logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Create TTS client against the public Space (or QWEN_TTS_BASE_URL)
	client, err := qwen.NewClient(qwen.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to create TTS client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// List what the service offers
	voices, err := client.Voices(ctx)
	if err != nil {
		logger.Warn("Failed to list voices", zap.Error(err))
	} else {
		logger.Info("Available voices", zap.Strings("voices", voices))
	}

	// Minnan text sung by the default Minnan voice
	text := "爱拼才会赢"

	logger.Info("Synthesizing text", zap.String("text", text))

	audioURL, err := client.Synthesize(ctx, text)
	if err != nil {
		logger.Fatal("Failed to synthesize text", zap.Error(err))
	}
	if audioURL == "" {
		logger.Fatal("Synthesis produced no result before the deadline")
	}

	fmt.Println("Audio ready:", audioURL)
}
