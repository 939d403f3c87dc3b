package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/voxkit/qwentts/internal/stub"
)

func main() {
	godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	config := stub.Config{
		AudioURL:      os.Getenv("STUB_AUDIO_URL"),
		FailureReason: os.Getenv("STUB_FAILURE_REASON"),
	}
	if delay := os.Getenv("STUB_EVENT_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.EventDelay = d
		}
	}

	server := stub.New(config, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "7860"
	}

	go func() {
		if err := server.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the stub server", zap.Error(err))
		}
	}()

	logger.Info("Stub TTS service started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Stub server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Stub server forced to shutdown", zap.Error(err))
	}

	logger.Info("Stub server exited")
}
