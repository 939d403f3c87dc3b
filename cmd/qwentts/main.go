package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/voxkit/qwentts/adapters/qwen"
	"github.com/voxkit/qwentts/domain/entities"
)

func main() {
	godotenv.Load()

	var (
		text    = flag.String("text", "", "text to synthesize (required)")
		voice   = flag.String("voice", "", "voice option, defaults to the service default")
		mode    = flag.String("mode", "", "synthesis mode, defaults to the service default")
		baseURL = flag.String("base-url", "", "service base URL, defaults to the public Space")
		timeout = flag.Duration("timeout", 0, "how long to wait for the result")
		raw     = flag.Bool("raw", false, "print every stream event instead of just the result URL")
		voices  = flag.Bool("voices", false, "list available voices and exit")
		langs   = flag.Bool("languages", false, "list available languages and exit")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	config := qwen.NewConfigFromEnv()
	if *baseURL != "" {
		config.BaseURL = *baseURL
	}
	if *voice != "" {
		config.Voice = *voice
	}
	if *mode != "" {
		config.Mode = *mode
	}
	if *timeout > 0 {
		config.PollTimeout = *timeout
	}

	client, err := qwen.NewClient(config, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch {
	case *voices:
		listChoices(ctx, client.Voices)
		return
	case *langs:
		listChoices(ctx, client.Languages)
		return
	}

	if *text == "" {
		fmt.Fprintln(os.Stderr, "error: -text is required")
		flag.Usage()
		os.Exit(2)
	}

	if *raw {
		streamEvents(ctx, client, config, *text)
		return
	}

	audioURL, err := client.Synthesize(ctx, *text)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if audioURL == "" {
		fmt.Fprintln(os.Stderr, "no result: the job failed or timed out")
		os.Exit(1)
	}

	fmt.Println(audioURL)
}

// streamEvents drives the low-level API: one submission, then every
// classified event printed as it arrives.
func streamEvents(ctx context.Context, client *qwen.Client, config qwen.Config, text string) {
	tokenLength := config.TokenLength
	if tokenLength == 0 {
		tokenLength = 9
	}
	sessionHash, err := qwen.NewSessionToken(tokenLength)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ack, err := client.Submit(ctx, entities.JobRequest{
		Text:        text,
		SessionHash: sessionHash,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Printf("submitted session=%s event_id=%s rank=%d\n", sessionHash, ack.EventID, ack.Rank)

	events, err := client.Events(ctx, sessionHash)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	start := time.Now()
	for event := range events {
		if event.Err != nil {
			fmt.Fprintln(os.Stderr, "stream error:", event.Err)
			os.Exit(1)
		}
		fmt.Printf("%8.2fs  %-10s %s\n", time.Since(start).Seconds(), event.Type, event.Msg)
		if event.Type == entities.EventCompleted {
			if audioURL, err := qwen.ExtractArtifact(event); err == nil {
				fmt.Println(audioURL)
			}
		}
	}
}

func listChoices(ctx context.Context, fetch func(context.Context) ([]string, error)) {
	choices, err := fetch(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	for _, choice := range choices {
		fmt.Println(choice)
	}
}
