package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration
type Config struct {
	ServerURL           string        // websocket endpoint, session id is appended as a path segment
	WriteTimeout        time.Duration // per-message write deadline
	PlaybackFade        time.Duration // declick fade window
	CaptureFrameSamples int           // samples per outbound audio frame
	ImageChunkSize      int           // max characters per image_chunk payload
	MaxQueueChunks      int           // pending playback chunks before drops
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		ServerURL:           "ws://localhost:8000/ws",
		WriteTimeout:        10 * time.Second,
		PlaybackFade:        20 * time.Millisecond,
		CaptureFrameSamples: 4096,
		ImageChunkSize:      60_000,
		MaxQueueChunks:      256,
	}

	// Optional: SERVER_URL
	if url := os.Getenv("SERVER_URL"); url != "" {
		config.ServerURL = url
	}

	// Optional: WRITE_TIMEOUT (in seconds)
	if timeout := os.Getenv("WRITE_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
		}
		config.WriteTimeout = time.Duration(t) * time.Second
	}

	// Optional: PLAYBACK_FADE_MS
	if fade := os.Getenv("PLAYBACK_FADE_MS"); fade != "" {
		f, err := strconv.Atoi(fade)
		if err != nil {
			return nil, fmt.Errorf("invalid PLAYBACK_FADE_MS: %w", err)
		}
		config.PlaybackFade = time.Duration(f) * time.Millisecond
	}

	// Optional: CAPTURE_FRAME_SAMPLES
	if frame := os.Getenv("CAPTURE_FRAME_SAMPLES"); frame != "" {
		n, err := strconv.Atoi(frame)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid CAPTURE_FRAME_SAMPLES: %q", frame)
		}
		config.CaptureFrameSamples = n
	}

	// Optional: IMAGE_CHUNK_SIZE
	if chunk := os.Getenv("IMAGE_CHUNK_SIZE"); chunk != "" {
		n, err := strconv.Atoi(chunk)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid IMAGE_CHUNK_SIZE: %q", chunk)
		}
		config.ImageChunkSize = n
	}

	// Optional: MAX_QUEUE_CHUNKS
	if max := os.Getenv("MAX_QUEUE_CHUNKS"); max != "" {
		n, err := strconv.Atoi(max)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_QUEUE_CHUNKS: %w", err)
		}
		config.MaxQueueChunks = n
	}

	return config, nil
}
