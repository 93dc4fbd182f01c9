package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"realvoice/audio"
	"realvoice/config"
	"realvoice/session"

	"github.com/spf13/cobra"
)

var (
	sendFilePath string
	sendWaitSecs int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Stream an audio file to the agent and play the reply",
	Long: `Streams a PCM or WAV file to the agent server at real-time pace, commits
the input buffer, and plays whatever the agent says back. Useful for
scripted tests without a microphone.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendFilePath, "file", "", "audio file to send (raw PCM or WAV, mono 24kHz s16le)")
	sendCmd.Flags().IntVar(&sendWaitSecs, "wait", 30, "seconds to wait for the agent's reply")
	sendCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	pcm, err := loadAudioFile(sendFilePath)
	if err != nil {
		return fmt.Errorf("failed to load audio: %w", err)
	}
	log.Printf("📤 Streaming %s (%d bytes)", sendFilePath, len(pcm))

	// Play replies through sox when available, otherwise discard.
	var sink io.Writer
	player, err := newSoxPlayer()
	if err != nil {
		log.Printf("⚠️ No audio output, discarding reply audio: %v", err)
		sink = io.Discard
	} else {
		sink = player
	}
	engine := audio.NewStreamEngine(sink)

	source := audio.NewReaderSource(newPacedReader(pcm, audio.SampleRate*2))

	sess, err := session.NewSession(cfg, engine, source)
	if err != nil {
		return err
	}
	defer sess.Close()

	printTranscript(sess)

	if err := sess.Start(); err != nil {
		return err
	}

	// The capture pipeline drains the file source at real-time pace;
	// commit the input buffer once it runs dry.
	go func() {
		streamDur := time.Duration(len(pcm)/2) * time.Second / audio.SampleRate
		time.Sleep(streamDur + 500*time.Millisecond)
		if err := sess.CommitAudio(); err != nil {
			log.Printf("⚠️ Commit failed: %v", err)
		} else {
			log.Println("📤 Audio sent, waiting for response...")
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-sess.CloseChan:
		log.Println("Connection closed")
	case <-interrupt:
		log.Println("👋 Interrupted, closing...")
	case <-time.After(time.Duration(sendWaitSecs) * time.Second):
		log.Println("⏰ Timeout waiting for response")
	}
	return nil
}

// printTranscript logs each transcript entry as it appears or grows.
func printTranscript(sess *session.Session) {
	var mu sync.Mutex
	printed := make(map[int]string)
	sess.Transcript.OnChange(func() {
		mu.Lock()
		defer mu.Unlock()
		for i, e := range sess.Transcript.Entries() {
			line := e.Caption
			if e.Image != "" {
				line = "[image] " + line
			}
			if printed[i] == line {
				continue
			}
			printed[i] = line
			fmt.Printf("📝 %s: %s\n", e.Role, line)
		}
	})
}

// loadAudioFile loads PCM or WAV file and returns raw PCM bytes
func loadAudioFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Check if it's a WAV file (starts with "RIFF")
	if len(data) > 44 && string(data[0:4]) == "RIFF" {
		// Skip WAV header (44 bytes for standard WAV)
		return data[44:], nil
	}

	// Assume raw PCM
	return data, nil
}

// pacedReader feeds bytes at a fixed rate, simulating a live capture device.
type pacedReader struct {
	data        []byte
	off         int
	bytesPerSec int
	start       time.Time
}

func newPacedReader(data []byte, bytesPerSec int) *pacedReader {
	return &pacedReader{data: data, bytesPerSec: bytesPerSec}
}

func (p *pacedReader) Read(b []byte) (int, error) {
	if p.off >= len(p.data) {
		return 0, io.EOF
	}
	if p.start.IsZero() {
		p.start = time.Now()
	}

	// Hold back until wall clock catches up with the stream position.
	due := p.start.Add(time.Duration(p.off) * time.Second / time.Duration(p.bytesPerSec))
	if wait := time.Until(due); wait > 0 {
		time.Sleep(wait)
	}

	n := copy(b, p.data[p.off:])
	p.off += n
	return n, nil
}
