package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"realvoice/audio"
	"realvoice/config"
	"realvoice/transcript"
	"realvoice/wire"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeBufferSize = 256
	readLimit       = 512 * 1024 // 512KB max message
)

// ErrChannelClosed is returned when a send is attempted with no open
// channel. It is non-fatal: the message is dropped and logged.
var ErrChannelClosed = errors.New("outbound channel closed")

// Session is one client connection to the agent server. It owns the capture
// and playback pipelines, the transcript reconciler, and the passive logs,
// and routes every inbound event through the dispatcher in receipt order.
type Session struct {
	ID         string
	Playback   *audio.Queue
	Capture    *audio.Capture
	Transcript *transcript.Reconciler
	Events     *EventLog
	Tools      *ToolLog

	conn       *websocket.Conn
	cfg        *config.Config
	dispatcher *Dispatcher

	// Use a channel for non-blocking writes; writePump is the only
	// goroutine touching the connection's write side.
	writeChan chan []byte

	mu        sync.RWMutex
	closed    bool
	CloseChan chan struct{}
}

// NewSession dials the agent server and assembles the pipeline. The session
// id is generated once per client lifetime and appended to the endpoint path.
func NewSession(cfg *config.Config, engine audio.Engine, source audio.Source) (*Session, error) {
	id := "session_" + uuid.New().String()
	endpoint := strings.TrimRight(cfg.ServerURL, "/") + "/" + id

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	conn.SetReadLimit(readLimit)

	s := &Session{
		ID:         id,
		conn:       conn,
		cfg:        cfg,
		Playback:   audio.NewQueue(engine, cfg.PlaybackFade, cfg.MaxQueueChunks),
		Transcript: transcript.NewReconciler(),
		Events:     NewEventLog(),
		Tools:      NewToolLog(),
		writeChan:  make(chan []byte, writeBufferSize),
		CloseChan:  make(chan struct{}),
	}
	s.Capture = audio.NewCapture(source, s, cfg.CaptureFrameSamples)
	s.dispatcher = NewDispatcher(s.Playback, s, s.Transcript, s.Events, s.Tools)

	return s, nil
}

// Start launches the pumps and acquires the capture device. A capture
// failure is returned to be surfaced to the user; the session stays usable
// for playback and transcript updates.
func (s *Session) Start() error {
	go s.writePump()
	go s.readLoop()

	if err := s.Capture.Start(); err != nil {
		log.Printf("❌ [%s] Failed to start audio capture: %v", s.shortID(), err)
		return err
	}
	log.Printf("✅ [%s] Session established", s.shortID())
	return nil
}

// Send serializes one control or media message and queues it for the write
// pump. Each call is a single atomic message; order of issue is preserved.
func (s *Session) Send(msg *wire.Message) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrChannelClosed
	}

	data, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}

	select {
	case s.writeChan <- data:
		return nil
	case <-s.CloseChan:
		return ErrChannelClosed
	default:
		// Queue full, drop message (shouldn't happen with proper sizing)
		return fmt.Errorf("write queue full, dropping %s message", msg.Type)
	}
}

// SendAudio emits one microphone frame.
func (s *Session) SendAudio(samples []int16) error {
	return s.Send(wire.NewAudioMessage(samples))
}

// Interrupt asks the agent to abandon its current turn.
func (s *Session) Interrupt() error {
	return s.Send(wire.NewInterruptMessage())
}

// CommitAudio asks the server to commit the input audio buffer.
func (s *Session) CommitAudio() error {
	return s.Send(wire.NewCommitAudioMessage())
}

// ToggleMute flips the capture mute gate and returns the new state.
func (s *Session) ToggleMute() bool {
	muted := !s.Capture.Muted()
	s.Capture.SetMuted(muted)
	return muted
}

// SendImage interrupts the agent, stops local playback, and transfers the
// image payload in chunks. The transcript gains a local user entry
// immediately for feedback.
func (s *Session) SendImage(prompt, dataURL string) error {
	s.Playback.Cancel()
	if err := s.Interrupt(); err != nil {
		return err
	}

	id := "img_" + uuid.New().String()
	log.Printf("📤 [%s] Sending image %s (%d chars)", s.shortID(), id, len(dataURL))
	if err := SendChunked(s, id, prompt, dataURL, s.cfg.ImageChunkSize); err != nil {
		return err
	}

	s.Transcript.AddLocalImage("user", dataURL, prompt)
	return nil
}

// SendImageFile reads an image from disk and sends it as a base64 data URL.
func (s *Session) SendImageFile(path, prompt string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(data)
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return s.SendImage(prompt, dataURL)
}

// writePump handles all outgoing messages in a single goroutine
func (s *Session) writePump() {
	defer func() {
		// Send close message before exiting
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}()

	for {
		select {
		case <-s.CloseChan:
			return
		case data := <-s.writeChan:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Drain whatever else is already queued before blocking.
			n := len(s.writeChan)
			for i := 0; i < n; i++ {
				select {
				case data := <-s.writeChan:
					if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
						return
					}
				default:
				}
			}
		}
	}
}

// readLoop processes inbound messages strictly in receipt order.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.CloseChan:
			return
		default:
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				if !s.IsClosed() {
					log.Printf("🔌 [%s] Read error, closing session: %v", s.shortID(), err)
				}
				return
			}

			ev, err := wire.ParseEvent(data)
			if err != nil {
				log.Printf("⚠️ [%s] Ignoring unparseable event: %v", s.shortID(), err)
				continue
			}
			s.dispatcher.Dispatch(ev)
		}
	}
}

// IsClosed returns whether the session is closed
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close terminates the session and cleans up resources
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Signal close (stops writePump and readLoop)
	close(s.CloseChan)

	// Release the capture device deterministically.
	s.Capture.Stop()

	// Drop pending playback and shut the engine down.
	s.Playback.Close()

	if s.conn != nil {
		s.conn.Close()
	}

	log.Printf("🔌 [%s] Session closed", s.shortID())
	return nil
}

func (s *Session) shortID() string {
	if len(s.ID) > 16 {
		return s.ID[:16]
	}
	return s.ID
}
