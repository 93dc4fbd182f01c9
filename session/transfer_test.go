package session

import (
	"errors"
	"strings"
	"testing"

	"realvoice/wire"
)

type captureSender struct {
	sent    []*wire.Message
	failAt  int // 1-based send index to fail on, 0 = never
	current int
}

func (s *captureSender) Send(msg *wire.Message) error {
	s.current++
	if s.failAt != 0 && s.current == s.failAt {
		return errors.New("connection reset")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestSendChunkedPartition(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		chunkSize  int
		wantChunks int
	}{
		{name: "empty payload", payload: "", chunkSize: 4, wantChunks: 0},
		{name: "below limit", payload: "abc", chunkSize: 4, wantChunks: 1},
		{name: "exact multiple", payload: "abcdefgh", chunkSize: 4, wantChunks: 2},
		{name: "one over", payload: "abcdefghi", chunkSize: 4, wantChunks: 3},
		{name: "single byte chunks", payload: "xyz", chunkSize: 1, wantChunks: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &captureSender{}
			if err := SendChunked(sender, "img_1", "look", tt.payload, tt.chunkSize); err != nil {
				t.Fatalf("send: %v", err)
			}

			if got := len(sender.sent); got != tt.wantChunks+2 {
				t.Fatalf("sent %d messages, want %d", got, tt.wantChunks+2)
			}

			first := sender.sent[0]
			if first.Type != wire.TypeImageStart || first.ID != "img_1" || first.Text != "look" {
				t.Errorf("start message = %+v", first)
			}
			last := sender.sent[len(sender.sent)-1]
			if last.Type != wire.TypeImageEnd || last.ID != "img_1" {
				t.Errorf("end message = %+v", last)
			}

			var rebuilt strings.Builder
			for _, msg := range sender.sent[1 : len(sender.sent)-1] {
				if msg.Type != wire.TypeImageChunk {
					t.Fatalf("middle message type = %q", msg.Type)
				}
				if msg.ID != "img_1" {
					t.Errorf("chunk id = %q", msg.ID)
				}
				if len(msg.Chunk) > tt.chunkSize {
					t.Errorf("chunk length %d exceeds limit %d", len(msg.Chunk), tt.chunkSize)
				}
				rebuilt.WriteString(msg.Chunk)
			}
			if rebuilt.String() != tt.payload {
				t.Errorf("reassembled payload does not match original")
			}
		})
	}
}

func TestSendChunkedDefaultsChunkSize(t *testing.T) {
	sender := &captureSender{}
	payload := strings.Repeat("a", DefaultImageChunkSize+1)
	if err := SendChunked(sender, "img_2", "", payload, 0); err != nil {
		t.Fatalf("send: %v", err)
	}
	// start + 2 chunks + end
	if got := len(sender.sent); got != 4 {
		t.Fatalf("sent %d messages, want 4", got)
	}
	if got := len(sender.sent[1].Chunk); got != DefaultImageChunkSize {
		t.Errorf("first chunk length = %d, want %d", got, DefaultImageChunkSize)
	}
}

func TestSendChunkedStopsOnSendFailure(t *testing.T) {
	sender := &captureSender{failAt: 2}
	err := SendChunked(sender, "img_3", "", "abcdefgh", 4)
	if err == nil {
		t.Fatal("expected error when a chunk send fails")
	}
	// Only the start message went through; no end marker after a failure.
	if got := len(sender.sent); got != 1 {
		t.Errorf("sent %d messages after failure, want 1", got)
	}
}
