package audio

import (
	"errors"
	"sync"
)

// ErrQueueFull is returned when the pending list exceeds its maximum length
var ErrQueueFull = errors.New("playback queue full")

// chunkList holds pending base64 playback chunks in strict arrival order.
type chunkList struct {
	chunks []string
	max    int
	mu     sync.Mutex
}

func newChunkList(max int) *chunkList {
	return &chunkList{chunks: make([]string, 0), max: max}
}

// Append adds a chunk to the tail.
// Returns ErrQueueFull if the list is at capacity.
func (cl *chunkList) Append(chunk string) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.max > 0 && len(cl.chunks) >= cl.max {
		return ErrQueueFull
	}
	cl.chunks = append(cl.chunks, chunk)
	return nil
}

// Next removes and returns the head chunk.
func (cl *chunkList) Next() (string, bool) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if len(cl.chunks) == 0 {
		return "", false
	}
	head := cl.chunks[0]
	cl.chunks = cl.chunks[1:]
	return head, true
}

// Clear drops every pending chunk
func (cl *chunkList) Clear() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.chunks = make([]string, 0)
}

// Len returns the number of pending chunks
func (cl *chunkList) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.chunks)
}
