package audio

import (
	"log"
	"sync"
	"time"
)

// DefaultFade is the declick fade window applied at chunk boundaries.
const DefaultFade = 20 * time.Millisecond

// minFade is the floor for very short chunks.
const minFade = 5 * time.Millisecond

// Queue plays received audio chunks strictly in arrival order, one at a time,
// with declick fades at every chunk boundary. A single consumer goroutine
// drains the pending list; Enqueue wakes it when it is idle.
type Queue struct {
	engine  Engine
	fade    time.Duration
	pending *chunkList

	mu      sync.Mutex
	playing bool
	current Unit
	gen     int
	closed  bool
}

// NewQueue creates a playback queue on top of engine. fade <= 0 selects
// DefaultFade; maxPending <= 0 leaves the pending list unbounded.
func NewQueue(engine Engine, fade time.Duration, maxPending int) *Queue {
	if fade <= 0 {
		fade = DefaultFade
	}
	return &Queue{
		engine:  engine,
		fade:    fade,
		pending: newChunkList(maxPending),
	}
}

// Enqueue appends a base64 PCM chunk and wakes the consumer if idle.
func (q *Queue) Enqueue(chunk string) {
	if chunk == "" {
		log.Println("⚠️ Received empty audio chunk, skipping playback")
		return
	}
	if err := q.pending.Append(chunk); err != nil {
		log.Printf("⚠️ Dropping audio chunk: %v", err)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.playing {
		return
	}
	q.playing = true
	go q.drain()
}

// drain is the single consumer loop. It runs until the pending list is empty,
// then parks; only one drain runs at a time.
func (q *Queue) drain() {
	for {
		chunk, ok := q.pending.Next()
		if !ok {
			q.mu.Lock()
			// Re-check under the lock so a concurrent Enqueue cannot
			// strand a chunk between Next and parking.
			if q.pending.Len() > 0 && !q.closed {
				q.mu.Unlock()
				continue
			}
			q.playing = false
			q.mu.Unlock()
			return
		}

		samples, err := DecodeBase64PCM(chunk)
		if err != nil {
			log.Printf("⚠️ Skipping undecodable audio chunk: %v", err)
			continue
		}
		if len(samples) == 0 {
			continue
		}

		duration := time.Duration(len(samples)) * time.Second / SampleRate
		fade := duration / 8
		if fade < minFade {
			fade = minFade
		}
		if fade > q.fade {
			fade = q.fade
		}

		q.mu.Lock()
		if q.closed {
			q.playing = false
			q.mu.Unlock()
			return
		}
		gen := q.gen
		q.mu.Unlock()

		unit, err := q.engine.Play(samples, Envelope{FadeIn: fade, FadeOut: fade})
		if err != nil {
			log.Printf("❌ Playback failed, continuing with next chunk: %v", err)
			continue
		}

		q.mu.Lock()
		if q.gen != gen {
			// Cancelled while the unit was being created.
			q.mu.Unlock()
			unit.Stop()
			continue
		}
		q.current = unit
		q.mu.Unlock()

		<-unit.Done()

		q.mu.Lock()
		if q.current == unit {
			q.current = nil
		}
		q.mu.Unlock()
	}
}

// Cancel drops every pending chunk, fades the currently rendering unit to
// silence from its current gain over the fade window, and hard-stops it after
// the window elapses. It never fails, even racing a natural chunk end.
func (q *Queue) Cancel() {
	q.pending.Clear()

	q.mu.Lock()
	cur := q.current
	q.current = nil
	q.gen++
	fade := q.fade
	q.mu.Unlock()

	if cur != nil {
		cur.RampTo(0, fade)
		time.AfterFunc(fade, cur.Stop)
	}
}

// Active reports whether the consumer loop is currently running.
func (q *Queue) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

// Pending returns the number of queued-but-not-yet-playing chunks.
func (q *Queue) Pending() int {
	return q.pending.Len()
}

// Close cancels playback and shuts down the engine.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	q.Cancel()
	return q.engine.Close()
}
