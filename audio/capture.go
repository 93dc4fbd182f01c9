package audio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
)

// DefaultFrameSamples is the capture frame size, matching the browser
// ScriptProcessor block the agent server expects.
const DefaultFrameSamples = 4096

// ErrDeviceUnavailable is returned when the capture source cannot be
// acquired. It is surfaced to the user and never retried automatically.
var ErrDeviceUnavailable = errors.New("capture device unavailable")

// Source delivers fixed-size float frames from a capture device. The frame
// channel closes when the source ends or is stopped.
type Source interface {
	Start(frameSamples int) (<-chan []float32, error)
	Stop() error
}

// FrameSender consumes encoded microphone frames. Implemented by the session
// send path.
type FrameSender interface {
	SendAudio(samples []int16) error
}

// Capture owns the capture source for its lifetime and forwards each frame as
// one audio message. Muting is a lossy gate: frames arriving while muted are
// dropped, not buffered.
type Capture struct {
	source Source
	sender FrameSender
	frames int

	mu        sync.RWMutex
	muted     bool
	capturing bool
	done      chan struct{}
}

// NewCapture creates a capture pipeline. frameSamples <= 0 selects
// DefaultFrameSamples.
func NewCapture(src Source, sender FrameSender, frameSamples int) *Capture {
	if frameSamples <= 0 {
		frameSamples = DefaultFrameSamples
	}
	return &Capture{source: src, sender: sender, frames: frameSamples}
}

// Start acquires the source exclusively and begins forwarding frames.
// A failed acquisition releases the source before returning.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capturing {
		return nil
	}

	frames, err := c.source.Start(c.frames)
	if err != nil {
		_ = c.source.Stop()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.capturing = true
	c.done = make(chan struct{})
	go c.pump(frames, c.done)
	return nil
}

func (c *Capture) pump(frames <-chan []float32, done chan struct{}) {
	defer close(done)
	for frame := range frames {
		if c.Muted() {
			continue
		}
		if err := c.sender.SendAudio(FloatToInt16(frame)); err != nil {
			log.Printf("⚠️ Dropping capture frame: %v", err)
		}
	}

	c.mu.Lock()
	c.capturing = false
	c.mu.Unlock()
}

// Stop releases the source and waits for the forwarding loop to exit.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return
	}
	c.capturing = false
	done := c.done
	c.mu.Unlock()

	_ = c.source.Stop()
	if done != nil {
		<-done
	}
}

// SetMuted toggles the mute gate.
func (c *Capture) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
}

// Muted reports the mute gate state.
func (c *Capture) Muted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.muted
}

// Capturing reports whether the source is currently held.
func (c *Capture) Capturing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capturing
}

// ReaderSource adapts a PCM16LE byte stream (a sox/rec pipe, a file) into a
// capture Source.
type ReaderSource struct {
	r io.Reader

	mu      sync.Mutex
	stop    chan struct{}
	started bool
}

// NewReaderSource creates a source reading little-endian 16-bit PCM from r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// Start begins reading fixed-size frames from the underlying reader.
func (rs *ReaderSource) Start(frameSamples int) (<-chan []float32, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.r == nil {
		return nil, errors.New("no capture reader")
	}
	if rs.started {
		return nil, errors.New("capture source already started")
	}
	rs.started = true
	rs.stop = make(chan struct{})

	out := make(chan []float32)
	go func() {
		defer close(out)
		buf := make([]byte, frameSamples*2)
		for {
			if _, err := io.ReadFull(rs.r, buf); err != nil {
				return
			}
			samples, err := BytesToInt16(buf)
			if err != nil {
				return
			}
			select {
			case out <- Int16ToFloat(samples):
			case <-rs.stop:
				return
			}
		}
	}()
	return out, nil
}

// Stop ends frame delivery and closes the reader when it is an io.Closer,
// unblocking any in-flight read.
func (rs *ReaderSource) Stop() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if !rs.started {
		return nil
	}
	rs.started = false
	close(rs.stop)
	if c, ok := rs.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
