package audio

import (
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ErrEngineClosed is returned by Play after the engine has been closed.
var ErrEngineClosed = errors.New("audio engine closed")

// Envelope describes the declick gain ramps applied to one playback unit:
// 0→1 over FadeIn at onset, 1→0 over FadeOut at the tail.
type Envelope struct {
	FadeIn  time.Duration
	FadeOut time.Duration
}

// Unit is one chunk of audio rendering on an Engine.
type Unit interface {
	// Done is closed when the unit finishes, naturally or via Stop.
	Done() <-chan struct{}
	// Gain reports the envelope's current gain value.
	Gain() float32
	// RampTo schedules a linear ramp from the current gain to target,
	// replacing the remaining envelope.
	RampTo(target float32, over time.Duration)
	// Stop halts output immediately. Stopping a finished unit is a no-op.
	Stop()
}

// Engine synthesizes playback units from float PCM at SampleRate.
type Engine interface {
	Play(samples []float32, env Envelope) (Unit, error)
	Close() error
}

// atomicGain holds a float32 behind atomic uint32 operations.
type atomicGain struct {
	bits atomic.Uint32
}

func (g *atomicGain) Load() float32     { return math.Float32frombits(g.bits.Load()) }
func (g *atomicGain) Store(val float32) { g.bits.Store(math.Float32bits(val)) }

// StreamEngine renders units by writing gain-shaped PCM16LE to an io.Writer
// in real time, block by block. Pointing the writer at a sox/aplay stdin pipe
// gives audible output.
type StreamEngine struct {
	w        io.Writer
	blockDur time.Duration

	mu     sync.Mutex
	closed bool
}

// NewStreamEngine creates an engine writing to w.
func NewStreamEngine(w io.Writer) *StreamEngine {
	return &StreamEngine{w: w, blockDur: 10 * time.Millisecond}
}

// Play starts rendering samples with the given envelope.
func (e *StreamEngine) Play(samples []float32, env Envelope) (Unit, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}
	u := &streamUnit{
		engine:  e,
		samples: samples,
		env:     env,
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	u.gain.Store(0)
	go u.run()
	return u, nil
}

// Close stops accepting units and closes the underlying writer if it is an
// io.Closer.
func (e *StreamEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if c, ok := e.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (e *StreamEngine) write(p []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	_, err := e.w.Write(p)
	return err
}

type streamUnit struct {
	engine  *StreamEngine
	samples []float32
	env     Envelope

	gain     atomicGain
	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	rampMu    sync.Mutex
	rampSet   bool
	rampFrom  float32
	rampTo    float32
	rampStart time.Time
	rampDur   time.Duration
}

func (u *streamUnit) Done() <-chan struct{} { return u.done }

func (u *streamUnit) Gain() float32 { return u.gain.Load() }

func (u *streamUnit) RampTo(target float32, over time.Duration) {
	u.rampMu.Lock()
	u.rampSet = true
	u.rampFrom = u.gain.Load()
	u.rampTo = target
	u.rampStart = time.Now()
	u.rampDur = over
	u.rampMu.Unlock()
}

func (u *streamUnit) Stop() {
	u.stopOnce.Do(func() { close(u.stop) })
}

func (u *streamUnit) run() {
	defer close(u.done)

	duration := time.Duration(len(u.samples)) * time.Second / SampleRate
	blockSamples := int(SampleRate * u.engine.blockDur / time.Second)
	if blockSamples < 1 {
		blockSamples = 1
	}
	start := time.Now()

	for off := 0; off < len(u.samples); off += blockSamples {
		end := off + blockSamples
		if end > len(u.samples) {
			end = len(u.samples)
		}

		tStart := time.Duration(off) * time.Second / SampleRate
		tEnd := time.Duration(end) * time.Second / SampleRate
		g0 := u.gainAt(tStart, duration)
		g1 := u.gainAt(tEnd, duration)
		u.gain.Store(g1)

		// Interpolate the gain across the block so fades are ramps,
		// not steps.
		block := make([]float32, end-off)
		for i, s := range u.samples[off:end] {
			frac := float32(i+1) / float32(len(block))
			block[i] = s * (g0 + (g1-g0)*frac)
		}
		if err := u.engine.write(Int16ToBytes(FloatToInt16(block))); err != nil {
			return
		}

		// Pace writes to wall-clock playback time.
		next := time.Duration(end) * time.Second / SampleRate
		wait := time.Until(start.Add(next))
		if wait <= 0 {
			select {
			case <-u.stop:
				return
			default:
			}
			continue
		}
		select {
		case <-u.stop:
			return
		case <-time.After(wait):
		}
	}
}

// gainAt evaluates the envelope, or the override ramp once one is scheduled.
func (u *streamUnit) gainAt(elapsed, duration time.Duration) float32 {
	u.rampMu.Lock()
	if u.rampSet {
		var p float64 = 1
		if u.rampDur > 0 {
			p = float64(time.Since(u.rampStart)) / float64(u.rampDur)
		}
		if p > 1 {
			p = 1
		} else if p < 0 {
			p = 0
		}
		g := u.rampFrom + (u.rampTo-u.rampFrom)*float32(p)
		u.rampMu.Unlock()
		return g
	}
	u.rampMu.Unlock()

	if u.env.FadeIn > 0 && elapsed < u.env.FadeIn {
		return float32(elapsed) / float32(u.env.FadeIn)
	}
	if u.env.FadeOut > 0 && duration-elapsed < u.env.FadeOut {
		g := float32(duration-elapsed) / float32(u.env.FadeOut)
		if g < 0 {
			return 0
		}
		return g
	}
	return 1
}
