package main

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// soxArgs is the raw PCM format shared by both directions: mono 24kHz 16-bit
// signed little-endian.
var soxArgs = []string{"-t", "raw", "-r", "24000", "-b", "16", "-c", "1", "-e", "signed-integer"}

// soxPipe wraps a running sox process behind one end of its stdio.
type soxPipe struct {
	cmd *exec.Cmd
	w   io.WriteCloser
	r   io.ReadCloser

	mu     sync.Mutex
	closed bool
}

// newSoxPlayer starts sox reading raw PCM from stdin and playing it on the
// default output device.
func newSoxPlayer() (*soxPipe, error) {
	args := append(append([]string{}, soxArgs...), "-", "-d")
	cmd := exec.Command("sox", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start sox playback (is sox installed?): %w", err)
	}
	return &soxPipe{cmd: cmd, w: stdin}, nil
}

// newSoxRecorder starts sox capturing the default input device and writing
// raw PCM to stdout.
func newSoxRecorder() (*soxPipe, error) {
	args := append([]string{"-d"}, soxArgs...)
	args = append(args, "-")
	cmd := exec.Command("sox", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start sox capture (is sox installed?): %w", err)
	}
	return &soxPipe{cmd: cmd, r: stdout}, nil
}

func (p *soxPipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.w == nil {
		return 0, io.ErrClosedPipe
	}
	return p.w.Write(b)
}

func (p *soxPipe) Read(b []byte) (int, error) {
	if p.r == nil {
		return 0, io.EOF
	}
	return p.r.Read(b)
}

func (p *soxPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.w != nil {
		p.w.Close()
	}
	if p.r != nil {
		p.r.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}
	return nil
}
