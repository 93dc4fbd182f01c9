package session

import (
	"fmt"

	"realvoice/wire"
)

// DefaultImageChunkSize is the wire-size ceiling for one image_chunk payload.
const DefaultImageChunkSize = 60_000

// MessageSender sends exactly one wire message per call, in issue order.
type MessageSender interface {
	Send(msg *wire.Message) error
}

// SendChunked transfers a large payload as an ordered image_start /
// image_chunk / image_end triple. The chunks are a pure substring partition:
// concatenated in emission order they reconstruct payload exactly. The id
// must be unique per in-flight transfer; callers are expected to send an
// interrupt first so the agent abandons any in-progress turn.
func SendChunked(sender MessageSender, id, text, payload string, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = DefaultImageChunkSize
	}

	if err := sender.Send(wire.NewImageStartMessage(id, text)); err != nil {
		return fmt.Errorf("image start: %w", err)
	}
	for off := 0; off < len(payload); off += chunkSize {
		end := off + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		if err := sender.Send(wire.NewImageChunkMessage(id, payload[off:end])); err != nil {
			return fmt.Errorf("image chunk at %d: %w", off, err)
		}
	}
	if err := sender.Send(wire.NewImageEndMessage(id)); err != nil {
		return fmt.Errorf("image end: %w", err)
	}
	return nil
}
