package wire

import "github.com/bytedance/sonic"

// Outbound message types
const (
	TypeAudio       = "audio"
	TypeInterrupt   = "interrupt"
	TypeCommitAudio = "commit_audio"
	TypeImageStart  = "image_start"
	TypeImageChunk  = "image_chunk"
	TypeImageEnd    = "image_end"
)

// Message represents a message sent to the agent server. Exactly one message
// goes out per send; which fields are populated depends on Type.
type Message struct {
	Type  string  `json:"type"`
	Data  []int16 `json:"data,omitempty"`  // "audio": raw int16 samples
	ID    string  `json:"id,omitempty"`    // "image_*": transfer id
	Text  string  `json:"text,omitempty"`  // "image_start": prompt text
	Chunk string  `json:"chunk,omitempty"` // "image_chunk": payload slice
}

// Encode serializes the message for the wire.
func (m *Message) Encode() ([]byte, error) {
	return sonic.Marshal(m)
}

// NewAudioMessage creates an outbound microphone audio frame
func NewAudioMessage(samples []int16) *Message {
	return &Message{Type: TypeAudio, Data: samples}
}

// NewInterruptMessage asks the agent to abandon its current turn
func NewInterruptMessage() *Message {
	return &Message{Type: TypeInterrupt}
}

// NewCommitAudioMessage asks the server to commit the input audio buffer
func NewCommitAudioMessage() *Message {
	return &Message{Type: TypeCommitAudio}
}

// NewImageStartMessage opens a chunked image transfer
func NewImageStartMessage(id, text string) *Message {
	return &Message{Type: TypeImageStart, ID: id, Text: text}
}

// NewImageChunkMessage carries one slice of a chunked image transfer
func NewImageChunkMessage(id, chunk string) *Message {
	return &Message{Type: TypeImageChunk, ID: id, Chunk: chunk}
}

// NewImageEndMessage closes a chunked image transfer
func NewImageEndMessage(id string) *Message {
	return &Message{Type: TypeImageEnd, ID: id}
}
