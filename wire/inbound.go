package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Inbound event types
const (
	EventAudio             = "audio"
	EventAudioInterrupted  = "audio_interrupted"
	EventInputAudioTimeout = "input_audio_timeout_triggered"
	EventHistoryUpdated    = "history_updated"
	EventHistoryAdded      = "history_added"
	EventToolStart         = "tool_start"
	EventToolEnd           = "tool_end"
	EventHandoff           = "handoff"
)

// Event represents a message received from the agent server. Raw always holds
// the original bytes so passive observers can record the event verbatim.
type Event struct {
	Type    string        `json:"type"`
	Audio   string        `json:"audio,omitempty"` // base64 PCM16LE @ 24kHz
	History []HistoryItem `json:"history,omitempty"`
	Item    *HistoryItem  `json:"item,omitempty"`

	// Tool / handoff passthrough fields, consumed only by passive logging.
	Tool   string `json:"tool,omitempty"`
	Output string `json:"output,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`

	Raw []byte `json:"-"`
}

// ParseEvent decodes one inbound message
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	ev.Raw = data
	return &ev, nil
}

// HistoryItem is one server-defined unit of conversation history. Content is
// kept raw so a malformed item can be rejected on its own without failing the
// surrounding history push.
type HistoryItem struct {
	ItemID  string          `json:"item_id"`
	Type    string          `json:"type"`
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// ContentPart is one element of a message item's content sequence.
type ContentPart struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Parts decodes the item's content sequence.
func (it *HistoryItem) Parts() ([]ContentPart, error) {
	if len(it.Content) == 0 {
		return nil, nil
	}
	var parts []ContentPart
	if err := sonic.Unmarshal(it.Content, &parts); err != nil {
		return nil, fmt.Errorf("content is not a part sequence: %w", err)
	}
	return parts, nil
}

// Derive extracts the display text and image URLs of a message item.
// Text-bearing parts concatenate in order; image parts contribute URLs.
func (it *HistoryItem) Derive() (text string, images []string, err error) {
	if it.ItemID == "" {
		return "", nil, fmt.Errorf("history item missing item_id")
	}
	parts, err := it.Parts()
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	for _, p := range parts {
		switch p.Type {
		case "text", "input_text":
			sb.WriteString(p.Text)
		case "audio", "input_audio":
			sb.WriteString(p.Transcript)
		case "input_image":
			url := p.ImageURL
			if url == "" {
				url = p.URL
			}
			if url != "" {
				images = append(images, url)
			}
		}
	}
	return sb.String(), images, nil
}
