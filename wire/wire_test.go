package wire

import (
	"encoding/json"
	"testing"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(t *testing.T, ev *Event)
	}{
		{
			name: "audio event",
			data: `{"type":"audio","audio":"AAAA"}`,
			check: func(t *testing.T, ev *Event) {
				if ev.Type != EventAudio || ev.Audio != "AAAA" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name: "audio interrupted",
			data: `{"type":"audio_interrupted"}`,
			check: func(t *testing.T, ev *Event) {
				if ev.Type != EventAudioInterrupted {
					t.Errorf("type = %q", ev.Type)
				}
			},
		},
		{
			name: "history updated",
			data: `{"type":"history_updated","history":[{"item_id":"a","type":"message","role":"user"}]}`,
			check: func(t *testing.T, ev *Event) {
				if len(ev.History) != 1 || ev.History[0].ItemID != "a" {
					t.Errorf("history = %+v", ev.History)
				}
			},
		},
		{
			name: "history added",
			data: `{"type":"history_added","item":{"item_id":"b","type":"message","role":"assistant"}}`,
			check: func(t *testing.T, ev *Event) {
				if ev.Item == nil || ev.Item.ItemID != "b" {
					t.Errorf("item = %+v", ev.Item)
				}
			},
		},
		{
			name: "tool start",
			data: `{"type":"tool_start","tool":"get_weather"}`,
			check: func(t *testing.T, ev *Event) {
				if ev.Tool != "get_weather" {
					t.Errorf("tool = %q", ev.Tool)
				}
			},
		},
		{
			name: "handoff",
			data: `{"type":"handoff","from":"triage","to":"billing"}`,
			check: func(t *testing.T, ev *Event) {
				if ev.From != "triage" || ev.To != "billing" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name: "unknown tag kept",
			data: `{"type":"usage_report","tokens":12}`,
			check: func(t *testing.T, ev *Event) {
				if ev.Type != "usage_report" {
					t.Errorf("type = %q", ev.Type)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.data))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if string(ev.Raw) != tt.data {
				t.Errorf("raw bytes not preserved")
			}
			tt.check(t, ev)
		})
	}
}

func TestParseEventRejectsGarbage(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestDeriveConcatenatesInOrder(t *testing.T) {
	item := HistoryItem{
		ItemID: "a",
		Type:   "message",
		Role:   "assistant",
		Content: json.RawMessage(`[
			{"type":"text","text":"Sure, "},
			{"type":"audio","transcript":"here is "},
			{"type":"input_text","text":"the plan."}
		]`),
	}

	text, images, err := item.Derive()
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if text != "Sure, here is the plan." {
		t.Errorf("text = %q", text)
	}
	if len(images) != 0 {
		t.Errorf("images = %v, want none", images)
	}
}

func TestDeriveImageFields(t *testing.T) {
	item := HistoryItem{
		ItemID: "a",
		Type:   "message",
		Role:   "user",
		Content: json.RawMessage(`[
			{"type":"input_image","image_url":"data:image/png;base64,xxxx"},
			{"type":"input_image","url":"https://example.com/cat.png"},
			{"type":"input_image"},
			{"type":"input_text","text":"two cats"}
		]`),
	}

	text, images, err := item.Derive()
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if text != "two cats" {
		t.Errorf("text = %q", text)
	}
	// image_url wins, url is the fallback, a part with neither contributes
	// nothing.
	want := []string{"data:image/png;base64,xxxx", "https://example.com/cat.png"}
	if len(images) != len(want) {
		t.Fatalf("images = %v, want %v", images, want)
	}
	for i := range want {
		if images[i] != want[i] {
			t.Errorf("image %d = %q, want %q", i, images[i], want[i])
		}
	}
}

func TestDeriveRejectsMissingID(t *testing.T) {
	item := HistoryItem{Type: "message", Content: json.RawMessage(`[]`)}
	if _, _, err := item.Derive(); err == nil {
		t.Fatal("expected error for missing item_id")
	}
}

func TestDeriveRejectsMalformedContent(t *testing.T) {
	item := HistoryItem{ItemID: "a", Type: "message", Content: json.RawMessage(`{"not":"a list"}`)}
	if _, _, err := item.Derive(); err == nil {
		t.Fatal("expected error for non-sequence content")
	}
}

func TestDeriveEmptyContent(t *testing.T) {
	item := HistoryItem{ItemID: "a", Type: "message"}
	text, images, err := item.Derive()
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if text != "" || len(images) != 0 {
		t.Errorf("text = %q, images = %v, want empty", text, images)
	}
}

func TestOutboundEncodeShapes(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want map[string]any
	}{
		{
			name: "audio",
			msg:  NewAudioMessage([]int16{1, -1, 32767}),
			want: map[string]any{"type": "audio", "data": []any{float64(1), float64(-1), float64(32767)}},
		},
		{
			name: "interrupt",
			msg:  NewInterruptMessage(),
			want: map[string]any{"type": "interrupt"},
		},
		{
			name: "commit audio",
			msg:  NewCommitAudioMessage(),
			want: map[string]any{"type": "commit_audio"},
		},
		{
			name: "image start",
			msg:  NewImageStartMessage("img_1", "look at this"),
			want: map[string]any{"type": "image_start", "id": "img_1", "text": "look at this"},
		},
		{
			name: "image chunk",
			msg:  NewImageChunkMessage("img_1", "AAAA"),
			want: map[string]any{"type": "image_chunk", "id": "img_1", "chunk": "AAAA"},
		},
		{
			name: "image end",
			msg:  NewImageEndMessage("img_1"),
			want: map[string]any{"type": "image_end", "id": "img_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.msg.Encode()
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("decode back: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("fields = %v, want %v (empty fields must be omitted)", got, tt.want)
			}
			for k, want := range tt.want {
				gotVal := got[k]
				switch want := want.(type) {
				case []any:
					gotList, ok := gotVal.([]any)
					if !ok || len(gotList) != len(want) {
						t.Fatalf("%s = %v, want %v", k, gotVal, want)
					}
					for i := range want {
						if gotList[i] != want[i] {
							t.Errorf("%s[%d] = %v, want %v", k, i, gotList[i], want[i])
						}
					}
				default:
					if gotVal != want {
						t.Errorf("%s = %v, want %v", k, gotVal, want)
					}
				}
			}
		})
	}
}
