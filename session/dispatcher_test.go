package session

import (
	"errors"
	"testing"

	"realvoice/wire"
)

type fakePlayback struct {
	enqueued []string
	cancels  int
}

func (p *fakePlayback) Enqueue(chunk string) { p.enqueued = append(p.enqueued, chunk) }
func (p *fakePlayback) Cancel()              { p.cancels++ }

type fakeCommitter struct {
	commits int
	err     error
}

func (c *fakeCommitter) CommitAudio() error {
	c.commits++
	return c.err
}

type fakeHistory struct {
	syncs []int // history lengths seen per full sync
	adds  []wire.HistoryItem
}

func (h *fakeHistory) ApplyFullSync(history []wire.HistoryItem) {
	h.syncs = append(h.syncs, len(history))
}

func (h *fakeHistory) ApplyIncrementalAdd(item wire.HistoryItem) {
	h.adds = append(h.adds, item)
}

func newTestDispatcher() (*Dispatcher, *fakePlayback, *fakeCommitter, *fakeHistory, *EventLog, *ToolLog) {
	playback := &fakePlayback{}
	control := &fakeCommitter{}
	history := &fakeHistory{}
	events := NewEventLog()
	tools := NewToolLog()
	return NewDispatcher(playback, control, history, events, tools), playback, control, history, events, tools
}

func TestDispatchAudioThenInterrupt(t *testing.T) {
	d, playback, _, _, _, _ := newTestDispatcher()

	d.Dispatch(&wire.Event{Type: wire.EventAudio, Audio: "AAAA"})
	d.Dispatch(&wire.Event{Type: wire.EventAudio, Audio: "BBBB"})
	d.Dispatch(&wire.Event{Type: wire.EventAudioInterrupted})

	if len(playback.enqueued) != 2 || playback.enqueued[0] != "AAAA" || playback.enqueued[1] != "BBBB" {
		t.Errorf("enqueued = %v, want [AAAA BBBB]", playback.enqueued)
	}
	if playback.cancels != 1 {
		t.Errorf("cancels = %d, want 1", playback.cancels)
	}
}

func TestDispatchInputTimeoutCommits(t *testing.T) {
	d, _, control, _, _, _ := newTestDispatcher()

	d.Dispatch(&wire.Event{Type: wire.EventInputAudioTimeout})
	if control.commits != 1 {
		t.Fatalf("commits = %d, want 1", control.commits)
	}

	// A failed commit is logged, never fatal: the next event still routes.
	control.err = errors.New("socket closed")
	d.Dispatch(&wire.Event{Type: wire.EventInputAudioTimeout})
	d.Dispatch(&wire.Event{Type: wire.EventAudio, Audio: "CCCC"})
	if control.commits != 2 {
		t.Errorf("commits = %d, want 2", control.commits)
	}
}

func TestDispatchHistoryRouting(t *testing.T) {
	d, _, _, history, _, _ := newTestDispatcher()

	d.Dispatch(&wire.Event{Type: wire.EventHistoryUpdated, History: []wire.HistoryItem{
		{ItemID: "a", Type: "message"},
		{ItemID: "b", Type: "message"},
	}})
	d.Dispatch(&wire.Event{Type: wire.EventHistoryAdded, Item: &wire.HistoryItem{ItemID: "c", Type: "message"}})
	// history_added without an item is tolerated.
	d.Dispatch(&wire.Event{Type: wire.EventHistoryAdded})

	if len(history.syncs) != 1 || history.syncs[0] != 2 {
		t.Errorf("syncs = %v, want [2]", history.syncs)
	}
	if len(history.adds) != 1 || history.adds[0].ItemID != "c" {
		t.Errorf("adds = %v, want single item c", history.adds)
	}
}

func TestDispatchUnknownEventInert(t *testing.T) {
	d, playback, control, history, events, _ := newTestDispatcher()

	d.Dispatch(&wire.Event{Type: "usage_report", Raw: []byte(`{"type":"usage_report"}`)})

	if len(playback.enqueued) != 0 || playback.cancels != 0 || control.commits != 0 {
		t.Error("unknown event triggered a side effect")
	}
	if len(history.syncs) != 0 || len(history.adds) != 0 {
		t.Error("unknown event reached the history reconciler")
	}
	// Still recorded for inspection.
	if events.Len() != 1 {
		t.Errorf("event log length = %d, want 1", events.Len())
	}
}

func TestDispatchRecordsEveryEvent(t *testing.T) {
	d, _, _, _, events, tools := newTestDispatcher()

	d.Dispatch(&wire.Event{Type: wire.EventAudio, Audio: "AAAA"})
	d.Dispatch(&wire.Event{Type: wire.EventToolStart, Tool: "get_weather"})
	d.Dispatch(&wire.Event{Type: wire.EventToolEnd, Tool: "get_weather", Output: "sunny"})
	d.Dispatch(&wire.Event{Type: wire.EventHandoff, From: "triage", To: "billing"})

	if events.Len() != 4 {
		t.Fatalf("event log length = %d, want 4", events.Len())
	}

	got := tools.Events()
	if len(got) != 3 {
		t.Fatalf("tool log length = %d, want 3", len(got))
	}
	if got[0].Detail != "Running get_weather" {
		t.Errorf("tool start detail = %q", got[0].Detail)
	}
	if got[1].Detail != "get_weather: sunny" {
		t.Errorf("tool end detail = %q", got[1].Detail)
	}
	if got[2].Detail != "From triage to billing" {
		t.Errorf("handoff detail = %q", got[2].Detail)
	}
}

func TestToolEndWithoutOutput(t *testing.T) {
	tools := NewToolLog()
	tools.Record(&wire.Event{Type: wire.EventToolEnd, Tool: "lookup"})

	got := tools.Events()
	if len(got) != 1 || got[0].Detail != "lookup: no output" {
		t.Fatalf("tool log = %v", got)
	}
}

func TestEventLogRollsOff(t *testing.T) {
	events := NewEventLog()
	for i := 0; i < maxLogEntries+10; i++ {
		events.Record(&wire.Event{Type: wire.EventAudio})
	}
	if events.Len() != maxLogEntries {
		t.Fatalf("event log length = %d, want %d", events.Len(), maxLogEntries)
	}
}

func TestEventLogNotifies(t *testing.T) {
	events := NewEventLog()
	fired := 0
	events.OnChange(func() { fired++ })
	events.Record(&wire.Event{Type: wire.EventAudio})
	events.Record(&wire.Event{Type: wire.EventAudio})
	if fired != 2 {
		t.Fatalf("notify fired %d times, want 2", fired)
	}
}
