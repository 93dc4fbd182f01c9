package session

import (
	"fmt"
	"sync"
	"time"

	"realvoice/wire"
)

// maxLogEntries bounds each passive log; oldest entries roll off.
const maxLogEntries = 200

// RecordedEvent is one raw inbound event kept for passive inspection.
type RecordedEvent struct {
	Type string
	Raw  []byte
	At   time.Time
}

// EventLog records every inbound event verbatim, in receipt order.
type EventLog struct {
	mu     sync.Mutex
	events []RecordedEvent
	notify func()
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// OnChange registers a callback invoked after every record.
func (l *EventLog) OnChange(fn func()) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

// Record appends one event.
func (l *EventLog) Record(ev *wire.Event) {
	l.mu.Lock()
	l.events = append(l.events, RecordedEvent{Type: ev.Type, Raw: ev.Raw, At: time.Now()})
	if len(l.events) > maxLogEntries {
		l.events = l.events[len(l.events)-maxLogEntries:]
	}
	fn := l.notify
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Events returns a snapshot in receipt order.
func (l *EventLog) Events() []RecordedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RecordedEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// ToolEvent is a rendered tool / handoff log line.
type ToolEvent struct {
	Title  string
	Detail string
	At     time.Time
}

// ToolLog records tool and handoff activity for passive display.
type ToolLog struct {
	mu     sync.Mutex
	events []ToolEvent
	notify func()
}

// NewToolLog creates an empty tool log.
func NewToolLog() *ToolLog {
	return &ToolLog{}
}

// OnChange registers a callback invoked after every record.
func (l *ToolLog) OnChange(fn func()) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

// Record renders and appends one tool or handoff event.
func (l *ToolLog) Record(ev *wire.Event) {
	var entry ToolEvent
	switch ev.Type {
	case wire.EventHandoff:
		entry = ToolEvent{Title: "Handoff", Detail: fmt.Sprintf("From %s to %s", ev.From, ev.To)}
	case wire.EventToolStart:
		entry = ToolEvent{Title: "Tool started", Detail: fmt.Sprintf("Running %s", ev.Tool)}
	case wire.EventToolEnd:
		output := ev.Output
		if output == "" {
			output = "no output"
		}
		entry = ToolEvent{Title: "Tool completed", Detail: fmt.Sprintf("%s: %s", ev.Tool, output)}
	default:
		return
	}
	entry.At = time.Now()

	l.mu.Lock()
	l.events = append(l.events, entry)
	if len(l.events) > maxLogEntries {
		l.events = l.events[len(l.events)-maxLogEntries:]
	}
	fn := l.notify
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Events returns a snapshot in receipt order.
func (l *ToolLog) Events() []ToolEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ToolEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded tool events.
func (l *ToolLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
