package session

import (
	"log"

	"realvoice/wire"
)

// Playback is the slice of the playback queue the dispatcher drives.
type Playback interface {
	Enqueue(chunk string)
	Cancel()
}

// Committer emits the commit_audio control message.
type Committer interface {
	CommitAudio() error
}

// History is the slice of the reconciler the dispatcher drives.
type History interface {
	ApplyFullSync(history []wire.HistoryItem)
	ApplyIncrementalAdd(item wire.HistoryItem)
}

// Dispatcher routes inbound events by tag, in receipt order. Every event is
// recorded raw first; tool and handoff events also feed the tool log. A
// failure handling one event never stops processing of the next.
type Dispatcher struct {
	playback Playback
	control  Committer
	history  History
	events   *EventLog
	tools    *ToolLog
}

// NewDispatcher wires the dispatcher to its consumers.
func NewDispatcher(playback Playback, control Committer, history History, events *EventLog, tools *ToolLog) *Dispatcher {
	return &Dispatcher{
		playback: playback,
		control:  control,
		history:  history,
		events:   events,
		tools:    tools,
	}
}

// Dispatch processes one inbound event.
func (d *Dispatcher) Dispatch(ev *wire.Event) {
	d.events.Record(ev)

	switch ev.Type {
	case wire.EventToolStart, wire.EventToolEnd, wire.EventHandoff:
		d.tools.Record(ev)
	}

	switch ev.Type {
	case wire.EventAudio:
		d.playback.Enqueue(ev.Audio)

	case wire.EventAudioInterrupted:
		d.playback.Cancel()

	case wire.EventInputAudioTimeout:
		// Ask the server to commit the input buffer to expedite the
		// model response.
		if err := d.control.CommitAudio(); err != nil {
			log.Printf("⚠️ Failed to send commit_audio: %v", err)
		}

	case wire.EventHistoryUpdated:
		// Renders unseen items, then rewrites the last message's
		// caption even when it was just rendered, so an in-progress
		// assistant transcript grows in place.
		d.history.ApplyFullSync(ev.History)

	case wire.EventHistoryAdded:
		if ev.Item != nil {
			d.history.ApplyIncrementalAdd(*ev.Item)
		}

	case wire.EventToolStart, wire.EventToolEnd, wire.EventHandoff:
		// Passive only, recorded above.

	default:
		// Unknown tags are inert.
	}
}
