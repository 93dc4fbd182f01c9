// Package transcript maintains the local rendering of the conversation
// history pushed by the agent server. The model is append-only: entries are
// created the first time an item id is seen and mutated in place afterwards,
// never deleted within a session.
package transcript

import (
	"log"
	"strings"
	"sync"

	"realvoice/wire"
)

// Entry is the rendered counterpart of one message history item: at most one
// image plus a trailing caption/text region.
type Entry struct {
	Role    string
	Image   string // image URL or data URL, empty for text-only entries
	Caption string
}

// Reconciler merges full-history syncs and incremental adds into an
// append-only entry arena, deduplicated by item id.
type Reconciler struct {
	mu      sync.Mutex
	entries []Entry
	byID    map[string]int      // item_id -> arena index of its entry
	seen    map[string]struct{} // ids already rendered by a full sync
	version uint64
	notify  func()
}

// NewReconciler creates an empty transcript.
func NewReconciler() *Reconciler {
	return &Reconciler{
		byID: make(map[string]int),
		seen: make(map[string]struct{}),
	}
}

// OnChange registers a callback invoked after every mutation. The callback
// runs outside the reconciler lock.
func (r *Reconciler) OnChange(fn func()) {
	r.mu.Lock()
	r.notify = fn
	r.mu.Unlock()
}

// ApplyFullSync processes a snapshot-style history push: every unseen message
// item is rendered, then the last message item gets a text-only update so an
// in-progress assistant transcript grows in place across repeated syncs.
func (r *Reconciler) ApplyFullSync(history []wire.HistoryItem) {
	r.mu.Lock()
	for i := range history {
		item := &history[i]
		if item.Type != "message" || item.ItemID == "" {
			continue
		}
		if _, ok := r.seen[item.ItemID]; ok {
			continue
		}
		r.renderItem(item)
	}
	r.updateLastMessage(history)
	r.mu.Unlock()
	r.changed()
}

// ApplyIncrementalAdd renders a single newly created item. The caller
// guarantees the item is genuinely new; this path does not consult the
// seen-id set.
func (r *Reconciler) ApplyIncrementalAdd(item wire.HistoryItem) {
	if item.Type != "message" {
		return
	}
	r.mu.Lock()
	r.renderItem(&item)
	r.mu.Unlock()
	r.changed()
}

// AddLocalImage appends a locally originated image entry (e.g. an image the
// user just sent) without an item id; the server's history push will carry
// its own copy later.
func (r *Reconciler) AddLocalImage(role, url, caption string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Role: role, Image: url, Caption: strings.TrimSpace(caption)})
	r.mu.Unlock()
	r.changed()
}

// renderItem creates entries for an item and records it under its id.
// Caller holds the lock. Failures are logged and isolated to the item.
func (r *Reconciler) renderItem(item *wire.HistoryItem) {
	text, images, err := item.Derive()
	if err != nil {
		log.Printf("⚠️ Skipping malformed history item %q: %v", item.ItemID, err)
		return
	}

	text = strings.TrimSpace(text)
	idx := -1
	if len(images) > 0 {
		// One entry per image; only the last one stays addressable
		// under the item id.
		for _, url := range images {
			r.entries = append(r.entries, Entry{Role: item.Role, Image: url, Caption: text})
			idx = len(r.entries) - 1
		}
	} else if text != "" {
		r.entries = append(r.entries, Entry{Role: item.Role, Caption: text})
		idx = len(r.entries) - 1
	}

	if idx >= 0 && item.ItemID != "" {
		r.byID[item.ItemID] = idx
		r.seen[item.ItemID] = struct{}{}
	}
}

// updateLastMessage applies a text-only update to the last message item of a
// history push, rendering it first when it has no entry yet. Caller holds the
// lock.
func (r *Reconciler) updateLastMessage(history []wire.HistoryItem) {
	var last *wire.HistoryItem
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type == "message" {
			last = &history[i]
			break
		}
	}
	if last == nil {
		return
	}

	idx, ok := r.byID[last.ItemID]
	if !ok {
		r.renderItem(last)
		return
	}

	text, _, err := last.Derive()
	if err != nil {
		log.Printf("⚠️ Skipping text update for item %q: %v", last.ItemID, err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		// Never blank an existing entry.
		return
	}
	// Replace only the caption region; an attached image is never removed
	// by a text update.
	r.entries[idx].Caption = text
}

// Entries returns a snapshot of the rendered transcript in creation order.
func (r *Reconciler) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup returns the entry currently addressable under an item id.
func (r *Reconciler) Lookup(itemID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[itemID]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// Version returns a counter incremented on every mutation, letting a
// renderer cheaply detect staleness.
func (r *Reconciler) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Len returns the number of rendered entries.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Reconciler) changed() {
	r.mu.Lock()
	r.version++
	fn := r.notify
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}
