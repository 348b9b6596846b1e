package docsync

import (
	"sync"
	"time"

	"go.lsp.dev/protocol"
)

// pendingEdit accumulates the content changes for one document between
// flushes. full holds the latest known-full text for TextDocumentSyncKindFull
// coalescing; a later full sync always supersedes an earlier one, so there's
// nothing to merge beyond keeping the newest text and version.
type pendingEdit struct {
	uri     protocol.DocumentURI
	version int32
	full    string
}

// debouncer coalesces rapid full-document syncs into a single didChange
// notification per spec.md §4.5: there is exactly one pending delivery slot
// at a time, not one per document. If a change for document V arrives while
// document U's debounce is still pending, U is flushed immediately and
// synchronously before V's own debounce starts — "flush U then start V",
// the literal ordering spec.md §4.5 calls out. This only coalesces
// TextDocumentSyncKindFull edits; Incremental changes bypass the debouncer
// entirely and are forwarded unmodified and in arrival order (spec.md §4.5).
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending *pendingEdit
	timer   *time.Timer

	onFlush func(uri protocol.DocumentURI, edit *pendingEdit)
}

func newDebouncer(delay time.Duration, onFlush func(protocol.DocumentURI, *pendingEdit)) *debouncer {
	return &debouncer{delay: delay, onFlush: onFlush}
}

// addFull records a full-document replacement for uri. If another document
// is currently the pending slot's occupant, it is flushed first.
func (d *debouncer) addFull(uri protocol.DocumentURI, version int32, text string) {
	d.mu.Lock()

	if d.pending != nil && d.pending.uri != uri {
		stale := d.pending
		d.clearLocked()
		d.mu.Unlock()
		d.onFlush(stale.uri, stale)
		d.mu.Lock()
	}

	d.pending = &pendingEdit{uri: uri, version: version, full: text}
	d.arm()
	d.mu.Unlock()
}

// arm must be called with mu held.
func (d *debouncer) arm() {
	if d.timer != nil {
		d.timer.Stop()
	}
	uri := d.pending.uri
	d.timer = time.AfterFunc(d.delay, func() {
		d.Flush(uri)
	})
}

// clearLocked drops the pending slot and its timer. Must be called with mu held.
func (d *debouncer) clearLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

// Flush sends whatever is pending for uri immediately, whether called by the
// debounce timer or by a forced flush ahead of a feature request. It is a
// no-op if uri isn't the current pending slot's occupant (including when
// nothing is pending at all), so callers never need to check first.
func (d *debouncer) Flush(uri protocol.DocumentURI) {
	d.mu.Lock()
	if d.pending == nil || d.pending.uri != uri {
		d.mu.Unlock()
		return
	}
	edit := d.pending
	d.clearLocked()
	d.mu.Unlock()

	d.onFlush(uri, edit)
}

// FlushAll drains the pending slot, e.g. before Stop.
func (d *debouncer) FlushAll() {
	d.mu.Lock()
	edit := d.pending
	d.clearLocked()
	d.mu.Unlock()

	if edit != nil {
		d.onFlush(edit.uri, edit)
	}
}

// Discard drops the pending slot without sending it, if it belongs to uri;
// used on didClose once the close notification itself has gone out.
func (d *debouncer) Discard(uri protocol.DocumentURI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil && d.pending.uri == uri {
		d.clearLocked()
	}
}
