package diagnostics

import (
	"container/list"
	"sync"

	"go.lsp.dev/protocol"
)

// EditorTracker maintains the set of URIs currently open in editor tabs
// (text or diff), per spec.md §4.6 "Visible set". It also keeps an LRU
// order of the non-active visible documents for the background rotation
// scheduler (spec.md §4.6 "Background rotation").
type EditorTracker struct {
	mu      sync.Mutex
	visible map[protocol.DocumentURI]*list.Element
	lru     *list.List // elements are protocol.DocumentURI, most-recently-active at the front
	active  protocol.DocumentURI
}

// NewEditorTracker builds an empty tracker.
func NewEditorTracker() *EditorTracker {
	return &EditorTracker{
		visible: make(map[protocol.DocumentURI]*list.Element),
		lru:     list.New(),
	}
}

// SetVisible replaces the full visible set, e.g. when tab groups change.
// Documents no longer present are dropped from the LRU; new ones are added
// at the back (least recently active).
func (t *EditorTracker) SetVisible(uris []protocol.DocumentURI) {
	t.mu.Lock()
	defer t.mu.Unlock()

	want := make(map[protocol.DocumentURI]bool, len(uris))
	for _, u := range uris {
		want[u] = true
	}

	for uri, el := range t.visible {
		if !want[uri] {
			t.lru.Remove(el)
			delete(t.visible, uri)
		}
	}

	for _, uri := range uris {
		if _, ok := t.visible[uri]; !ok {
			el := t.lru.PushBack(uri)
			t.visible[uri] = el
		}
	}
}

// SetActive marks uri as the active editor, moving it to the front of the
// LRU order (so it's excluded first from background rotation's candidate
// set, per spec.md §4.6: "the active editor's document stays out of
// background rotation").
func (t *EditorTracker) SetActive(uri protocol.DocumentURI) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = uri
	if el, ok := t.visible[uri]; ok {
		t.lru.MoveToFront(el)
	}
}

// IsVisible reports whether uri is currently open in an editor tab.
func (t *EditorTracker) IsVisible(uri protocol.DocumentURI) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.visible[uri]
	return ok
}

// NextBackgroundCandidate returns the least-recently-active visible
// document that isn't the current active editor, advancing the rotation by
// moving it to the front so the next call picks a different one. Returns
// ("", false) if there are no eligible documents.
func (t *EditorTracker) NextBackgroundCandidate() (protocol.DocumentURI, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for el := t.lru.Back(); el != nil; el = el.Prev() {
		uri := el.Value.(protocol.DocumentURI)
		if uri == t.active {
			continue
		}
		t.lru.MoveToFront(el)
		return uri, true
	}
	return "", false
}

// Visible returns a snapshot of the current visible set.
func (t *EditorTracker) Visible() []protocol.DocumentURI {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]protocol.DocumentURI, 0, len(t.visible))
	for uri := range t.visible {
		out = append(out, uri)
	}
	return out
}
