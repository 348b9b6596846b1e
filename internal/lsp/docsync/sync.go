// Package docsync implements the document synchronization bridge (component
// E): translating open/change/save/close host events into the
// textDocument/didOpen, didChange, willSave, willSaveWaitUntil, didSave, and
// didClose notifications, honoring whichever sync kind the server negotiated
// and debouncing rapid edits per spec.md §4.5.
package docsync

import (
	"context"
	"sync"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/capability"
)

// Sender is the narrow connection dependency docsync needs.
type Sender interface {
	Call(ctx context.Context, method string, params, result interface{}) error
	Notify(ctx context.Context, method string, params interface{}) error
}

// Options configures one Sync instance. No field of the top-level Options
// struct feeds it: client.go passes the zero value, so DebounceFull takes
// its default.
type Options struct {
	// DebounceFull is the coalescing window for change notifications.
	// spec.md §4.5 settles on 200ms for full-document sync.
	DebounceFull time.Duration
}

const defaultDebounce = 200 * time.Millisecond

// openDoc tracks the sync state this component needs per open document: the
// version last actually sent to the server (as opposed to the host's latest
// version, which may be ahead while an edit sits in the debouncer), the best
// known full text (for didOpen replay), and whether the document currently
// falls within some live registration's selector — the "Synced Document
// Set" spec.md §4.5 describes. A document the host has opened but that no
// registration covers is tracked but never gets a didOpen/didChange/didClose
// sent for it.
type openDoc struct {
	languageID  string
	sentVersion int32
	text        string
	synced      bool
}

// Sync owns document lifecycle notifications for one connection. It
// implements capability.DynamicFeature: spec.md §4.5 registers it against a
// selector derived from the server's text-document-sync options, the same
// registration machinery every other feature uses, so that a document
// coming into or falling out of scope replays the didOpen/didClose the
// server would otherwise miss.
type Sync struct {
	conn     Sender
	caps     *capability.SyncOptions
	logger   *zap.Logger
	debounce *debouncer
	registry *capability.Table

	mu   sync.Mutex
	open map[protocol.DocumentURI]*openDoc
}

// registrationMethod is the method Sync is indexed under in the
// capability.Engine. LSP servers essentially never dynamically (un)register
// the base sync notifications, but implementing the DynamicFeature contract
// under this method keeps Sync wired into the same registration/replay path
// as every other feature instead of being a special case (spec.md §4.5).
const registrationMethod = "textDocument/didOpen"

// New builds a Sync bound to caps (the server's negotiated sync options,
// from capability.ResolveSyncOptions) and conn.
func New(conn Sender, caps capability.SyncOptions, logger *zap.Logger, opts Options) *Sync {
	if opts.DebounceFull <= 0 {
		opts.DebounceFull = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sync{
		conn:     conn,
		caps:     &caps,
		logger:   logger,
		registry: capability.NewTable(),
		open:     make(map[protocol.DocumentURI]*openDoc),
	}
	s.debounce = newDebouncer(opts.DebounceFull, s.flushDidChange)
	return s
}

// DidOpen records a document the host has opened and, if a live
// registration's selector matches it, notifies the server right away.
// Whether or not a registration currently matches, the document is tracked
// so a later Register can replay the didOpen (spec.md §4.5); it joins the
// Synced Document Set only once that didOpen goes out.
func (s *Sync) DidOpen(ctx context.Context, uri protocol.DocumentURI, languageID string, version int32, text string) {
	doc := &openDoc{languageID: languageID, sentVersion: version, text: text}
	s.mu.Lock()
	s.open[uri] = doc
	_, ok := s.registry.MatchFirst(capability.Document{URI: uri, LanguageID: languageID})
	s.mu.Unlock()

	if ok {
		s.sendDidOpen(ctx, uri, doc)
	}
}

// sendDidOpen sends the didOpen notification for doc and marks it synced,
// if the server wants open/close notifications at all.
func (s *Sync) sendDidOpen(ctx context.Context, uri protocol.DocumentURI, doc *openDoc) {
	s.mu.Lock()
	doc.synced = true
	s.mu.Unlock()

	if !s.caps.OpenClose {
		return
	}
	params := &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: protocol.LanguageIdentifier(doc.languageID),
			Version:    doc.sentVersion,
			Text:       doc.text,
		},
	}
	if err := s.conn.Notify(ctx, "textDocument/didOpen", params); err != nil {
		s.logger.Warn("didOpen failed", zap.String("uri", string(uri)), zap.Error(err))
	}
}

// sendDidClose sends the didClose notification for uri and marks doc
// unsynced, taking it out of the Synced Document Set while keeping it
// tracked so a future Register can replay its didOpen again.
func (s *Sync) sendDidClose(ctx context.Context, uri protocol.DocumentURI, doc *openDoc) {
	s.debounce.Discard(uri)
	s.mu.Lock()
	doc.synced = false
	s.mu.Unlock()

	if !s.caps.OpenClose {
		return
	}
	params := &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	if err := s.conn.Notify(ctx, "textDocument/didClose", params); err != nil {
		s.logger.Warn("didClose failed", zap.String("uri", string(uri)), zap.Error(err))
	}
}

// DidChangeFull records a full-text replacement for uri, to be sent (after
// debouncing) as a TextDocumentSyncKindFull didChange.
func (s *Sync) DidChangeFull(uri protocol.DocumentURI, version int32, text string) {
	if s.caps.Change == protocol.TextDocumentSyncKindNone {
		return
	}
	s.debounce.addFull(uri, version, text)
}

// DidChangeIncremental forwards one or more range edits for uri immediately
// and in arrival order, bypassing the debouncer entirely: Incremental sync
// is not coalesced, per spec.md §4.5.
func (s *Sync) DidChangeIncremental(ctx context.Context, uri protocol.DocumentURI, version int32, changes []protocol.TextDocumentContentChangeEvent) {
	if s.caps.Change == protocol.TextDocumentSyncKindNone || len(changes) == 0 {
		return
	}
	s.mu.Lock()
	doc, ok := s.open[uri]
	if ok {
		doc.sentVersion = version
	}
	synced := ok && doc.synced
	s.mu.Unlock()
	if !synced {
		return
	}

	s.sendDidChange(ctx, uri, version, changes)
}

// flushDidChange is the debouncer's onFlush callback for coalesced full
// syncs; it runs on whichever goroutine triggers the flush (the debounce
// timer or a forced Flush call).
func (s *Sync) flushDidChange(uri protocol.DocumentURI, edit *pendingEdit) {
	s.mu.Lock()
	doc, ok := s.open[uri]
	if ok {
		doc.sentVersion = edit.version
		doc.text = edit.full
	}
	synced := ok && doc.synced
	s.mu.Unlock()
	if !synced {
		return
	}

	changes := []protocol.TextDocumentContentChangeEvent{{Text: edit.full}}
	s.sendDidChange(context.Background(), uri, edit.version, changes)
}

func (s *Sync) sendDidChange(ctx context.Context, uri protocol.DocumentURI, version int32, changes []protocol.TextDocumentContentChangeEvent) {
	params := &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: changes,
	}
	if err := s.conn.Notify(ctx, "textDocument/didChange", params); err != nil {
		s.logger.Warn("didChange failed", zap.String("uri", string(uri)), zap.Error(err))
	}
}

// Flush forces any pending edit for uri out immediately and synchronously.
// The feature pipeline calls this (spec.md §4.4 step 3, §4.5) before every
// request so the server never answers against stale content.
func (s *Sync) Flush(_ context.Context, doc capability.Document) {
	s.debounce.Flush(doc.URI)
}

// WillSave notifies the server a save is about to happen, if it asked for
// that notification (WillSave and WillSaveWaitUntil are negotiated
// independently; WillSaveWaitUntil additionally expects an edit response).
func (s *Sync) WillSave(ctx context.Context, uri protocol.DocumentURI, reason protocol.TextDocumentSaveReason) {
	if !s.caps.WillSave || !s.isSynced(uri) {
		return
	}
	s.debounce.Flush(uri)
	params := &protocol.WillSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Reason:       reason,
	}
	if err := s.conn.Notify(ctx, "textDocument/willSave", params); err != nil {
		s.logger.Warn("willSave failed", zap.String("uri", string(uri)), zap.Error(err))
	}
}

// WillSaveWaitUntil requests pre-save edits from the server, blocking until
// the server responds or ctx is cancelled. Returns nil if unsupported.
func (s *Sync) WillSaveWaitUntil(ctx context.Context, uri protocol.DocumentURI, reason protocol.TextDocumentSaveReason) ([]protocol.TextEdit, error) {
	if !s.caps.WillSaveWaitUntil || !s.isSynced(uri) {
		return nil, nil
	}
	s.debounce.Flush(uri)
	params := &protocol.WillSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Reason:       reason,
	}
	var edits []protocol.TextEdit
	if err := s.conn.Call(ctx, "textDocument/willSaveWaitUntil", params, &edits); err != nil {
		return nil, err
	}
	return edits, nil
}

// DidSave notifies the server a document was saved, including text only if
// the server asked for SaveIncludeText.
func (s *Sync) DidSave(ctx context.Context, uri protocol.DocumentURI, text string) {
	if !s.caps.Save || !s.isSynced(uri) {
		return
	}
	s.debounce.Flush(uri)
	params := &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	if s.caps.SaveIncludeText {
		params.Text = text
	}
	if err := s.conn.Notify(ctx, "textDocument/didSave", params); err != nil {
		s.logger.Warn("didSave failed", zap.String("uri", string(uri)), zap.Error(err))
	}
}

// DidClose notifies the server a document is closed, if it was synced, and
// discards any state docsync was keeping for it. Any edit still pending at
// close time is dropped rather than flushed: the document no longer exists
// from the host's perspective, so there's nothing left for the server to
// apply it to.
func (s *Sync) DidClose(ctx context.Context, uri protocol.DocumentURI) {
	s.debounce.Discard(uri)
	s.mu.Lock()
	doc, ok := s.open[uri]
	delete(s.open, uri)
	synced := ok && doc.synced
	s.mu.Unlock()

	if !synced || !s.caps.OpenClose {
		return
	}
	params := &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}
	if err := s.conn.Notify(ctx, "textDocument/didClose", params); err != nil {
		s.logger.Warn("didClose failed", zap.String("uri", string(uri)), zap.Error(err))
	}
}

// IsOpen reports whether uri is currently tracked as open.
func (s *Sync) IsOpen(uri protocol.DocumentURI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[uri]
	return ok
}

func (s *Sync) isSynced(uri protocol.DocumentURI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.open[uri]
	return ok && doc.synced
}

// FlushAll forces out whatever single edit is sitting in the debounce slot,
// regardless of which document it belongs to. fileevents calls this ahead of
// workspace/didChangeWatchedFiles (spec.md §4.5, §4.7) so the server never
// observes a file-system event out of order relative to a pending edit.
func (s *Sync) FlushAll() {
	s.debounce.FlushAll()
}

// Shutdown flushes every pending edit; called before the connection closes
// so no buffered change is silently lost.
func (s *Sync) Shutdown() {
	s.FlushAll()
}

// --- capability.Feature / capability.DynamicFeature ---

// FillClientCapabilities declares dynamic registration support for
// textDocument/synchronization; Sync has no other client capability to
// contribute (the sync kind itself is the server's choice, not the
// client's).
func (s *Sync) FillClientCapabilities(caps *protocol.ClientCapabilities) {
	caps.TextDocument.Synchronization = &protocol.TextDocumentSyncClientCapabilities{DynamicRegistration: true}
}

func (s *Sync) FillInitializeParams(*protocol.InitializeParams) {}

// Initialize installs Sync's static registration. The base LSP sync
// capability carries no documentSelector of its own (textDocumentSync is
// negotiated globally, unlike e.g. hoverProvider's per-selector
// registration options), so the selector derived from it is simply the
// client's default selector (spec.md §4.5's "a selector derived from the
// server's text-document-sync options" reduces to this in the absence of a
// narrower one). Any already-open document matching it replays its didOpen.
func (s *Sync) Initialize(_ protocol.ServerCapabilities, defaultSelector capability.DocumentSelector) error {
	return s.Register("static:sync", defaultSelector, nil)
}

// Dispose removes every registration without replaying didClose: Dispose
// runs during client shutdown, where the host is tearing everything down
// anyway and per-document close notifications add nothing (spec.md §4.6
// reserves the close-replay behavior for mid-session unregistration).
func (s *Sync) Dispose() {
	for _, r := range s.registry.All() {
		s.registry.Delete(r.ID)
	}
}

func (s *Sync) RegistrationMethod() string { return registrationMethod }

// Register adds a selector-scoped registration and replays didOpen (spec.md
// §4.5) for every open-but-unsynced document it now matches.
func (s *Sync) Register(id string, selector capability.DocumentSelector, options interface{}) error {
	s.registry.Put(capability.Registration{ID: id, Method: registrationMethod, Selector: selector, Options: options})

	var toOpen []protocol.DocumentURI
	s.mu.Lock()
	for uri, doc := range s.open {
		if doc.synced {
			continue
		}
		if selector.Applies(capability.Document{URI: uri, LanguageID: doc.languageID}) {
			toOpen = append(toOpen, uri)
		}
	}
	s.mu.Unlock()

	for _, uri := range toOpen {
		s.mu.Lock()
		doc := s.open[uri]
		s.mu.Unlock()
		if doc != nil {
			s.sendDidOpen(context.Background(), uri, doc)
		}
	}
	return nil
}

// Unregister removes a registration and replays didClose (spec.md §4.5) for
// every synced document no longer matched by any remaining registration.
func (s *Sync) Unregister(id string) error {
	s.registry.Delete(id)

	var toClose []protocol.DocumentURI
	s.mu.Lock()
	for uri, doc := range s.open {
		if !doc.synced {
			continue
		}
		if _, ok := s.registry.MatchFirst(capability.Document{URI: uri, LanguageID: doc.languageID}); !ok {
			toClose = append(toClose, uri)
		}
	}
	s.mu.Unlock()

	for _, uri := range toClose {
		s.mu.Lock()
		doc := s.open[uri]
		s.mu.Unlock()
		if doc != nil {
			s.sendDidClose(context.Background(), uri, doc)
		}
	}
	return nil
}
