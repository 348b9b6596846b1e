// Package diagnostics implements the diagnostic pull scheduler (component
// F): the per-document pull state machine, the workspace-wide pull loop,
// background rotation, and the visible-document tracker, per spec.md §4.6.
package diagnostics

import (
	"context"
	"errors"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/lsperr"
)

// TriggerMode names why a pull was requested, passed to the host's optional
// Filter hook so it can suppress on-change/on-save pulls selectively
// without affecting on-open or refresh pulls (spec.md §4.6 "Filter hook").
type TriggerMode int

const (
	TriggerOpen TriggerMode = iota
	TriggerChange
	TriggerSave
	TriggerRefresh
	TriggerBackground
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerOpen:
		return "open"
	case TriggerChange:
		return "change"
	case TriggerSave:
		return "save"
	case TriggerRefresh:
		return "refresh"
	case TriggerBackground:
		return "background"
	default:
		return "unknown"
	}
}

// pullState is the per-document state name from spec.md §4.6's diagram.
type pullState int

const (
	stateNone pullState = iota
	stateActive
	stateReschedule
	stateOutDated
)

// cancelFunc cancels the context backing an in-flight textDocument/diagnostic
// request.
type cancelFunc func()

// docState is the scheduler's bookkeeping for one URI.
type docState struct {
	state      pullState
	version    int32
	resultID   string
	cancel     cancelFunc
	rescheduleVersion int32
}

// Sender is the narrow connection dependency the scheduler needs.
type Sender interface {
	Call(ctx context.Context, method string, params, result interface{}) error
}

// Filter optionally suppresses an on-change or on-save pull.
type Filter func(uri protocol.DocumentURI, mode TriggerMode) bool

// Collection is the diagnostic store the scheduler exclusively owns and
// mutates, per spec.md §5 "the diagnostic collection is owned by the
// scheduler; no other component writes to it". A host reads it to render
// squiggles; it never writes.
type Collection struct {
	mu    sync.RWMutex
	items map[protocol.DocumentURI][]protocol.Diagnostic
}

func newCollection() *Collection {
	return &Collection{items: make(map[protocol.DocumentURI][]protocol.Diagnostic)}
}

// Get returns the diagnostics currently recorded for uri.
func (c *Collection) Get(uri protocol.DocumentURI) []protocol.Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[uri]
}

func (c *Collection) set(uri protocol.DocumentURI, items []protocol.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[uri] = items
}

func (c *Collection) delete(uri protocol.DocumentURI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, uri)
}

// Matcher reports whether uri currently matches the diagnostic feature's
// registration (selector-matched). Visibility in an editor tab is checked
// separately through the EditorTracker; the scheduler only pulls
// matching+visible documents.
type Matcher interface {
	Matches(uri protocol.DocumentURI) bool
}

// Scheduler runs the per-document pull state machine and owns the
// Collection. It does not itself know about workspace pull or background
// rotation; those are separate collaborators (workspace.go) that call back
// into Pull using the same Collection and per-document state map so a
// document-pull result always wins over a workspace-pull one for the same
// URI, per spec.md §4.6's subordination rule.
type Scheduler struct {
	conn    Sender
	logger  *zap.Logger
	filter  Filter
	matcher Matcher
	tracker *EditorTracker

	col *Collection

	mu   sync.Mutex
	docs map[protocol.DocumentURI]*docState
}

// New builds a Scheduler.
func New(conn Sender, logger *zap.Logger, matcher Matcher, tracker *EditorTracker, filter Filter) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		conn:    conn,
		logger:  logger,
		filter:  filter,
		matcher: matcher,
		tracker: tracker,
		col:     newCollection(),
		docs:    make(map[protocol.DocumentURI]*docState),
	}
}

// Collection exposes the diagnostic store for host reads.
func (s *Scheduler) Collection() *Collection { return s.col }

// TrackedByDocumentPull reports whether uri currently has document-pull
// state, used by the workspace loop to skip writing diagnostics for URIs
// document-pull owns.
func (s *Scheduler) TrackedByDocumentPull(uri protocol.DocumentURI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[uri]
	return ok
}

// ResultID returns the last known resultId for uri, or "" if none, used to
// build workspace/diagnostic's previousResultIds.
func (s *Scheduler) ResultID(uri protocol.DocumentURI) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[uri]; ok {
		return d.resultID
	}
	return ""
}

// OnOpen pulls every matching+visible document on didOpen (always-on-open
// per spec.md §4.6).
func (s *Scheduler) OnOpen(ctx context.Context, uri protocol.DocumentURI, version int32) {
	if !s.matcher.Matches(uri) || !s.tracker.IsVisible(uri) {
		return
	}
	s.Pull(ctx, uri, version, TriggerOpen)
}

// OnChange pulls uri if onChange is enabled, it's already known, and the
// caller indicates at least one content change occurred; the filter hook
// can still suppress it.
func (s *Scheduler) OnChange(ctx context.Context, uri protocol.DocumentURI, version int32, onChangeEnabled bool) {
	if !onChangeEnabled {
		return
	}
	if s.filter != nil && s.filter(uri, TriggerChange) {
		return
	}
	s.mu.Lock()
	_, known := s.docs[uri]
	s.mu.Unlock()
	if !known {
		return
	}
	if !s.matcher.Matches(uri) || !s.tracker.IsVisible(uri) {
		return
	}
	s.Pull(ctx, uri, version, TriggerChange)
}

// OnSave pulls uri if onSave is enabled.
func (s *Scheduler) OnSave(ctx context.Context, uri protocol.DocumentURI, version int32, onSaveEnabled bool) {
	if !onSaveEnabled {
		return
	}
	if s.filter != nil && s.filter(uri, TriggerSave) {
		return
	}
	if !s.matcher.Matches(uri) || !s.tracker.IsVisible(uri) {
		return
	}
	s.Pull(ctx, uri, version, TriggerSave)
}

// Pull drives the state machine transition for a new pull request against
// uri, per spec.md §4.6's diagram and invariants.
func (s *Scheduler) Pull(ctx context.Context, uri protocol.DocumentURI, version int32, mode TriggerMode) {
	s.mu.Lock()
	d, ok := s.docs[uri]
	if !ok {
		d = &docState{state: stateNone}
		s.docs[uri] = d
	}

	switch d.state {
	case stateNone, stateOutDated:
		d.state = stateActive
		d.version = version
		s.mu.Unlock()
		s.startRequest(uri, d, version)
		return
	case stateActive:
		// A new pull while Active cancels the in-flight request and moves
		// to Reschedule; the response handler restarts the pull once the
		// cancelled response arrives.
		d.state = stateReschedule
		d.rescheduleVersion = version
		cancel := d.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	case stateReschedule:
		// Already scheduled to run again; just bump the version to pull.
		d.rescheduleVersion = version
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
}

func (s *Scheduler) startRequest(uri protocol.DocumentURI, d *docState, version int32) {
	reqCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	d.cancel = cancel
	previous := d.resultID
	s.mu.Unlock()

	go func() {
		params := &protocol.DocumentDiagnosticParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		}
		if previous != "" {
			params.PreviousResultID = previous
		}

		var report wireReport
		err := s.conn.Call(reqCtx, "textDocument/diagnostic", params, &report)
		s.onResponse(uri, version, report, err)
	}()
}

func (s *Scheduler) onResponse(uri protocol.DocumentURI, version int32, report wireReport, err error) {
	s.mu.Lock()
	d, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		return
	}

	switch d.state {
	case stateOutDated:
		// Drop the response without mutating the collection; the entry
		// itself is gone already (close already deleted it).
		delete(s.docs, uri)
		s.mu.Unlock()
		return
	case stateReschedule:
		next := d.rescheduleVersion
		d.state = stateActive
		d.version = next
		s.mu.Unlock()
		s.startRequest(uri, d, next)
		return
	}

	// stateActive: classify the result before deciding how to settle.
	classified := lsperr.Classify("textDocument/diagnostic", err)

	var serverCancelled *lsperr.ServerCancelledError
	if errors.As(classified, &serverCancelled) {
		if serverCancelled.Retrigger {
			// spec.md §7: ServerCancelled with retriggerRequest=true behaves
			// like Reschedule — rerun the same pull immediately.
			version := d.version
			d.cancel = nil
			s.mu.Unlock()
			s.startRequest(uri, d, version)
			return
		}
		// spec.md §7: ServerCancelled without retrigger settles the
		// document as OutDated rather than None, so it's treated as stale
		// (not cleanly completed) until the next real trigger pulls again;
		// the collection is left untouched.
		d.state = stateOutDated
		d.cancel = nil
		s.mu.Unlock()
		return
	}

	d.state = stateNone
	d.cancel = nil

	visible := s.tracker.IsVisible(uri)
	s.mu.Unlock()

	if classified != nil {
		s.logger.Warn("diagnostic pull failed", zap.String("uri", string(uri)), zap.Error(classified))
		return
	}

	if !visible {
		// Untrack without mutating the collection (spec.md §4.6 invariant).
		s.mu.Lock()
		delete(s.docs, uri)
		s.mu.Unlock()
		return
	}

	s.applyReport(uri, report)
}

func (s *Scheduler) applyReport(uri protocol.DocumentURI, report wireReport) {
	full, resultID, changed := decodeReport(report)

	s.mu.Lock()
	if d, ok := s.docs[uri]; ok {
		d.resultID = resultID
	}
	s.mu.Unlock()

	if changed {
		s.col.set(uri, full)
	}
}

// Close implements the didClose semantics from spec.md §4.6: if the server
// advertises workspace diagnostics or inter-file dependencies, schedule one
// last pull so a workspace provider inherits an accurate baseline;
// otherwise cancel any in-flight request, mark it OutDated, and delete the
// collection entry.
func (s *Scheduler) Close(uri protocol.DocumentURI, workspaceDiagnostics, interFileDependencies bool) {
	s.mu.Lock()
	d, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		if !workspaceDiagnostics && !interFileDependencies {
			s.col.delete(uri)
		}
		return
	}

	if workspaceDiagnostics || interFileDependencies {
		if d.state == stateActive {
			d.state = stateReschedule
			cancel := d.cancel
			s.mu.Unlock()
			if cancel != nil {
				cancel()
			}
			return
		}
		if d.state == stateReschedule {
			s.mu.Unlock()
			return
		}
		d.state = stateActive
		version := d.version
		s.mu.Unlock()
		s.startRequest(uri, d, version)
		return
	}

	cancel := d.cancel
	d.state = stateOutDated
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.col.delete(uri)
}

// knownURIs returns every URI the scheduler currently has state for,
// snapshotted under the lock.
func (s *Scheduler) knownURIs() []protocol.DocumentURI {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.DocumentURI, 0, len(s.docs))
	for uri := range s.docs {
		out = append(out, uri)
	}
	return out
}

// Refresh pulls every matching+visible document, in response to a
// workspace/diagnostic/refresh request from the server.
func (s *Scheduler) Refresh(ctx context.Context, visibleVersions map[protocol.DocumentURI]int32) {
	for uri, version := range visibleVersions {
		if !s.matcher.Matches(uri) || !s.tracker.IsVisible(uri) {
			continue
		}
		s.Pull(ctx, uri, version, TriggerRefresh)
	}
}

// wireReport is the raw shape of a (Related)Full/UnchangedDocumentDiagnosticReport
// or a WorkspaceDocumentDiagnosticReport entry, decoded directly rather than
// through a generated union type so the "kind" discriminant drives behavior
// explicitly, per the textDocument/diagnostic and workspace/diagnostic
// response shapes in the LSP 3.17 specification.
type wireReport struct {
	Kind     string                `json:"kind"`
	ResultID string                `json:"resultId,omitempty"`
	Items    []protocol.Diagnostic `json:"items,omitempty"`
	URI      protocol.DocumentURI  `json:"uri,omitempty"`
	Version  *int32                `json:"version,omitempty"`
}

// decodeReport normalizes a wireReport (full or unChanged) into the items to
// install, the resultId to remember, and whether the collection should
// actually be rewritten.
func decodeReport(report wireReport) (items []protocol.Diagnostic, resultID string, changed bool) {
	switch report.Kind {
	case "full":
		return report.Items, report.ResultID, true
	case "unchanged":
		return nil, report.ResultID, false
	default:
		return nil, "", false
	}
}
