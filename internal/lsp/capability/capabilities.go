package capability

import (
	"go.lsp.dev/protocol"
)

// Builder accumulates client capabilities across every registered feature
// during the `initialize` handshake (spec.md §4.2 step 1). Capabilities are
// sent once and are immutable after that, per spec.md §3.
type Builder struct {
	features []Feature
}

// NewBuilder constructs an empty capability builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add registers a feature to be consulted when Build runs.
func (b *Builder) Add(f Feature) {
	b.features = append(b.features, f)
}

// Features returns every feature added so far, in registration order.
func (b *Builder) Features() []Feature {
	out := make([]Feature, len(b.features))
	copy(out, b.features)
	return out
}

// Build asks every feature to fill its portion of the client capabilities
// and the initialize params, then returns the assembled structures.
func (b *Builder) Build(base protocol.ClientCapabilities, baseParams protocol.InitializeParams) (protocol.ClientCapabilities, protocol.InitializeParams) {
	caps := base
	params := baseParams
	for _, f := range b.features {
		f.FillClientCapabilities(&caps)
	}
	params.Capabilities = caps
	for _, f := range b.features {
		f.FillInitializeParams(&params)
	}
	return caps, params
}

// InitializeAll calls Initialize on every feature with the server's
// capabilities, per spec.md §4.2 step 5. Static features that auto-register
// do so here; the registration engine must already be populated with
// dynamic features before this runs, since static registrations may turn
// around and call the same engine paths a dynamic registration would.
func (b *Builder) InitializeAll(serverCapabilities protocol.ServerCapabilities, defaultSelector DocumentSelector) error {
	for _, f := range b.features {
		if err := f.Initialize(serverCapabilities, defaultSelector); err != nil {
			return err
		}
	}
	return nil
}

// DisposeAll releases every feature's resources, in reverse registration
// order so features that depend on earlier ones (e.g. a resolve feature
// sharing state with its base feature) tear down after their dependency.
func (b *Builder) DisposeAll() {
	for i := len(b.features) - 1; i >= 0; i-- {
		b.features[i].Dispose()
	}
}

// SyncOptions is the normalized form ResolveSyncOptions reduces the server's
// advertised textDocumentSync capability to (which may be either a bare
// TextDocumentSyncKind or a full TextDocumentSyncOptions struct), per
// spec.md §4.2 step 3.
type SyncOptions struct {
	OpenClose        bool
	Change           protocol.TextDocumentSyncKind
	WillSave         bool
	WillSaveWaitUntil bool
	Save             bool
	SaveIncludeText  bool
}

// ResolveSyncOptions normalizes ServerCapabilities.TextDocumentSync.
func ResolveSyncOptions(caps protocol.ServerCapabilities) SyncOptions {
	switch sync := caps.TextDocumentSync.(type) {
	case protocol.TextDocumentSyncOptions:
		opts := SyncOptions{
			OpenClose:         sync.OpenClose,
			Change:            sync.Change,
			WillSave:          sync.WillSave,
			WillSaveWaitUntil: sync.WillSaveWaitUntil,
		}
		if sync.Save != nil {
			opts.Save = true
			opts.SaveIncludeText = sync.Save.IncludeText
		}
		return opts
	case protocol.TextDocumentSyncKind:
		return SyncOptions{OpenClose: true, Change: sync}
	case float64: // some servers encode the kind as a bare number over the wire
		return SyncOptions{OpenClose: true, Change: protocol.TextDocumentSyncKind(sync)}
	default:
		// Server didn't advertise sync options at all: assume full sync,
		// open/close only, the conservative default every client falls
		// back to.
		return SyncOptions{OpenClose: true, Change: protocol.TextDocumentSyncKindFull}
	}
}
