package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

type recordingFeature struct {
	name        string
	disposed    *[]string
	initialized bool
}

func (f *recordingFeature) FillClientCapabilities(caps *protocol.ClientCapabilities) {
	caps.Experimental = f.name
}
func (f *recordingFeature) FillInitializeParams(params *protocol.InitializeParams) {}
func (f *recordingFeature) Initialize(protocol.ServerCapabilities, DocumentSelector) error {
	f.initialized = true
	return nil
}
func (f *recordingFeature) Dispose() {
	*f.disposed = append(*f.disposed, f.name)
}

func TestBuilder_Build_CallsEveryFeature(t *testing.T) {
	b := NewBuilder()
	var disposed []string
	a := &recordingFeature{name: "a", disposed: &disposed}
	b.Add(a)

	caps, params := b.Build(protocol.ClientCapabilities{}, protocol.InitializeParams{})
	assert.Equal(t, "a", caps.Experimental)
	assert.Equal(t, caps, params.Capabilities)
}

func TestBuilder_InitializeAll(t *testing.T) {
	b := NewBuilder()
	var disposed []string
	a := &recordingFeature{name: "a", disposed: &disposed}
	b.Add(a)

	require.NoError(t, b.InitializeAll(protocol.ServerCapabilities{}, nil))
	assert.True(t, a.initialized)
}

func TestBuilder_DisposeAll_ReverseOrder(t *testing.T) {
	b := NewBuilder()
	var disposed []string
	a := &recordingFeature{name: "a", disposed: &disposed}
	c := &recordingFeature{name: "c", disposed: &disposed}
	b.Add(a)
	b.Add(c)

	b.DisposeAll()
	assert.Equal(t, []string{"c", "a"}, disposed)
}

func TestResolveSyncOptions_FullStruct(t *testing.T) {
	sc := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindIncremental,
			Save:      &protocol.SaveOptions{IncludeText: true},
		},
	}
	opts := ResolveSyncOptions(sc)
	assert.True(t, opts.OpenClose)
	assert.Equal(t, protocol.TextDocumentSyncKindIncremental, opts.Change)
	assert.True(t, opts.Save)
	assert.True(t, opts.SaveIncludeText)
}

func TestResolveSyncOptions_BareKind(t *testing.T) {
	sc := protocol.ServerCapabilities{TextDocumentSync: protocol.TextDocumentSyncKindFull}
	opts := ResolveSyncOptions(sc)
	assert.True(t, opts.OpenClose)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, opts.Change)
}

func TestResolveSyncOptions_Unset_DefaultsToFullOpenClose(t *testing.T) {
	opts := ResolveSyncOptions(protocol.ServerCapabilities{})
	assert.True(t, opts.OpenClose)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, opts.Change)
}
