package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestTable_PutIsIdempotentInPlace(t *testing.T) {
	tbl := NewTable()
	tbl.Put(Registration{ID: "1", Method: "textDocument/completion"})
	tbl.Put(Registration{ID: "2", Method: "textDocument/hover"})
	tbl.Put(Registration{ID: "1", Method: "textDocument/completion", Options: "updated"})

	assert.Equal(t, 2, tbl.Len())
	all := tbl.All()
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID, "re-registering id 1 must keep its original insertion position")
	assert.Equal(t, "updated", all[0].Options)
}

func TestTable_Delete(t *testing.T) {
	tbl := NewTable()
	tbl.Put(Registration{ID: "1"})

	assert.True(t, tbl.Delete("1"))
	assert.False(t, tbl.Delete("1"))
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_MatchFirst_ReturnsEarliestMatchOnTie(t *testing.T) {
	tbl := NewTable()
	tbl.Put(Registration{ID: "first", Selector: DocumentSelector{{Language: "go"}}})
	tbl.Put(Registration{ID: "second", Selector: DocumentSelector{{Language: "go"}}})

	doc := Document{URI: "file:///a.go", LanguageID: "go"}
	r, ok := tbl.MatchFirst(doc)
	require.True(t, ok)
	assert.Equal(t, "first", r.ID)
}

func TestTable_MatchAll(t *testing.T) {
	tbl := NewTable()
	tbl.Put(Registration{ID: "go-only", Selector: DocumentSelector{{Language: "go"}}})
	tbl.Put(Registration{ID: "py-only", Selector: DocumentSelector{{Language: "python"}}})
	tbl.Put(Registration{ID: "wildcard", Selector: DocumentSelector{{}}})

	doc := Document{URI: "file:///a.go", LanguageID: "go"}
	matches := tbl.MatchAll(doc)
	require.Len(t, matches, 2)
	assert.Equal(t, "go-only", matches[0].ID)
	assert.Equal(t, "wildcard", matches[1].ID)
}

type fakeDynamicFeature struct {
	method         string
	registered     map[string]DocumentSelector
	failRegister   bool
	failUnregister bool
}

func newFakeDynamicFeature(method string) *fakeDynamicFeature {
	return &fakeDynamicFeature{method: method, registered: make(map[string]DocumentSelector)}
}

func (f *fakeDynamicFeature) FillClientCapabilities(*protocol.ClientCapabilities) {}
func (f *fakeDynamicFeature) FillInitializeParams(*protocol.InitializeParams)     {}
func (f *fakeDynamicFeature) Initialize(protocol.ServerCapabilities, DocumentSelector) error {
	return nil
}
func (f *fakeDynamicFeature) Dispose() {}
func (f *fakeDynamicFeature) RegistrationMethod() string { return f.method }
func (f *fakeDynamicFeature) Register(id string, selector DocumentSelector, options interface{}) error {
	if f.failRegister {
		return assertErr
	}
	f.registered[id] = selector
	return nil
}
func (f *fakeDynamicFeature) Unregister(id string) error {
	if f.failUnregister {
		return assertErr
	}
	delete(f.registered, id)
	return nil
}

var assertErr = errors.New("fake registration failure")

func TestEngine_Register_MergesDefaultSelectorWhenEntryOmitsOne(t *testing.T) {
	def := DocumentSelector{{Language: "go"}}
	engine := NewEngine(def)
	feat := newFakeDynamicFeature("textDocument/completion")
	engine.AddFeature(feat)

	err := engine.Register([]RegistrationEntry{
		{ID: "1", Method: "textDocument/completion"},
	})
	require.NoError(t, err)
	assert.Equal(t, def, feat.registered["1"])
}

func TestEngine_Register_GeneratesIDWhenEntryOmitsOne(t *testing.T) {
	engine := NewEngine(nil)
	feat := newFakeDynamicFeature("textDocument/completion")
	engine.AddFeature(feat)

	err := engine.Register([]RegistrationEntry{{Method: "textDocument/completion"}})
	require.NoError(t, err)
	assert.Len(t, feat.registered, 1)
}

func TestEngine_Register_UnknownMethodErrors(t *testing.T) {
	engine := NewEngine(nil)
	err := engine.Register([]RegistrationEntry{{ID: "1", Method: "textDocument/unknown"}})
	assert.Error(t, err)
}

func TestEngine_Unregister_DelegatesToFeature(t *testing.T) {
	engine := NewEngine(nil)
	feat := newFakeDynamicFeature("textDocument/completion")
	engine.AddFeature(feat)
	require.NoError(t, engine.Register([]RegistrationEntry{{ID: "1", Method: "textDocument/completion"}}))

	err := engine.Unregister([]RegistrationEntry{{ID: "1", Method: "textDocument/completion"}})
	require.NoError(t, err)
	assert.NotContains(t, feat.registered, "1")
}
