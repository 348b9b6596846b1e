package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func TestBoolOrOptions(t *testing.T) {
	opts, ok := boolOrOptions(nil)
	assert.False(t, ok)
	assert.Nil(t, opts)

	opts, ok = boolOrOptions(false)
	assert.False(t, ok)
	assert.Nil(t, opts)

	opts, ok = boolOrOptions(true)
	assert.True(t, ok)
	assert.Nil(t, opts)

	custom := protocol.HoverOptions{}
	opts, ok = boolOrOptions(custom)
	assert.True(t, ok)
	assert.Equal(t, custom, opts)
}

func TestStaticFromField_Unsupported(t *testing.T) {
	check := staticFromField(func(sc protocol.ServerCapabilities) interface{} {
		return sc.HoverProvider
	})
	_, _, ok := check(protocol.ServerCapabilities{})
	assert.False(t, ok)
}

func TestStaticFromField_BoolTrue(t *testing.T) {
	check := staticFromField(func(sc protocol.ServerCapabilities) interface{} {
		return sc.HoverProvider
	})
	_, options, ok := check(protocol.ServerCapabilities{HoverProvider: true})
	assert.True(t, ok)
	assert.Nil(t, options)
}

func TestStaticFromField_OptionsStruct(t *testing.T) {
	check := staticFromField(func(sc protocol.ServerCapabilities) interface{} {
		return sc.HoverProvider
	})
	given := protocol.HoverOptions{}
	_, options, ok := check(protocol.ServerCapabilities{HoverProvider: given})
	assert.True(t, ok)
	assert.Equal(t, given, options)
}

func TestStaticFromPtr_NilPointerIsUnsupported(t *testing.T) {
	check := staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.CompletionOptions {
		return sc.CompletionProvider
	})
	_, _, ok := check(protocol.ServerCapabilities{})
	assert.False(t, ok)
}

func TestStaticFromPtr_NonNilPointerIsSupported(t *testing.T) {
	opts := &protocol.CompletionOptions{TriggerCharacters: []string{"."}}
	check := staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.CompletionOptions {
		return sc.CompletionProvider
	})
	_, options, ok := check(protocol.ServerCapabilities{CompletionProvider: opts})
	assert.True(t, ok)
	assert.Same(t, opts, options)
}
