package pipeline

import (
	"go.lsp.dev/protocol"

	"github.com/lspkit/client/internal/lsp/capability"
)

// boolOrOptions interprets one of go.lsp.dev/protocol's "boolean | options"
// ServerCapabilities fields: nil or false means unsupported, true means
// supported with default options, and any other non-nil value is the
// provider's options struct passed through as-is.
func boolOrOptions(v interface{}) (options interface{}, ok bool) {
	if v == nil {
		return nil, false
	}
	if b, isBool := v.(bool); isBool {
		return nil, b
	}
	return v, true
}

// staticFromField builds a StaticCheck for a ServerCapabilities field that
// follows the boolean-or-options pattern and carries no selector of its own
// (most features; the selector always falls back to the client's default
// document selector per spec.md §4.3).
func staticFromField(field func(protocol.ServerCapabilities) interface{}) StaticCheck {
	return func(sc protocol.ServerCapabilities) (capability.DocumentSelector, interface{}, bool) {
		options, ok := boolOrOptions(field(sc))
		if !ok {
			return nil, nil, false
		}
		return nil, options, true
	}
}

// staticFromPtr builds a StaticCheck for a ServerCapabilities field typed as
// a bare options pointer (no boolean variant), e.g. CompletionProvider
// *CompletionOptions. Kept distinct from staticFromField since a nil *T
// boxed into an interface{} is non-nil, so boolOrOptions's nil check alone
// would misreport "supported" for an unset pointer field.
func staticFromPtr[T any](field func(protocol.ServerCapabilities) *T) StaticCheck {
	return func(sc protocol.ServerCapabilities) (capability.DocumentSelector, interface{}, bool) {
		p := field(sc)
		if p == nil {
			return nil, nil, false
		}
		return nil, p, true
	}
}
