package capability

import (
	"context"

	"go.lsp.dev/protocol"
)

// Feature is the trait spec.md §9 asks for: every client feature, static or
// dynamic, implements this lifecycle.
type Feature interface {
	// FillClientCapabilities contributes this feature's portion of the
	// capabilities sent in `initialize`.
	FillClientCapabilities(caps *protocol.ClientCapabilities)
	// FillInitializeParams contributes any feature-specific data to the
	// initialize request params (most features are no-ops here).
	FillInitializeParams(params *protocol.InitializeParams)
	// Initialize is called once after `initialized` is sent, with the
	// server's capabilities and the client's default document selector.
	// Auto-registering features (those backed by a static server capability
	// rather than dynamic registration) register themselves here.
	Initialize(serverCapabilities protocol.ServerCapabilities, defaultSelector DocumentSelector) error
	// Dispose releases the feature's resources on client stop.
	Dispose()
}

// DynamicFeature additionally supports runtime registration, bound to the
// method it was registered for.
type DynamicFeature interface {
	Feature
	// RegistrationMethod is the method string this feature owns in the
	// registration engine's method->feature lookup.
	RegistrationMethod() string
	// Register installs a new registration; id is either server-supplied
	// or freshly generated by the engine if the server omitted one.
	Register(id string, selector DocumentSelector, options interface{}) error
	// Unregister removes a previously installed registration.
	Unregister(id string) error
}
