package pipeline

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/capability"
)

// StaticCheck inspects the server's capabilities and, if this feature has a
// static (non-dynamic) registration implied by them, returns the selector
// and register-options to install plus ok=true. Features without a static
// path (those that only ever register dynamically) leave this nil.
type StaticCheck func(sc protocol.ServerCapabilities) (selector capability.DocumentSelector, registerOptions interface{}, ok bool)

// CapabilityFiller contributes this feature's bit of client capabilities.
type CapabilityFiller func(caps *protocol.ClientCapabilities)

// Provider is a concrete request-backed LSP feature: the generic pipeline
// plumbing from RequestFeature, plus the capability.DynamicFeature lifecycle
// (spec.md §9: "a typed pipeline parameterised by (Params, Result,
// RegisterOptions, Provider)"). HostIn/HostOut default to the wire protocol
// types themselves via identity converters — a host embedding this library
// with its own domain model supplies real ToProtocol/FromProtocol functions
// instead; the conversion itself is the out-of-scope "external collaborator"
// layer spec.md §1 names.
type Provider[HostIn, HostOut, P, R any] struct {
	method             string
	registrationMethod string
	registry           *capability.Table
	pipe               RequestFeature[HostIn, HostOut, P, R]
	capabilityFiller   CapabilityFiller
	staticCheck        StaticCheck
}

// NewProvider builds a Provider with its own registration table.
// registrationMethod is the method the provider is indexed under in the
// capability engine; every provider NewSet builds passes the same value as
// method.
func NewProvider[HostIn, HostOut, P, R any](
	method, registrationMethod string,
	sender Sender,
	flush FlushFunc,
	logger *zap.Logger,
	toProtocol func(capability.Document, HostIn) P,
	fromProtocol func(R) HostOut,
	capabilityFiller CapabilityFiller,
	staticCheck StaticCheck,
) *Provider[HostIn, HostOut, P, R] {
	registry := capability.NewTable()
	return &Provider[HostIn, HostOut, P, R]{
		method:             method,
		registrationMethod: registrationMethod,
		registry:           registry,
		capabilityFiller:   capabilityFiller,
		staticCheck:        staticCheck,
		pipe: RequestFeature[HostIn, HostOut, P, R]{
			Method:       method,
			Sender:       sender,
			Registry:     registry,
			Flush:        flush,
			Logger:       logger,
			ToProtocol:   toProtocol,
			FromProtocol: fromProtocol,
		},
	}
}

// WithMiddleware installs a middleware hook and returns the provider for
// chaining at construction time.
func (p *Provider[HostIn, HostOut, P, R]) WithMiddleware(h Hook[HostIn, HostOut]) *Provider[HostIn, HostOut, P, R] {
	p.pipe.Middleware = h
	return p
}

// Invoke runs the request pipeline for doc.
func (p *Provider[HostIn, HostOut, P, R]) Invoke(ctx context.Context, doc capability.Document, in HostIn) (HostOut, error) {
	return p.pipe.Invoke(ctx, doc, in)
}

// Registry exposes the provider's registration table, e.g. for document
// sync replay logic that needs to know which documents currently match.
func (p *Provider[HostIn, HostOut, P, R]) Registry() *capability.Table { return p.registry }

// --- capability.Feature / capability.DynamicFeature ---

func (p *Provider[HostIn, HostOut, P, R]) FillClientCapabilities(caps *protocol.ClientCapabilities) {
	if p.capabilityFiller != nil {
		p.capabilityFiller(caps)
	}
}

func (p *Provider[HostIn, HostOut, P, R]) FillInitializeParams(*protocol.InitializeParams) {}

func (p *Provider[HostIn, HostOut, P, R]) Initialize(serverCaps protocol.ServerCapabilities, defaultSelector capability.DocumentSelector) error {
	if p.staticCheck == nil {
		return nil
	}
	selector, options, ok := p.staticCheck(serverCaps)
	if !ok {
		return nil
	}
	merged := capability.Merge(selector, defaultSelector)
	p.registry.Put(capability.Registration{
		ID:       "static:" + p.method,
		Method:   p.registrationMethod,
		Selector: merged,
		Options:  options,
	})
	return nil
}

func (p *Provider[HostIn, HostOut, P, R]) Dispose() {
	for _, r := range p.registry.All() {
		p.registry.Delete(r.ID)
	}
}

func (p *Provider[HostIn, HostOut, P, R]) RegistrationMethod() string { return p.registrationMethod }

func (p *Provider[HostIn, HostOut, P, R]) Register(id string, selector capability.DocumentSelector, options interface{}) error {
	// Static registrations are installed during Initialize, which always
	// runs before the server can send client/registerCapability (spec.md
	// §4.2 steps 4–5 happen before any post-initialized traffic), so the
	// static entry is already first in insertion order and naturally wins
	// ties in MatchFirst without special-casing here (spec.md §9).
	p.registry.Put(capability.Registration{ID: id, Method: p.registrationMethod, Selector: selector, Options: options})
	return nil
}

func (p *Provider[HostIn, HostOut, P, R]) Unregister(id string) error {
	p.registry.Delete(id)
	return nil
}

// Identity is the default converter for features whose host domain type is
// the protocol type itself.
func Identity[T any](T) func(capability.Document, T) T {
	return func(_ capability.Document, v T) T { return v }
}

// IdentityResult is the FromProtocol counterpart of Identity.
func IdentityResult[T any](v T) T { return v }
