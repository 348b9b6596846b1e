// Package pipeline implements the Feature Pipeline Framework (component D):
// the generic request/notification feature abstraction, middleware chain,
// and selector-based provider lookup shared by every request-backed LSP
// feature (completion, hover, definition, and so on).
package pipeline

import "context"

// Next is what a middleware hook calls to continue the chain; it runs the
// remaining middleware (if any) and finally the default pipeline behavior.
// A middleware MAY call Next exactly once and return its result, or
// short-circuit by never calling it — the framework never retries on a
// short-circuit, per spec.md §4.4.
type Next[P, R any] func(ctx context.Context, params P) (R, error)

// Hook is one middleware function for a request-backed feature.
type Hook[P, R any] func(ctx context.Context, params P, next Next[P, R]) (R, error)

// NotificationNext continues a notification middleware chain.
type NotificationNext[P any] func(ctx context.Context, params P) error

// NotificationHook is middleware for a notification feature (no result).
type NotificationHook[P any] func(ctx context.Context, params P, next NotificationNext[P]) error

// Middleware is the options.middleware bag from spec.md §6: a loosely typed
// collection of optional hooks, one slot per feature. Hooks are stored as
// interface{} and type-asserted by the owning feature constructor, since Go
// has no way to express a heterogeneous map of hooks with distinct generic
// instantiations otherwise. NewSet reads only the "hover", "definition",
// "references" and "completion" slots, each as a Hook[P, R] over that
// feature's protocol params and result types.
type Middleware map[string]interface{}

// Get type-asserts the hook stored under name, returning ok=false if absent
// or of the wrong type (treated the same as absent: no middleware applies).
func Get[T any](mw Middleware, name string) (hook T, ok bool) {
	if mw == nil {
		return hook, false
	}
	raw, present := mw[name]
	if !present {
		return hook, false
	}
	hook, ok = raw.(T)
	return hook, ok
}

// Set installs a hook under name. Intended for host configuration code
// building an Options.Middleware bag.
func Set[T any](mw Middleware, name string, hook T) Middleware {
	if mw == nil {
		mw = make(Middleware)
	}
	mw[name] = hook
	return mw
}
