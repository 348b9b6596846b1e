package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/capability"
	"github.com/lspkit/client/internal/lsp/lsperr"
)

// Sender is the subset of wire.Connection a feature needs: issue a request
// and get back a decoded result, or fire a notification. Features depend on
// this narrow interface rather than *wire.Connection directly so they can
// be tested against a fake.
type Sender interface {
	Call(ctx context.Context, method string, params, result interface{}) error
	Notify(ctx context.Context, method string, params interface{}) error
}

// FlushFunc forces a pending document-sync change to flush before a feature
// request is issued, satisfying spec.md §4.4 step 3 and §4.5's forced-flush
// contract. Supplied by the docsync component; a nil FlushFunc is a no-op
// (used in tests that don't exercise document sync).
type FlushFunc func(ctx context.Context, doc capability.Document)

// RequestFeature is the generic request-backed feature described in
// spec.md §4.4 and the "typed pipeline parameterised by (Params, Result,
// RegisterOptions, Provider)" design note in §9. HostIn/HostOut are the
// host-facing domain types (already converted from/to protocol shapes by
// the external host<->protocol converter this spec treats as out of
// scope); P/R are the wire protocol params/result types actually sent over
// the connection.
type RequestFeature[HostIn, HostOut, P, R any] struct {
	Method   string
	Sender   Sender
	Registry *capability.Table
	Flush    FlushFunc

	// Logger records RequestFailed outcomes (spec.md §7) with the failing
	// method name. Cancellation and ContentModified are recovered locally
	// and never logged; a nil Logger is a no-op, matching Flush's contract.
	Logger *zap.Logger

	// ToProtocol converts the host input (plus the matched document) into
	// wire params. FromProtocol converts the wire result back. These are
	// the "external collaborator" converters spec.md §1 excludes from this
	// design; callers supply them.
	ToProtocol   func(doc capability.Document, in HostIn) P
	FromProtocol func(result R) HostOut

	// Middleware is the optional per-operation hook from the host's
	// options.middleware bag, already type-asserted by the feature
	// constructor (see NewSet in language_features.go).
	Middleware Hook[HostIn, HostOut]
}

// Invoke runs the pipeline for one host request against doc, per spec.md
// §4.4 steps 2–7.
func (f *RequestFeature[HostIn, HostOut, P, R]) Invoke(ctx context.Context, doc capability.Document, in HostIn) (HostOut, error) {
	var zero HostOut

	if _, ok := f.Registry.MatchFirst(doc); !ok {
		return zero, lsperr.ErrNoProvider
	}

	run := func(ctx context.Context, in HostIn) (HostOut, error) {
		if f.Flush != nil {
			f.Flush(ctx, doc)
		}

		params := f.ToProtocol(doc, in)

		var result R
		if err := f.Sender.Call(ctx, f.Method, params, &result); err != nil {
			return zero, f.recover(err)
		}

		return f.FromProtocol(result), nil
	}

	if f.Middleware != nil {
		return f.Middleware(ctx, in, run)
	}
	return run(ctx, in)
}

// recover classifies err per spec.md §7 and applies its propagation rule:
// Cancellation and ContentModified are recovered locally (nil, no log);
// everything else (RequestFailed) is logged with the method name and
// returned to the host.
func (f *RequestFeature[HostIn, HostOut, P, R]) recover(err error) error {
	return recoverError(f.Method, f.Logger, err)
}

// recoverError is the shared §7 propagation logic between RequestFeature and
// ResolveFeature.
func recoverError(method string, logger *zap.Logger, err error) error {
	classified := lsperr.Classify(method, err)
	if classified == nil {
		return nil
	}
	if errors.Is(classified, lsperr.ErrContentModified) || lsperr.IsCancellation(classified) {
		return nil
	}
	if logger != nil {
		logger.Warn("request failed", zap.String("method", method), zap.Error(classified))
	}
	return classified
}

// NotificationFeature is the notification-only counterpart (didOpen,
// didChange, and similar fire-and-forget messages driven through the same
// selector-matching + middleware shape).
type NotificationFeature[HostIn, P any] struct {
	Method     string
	Sender     Sender
	Registry   *capability.Table
	Flush      FlushFunc
	ToProtocol func(doc capability.Document, in HostIn) P
	Middleware NotificationHook[HostIn]
}

// Invoke sends the notification for in against doc.
func (f *NotificationFeature[HostIn, P]) Invoke(ctx context.Context, doc capability.Document, in HostIn) error {
	if _, ok := f.Registry.MatchFirst(doc); !ok {
		return lsperr.ErrNoProvider
	}

	run := func(ctx context.Context, in HostIn) error {
		if f.Flush != nil {
			f.Flush(ctx, doc)
		}
		params := f.ToProtocol(doc, in)
		return f.Sender.Notify(ctx, f.Method, params)
	}

	if f.Middleware != nil {
		return f.Middleware(ctx, in, run)
	}
	return run(ctx, in)
}

// ResolveFeature shares the request pipeline shape but its "document" is
// implicit in the item being resolved (completionItem/resolve, codeLens/
// resolve, codeAction/resolve, documentLink/resolve, inlayHint/resolve all
// take the original item as input and return the enriched item, with no
// document-selector matching step since the original request already
// passed one).
type ResolveFeature[Item any] struct {
	Method     string
	Sender     Sender
	Middleware Hook[Item, Item]

	// Logger records RequestFailed outcomes with the failing method name;
	// see RequestFeature.Logger.
	Logger *zap.Logger
}

// Invoke resolves item.
func (f *ResolveFeature[Item]) Invoke(ctx context.Context, item Item) (Item, error) {
	run := func(ctx context.Context, item Item) (Item, error) {
		var result Item
		if err := f.Sender.Call(ctx, f.Method, item, &result); err != nil {
			var zero Item
			return zero, recoverError(f.Method, f.Logger, err)
		}
		return result, nil
	}
	if f.Middleware != nil {
		return f.Middleware(ctx, item, run)
	}
	return run(ctx, item)
}
