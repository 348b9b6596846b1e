// Package lsperr is the error taxonomy from spec.md §7, factored into its
// own leaf package so every layer of the client runtime (wire, pipeline,
// diagnostics, the top-level lifecycle controller) can classify and compare
// errors without an import cycle back through the top-level lsp package.
package lsperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.lsp.dev/jsonrpc2"
)

// LSP-specific JSON-RPC error codes (not part of base JSON-RPC, so not
// exported by go.lsp.dev/jsonrpc2's own Code constants).
const (
	CodeRequestCancelled jsonrpc2.Code = -32800
	CodeContentModified  jsonrpc2.Code = -32801
	CodeServerCancelled  jsonrpc2.Code = -32802
)

var (
	// ErrCancelled is surfaced to the host when a request was cancelled,
	// either by the host's own token or by a protocol cancel response.
	// Never logged: cancellation is an expected outcome, not a fault.
	ErrCancelled = errors.New("lsp: request cancelled")

	// ErrContentModified is returned in place of a protocol ContentModified
	// error. Recovered locally: the caller gets a type-appropriate zero
	// value, never an error surfaced to the host UI.
	ErrContentModified = errors.New("lsp: content modified")

	// ErrNoProvider is returned by the feature pipeline when no
	// registration matches the document selector for a request.
	ErrNoProvider = errors.New("lsp: no provider registered for document")

	// ErrConnectionClosed names a request lost to a closing connection. No
	// code in this module returns it: wire.Connection.Call returns the
	// underlying jsonrpc2 error instead.
	ErrConnectionClosed = errors.New("lsp: connection closed")

	// ErrClientStopped names an operation attempted after Stop. No code in
	// this module returns it.
	ErrClientStopped = errors.New("lsp: client stopped")

	// ErrRestartBudgetExceeded is logged at Warn by the lifecycle controller
	// when the restart policy gives up after too many closes in the sliding
	// window. It is not returned from any Client method.
	ErrRestartBudgetExceeded = errors.New("lsp: restart budget exceeded")

	// ErrInitializationFailed is returned when the initialize request
	// fails and the initialization-failed handler declines to retry.
	ErrInitializationFailed = errors.New("lsp: initialization failed")
)

// ServerCancelledError wraps a ServerCancelled protocol error along with
// whether the server asked the client to retrigger the request.
type ServerCancelledError struct {
	Retrigger bool
}

func (e *ServerCancelledError) Error() string {
	return fmt.Sprintf("lsp: server cancelled (retrigger=%v)", e.Retrigger)
}

// RequestError wraps any other protocol error response (the RequestFailed
// kind). Method names the LSP request that failed; Cause is the underlying
// protocol error (usually a *jsonrpc2.Error).
type RequestError struct {
	Method string
	Cause  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("lsp: request %s failed: %v", e.Method, e.Cause)
}

func (e *RequestError) Unwrap() error { return e.Cause }

// RegistrationError is returned to the server when a client/registerCapability
// entry names an unknown method or the owning feature's Register rejects it.
// It is never fatal to the connection.
type RegistrationError struct {
	ID     string
	Method string
	Cause  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("lsp: registration %s for %s rejected: %v", e.ID, e.Method, e.Cause)
}

func (e *RegistrationError) Unwrap() error { return e.Cause }

// TransportError wraps a connection read/write fault with the consecutive-
// error count observed so far.
type TransportError struct {
	Count int
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lsp: transport error (count=%d): %v", e.Count, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Classify maps a raw error from a Connection.Call into the spec.md §7
// taxonomy: a *jsonrpc2.Error with a recognized LSP-specific code becomes
// ErrContentModified or a *ServerCancelledError; a context cancellation
// becomes ErrCancelled; anything else becomes a *RequestError wrapping the
// cause, so callers can always errors.As for it and log the failing method.
func Classify(method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}

	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case CodeContentModified:
			return ErrContentModified
		case CodeServerCancelled:
			return &ServerCancelledError{Retrigger: decodeRetrigger(rpcErr.Data)}
		case CodeRequestCancelled:
			return ErrCancelled
		}
	}

	return &RequestError{Method: method, Cause: err}
}

// decodeRetrigger pulls the retriggerRequest flag out of a ServerCancelled
// error's Data payload (LSP 3.17's DiagnosticServerCancellationData shape).
// A missing or unparseable payload defaults to false, matching the "don't
// retrigger unless told to" reading of spec.md §7.
func decodeRetrigger(data *json.RawMessage) bool {
	if data == nil {
		return false
	}
	var shape struct {
		RetriggerRequest bool `json:"retriggerRequest"`
	}
	if err := json.Unmarshal(*data, &shape); err != nil {
		return false
	}
	return shape.RetriggerRequest
}

// IsCancellation reports whether err represents a cancellation from any
// source (host token or protocol cancel code) — the only two kinds spec.md
// §7 says are recovered locally alongside ContentModified.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
