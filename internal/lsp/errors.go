package lsp

import "github.com/lspkit/client/internal/lsp/lsperr"

// The error taxonomy (spec.md §7) lives in lsperr so every internal package
// can classify errors without importing this top-level package. These
// aliases keep it reachable as lsp.ErrCancelled etc. for host code.
type (
	ServerCancelledError = lsperr.ServerCancelledError
	RequestError          = lsperr.RequestError
	RegistrationError     = lsperr.RegistrationError
	TransportError         = lsperr.TransportError
)

var (
	ErrCancelled             = lsperr.ErrCancelled
	ErrContentModified       = lsperr.ErrContentModified
	ErrNoProvider            = lsperr.ErrNoProvider
	ErrConnectionClosed      = lsperr.ErrConnectionClosed
	ErrClientStopped         = lsperr.ErrClientStopped
	ErrRestartBudgetExceeded = lsperr.ErrRestartBudgetExceeded
	ErrInitializationFailed  = lsperr.ErrInitializationFailed
)
