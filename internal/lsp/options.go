package lsp

import (
	"context"
	"crypto/tls"
	"os/exec"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/capability"
	"github.com/lspkit/client/internal/lsp/diagnostics"
	"github.com/lspkit/client/internal/lsp/pipeline"
)

// RevealOutputChannelOn thresholds when the host's log channel should be
// surfaced to the user in response to a server log message.
type RevealOutputChannelOn int

const (
	RevealNever RevealOutputChannelOn = iota
	RevealInfo
	RevealWarn
	RevealError
)

// CloseAction is returned by an ErrorHandler's Closed hook.
type CloseAction int

const (
	DoNotRestart CloseAction = iota
	Restart
)

// ErrorAction is returned by an ErrorHandler's Error hook.
type ErrorAction int

const (
	ErrorContinue ErrorAction = iota
	ErrorShutdown
)

// ErrorHandler implements the restart/error policy from spec.md §4.2 and §7.
type ErrorHandler interface {
	// Error is consulted on a transport read/write fault. count is the
	// number of consecutive faults without an intervening successful
	// message transfer.
	Error(err error, msg interface{}, count int) ErrorAction
	// Closed is consulted whenever the connection closes.
	Closed() CloseAction
}

// DefaultErrorHandler is the restart policy spec.md §4.2 describes: shut
// down after three consecutive transport errors, always ask to restart on
// close (the sliding-window budget itself lives in the lifecycle controller,
// not here, since it needs cross-restart state DefaultErrorHandler doesn't
// keep).
type DefaultErrorHandler struct{}

func (DefaultErrorHandler) Error(err error, msg interface{}, count int) ErrorAction {
	if count >= 3 {
		return ErrorShutdown
	}
	return ErrorContinue
}

func (DefaultErrorHandler) Closed() CloseAction { return Restart }

// DiagnosticPullOptions configures the pull scheduler (component F).
type DiagnosticPullOptions struct {
	OnChange bool
	OnSave   bool
	// Filter, if set, can suppress on-change/on-save pulls. It never
	// affects on-open or server-refresh pulls.
	Filter func(uri protocol.DocumentURI, mode diagnostics.TriggerMode) (skip bool)
}

// SynchronizeOptions holds the host's workspace/didChangeConfiguration and
// workspace/didChangeWatchedFiles settings. The Client stores them but does
// not read them: no didChangeConfiguration is sent, and the file watcher
// gets no watches from FileEvents.
type SynchronizeOptions struct {
	// ConfigurationSection lists the configuration keys the host names for
	// workspace/didChangeConfiguration.
	ConfigurationSection []string
	// FileEvents lists glob-keyed watchers for
	// workspace/didChangeWatchedFiles.
	FileEvents []FileSystemWatcher
}

// FileSystemWatcher mirrors protocol.FileSystemWatcher for the host-supplied
// configuration surface, decoupled from the wire type so Options doesn't
// require importing protocol just to build one.
type FileSystemWatcher struct {
	GlobPattern string
	Kind        protocol.WatchKind // 0 means "all": create|change|delete
}

// ConnectionOptions tunes restart behavior.
type ConnectionOptions struct {
	// MaxRestartCount bounds restarts within the sliding window (default 4
	// per spec.md §6).
	MaxRestartCount int
}

// TransportKind selects how the connection reaches the server process.
type TransportKind int

const (
	TransportStdio TransportKind = iota
	TransportWebSocket
	TransportQUIC
)

// ServerConnectOptions describes how to reach the language server.
type ServerConnectOptions struct {
	Kind TransportKind

	// Stdio
	Command *exec.Cmd

	// WebSocket
	WebSocketAddr string

	// QUIC
	QUICAddr string
	QUICTLS  *tls.Config
}

// Options is the full configuration surface from spec.md §6.
type Options struct {
	// DocumentSelector is the default selector merged into a server
	// registration that omits one.
	DocumentSelector capability.DocumentSelector

	Synchronize           SynchronizeOptions
	DiagnosticPullOptions DiagnosticPullOptions
	RevealOutputChannelOn RevealOutputChannelOn

	// InitializationOptions is forwarded opaque in initialize params.
	InitializationOptions interface{}

	// InitializationFailedHandler, if set, is consulted when initialize
	// fails; returning true retries the handshake, false moves to
	// StartFailed terminally.
	InitializationFailedHandler func(err error) (retry bool)

	ErrorHandler ErrorHandler

	Middleware pipeline.Middleware

	Connection ConnectionOptions

	// MarkdownIsTrusted is a rendering hint for markdown documentation/hover
	// content. The Client stores it; no feature reads it.
	MarkdownIsTrusted bool

	// ProgressOnInitialization wraps the initialize handshake in a
	// work-done progress part the host can render.
	ProgressOnInitialization bool

	// ShowMessageRequestHandler answers window/showMessageRequest. A nil
	// handler or a nil returned item declines to answer.
	ShowMessageRequestHandler func(ctx context.Context, params *protocol.ShowMessageRequestParams) *protocol.MessageActionItem

	// ConfigurationProvider answers workspace/configuration lookups. A nil
	// provider yields null for every requested item.
	ConfigurationProvider func(ctx context.Context, item protocol.ConfigurationItem) (interface{}, error)

	// ApplyEditProvider executes a workspace/applyEdit request against the
	// host's documents.
	ApplyEditProvider func(ctx context.Context, edit protocol.WorkspaceEdit) (applied bool, failureReason string, err error)

	Logger *zap.Logger

	ServerConnect ServerConnectOptions

	// restartJitter is an explicit, documented deviation from spec.md: a
	// fixed delay between restart attempts so a server that exits instantly
	// doesn't spin the lifecycle controller in a busy loop. Not part of the
	// public configuration surface because it isn't host-tunable behavior,
	// just an internal backoff constant.
	restartJitter time.Duration
}

// WithDefaults fills zero-valued fields with spec.md §6 defaults.
func (o Options) WithDefaults() Options {
	if o.ErrorHandler == nil {
		o.ErrorHandler = DefaultErrorHandler{}
	}
	if o.Connection.MaxRestartCount == 0 {
		o.Connection.MaxRestartCount = 4
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.restartJitter == 0 {
		o.restartJitter = 50 * time.Millisecond
	}
	return o
}
