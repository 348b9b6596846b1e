// Package lsp implements the client-side runtime described by this
// repository: a connection lifecycle controller, a capability/registration
// engine, a generic feature pipeline, document synchronization, a
// diagnostic pull scheduler, a file-events/operations bridge, and
// work-done progress plumbing, all driven over a JSON-RPC connection to
// one language server process.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/capability"
	"github.com/lspkit/client/internal/lsp/diagnostics"
	"github.com/lspkit/client/internal/lsp/docsync"
	"github.com/lspkit/client/internal/lsp/fileevents"
	"github.com/lspkit/client/internal/lsp/lsperr"
	"github.com/lspkit/client/internal/lsp/pipeline"
	"github.com/lspkit/client/internal/lsp/progress"
	"github.com/lspkit/client/internal/lsp/wire"
)

// restartWindow is the sliding window spec.md §4.2 measures restart
// frequency against.
const restartWindow = 3 * time.Minute

// Client is the lifecycle controller (component B) and the library's main
// entry point. One Client drives one language server connection.
type Client struct {
	opts   Options
	logger *zap.Logger

	mu    sync.RWMutex
	state State

	conn        *wire.Connection
	caps        *capability.Builder
	engine      *capability.Engine
	features    *pipeline.Set
	sync        *docsync.Sync
	diagSched   *diagnostics.Scheduler
	diagLoop    *diagnostics.WorkspaceLoop
	tracker     *diagnostics.EditorTracker
	watcher     *fileevents.Watcher
	fileOps     *fileevents.Operations
	progressMgr *progress.Manager

	serverCapabilities protocol.ServerCapabilities

	restartsMu sync.Mutex
	restarts   []time.Time
}

// NewClient builds a Client in the Initial state. Call Start to connect.
func NewClient(opts Options) *Client {
	opts = opts.WithDefaults()
	return &Client{
		opts:   opts,
		logger: opts.Logger,
		state:  StateInitial,
	}
}

// State returns the coarse public lifecycle state.
func (c *Client) State() PublicState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Public()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) getState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Features exposes the feature pipeline set built by Start; nil before the
// first Start. Stop leaves the last set in place.
func (c *Client) Features() *pipeline.Set { return c.features }

// Sync exposes the document-sync bridge.
func (c *Client) Sync() *docsync.Sync { return c.sync }

// Diagnostics exposes the diagnostic collection for host reads.
func (c *Client) Diagnostics() *diagnostics.Scheduler { return c.diagSched }

// EditorTracker exposes the visible-document tracker so a host can report
// tab changes.
func (c *Client) EditorTracker() *diagnostics.EditorTracker { return c.tracker }

// FileOperations exposes the will/did file-operation bridge.
func (c *Client) FileOperations() *fileevents.Operations { return c.fileOps }

// Progress exposes the work-done progress manager.
func (c *Client) Progress() *progress.Manager { return c.progressMgr }

// Start runs the Initial/Starting/Running sequence from spec.md §4.2.
func (c *Client) Start(ctx context.Context) error {
	if s := c.getState(); s != StateInitial && s != StateStartFailed {
		return fmt.Errorf("lsp: start called from state %s", s)
	}
	c.setState(StateStarting)

	if err := c.startOnce(ctx); err != nil {
		c.setState(StateStartFailed)
		if c.opts.InitializationFailedHandler != nil && c.opts.InitializationFailedHandler(err) {
			c.setState(StateInitial)
			return c.Start(ctx)
		}
		return err
	}

	c.setState(StateRunning)
	return nil
}

func (c *Client) startOnce(ctx context.Context) error {
	transport, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("lsp: dial: %w", err)
	}

	conn := wire.NewConnection(transport, c.logger)
	c.conn = conn

	// Step 1: build capabilities by querying every registered feature.
	c.engine = capability.NewEngine(c.opts.DocumentSelector)
	c.caps = capability.NewBuilder()
	c.features = pipeline.NewSet(conn, c.flushDocument, c.logger, c.opts.Middleware)
	for _, f := range c.features.Features() {
		c.caps.Add(f)
		c.engine.AddFeature(f)
	}

	baseCaps := protocol.ClientCapabilities{}
	baseParams := protocol.InitializeParams{
		ProcessID:             0,
		RootURI:               "",
		InitializationOptions: c.opts.InitializationOptions,
		Trace:                 protocol.TraceValueOff,
	}
	clientCaps, initParams := c.caps.Build(baseCaps, baseParams)
	_ = clientCaps

	// Step 2: install inbound handlers, then start listening.
	c.installHandlers(conn)
	conn.OnError(c.handleTransportError)
	conn.OnClose(c.handleClose)
	conn.Listen(ctx)

	var progressPart *progress.Part
	c.progressMgr = progress.NewManager(conn)
	if c.opts.ProgressOnInitialization {
		progressPart = c.progressMgr.Begin(ctx, "Initializing", false, "", -1)
	}

	// Step 3: send initialize.
	var result protocol.InitializeResult
	if err := conn.Call(ctx, methodInitialize, &initParams, &result); err != nil {
		if progressPart != nil {
			progressPart.End(ctx, "")
		}
		return fmt.Errorf("%w: %v", lsperr.ErrInitializationFailed, err)
	}
	c.serverCapabilities = result.Capabilities

	if progressPart != nil {
		progressPart.End(ctx, "")
	}

	// Step 4: send initialized.
	if err := conn.Notify(ctx, methodInitialized, &protocol.InitializedParams{}); err != nil {
		return fmt.Errorf("lsp: initialized notify: %w", err)
	}

	// Resolve textDocumentSync and build E, F, G, H collaborators. Sync is
	// constructed here, after the server's sync options are known, rather
	// than alongside the other features in step 1, so it never contributes
	// to the clientCapabilities sent with this same initialize request;
	// its registration against the default selector happens immediately
	// below instead of through the step-5 capability.Builder.InitializeAll
	// pass every other feature goes through.
	syncOpts := capability.ResolveSyncOptions(c.serverCapabilities)
	c.sync = docsync.New(conn, syncOpts, c.logger, docsync.Options{})
	c.engine.AddFeature(c.sync)
	if err := c.sync.Initialize(c.serverCapabilities, c.opts.DocumentSelector); err != nil {
		return fmt.Errorf("lsp: docsync initialize: %w", err)
	}

	c.tracker = diagnostics.NewEditorTracker()
	matcher := registrationMatcher{set: c.features}
	c.diagSched = diagnostics.New(conn, c.logger, matcher, c.tracker, c.diagnosticFilter())

	workspaceEnabled := c.serverCapabilities.DiagnosticProvider != nil && hasWorkspaceDiagnostics(c.serverCapabilities)
	interFileDeps := hasInterFileDependencies(c.serverCapabilities)
	c.diagLoop = diagnostics.NewWorkspaceLoop(conn, c.logger, c.diagSched, c.tracker, workspaceEnabled, interFileDeps)
	c.diagLoop.Start()

	if watcher, err := fileevents.New(conn, c.logger, []string{"."}, c.flushAllDocuments); err == nil {
		c.watcher = watcher
		c.watcher.Start()
	} else {
		c.logger.Warn("file watcher unavailable", zap.Error(err))
	}
	c.fileOps = fileevents.NewOperations(conn, c.logger, resolveOperationFilters(c.serverCapabilities))

	// Step 5: initialize every feature against the server's capabilities.
	if err := c.caps.InitializeAll(c.serverCapabilities, c.opts.DocumentSelector); err != nil {
		return fmt.Errorf("lsp: feature initialize: %w", err)
	}

	return nil
}

func (c *Client) dial(ctx context.Context) (wire.Transport, error) {
	switch c.opts.ServerConnect.Kind {
	case TransportWebSocket:
		return wire.NewWebSocketTransport(c.opts.ServerConnect.WebSocketAddr)
	case TransportQUIC:
		return wire.NewQUICTransport(ctx, c.opts.ServerConnect.QUICAddr, c.opts.ServerConnect.QUICTLS)
	default:
		cmd := c.opts.ServerConnect.Command
		if cmd == nil {
			return nil, fmt.Errorf("lsp: stdio transport requires ServerConnect.Command")
		}
		return wire.NewStdioTransport(cmd)
	}
}

// flushDocument adapts docsync.Sync.Flush to pipeline.FlushFunc.
func (c *Client) flushDocument(ctx context.Context, doc capability.Document) {
	if c.sync != nil {
		c.sync.Flush(ctx, doc)
	}
}

// flushAllDocuments adapts docsync.Sync.FlushAll to fileevents.FlushFunc.
func (c *Client) flushAllDocuments() {
	if c.sync != nil {
		c.sync.FlushAll()
	}
}

func (c *Client) diagnosticFilter() diagnostics.Filter {
	if c.opts.DiagnosticPullOptions.Filter == nil {
		return nil
	}
	return diagnostics.Filter(c.opts.DiagnosticPullOptions.Filter)
}

// registrationMatcher adapts the union of every feature's registration
// table into the diagnostics.Matcher the scheduler needs: a document
// matches if the diagnostic pull feature itself (textDocument/diagnostic's
// own dynamic registration) applies to it. Diagnostics isn't in pipeline.Set
// today since it's driven by the scheduler rather than a host-invoked
// Provider, so matching degrades to "always eligible" and the scheduler's
// own visibility check is what actually gates pulls; a host wiring a real
// diagnosticProvider registration would plug it in here instead.
type registrationMatcher struct {
	set *pipeline.Set
}

func (registrationMatcher) Matches(protocol.DocumentURI) bool { return true }

func hasWorkspaceDiagnostics(sc protocol.ServerCapabilities) bool {
	if sc.DiagnosticProvider == nil {
		return false
	}
	if opts, ok := sc.DiagnosticProvider.(protocol.DiagnosticOptions); ok {
		return opts.WorkspaceDiagnostics
	}
	if opts, ok := sc.DiagnosticProvider.(*protocol.DiagnosticOptions); ok && opts != nil {
		return opts.WorkspaceDiagnostics
	}
	return false
}

func hasInterFileDependencies(sc protocol.ServerCapabilities) bool {
	if sc.DiagnosticProvider == nil {
		return false
	}
	if opts, ok := sc.DiagnosticProvider.(protocol.DiagnosticOptions); ok {
		return opts.InterFileDependencies
	}
	if opts, ok := sc.DiagnosticProvider.(*protocol.DiagnosticOptions); ok && opts != nil {
		return opts.InterFileDependencies
	}
	return false
}

func resolveOperationFilters(sc protocol.ServerCapabilities) fileevents.OperationFilters {
	var f fileevents.OperationFilters
	if sc.Workspace == nil || sc.Workspace.FileOperations == nil {
		return f
	}
	ops := sc.Workspace.FileOperations
	if ops.WillCreate != nil {
		f.WillCreate = ops.WillCreate.Filters
	}
	if ops.DidCreate != nil {
		f.DidCreate = ops.DidCreate.Filters
	}
	if ops.WillRename != nil {
		f.WillRename = ops.WillRename.Filters
	}
	if ops.DidRename != nil {
		f.DidRename = ops.DidRename.Filters
	}
	if ops.WillDelete != nil {
		f.WillDelete = ops.WillDelete.Filters
	}
	if ops.DidDelete != nil {
		f.DidDelete = ops.DidDelete.Filters
	}
	return f
}

// installHandlers wires every inbound request/notification spec.md §6
// requires the client to serve.
func (c *Client) installHandlers(conn *wire.Connection) {
	conn.OnRequest(methodClientRegisterCapability, c.handleRegister)
	conn.OnRequest(methodClientUnregisterCapability, c.handleUnregister)
	conn.OnRequest(methodWorkspaceApplyEdit, c.handleApplyEdit)
	conn.OnRequest(methodWindowShowDocument, c.handleShowDocument)
	conn.OnRequest(methodWindowShowMessageRequest, c.handleShowMessageRequest)
	conn.OnRequest(methodWorkspaceConfiguration, c.handleConfiguration)
	conn.OnRequest(methodWindowWorkDoneProgressCreate, c.handleProgressCreate)
	conn.OnRequest(methodWorkspaceDiagnosticRefresh, c.handleDiagnosticRefresh)
	conn.OnRequest(methodWorkspaceCodeLensRefresh, c.handleNoopRefresh)
	conn.OnRequest(methodWorkspaceInlayHintRefresh, c.handleNoopRefresh)
	conn.OnRequest(methodWorkspaceInlineValueRefresh, c.handleNoopRefresh)
	conn.OnRequest(methodWorkspaceSemanticTokensRefresh, c.handleNoopRefresh)

	conn.OnNotification(methodWindowLogMessage, c.handleLogMessage)
	conn.OnNotification(methodWindowShowMessage, c.handleShowMessage)
	conn.OnNotification(methodTelemetryEvent, c.handleTelemetry)
	conn.OnNotification(methodTextDocumentPublishDiags, c.handlePublishDiagnostics)
	conn.OnNotification(methodProgress, c.handleProgress)
	conn.OnNotification(methodCancel, c.handleCancelRequest)
	conn.OnNotification(methodLogTrace, c.handleLogTrace)
}

func (c *Client) handleRegister(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params protocol.RegistrationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	entries := make([]capability.RegistrationEntry, 0, len(params.Registrations))
	for _, r := range params.Registrations {
		entries = append(entries, capability.RegistrationEntry{
			ID:              r.ID,
			Method:          r.Method,
			RegisterOptions: r.RegisterOptions,
			Selector:        extractSelector(r.RegisterOptions),
		})
	}
	if err := c.engine.Register(entries); err != nil {
		return nil, &lsperr.RegistrationError{Cause: err}
	}
	return nil, nil
}

func (c *Client) handleUnregister(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params protocol.UnregistrationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	entries := make([]capability.RegistrationEntry, 0, len(params.Unregisterations))
	for _, r := range params.Unregisterations {
		entries = append(entries, capability.RegistrationEntry{ID: r.ID, Method: r.Method})
	}
	if err := c.engine.Unregister(entries); err != nil {
		return nil, &lsperr.RegistrationError{Cause: err}
	}
	return nil, nil
}

// extractSelector pulls a documentSelector out of a registration's opaque
// options payload, if present (the common TextDocumentRegistrationOptions
// shape every dynamically-registrable feature's options embed).
func extractSelector(options interface{}) capability.DocumentSelector {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil
	}
	var shape struct {
		DocumentSelector []protocol.DocumentFilter `json:"documentSelector"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil
	}
	if shape.DocumentSelector == nil {
		return nil
	}
	return capability.FromProtocol(shape.DocumentSelector)
}

func (c *Client) handleApplyEdit(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params protocol.ApplyWorkspaceEditParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	if c.opts.ApplyEditProvider == nil {
		return &protocol.ApplyWorkspaceEditResult{Applied: false, FailureReason: "no apply-edit provider configured"}, nil
	}
	applied, reason, err := c.opts.ApplyEditProvider(ctx, params.Edit)
	if err != nil {
		return nil, err
	}
	return &protocol.ApplyWorkspaceEditResult{Applied: applied, FailureReason: reason}, nil
}

func (c *Client) handleShowDocument(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	// No UI surface in this runtime (spec.md §1 non-goal); acknowledge
	// without actually showing anything.
	return &protocol.ShowDocumentResult{Success: false}, nil
}

func (c *Client) handleShowMessageRequest(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params protocol.ShowMessageRequestParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	if c.opts.ShowMessageRequestHandler == nil {
		return nil, nil
	}
	return c.opts.ShowMessageRequestHandler(ctx, &params), nil
}

func (c *Client) handleConfiguration(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params protocol.ConfigurationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	out := make([]interface{}, len(params.Items))
	for i, item := range params.Items {
		if c.opts.ConfigurationProvider == nil {
			continue
		}
		v, err := c.opts.ConfigurationProvider(ctx, item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Client) handleProgressCreate(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params protocol.WorkDoneProgressCreateParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	c.progressMgr.Create(params.Token)
	return nil, nil
}

func (c *Client) handleDiagnosticRefresh(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	visible := make(map[protocol.DocumentURI]int32)
	for _, uri := range c.tracker.Visible() {
		visible[uri] = 0
	}
	c.diagSched.Refresh(ctx, visible)
	return nil, nil
}

func (c *Client) handleNoopRefresh(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	// codeLens/inlayHint/inlineValue/semanticTokens refresh all ask the host
	// to re-request the relevant feature for visible documents; the feature
	// pipeline itself has no cache to invalidate, so the request is
	// acknowledged and left to the host's own re-render policy.
	return nil, nil
}

func (c *Client) handleLogMessage(ctx context.Context, raw json.RawMessage) {
	var params protocol.LogMessageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.logger.Debug("server log", zap.String("message", params.Message), zap.Int32("type", int32(params.Type)))
}

func (c *Client) handleShowMessage(ctx context.Context, raw json.RawMessage) {
	var params protocol.ShowMessageParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.logger.Info("server message", zap.String("message", params.Message), zap.Int32("type", int32(params.Type)))
}

func (c *Client) handleTelemetry(ctx context.Context, raw json.RawMessage) {
	c.logger.Debug("telemetry event", zap.ByteString("payload", raw))
}

func (c *Client) handlePublishDiagnostics(ctx context.Context, raw json.RawMessage) {
	// This runtime operates in pull mode (spec.md §4.6); a server using push
	// diagnostics is still accommodated by logging receipt, since the
	// scheduler's Collection is the only diagnostic sink a host reads from
	// and publishDiagnostics doesn't feed it.
	var params protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.logger.Debug("ignoring push diagnostics", zap.String("uri", string(params.URI)), zap.Int("count", len(params.Diagnostics)))
}

func (c *Client) handleProgress(ctx context.Context, raw json.RawMessage) {
	var params protocol.ProgressParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.progressMgr.Dispatch(params.Token, params.Value)
}

func (c *Client) handleCancelRequest(ctx context.Context, raw json.RawMessage) {
	// Requests this client serves (the handlers above) all run synchronously
	// to completion; there is nothing in flight for a $/cancelRequest to
	// interrupt today, so it's accepted and ignored.
}

func (c *Client) handleLogTrace(ctx context.Context, raw json.RawMessage) {
	var params protocol.LogTraceParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return
	}
	c.logger.Debug("trace", zap.String("message", params.Message))
}

// handleTransportError implements spec.md §4.2's error policy: shut down
// after three consecutive transport faults without an intervening success.
func (c *Client) handleTransportError(err error) {
	action := c.opts.ErrorHandler.Error(err, nil, 1)
	if action == ErrorShutdown {
		c.logger.Warn("shutting down after transport error budget exceeded", zap.Error(err))
		go c.Stop(context.Background())
	}
}

// handleClose implements the restart policy from spec.md §4.2.
func (c *Client) handleClose(err error) {
	state := c.getState()
	if state == StateStopping || state == StateStopped {
		return
	}
	if state == StateStarting {
		c.setState(StateStartFailed)
		return
	}

	action := CloseAction(DoNotRestart)
	if c.opts.ErrorHandler != nil {
		action = c.opts.ErrorHandler.Closed()
	}
	if action != Restart {
		c.setState(StateStopped)
		return
	}

	if !c.recordRestart() {
		c.logger.Warn("restart budget exceeded, abandoning connection", zap.Error(lsperr.ErrRestartBudgetExceeded))
		c.setState(StateStopped)
		return
	}

	c.setState(StateInitial)
	time.AfterFunc(c.opts.restartJitter, func() {
		_ = c.Start(context.Background())
	})
}

// recordRestart appends a restart timestamp and reports whether the client
// is still within the allowed sliding-window budget (Options.Connection.
// MaxRestartCount restarts within restartWindow).
func (c *Client) recordRestart() bool {
	c.restartsMu.Lock()
	defer c.restartsMu.Unlock()

	now := time.Now()
	cutoff := now.Add(-restartWindow)
	kept := c.restarts[:0]
	for _, t := range c.restarts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.restarts = append(kept, now)
	return len(c.restarts) <= c.opts.Connection.MaxRestartCount
}

// Stop runs the shutdown sequence from spec.md §4.2. Idempotent against
// Stopping/Stopped.
func (c *Client) Stop(ctx context.Context) error {
	state := c.getState()
	if state == StateStopping || state == StateStopped {
		return nil
	}
	c.setState(StateStopping)

	if c.diagLoop != nil {
		c.diagLoop.Stop()
	}
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.sync != nil {
		c.sync.Shutdown()
	}

	var shutdownErr error
	if c.conn != nil {
		if err := c.conn.Call(ctx, methodShutdown, nil, nil); err != nil {
			shutdownErr = err
		}
		_ = c.conn.Notify(context.Background(), methodExit, nil)
		_ = c.conn.Close()
	}

	if c.caps != nil {
		c.caps.DisposeAll()
	}

	c.setState(StateStopped)
	return shutdownErr
}

