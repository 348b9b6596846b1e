package lsp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/capability"
)

func newTestClient() *Client {
	return &Client{opts: Options{}.WithDefaults(), logger: zap.NewNop(), state: StateInitial}
}

func TestClient_Start_RejectsWrongState(t *testing.T) {
	c := newTestClient()
	c.setState(StateRunning)

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running")
}

func TestClient_Stop_IdempotentFromInitial(t *testing.T) {
	c := newTestClient()
	assert.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, StateStopped, c.getState())
}

func TestClient_Stop_IdempotentWhenAlreadyStopped(t *testing.T) {
	c := newTestClient()
	c.setState(StateStopped)
	assert.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, StateStopped, c.getState())
}

func TestClient_RecordRestart_WithinBudget(t *testing.T) {
	c := newTestClient()
	c.opts.Connection.MaxRestartCount = 2

	assert.True(t, c.recordRestart())
	assert.True(t, c.recordRestart())
	assert.False(t, c.recordRestart())
}

func TestClient_RecordRestart_WindowExpiresOldEntries(t *testing.T) {
	c := newTestClient()
	c.opts.Connection.MaxRestartCount = 1
	c.restarts = []time.Time{time.Now().Add(-restartWindow - time.Second)}

	assert.True(t, c.recordRestart())
}

func TestClient_HandleClose_StoppingIsNoop(t *testing.T) {
	c := newTestClient()
	c.setState(StateStopping)
	c.handleClose(nil)
	assert.Equal(t, StateStopping, c.getState())
}

func TestClient_HandleClose_StartingBecomesStartFailed(t *testing.T) {
	c := newTestClient()
	c.setState(StateStarting)
	c.handleClose(nil)
	assert.Equal(t, StateStartFailed, c.getState())
}

func TestClient_HandleClose_DoNotRestartStops(t *testing.T) {
	c := newTestClient()
	c.opts.ErrorHandler = fixedErrorHandler{closed: DoNotRestart}
	c.setState(StateRunning)

	c.handleClose(nil)
	assert.Equal(t, StateStopped, c.getState())
}

func TestClient_HandleClose_RestartBudgetExceededStops(t *testing.T) {
	c := newTestClient()
	c.opts.ErrorHandler = fixedErrorHandler{closed: Restart}
	c.opts.Connection.MaxRestartCount = 0
	c.setState(StateRunning)

	c.handleClose(nil)
	assert.Equal(t, StateStopped, c.getState())
}

func TestClient_HandleClose_RestartSchedulesNewAttempt(t *testing.T) {
	c := newTestClient()
	c.opts.ErrorHandler = fixedErrorHandler{closed: Restart}
	c.opts.restartJitter = time.Millisecond
	c.setState(StateRunning)

	c.handleClose(nil)
	assert.Equal(t, StateInitial, c.getState())
}

type fixedErrorHandler struct {
	errAction ErrorAction
	closed    CloseAction
}

func (f fixedErrorHandler) Error(err error, msg interface{}, count int) ErrorAction { return f.errAction }
func (f fixedErrorHandler) Closed() CloseAction                                     { return f.closed }

func TestExtractSelector_NilForMissingDocumentSelector(t *testing.T) {
	assert.Nil(t, extractSelector(struct{}{}))
}

func TestExtractSelector_ParsesDocumentSelector(t *testing.T) {
	opts := map[string]interface{}{
		"documentSelector": []map[string]interface{}{{"language": "go"}},
	}
	sel := extractSelector(opts)
	require.Len(t, sel, 1)
	assert.Equal(t, "go", sel[0].Language)
}

func TestHasWorkspaceDiagnostics_ValuePointerAndNil(t *testing.T) {
	assert.False(t, hasWorkspaceDiagnostics(protocol.ServerCapabilities{}))

	sc := protocol.ServerCapabilities{DiagnosticProvider: protocol.DiagnosticOptions{WorkspaceDiagnostics: true}}
	assert.True(t, hasWorkspaceDiagnostics(sc))

	sc2 := protocol.ServerCapabilities{DiagnosticProvider: &protocol.DiagnosticOptions{WorkspaceDiagnostics: true}}
	assert.True(t, hasWorkspaceDiagnostics(sc2))
}

func TestHasInterFileDependencies_ValuePointerAndNil(t *testing.T) {
	assert.False(t, hasInterFileDependencies(protocol.ServerCapabilities{}))

	sc := protocol.ServerCapabilities{DiagnosticProvider: protocol.DiagnosticOptions{InterFileDependencies: true}}
	assert.True(t, hasInterFileDependencies(sc))
}

func TestResolveOperationFilters_EmptyWhenWorkspaceNil(t *testing.T) {
	assert.Equal(t, 0, len(resolveOperationFilters(protocol.ServerCapabilities{}).WillCreate))
}


func TestHandleApplyEdit_NoProviderReportsNotApplied(t *testing.T) {
	c := newTestClient()
	raw, _ := json.Marshal(protocol.ApplyWorkspaceEditParams{})

	result, err := c.handleApplyEdit(context.Background(), raw)
	require.NoError(t, err)
	res, ok := result.(*protocol.ApplyWorkspaceEditResult)
	require.True(t, ok)
	assert.False(t, res.Applied)
	assert.NotEmpty(t, res.FailureReason)
}

func TestHandleApplyEdit_DelegatesToProvider(t *testing.T) {
	c := newTestClient()
	c.opts.ApplyEditProvider = func(ctx context.Context, edit protocol.WorkspaceEdit) (bool, string, error) {
		return true, "", nil
	}
	raw, _ := json.Marshal(protocol.ApplyWorkspaceEditParams{})

	result, err := c.handleApplyEdit(context.Background(), raw)
	require.NoError(t, err)
	res := result.(*protocol.ApplyWorkspaceEditResult)
	assert.True(t, res.Applied)
}

func TestHandleShowDocument_AlwaysDeclines(t *testing.T) {
	c := newTestClient()
	result, err := c.handleShowDocument(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, result.(*protocol.ShowDocumentResult).Success)
}

func TestHandleShowMessageRequest_NoHandlerReturnsNil(t *testing.T) {
	c := newTestClient()
	raw, _ := json.Marshal(protocol.ShowMessageRequestParams{})

	result, err := c.handleShowMessageRequest(context.Background(), raw)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestHandleShowMessageRequest_DelegatesToHandler(t *testing.T) {
	c := newTestClient()
	item := &protocol.MessageActionItem{Title: "OK"}
	c.opts.ShowMessageRequestHandler = func(ctx context.Context, params *protocol.ShowMessageRequestParams) *protocol.MessageActionItem {
		return item
	}
	raw, _ := json.Marshal(protocol.ShowMessageRequestParams{})

	result, err := c.handleShowMessageRequest(context.Background(), raw)
	require.NoError(t, err)
	assert.Same(t, item, result)
}

func TestHandleConfiguration_NoProviderYieldsNilPerItem(t *testing.T) {
	c := newTestClient()
	raw, _ := json.Marshal(protocol.ConfigurationParams{Items: []protocol.ConfigurationItem{{Section: "a"}, {Section: "b"}}})

	result, err := c.handleConfiguration(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, nil}, result)
}

func TestHandleConfiguration_DelegatesPerItem(t *testing.T) {
	c := newTestClient()
	c.opts.ConfigurationProvider = func(ctx context.Context, item protocol.ConfigurationItem) (interface{}, error) {
		return item.Section, nil
	}
	raw, _ := json.Marshal(protocol.ConfigurationParams{Items: []protocol.ConfigurationItem{{Section: "a"}}})

	result, err := c.handleConfiguration(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a"}, result)
}

func TestHandleNoopRefresh_ReturnsNilNil(t *testing.T) {
	c := newTestClient()
	result, err := c.handleNoopRefresh(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestHandleCancelRequest_DoesNotPanic(t *testing.T) {
	c := newTestClient()
	c.handleCancelRequest(context.Background(), nil)
}

func TestHandleLogMessage_IgnoresMalformedPayload(t *testing.T) {
	c := newTestClient()
	c.handleLogMessage(context.Background(), json.RawMessage(`not json`))
}

func TestFlushDocument_NilSyncIsNoop(t *testing.T) {
	c := newTestClient()
	c.flushDocument(context.Background(), capability.Document{URI: "file:///a.go"})
}

func TestDiagnosticFilter_NilWhenUnset(t *testing.T) {
	c := newTestClient()
	assert.Nil(t, c.diagnosticFilter())
}
