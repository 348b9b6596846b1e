package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []fakeCall
}

type fakeCall struct {
	method string
	params *protocol.ProgressParams
}

func (f *fakeSender) Notify(ctx context.Context, method string, params interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{method: method, params: params.(*protocol.ProgressParams)})
	return nil
}

func (f *fakeSender) last() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestManager_Begin_SendsBeginAndTracksToken(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(sender)

	part := mgr.Begin(context.Background(), "Indexing", true, "scanning", -1)
	require.NotNil(t, part)

	require.Equal(t, 1, sender.count())
	call := sender.last()
	assert.Equal(t, "$/progress", call.method)
	assert.Equal(t, part.Token(), call.params.Token)

	begin, ok := call.params.Value.(protocol.WorkDoneProgressBegin)
	require.True(t, ok)
	assert.Equal(t, "Indexing", begin.Title)
	assert.EqualValues(t, 0, begin.Percentage)
}

func TestPart_Report_ClampsPercentage(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(sender)
	part := mgr.Begin(context.Background(), "Work", false, "", 0)

	part.Report(context.Background(), false, "halfway", 250)

	call := sender.last()
	report, ok := call.params.Value.(protocol.WorkDoneProgressReport)
	require.True(t, ok)
	assert.EqualValues(t, 100, report.Percentage)
}

func TestPart_End_OnlySendsOnce(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(sender)
	part := mgr.Begin(context.Background(), "Work", false, "", -1)

	before := sender.count()
	part.End(context.Background(), "done")
	part.End(context.Background(), "done again")

	assert.Equal(t, before+1, sender.count())
}

func TestManager_Create_IsIdempotent(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(sender)

	token := protocol.ProgressToken("server-token")
	mgr.Create(token)
	mgr.Create(token)

	assert.Len(t, mgr.active, 1)
}

func TestManager_Dispatch_InvokesRegisteredHandler(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(sender)

	var gotToken protocol.ProgressToken
	var gotValue interface{}
	mgr.OnProgress(func(token protocol.ProgressToken, value interface{}) {
		gotToken = token
		gotValue = value
	})

	mgr.Dispatch(protocol.ProgressToken("t1"), protocol.WorkDoneProgressReport{Kind: "report"})

	assert.Equal(t, protocol.ProgressToken("t1"), gotToken)
	assert.Equal(t, protocol.WorkDoneProgressReport{Kind: "report"}, gotValue)
}

func TestManager_Forget_RemovesTracking(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(sender)
	part := mgr.Begin(context.Background(), "Work", false, "", -1)

	mgr.Forget(part.Token())

	assert.NotContains(t, mgr.active, part.Token())
}
