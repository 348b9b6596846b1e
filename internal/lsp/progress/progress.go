// Package progress implements work-done progress reporting and cancellation
// tokens (component H): the $/progress notification stream a long-running
// server request can opt into, and a two-state one-shot cancellation token
// with listeners.
package progress

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.lsp.dev/protocol"
)

// Sender is the narrow connection dependency progress needs.
type Sender interface {
	Notify(ctx context.Context, method string, params interface{}) error
}

// Part is one work-done progress stream, created either by the client
// (ProgressOnInitialization / window/workDoneProgress/create) or implicitly
// by a server that attached a token to a request without asking first.
type Part struct {
	conn  Sender
	token protocol.ProgressToken

	mu    sync.Mutex
	ended bool
}

// newPart is unexported: callers get a Part from Manager.Begin or from the
// manager's dispatch of a server-initiated token.
func newPart(conn Sender, token protocol.ProgressToken) *Part {
	return &Part{conn: conn, token: token}
}

// Token returns the progress token so it can be attached to the request
// params that cause the server to report against this stream.
func (p *Part) Token() protocol.ProgressToken { return p.token }

// Begin sends the begin notification. percentage is clamped to [0,100];
// callers pass -1 when it isn't known rather than guessing to satisfy a
// non-nilable int.
func (p *Part) Begin(ctx context.Context, title string, cancellable bool, message string, percentage int) {
	p.send(ctx, protocol.WorkDoneProgressBegin{
		Kind:        "begin",
		Title:       title,
		Cancellable: cancellable,
		Message:     message,
		Percentage:  clampPercentage(percentage),
	})
}

// Report sends an intermediate update.
func (p *Part) Report(ctx context.Context, cancellable bool, message string, percentage int) {
	p.send(ctx, protocol.WorkDoneProgressReport{
		Kind:        "report",
		Cancellable: cancellable,
		Message:     message,
		Percentage:  clampPercentage(percentage),
	})
}

// End closes the stream. Safe to call more than once; only the first call
// sends anything, since a second $/progress(end) for the same token is
// meaningless to the peer.
func (p *Part) End(ctx context.Context, message string) {
	p.mu.Lock()
	if p.ended {
		p.mu.Unlock()
		return
	}
	p.ended = true
	p.mu.Unlock()

	p.send(ctx, protocol.WorkDoneProgressEnd{Kind: "end", Message: message})
}

func (p *Part) send(ctx context.Context, value interface{}) {
	_ = p.conn.Notify(ctx, "$/progress", &protocol.ProgressParams{
		Token: p.token,
		Value: value,
	})
}

func clampPercentage(v int) uint32 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return uint32(v)
}

// Manager tracks every live progress stream and routes inbound $/progress
// notifications from the server to the host's registered handler, since a
// server-initiated stream (one the server created without the client
// offering window/workDoneProgress/create) only becomes known to the client
// on its first report.
type Manager struct {
	conn Sender

	mu     sync.Mutex
	active map[protocol.ProgressToken]*Part
	onWork func(token protocol.ProgressToken, value interface{})
}

// NewManager builds a Manager.
func NewManager(conn Sender) *Manager {
	return &Manager{conn: conn, active: make(map[protocol.ProgressToken]*Part)}
}

// OnProgress installs the host callback invoked for every inbound $/progress
// value, including ones for server-initiated tokens this Manager never
// created via Begin.
func (m *Manager) OnProgress(fn func(token protocol.ProgressToken, value interface{})) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWork = fn
}

// Dispatch is called by the connection's $/progress notification handler.
func (m *Manager) Dispatch(token protocol.ProgressToken, value interface{}) {
	m.mu.Lock()
	fn := m.onWork
	m.mu.Unlock()
	if fn != nil {
		fn(token, value)
	}
}

// Begin creates a new client-initiated progress stream with a fresh token.
func (m *Manager) Begin(ctx context.Context, title string, cancellable bool, message string, percentage int) *Part {
	token := protocol.ProgressToken(uuid.NewString())
	part := newPart(m.conn, token)

	m.mu.Lock()
	m.active[token] = part
	m.mu.Unlock()

	part.Begin(ctx, title, cancellable, message, percentage)
	return part
}

// Create fulfils a window/workDoneProgress/create request from the server,
// registering token as a client-managed stream the server will now report
// against via $/progress without the client needing to call Begin.
func (m *Manager) Create(token protocol.ProgressToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.active[token]; exists {
		return
	}
	m.active[token] = newPart(m.conn, token)
}

// Forget drops bookkeeping for token once its stream has ended.
func (m *Manager) Forget(token protocol.ProgressToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, token)
}
