package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// RequestHandler answers an inbound request from the server. raw is the
// request's still-encoded params, deferred decoding to the registered
// method's own param type the way the teacher's handleInitialize etc. do.
type RequestHandler func(ctx context.Context, raw json.RawMessage) (result interface{}, err error)

// NotificationHandler reacts to an inbound notification from the server.
type NotificationHandler func(ctx context.Context, raw json.RawMessage)

// Connection owns a single JSON-RPC link to one language server. It
// implements request/response correlation (via the underlying jsonrpc2.Conn),
// inbound method dispatch, and the malformed-traffic error counter from
// spec.md §4.1. A Connection is single-use: once closed it is discarded, a
// restart creates a fresh one.
type Connection struct {
	conn   jsonrpc2.Conn
	logger *zap.Logger

	mu           sync.RWMutex
	requestTable map[string]RequestHandler
	notifyTable  map[string]NotificationHandler

	errCount int32 // consecutive malformed-traffic errors; reset on success

	onErrorMu sync.RWMutex
	onError   func(error)

	onCloseMu sync.RWMutex
	onClose   func(error)

	closed atomic.Bool
}

// NewConnection frames JSON-RPC messages over t and returns a Connection
// ready to have handlers registered via OnRequest/OnNotification before
// Listen is called.
func NewConnection(t Transport, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	stream := jsonrpc2.NewStream(t)
	conn := jsonrpc2.NewConn(stream)
	return &Connection{
		conn:         conn,
		logger:       logger,
		requestTable: make(map[string]RequestHandler),
		notifyTable:  make(map[string]NotificationHandler),
	}
}

// OnRequest registers the handler invoked for an inbound request for method.
// Must be called before Listen; the dispatch table is not safe to mutate
// concurrently with inbound traffic by design (registrations happen once,
// during Client.start, per spec.md §4.2 step 2).
func (c *Connection) OnRequest(method string, h RequestHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestTable[method] = h
}

// OnNotification registers the handler invoked for an inbound notification.
func (c *Connection) OnNotification(method string, h NotificationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyTable[method] = h
}

// OnError taps transport-level read/write faults.
func (c *Connection) OnError(f func(error)) {
	c.onErrorMu.Lock()
	defer c.onErrorMu.Unlock()
	c.onError = f
}

// OnClose taps the connection closing, whether cleanly or due to a fault.
func (c *Connection) OnClose(f func(error)) {
	c.onCloseMu.Lock()
	defer c.onCloseMu.Unlock()
	c.onClose = f
}

// Listen starts the inbound read loop. It returns immediately; inbound
// messages are dispatched on goroutines managed by the underlying
// jsonrpc2.Conn until ctx is cancelled or the transport closes.
func (c *Connection) Listen(ctx context.Context) {
	c.conn.Go(ctx, c.dispatch)
	go func() {
		<-c.conn.Done()
		err := c.conn.Err()
		c.closed.Store(true)
		c.onCloseMu.RLock()
		onClose := c.onClose
		c.onCloseMu.RUnlock()
		if onClose != nil {
			onClose(err)
		}
	}()
}

// dispatch is the single jsonrpc2.Handler installed on the connection; it
// looks up the registered handler by method and decodes params lazily,
// mirroring the teacher's internal/lsp.Server.handler switch but generalized
// into a registration table so components can each own their own methods.
func (c *Connection) dispatch(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	method := req.Method()

	c.mu.RLock()
	reqHandler, isRequest := c.requestTable[method]
	notifyHandler, isNotify := c.notifyTable[method]
	c.mu.RUnlock()

	switch {
	case isRequest:
		result, err := reqHandler(ctx, req.Params())
		c.noteSuccess()
		if err != nil {
			return reply(ctx, nil, asProtocolError(err))
		}
		return reply(ctx, result, nil)
	case isNotify:
		notifyHandler(ctx, req.Params())
		c.noteSuccess()
		return reply(ctx, nil, nil)
	default:
		c.noteSuccess() // traffic was well-formed, just unrecognized
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
}

func (c *Connection) noteSuccess() {
	atomic.StoreInt32(&c.errCount, 0)
}

// noteTransportError increments the consecutive-error counter and invokes
// the registered OnError tap. Returns the new count.
func (c *Connection) noteTransportError(err error) int {
	count := int(atomic.AddInt32(&c.errCount, 1))
	c.onErrorMu.RLock()
	onError := c.onError
	c.onErrorMu.RUnlock()
	if onError != nil {
		onError(fmt.Errorf("wire: transport error (count=%d): %w", count, err))
	}
	return count
}

// Call sends a request and blocks for the matching response, decoding the
// result into out (which may be nil for calls whose result is discarded).
// Cancelling ctx sends a $/cancelRequest notification for the in-flight
// request unless the response has already arrived, satisfying spec.md §5's
// cancellation guarantee.
func (c *Connection) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	id, err := c.conn.Call(ctx, method, params, out)
	if err != nil {
		if ctx.Err() != nil {
			// best effort: tell the server to stop working on it too.
			_ = c.conn.Notify(context.Background(), "$/cancelRequest", cancelParams{ID: id})
			return ctx.Err()
		}
		c.noteTransportError(err)
		return err
	}
	c.noteSuccess()
	return nil
}

// Notify sends a fire-and-forget notification.
func (c *Connection) Notify(ctx context.Context, method string, params interface{}) error {
	if err := c.conn.Notify(ctx, method, params); err != nil {
		c.noteTransportError(err)
		return err
	}
	c.noteSuccess()
	return nil
}

// Close ends the connection. Idempotent.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

type cancelParams struct {
	ID interface{} `json:"id"`
}

// asProtocolError adapts an arbitrary Go error into a *jsonrpc2.Error for a
// reply, preserving an existing *jsonrpc2.Error's code if there is one.
func asProtocolError(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*jsonrpc2.Error); ok {
		return pe
	}
	return &jsonrpc2.Error{Code: jsonrpc2.InternalError, Message: err.Error()}
}
