// Package wire owns the JSON-RPC link to a language server: transports,
// request/response correlation, and malformed-traffic accounting. It is
// component A of the client runtime; everything here is transport-neutral,
// the actual byte shuttling lives behind the Transport interface.
package wire

import (
	"fmt"
	"io"
	"net/url"
	"os/exec"

	"github.com/gorilla/websocket"
)

// Transport produces the byte stream a Connection frames JSON-RPC messages
// over. Exactly one of these backs any given Connection.
type Transport interface {
	io.ReadWriteCloser
}

// StdioTransport wraps a child process's stdin/stdout, the default way a
// host launches a language server.
type StdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// NewStdioTransport starts cmd and connects its stdio to the transport. The
// caller owns cmd's Stderr/Dir/Env before calling this.
func NewStdioTransport(cmd *exec.Cmd) (*StdioTransport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("wire: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("wire: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("wire: start server process: %w", err)
	}
	return &StdioTransport{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (t *StdioTransport) Read(p []byte) (int, error)  { return t.stdout.Read(p) }
func (t *StdioTransport) Write(p []byte) (int, error) { return t.stdin.Write(p) }

func (t *StdioTransport) Close() error {
	if err := t.stdin.Close(); err != nil {
		return err
	}
	if err := t.stdout.Close(); err != nil {
		return err
	}
	return t.cmd.Wait()
}

// wsTransport adapts a *websocket.Conn into an io.ReadWriteCloser carrying a
// framed JSON-RPC byte stream, for hosts that proxy a language server over a
// websocket (e.g. a web-based editor talking to a server behind a gateway).
// The read/write pump structure mirrors a typical gorilla/websocket client:
// one goroutine pumps inbound binary messages into a pipe the Connection
// reads from; writes go straight to the socket guarded by a mutex, since
// gorilla/websocket forbids concurrent writers.
type wsTransport struct {
	conn *websocket.Conn

	readPipeR *io.PipeReader
	readPipeW *io.PipeWriter

	writeMu chan struct{} // 1-buffered: acts as a non-reentrant write lock
}

// NewWebSocketTransport dials addr (ws:// or wss://) and returns a Transport
// that frames JSON-RPC messages over binary websocket frames.
func NewWebSocketTransport(addr string) (Transport, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("wire: invalid websocket address: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wire: websocket dial: %w", err)
	}
	return newWSTransport(conn), nil
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	pr, pw := io.Pipe()
	t := &wsTransport{
		conn:      conn,
		readPipeR: pr,
		readPipeW: pw,
		writeMu:   make(chan struct{}, 1),
	}
	t.writeMu <- struct{}{}
	go t.readPump()
	return t
}

func (t *wsTransport) readPump() {
	defer t.readPipeW.Close()
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.readPipeW.CloseWithError(err)
			return
		}
		if _, err := t.readPipeW.Write(data); err != nil {
			return
		}
	}
}

func (t *wsTransport) Read(p []byte) (int, error) { return t.readPipeR.Read(p) }

func (t *wsTransport) Write(p []byte) (int, error) {
	<-t.writeMu
	defer func() { t.writeMu <- struct{}{} }()
	if err := t.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *wsTransport) Close() error {
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return t.conn.Close()
}
