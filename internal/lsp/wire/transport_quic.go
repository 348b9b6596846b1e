package wire

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/quic-go/quic-go"
)

// quicTransport frames JSON-RPC over a single bidirectional QUIC stream,
// for remote or sandboxed language servers reached over a network rather
// than spawned as a child process. One stream is opened per connection;
// the client runtime treats it exactly like any other byte pipe.
type quicTransport struct {
	conn   *quic.Conn
	stream *quic.Stream
}

// NewQUICTransport dials addr and opens the single stream the JSON-RPC
// session is framed over. tlsConf must be supplied by the caller (language
// servers reached over QUIC are expected to present a certificate the host
// already trusts; this package does not relax verification).
func NewQUICTransport(ctx context.Context, addr string, tlsConf *tls.Config) (Transport, error) {
	conn, err := quic.DialAddr(ctx, addr, tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("wire: quic dial: %w", err)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "stream open failed")
		return nil, fmt.Errorf("wire: quic open stream: %w", err)
	}
	return &quicTransport{conn: conn, stream: stream}, nil
}

func (t *quicTransport) Read(p []byte) (int, error)  { return t.stream.Read(p) }
func (t *quicTransport) Write(p []byte) (int, error) { return t.stream.Write(p) }

func (t *quicTransport) Close() error {
	if err := t.stream.Close(); err != nil {
		return err
	}
	return t.conn.CloseWithError(0, "")
}
