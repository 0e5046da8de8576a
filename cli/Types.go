package cli

import (
	"context"
	"crypto/tls"
	"io"
	"net/url"

	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/certs"
	"github.com/sirgallo/quicinterop/policy"
	"github.com/sirgallo/quicinterop/pool"
)


// QuicClientOpts: options on client init
type QuicClientOpts struct {
	// Policy: transport and TLS options for the testcase, including the connection strategy
	Policy policy.Policy
	// Downloads: directory response bodies are written under
	Downloads string
	// Verifier: how the server's certificate is trusted; TrustAll when nil
	Verifier certs.Verifier
	// KeyLog: optional NSS key log sink
	KeyLog io.Writer
	// Tracer: optional per-connection qlog tracer
	Tracer policy.Tracer
	// DefaultPort: used for URIs without a port
	DefaultPort int
	Logger zerolog.Logger
}

// QuicClient: the quic client implementation
type QuicClient struct {
	policy policy.Policy
	downloads string
	defaultPort int
	tlsConfig *tls.Config
	quicConfig *quic.Config
	buffers *pool.BufferPool
	logger zerolog.Logger
}

// Result: the outcome of one request
type Result struct {
	// URL: the request as given
	URL string
	// Path: where the body was written, empty on failure
	Path string
	// Status: HTTP status in structured mode, 0 in raw mode
	Status int
	Bytes int64
	// CipherSuite: the TLS 1.3 suite of the connection that carried the request
	CipherSuite uint16
	// Resumed: the connection resumed an earlier TLS session
	Resumed bool
	// Used0RTT: the server accepted the request as early data (raw mode only)
	Used0RTT bool
	Err error
}

// response: what one fetch moved and the state of the connection it moved over
type response struct {
	status int
	bytes int64
	tls tls.ConnectionState
	used0RTT bool
}

// target: a parsed request and the address it is sent to
type target struct {
	index int
	raw string
	uri *url.URL
	address string
	serverName string
}

// session: one connection able to carry many concurrent requests
type session interface {
	fetch(ctx context.Context, t target, dst io.Writer) (response, error)
	close() error
}
