package srv

import (
	"crypto/tls"
	"errors"
	"io"
	"sync/atomic"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/policy"
	"github.com/sirgallo/quicinterop/pool"
)


// QuicServerOpts: the options for the quic server on init
type QuicServerOpts struct {
	// Address: host:port to bind
	Address string
	// Root: the served directory tree
	Root string
	// Certificate: the full server chain and key
	Certificate tls.Certificate
	// Policy: transport and TLS options for the testcase
	Policy policy.Policy
	// KeyLog: optional NSS key log sink
	KeyLog io.Writer
	// Tracer: optional per-connection qlog tracer
	Tracer policy.Tracer
	Logger zerolog.Logger
}

// QuicServer: the quic server implementation
type QuicServer struct {
	listener *quic.EarlyListener
	root string
	policy policy.Policy
	h3 *http3.Server
	buffers *pool.BufferPool
	logger zerolog.Logger
	closed atomic.Bool
}

var (
	// ErrMalformedRequest: a raw request without the "GET " prefix, the trailing CRLF, or a target
	ErrMalformedRequest = errors.New("malformed request")
	// ErrRequestTooLarge: a raw request longer than the request bound
	ErrRequestTooLarge = errors.New("request too large")
	// ErrNotFound: the path was rejected or the file could not be read; callers see no difference
	ErrNotFound = errors.New("not found")
)

const RAW_ERROR_PREFIX = "failed to process request: "
