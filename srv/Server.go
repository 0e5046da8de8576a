package srv

import "context"
import "errors"
import "net/http"

import "github.com/quic-go/quic-go"
import "github.com/quic-go/quic-go/http3"

import "github.com/sirgallo/quicinterop/common"
import "github.com/sirgallo/quicinterop/pool"


//============================================= Server


// NewQuicServer
//	Bind the listener. Failing to bind is the one server error that is fatal to the process.
func NewQuicServer(opts *QuicServerOpts) (*QuicServer, error) {
	tlsConfig := opts.Policy.ServerTLSConfig(opts.Certificate, opts.KeyLog)
	quicConfig := opts.Policy.ServerQuicConfig(opts.Tracer)

	listener, listenQuicErr := quic.ListenAddrEarly(opts.Address, tlsConfig, quicConfig)
	if listenQuicErr != nil { return nil, listenQuicErr }

	srv := &QuicServer{
		listener: listener,
		root: opts.Root,
		policy: opts.Policy,
		buffers: pool.NewBufferPool(common.STREAM_CHUNK_SIZE),
		logger: opts.Logger,
	}

	srv.h3 = &http3.Server{ Handler: http.HandlerFunc(srv.serveHTTP) }

	srv.logger.Info().
		Str("address", listener.Addr().String()).
		Str("testcase", string(opts.Policy.Testcase)).
		Str("alpn", opts.Policy.ALPN[0]).
		Str("mode", opts.Policy.Mode.String()).
		Bool("retry", opts.Policy.RequireRetry).
		Bool("early_data", opts.Policy.EnableEarlyData).
		Msg("quic transport layer started")

	return srv, nil
}

// Listen
//	Accept connections until ctx is done or the server is closed.
//	Every connection is handled on its own goroutine and never shares mutable state with another.
func (srv *QuicServer) Listen(ctx context.Context) error {
	defer srv.listener.Close()

	for {
		conn, acceptErr := srv.listener.Accept(ctx)
		if acceptErr != nil {
			if ctx.Err() != nil || srv.closed.Load() {
				srv.logger.Info().Msg("listener stopped")
				return nil
			}

			return acceptErr
		}

		go srv.handleConnection(conn)
	}
}

// Addr
//	The bound address, useful when listening on port 0.
func (srv *QuicServer) Addr() string {
	return srv.listener.Addr().String()
}

func (srv *QuicServer) Close() error {
	if srv.closed.Swap(true) { return nil }

	h3Err := srv.h3.Close()
	closeErr := srv.listener.Close()
	return errors.Join(closeErr, h3Err)
}
