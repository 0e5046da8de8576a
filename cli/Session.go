package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/common"
	"github.com/sirgallo/quicinterop/policy"
	"github.com/sirgallo/quicinterop/pool"
)


//============================================= Client Sessions


// rawSession: "GET <path>\r\n" per bidirectional stream, raw bytes back
type rawSession struct {
	conn quic.EarlyConnection
	alpn string
	buffers *pool.BufferPool
	logger zerolog.Logger

	// confirmed: set up for 0-RTT sessions, whose protocol is only known once the handshake completes
	confirmed *sync.Once
	confirmErr error
}

// h3Session: HTTP/3 requests over a single round tripper
type h3Session struct {
	roundTripper *http3.RoundTripper
	method string
	buffers *pool.BufferPool
}


// openSession
//	Dial the target's server in the policy's mode.
//	Unless early is set the handshake must complete before any request is sent.
func (cli *QuicClient) openSession(ctx context.Context, t target, early bool) (session, error) {
	tlsConfig := cli.tlsConfig.Clone()
	tlsConfig.ServerName = t.serverName

	if cli.policy.Mode == policy.ModeStructured {
		method := http.MethodGet
		if early { method = http3.MethodGet0RTT }

		return &h3Session{
			roundTripper: &http3.RoundTripper{ TLSClientConfig: tlsConfig, QuicConfig: cli.quicConfig },
			method: method,
			buffers: cli.buffers,
		}, nil
	}

	conn, dialErr := quic.DialAddrEarly(ctx, t.address, tlsConfig, cli.quicConfig)
	if dialErr != nil { return nil, dialErr }

	sess := &rawSession{
		conn: conn,
		alpn: cli.policy.ALPN[0],
		buffers: cli.buffers,
		logger: cli.logger.With().Str("address", t.address).Logger(),
	}

	if early {
		sess.confirmed = &sync.Once{}
	} else {
		confirmErr := confirmProtocol(ctx, conn, sess.alpn)
		if confirmErr != nil { return nil, confirmErr }
	}

	state := conn.ConnectionState()
	sess.logger.Info().
		Bool("early", early).
		Bool("resumed", state.TLS.DidResume).
		Str("cipher", tlsCipherName(state.TLS.CipherSuite)).
		Msg("connection established")

	return sess, nil
}

// confirmProtocol
//	Wait for the handshake and check the negotiated ALPN. A mismatch closes the connection.
func confirmProtocol(ctx context.Context, conn quic.EarlyConnection, alpn string) error {
	select {
		case <-conn.HandshakeComplete():
		case <-conn.Context().Done():
			return fmt.Errorf("handshake failed: %w", context.Cause(conn.Context()))
		case <-ctx.Done():
			conn.CloseWithError(common.SHUTDOWN, "canceled")
			return ctx.Err()
	}

	negotiated := conn.ConnectionState().TLS.NegotiatedProtocol
	if negotiated != alpn {
		conn.CloseWithError(common.PROTOCOL_ERROR, "unsupported application protocol")
		return fmt.Errorf("server negotiated %q", negotiated)
	}

	return nil
}

// confirm
//	0-RTT requests go out before the server has answered, so their responses are only trusted
//	once the handshake completes with the expected protocol.
func (sess *rawSession) confirm(ctx context.Context) error {
	if sess.confirmed == nil { return nil }

	sess.confirmed.Do(func() { sess.confirmErr = confirmProtocol(ctx, sess.conn, sess.alpn) })
	return sess.confirmErr
}

func (sess *rawSession) fetch(ctx context.Context, t target, dst io.Writer) (response, error) {
	stream, openErr := sess.conn.OpenStreamSync(ctx)
	if openErr != nil { return response{}, openErr }

	path := t.uri.Path
	if path == "" { path = "/" }

	_, writeErr := io.WriteString(stream, "GET " + path + "\r\n")
	if writeErr != nil {
		stream.CancelRead(common.STREAM_INTERNAL_ERROR)
		return response{}, writeErr
	}

	closeErr := stream.Close()
	if closeErr != nil {
		stream.CancelRead(common.STREAM_INTERNAL_ERROR)
		return response{}, closeErr
	}

	confirmErr := sess.confirm(ctx)
	if confirmErr != nil {
		stream.CancelRead(common.STREAM_INTERNAL_ERROR)
		return response{}, confirmErr
	}

	n, copyErr := sess.buffers.Copy(dst, stream)
	if copyErr != nil {
		stream.CancelRead(common.STREAM_INTERNAL_ERROR)
		return response{ bytes: n }, copyErr
	}

	state := sess.conn.ConnectionState()
	return response{ bytes: n, tls: state.TLS, used0RTT: state.Used0RTT }, nil
}

func (sess *rawSession) close() error {
	state := sess.conn.ConnectionState()
	sess.logger.Debug().Bool("0rtt", state.Used0RTT).Bool("resumed", state.TLS.DidResume).Msg("closing connection")

	return sess.conn.CloseWithError(common.NO_ERROR, "done")
}

func (sess *h3Session) fetch(ctx context.Context, t target, dst io.Writer) (response, error) {
	req, reqErr := http.NewRequestWithContext(ctx, sess.method, t.uri.String(), nil)
	if reqErr != nil { return response{}, reqErr }

	resp, rtErr := sess.roundTripper.RoundTrip(req)
	if rtErr != nil { return response{}, rtErr }

	defer resp.Body.Close()

	result := response{ status: resp.StatusCode }
	if resp.TLS != nil { result.tls = *resp.TLS }

	if resp.StatusCode != http.StatusOK { return result, fmt.Errorf("status %d", resp.StatusCode) }

	n, copyErr := sess.buffers.Copy(dst, resp.Body)
	result.bytes = n
	return result, copyErr
}

func (sess *h3Session) close() error {
	return sess.roundTripper.Close()
}
