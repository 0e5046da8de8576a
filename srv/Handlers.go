package srv

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"github.com/sirgallo/quicinterop/common"
	"github.com/sirgallo/quicinterop/common/mmap"
	"github.com/sirgallo/quicinterop/policy"
	"github.com/sirgallo/quicinterop/resolver"
)

//============================================= Server Handlers

// handleConnection
//	Confirm the negotiated protocol, then serve the connection in the policy's mode until it closes.
//	Failures end this connection only.
func (srv *QuicServer) handleConnection(conn quic.EarlyConnection) {
	logger := srv.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	state := conn.ConnectionState()
	if state.TLS.NegotiatedProtocol != srv.policy.ALPN[0] {
		logger.Warn().Str("alpn", state.TLS.NegotiatedProtocol).Msg("unsupported application protocol, abandoning connection")
		conn.CloseWithError(common.PROTOCOL_ERROR, "unsupported application protocol")
		return
	}

	logger.Info().Str("alpn", state.TLS.NegotiatedProtocol).Bool("0rtt", state.Used0RTT).Msg("connection established")

	var serveErr error
	switch srv.policy.Mode {
		case policy.ModeStructured:
			serveErr = srv.h3.ServeQUICConn(conn)
		default:
			serveErr = srv.acceptStreams(conn, logger)
	}

	logConnectionClosed(logger, serveErr)
}

// acceptStreams
//	QUIC multiplexes streams, so every request stream gets its own goroutine.
//	Outstanding streams die with the connection.
func (srv *QuicServer) acceptStreams(conn quic.Connection, logger zerolog.Logger) error {
	for {
		stream, streamErr := conn.AcceptStream(conn.Context())
		if streamErr != nil { return streamErr }

		go srv.handleRawStream(stream, logger.With().Int64("stream", int64(stream.StreamID())).Logger())
	}
}

// handleRawStream
//	Read one "GET <path>\r\n" request and answer it with the raw file bytes or an error line.
//	The stream is finished on every path; nothing escapes this function.
func (srv *QuicServer) handleRawStream(stream quic.Stream, logger zerolog.Logger) {
	defer stream.Close()

	request, readErr := readRequest(stream, common.MAX_REQUEST_SIZE)
	if errors.Is(readErr, ErrRequestTooLarge) {
		stream.CancelRead(common.STREAM_REQUEST_REJECTED)
		logger.Warn().Err(readErr).Msg("rejecting request")
		writeRawError(stream, readErr, logger)
		return
	}

	if readErr != nil {
		logger.Debug().Err(readErr).Msg("failed to read request")
		stream.CancelWrite(common.STREAM_INTERNAL_ERROR)
		return
	}

	target, parseErr := parseRawRequest(request)
	if parseErr != nil {
		logger.Warn().Err(parseErr).Msg("rejecting request")
		writeRawError(stream, parseErr, logger)
		return
	}

	mapped, openErr := srv.openFile(target, logger)
	if openErr != nil {
		writeRawError(stream, openErr, logger)
		return
	}

	defer mapped.Unmap()

	written, writeErr := srv.writeMapped(stream, mapped)
	if writeErr != nil {
		logger.Debug().Err(writeErr).Str("path", target).Msg("failed to stream file")
		stream.CancelWrite(common.STREAM_INTERNAL_ERROR)
		return
	}

	logger.Debug().Str("path", target).Int64("bytes", written).Msg("served")
}

// openFile
//	Resolve the requested path under the served root and map the file.
//	Resolver rejections and I/O failures both collapse to ErrNotFound.
func (srv *QuicServer) openFile(requested string, logger zerolog.Logger) (mmap.MMap, error) {
	resolved, resolveErr := resolver.Resolve(srv.root, requested)
	if resolveErr != nil {
		logger.Warn().Str("event", "path_rejected").Str("path", requested).Err(resolveErr).Msg("request path rejected")
		return nil, ErrNotFound
	}

	mapped, mapErr := mmap.MapFile(resolved.Path())
	if mapErr != nil {
		logger.Debug().Str("path", resolved.Path()).Err(mapErr).Msg("failed to open file")
		return nil, ErrNotFound
	}

	return mapped, nil
}

// writeMapped
//	Stream a mapped file. A file that shrinks while it is served fails this request, not the process.
func (srv *QuicServer) writeMapped(w io.Writer, mapped mmap.MMap) (int64, error) {
	var written int64
	guardErr := mmap.Guard(func() error {
		n, writeErr := srv.buffers.Write(w, mapped)
		written = n
		return writeErr
	})

	return written, guardErr
}

func writeRawError(w io.Writer, reason error, logger zerolog.Logger) {
	_, writeErr := io.WriteString(w, RAW_ERROR_PREFIX + reason.Error() + "\n")
	if writeErr != nil { logger.Debug().Err(writeErr).Msg("failed to write error response") }
}

func logConnectionClosed(logger zerolog.Logger, err error) {
	var appErr *quic.ApplicationError
	var idleErr *quic.IdleTimeoutError
	var netErr net.Error

	switch {
		case err == nil, errors.Is(err, context.Canceled):
			logger.Debug().Msg("connection closed")
		case errors.As(err, &appErr):
			logger.Debug().Bool("remote", appErr.Remote).Uint64("code", uint64(appErr.ErrorCode)).Str("reason", appErr.ErrorMessage).Msg("connection closed")
		case errors.As(err, &idleErr):
			logger.Debug().Msg("connection idle timeout")
		case errors.As(err, &netErr) && netErr.Timeout():
			logger.Debug().Err(err).Msg("connection timed out")
		default:
			logger.Warn().Err(err).Msg("connection failed")
	}
}
