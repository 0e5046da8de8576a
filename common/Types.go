package common

import "github.com/quic-go/quic-go"


// ALPN_HQ: raw "GET <path>\r\n" requests over bidirectional streams
const ALPN_HQ = "hq-interop"
// ALPN_H3: structured HTTP/3 requests
const ALPN_H3 = "h3"

const DEFAULT_PORT = 443
const DEFAULT_HANDSHAKE_TIME = 3

// MAX_REQUEST_SIZE: upper bound on a buffered raw request before the stream is rejected
const MAX_REQUEST_SIZE = 64 * 1024 // 64KiB
// STREAM_CHUNK_SIZE: size of the pooled buffers used to move file bytes onto a stream
const STREAM_CHUNK_SIZE = 32 * 1024 // 32KiB

const (
	NO_ERROR quic.ApplicationErrorCode = 0x0
	// PROTOCOL_ERROR: the negotiated ALPN is not the one the testcase serves
	PROTOCOL_ERROR quic.ApplicationErrorCode = 0x4
	// SHUTDOWN: the local side is stopping
	SHUTDOWN quic.ApplicationErrorCode = 0x5
)

const (
	STREAM_REQUEST_REJECTED quic.StreamErrorCode = 0x1
	STREAM_INTERNAL_ERROR quic.StreamErrorCode = 0x2
)
