package policy

import "errors"


// Testcase: a named interop scenario. The set is closed; see Testcases.
type Testcase string

const (
	Handshake Testcase = "handshake"
	Transfer Testcase = "transfer"
	MultiHandshake Testcase = "multihandshake"
	ChaCha20 Testcase = "chacha20"
	Retry Testcase = "retry"
	Resumption Testcase = "resumption"
	ZeroRTT Testcase = "zerortt"
	TransportParameter Testcase = "transportparameter"
	Goodput Testcase = "goodput"
	Optimize Testcase = "optimize"
	HTTP3 Testcase = "http3"
)

// Testcases: every testcase the binaries accept
var Testcases = []Testcase{
	Handshake, Transfer, MultiHandshake, ChaCha20, Retry, Resumption,
	ZeroRTT, TransportParameter, Goodput, Optimize, HTTP3,
}

// Mode: the request syntax carried on a connection
type Mode int

const (
	// ModeRaw: "GET <path>\r\n" on a bidirectional stream, raw bytes back
	ModeRaw Mode = iota
	// ModeStructured: HTTP/3 requests and responses
	ModeStructured
)

// Strategy: how a client spreads its requests across connections
type Strategy int

const (
	// SingleConnection: every request concurrently on one connection
	SingleConnection Strategy = iota
	// ConnectionPerRequest: a fresh handshake for each request
	ConnectionPerRequest
	// ResumeAfterFirst: first request on its own connection, the rest on a resumed connection
	ResumeAfterFirst
	// EarlyDataAfterFirst: like ResumeAfterFirst, but the rest are sent as 0-RTT
	EarlyDataAfterFirst
)

// Policy: the transport and TLS options selected by a testcase
type Policy struct {
	Testcase Testcase
	// CipherSuites: nil means the platform's safe defaults, otherwise the only acceptable suites
	CipherSuites []uint16
	// EnableEarlyData: whether the server accepts and the client may send 0-RTT data
	EnableEarlyData bool
	// ALPN: the application protocols offered, always a single entry
	ALPN []string
	Mode Mode
	Strategy Strategy
	// RequireRetry: the server validates every client address with a Retry packet
	RequireRetry bool
	// QuietLogs: logging is silenced so it does not skew measurements
	QuietLogs bool
}

// ErrCipherSuiteMismatch: the handshake negotiated a suite the policy does not allow
var ErrCipherSuiteMismatch = errors.New("negotiated cipher suite not allowed by testcase")
