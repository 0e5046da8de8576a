package config

import (
	"errors"

	"github.com/sirgallo/quicinterop/policy"
)


// ServerConfig: the server's run configuration, read once at startup and never mutated
type ServerConfig struct {
	Testcase policy.Testcase
	// Root: the served directory tree (WWW)
	Root string
	// Certs: directory holding cert.pem and priv.key (or key.pem)
	Certs string
	IP string
	Port int
	// Logs: directory for server.log, empty for console only
	Logs string
	// KeyLogFile: NSS key log destination (SSLKEYLOGFILE)
	KeyLogFile string
	// QlogDir: directory for per-connection qlog traces
	QlogDir string
	LogLevel string
	// EarlyData: operators may switch 0-RTT off; testcases never switch it on
	EarlyData bool
}

// ClientConfig: the client's run configuration
type ClientConfig struct {
	Testcase policy.Testcase
	// Requests: target URIs, e.g. https://server:443/file
	Requests []string
	// Downloads: directory response bodies are written to
	Downloads string
	Logs string
	KeyLogFile string
	QlogDir string
	LogLevel string
	EarlyData bool
	// Insecure: trust any server certificate
	Insecure bool
	// CAFile: roots for chain validation when Insecure is off
	CAFile string
}

const EXIT_SUCCESS = 0
const EXIT_FAILURE = 1
const EXIT_UNKNOWN_TESTCASE = 127

// ErrUnknownTestcase: the testcase is missing or not one the binaries implement
var ErrUnknownTestcase = errors.New("unknown testcase")
