package policy

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/logging"

	"github.com/sirgallo/quicinterop/common"
)


//============================================= Transport Configuration


// Tracer: the per-connection tracer factory a quic.Config accepts
type Tracer func(ctx context.Context, perspective logging.Perspective, odcid quic.ConnectionID) *logging.ConnectionTracer

const HANDSHAKE_IDLE_TIMEOUT = common.DEFAULT_HANDSHAKE_TIME * time.Second
const MAX_IDLE_TIMEOUT = 30 * time.Second


// ServerTLSConfig
//	TLS 1.3 only, a single ALPN token, the full certificate chain of the credential.
//	keyLog may be nil.
func (pol Policy) ServerTLSConfig(cert tls.Certificate, keyLog io.Writer) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{ cert },
		NextProtos: append([]string(nil), pol.ALPN...),
		MinVersion: tls.VersionTLS13,
		KeyLogWriter: keyLog,
		VerifyConnection: pol.VerifyCipherSuite,
	}
}

// ClientTLSConfig
//	Certificate trust is left to a verifier, which the caller applies on top of this config.
//	sessions carries tickets between connections for resumption and 0-RTT.
func (pol Policy) ClientTLSConfig(keyLog io.Writer, sessions tls.ClientSessionCache) *tls.Config {
	return &tls.Config{
		NextProtos: append([]string(nil), pol.ALPN...),
		MinVersion: tls.VersionTLS13,
		KeyLogWriter: keyLog,
		ClientSessionCache: sessions,
		VerifyConnection: pol.VerifyCipherSuite,
	}
}

// ServerQuicConfig
//	Raw mode is bidirectional-request-only, so peers may not open unidirectional streams.
//	HTTP/3 needs them for its control and QPACK streams.
func (pol Policy) ServerQuicConfig(tracer Tracer) *quic.Config {
	conf := &quic.Config{
		HandshakeIdleTimeout: HANDSHAKE_IDLE_TIMEOUT,
		MaxIdleTimeout: MAX_IDLE_TIMEOUT,
		Allow0RTT: pol.EnableEarlyData,
		Tracer: tracer,
	}

	if pol.Mode == ModeRaw { conf.MaxIncomingUniStreams = -1 }
	if pol.RequireRetry { conf.RequireAddressValidation = func(net.Addr) bool { return true } }

	return conf
}

func (pol Policy) ClientQuicConfig(tracer Tracer) *quic.Config {
	conf := &quic.Config{
		HandshakeIdleTimeout: HANDSHAKE_IDLE_TIMEOUT,
		MaxIdleTimeout: MAX_IDLE_TIMEOUT,
		Tracer: tracer,
	}

	if pol.Mode == ModeRaw { conf.MaxIncomingUniStreams = -1 }

	return conf
}
