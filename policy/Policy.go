package policy

import (
	"crypto/tls"
	"fmt"

	"github.com/sirgallo/quicinterop/common"
)


//============================================= Testcase Policy


// Parse
//	Map a testcase name onto the closed set of testcases.
func Parse(name string) (Testcase, bool) {
	for _, tc := range Testcases {
		if string(tc) == name { return tc, true }
	}

	return "", false
}

// For
//	Select the policy for a testcase. The result depends on nothing but the testcase,
//	and every call returns fresh slices so callers may not alias each other.
//	Testcases are validated at configuration time, so an unknown value here is a programming error.
func For(tc Testcase) Policy {
	pol := Policy{
		Testcase: tc,
		EnableEarlyData: true,
		ALPN: []string{ common.ALPN_HQ },
		Mode: ModeRaw,
		Strategy: SingleConnection,
	}

	switch tc {
		case Handshake, Transfer, TransportParameter, Goodput:
		case Optimize:
			pol.QuietLogs = true
		case ChaCha20:
			pol.CipherSuites = []uint16{ tls.TLS_CHACHA20_POLY1305_SHA256 }
		case Retry:
			pol.RequireRetry = true
		case MultiHandshake:
			pol.Strategy = ConnectionPerRequest
		case Resumption:
			pol.Strategy = ResumeAfterFirst
		case ZeroRTT:
			pol.Strategy = EarlyDataAfterFirst
		case HTTP3:
			pol.ALPN = []string{ common.ALPN_H3 }
			pol.Mode = ModeStructured
		default:
			panic(fmt.Sprintf("policy: unhandled testcase %q", tc))
	}

	return pol
}

// WithEarlyData
//	Operators may switch early data off; it is never switched on for a policy that disabled it.
func (pol Policy) WithEarlyData(enabled bool) Policy {
	pol.EnableEarlyData = pol.EnableEarlyData && enabled
	if !pol.EnableEarlyData && pol.Strategy == EarlyDataAfterFirst { pol.Strategy = ResumeAfterFirst }

	return pol
}

// VerifyCipherSuite
//	Reject a handshake whose negotiated suite is outside the policy's restriction.
//	ApplyCipherSuites narrows what is offered; this catches anything that slips past it.
func (pol Policy) VerifyCipherSuite(state tls.ConnectionState) error {
	if pol.CipherSuites == nil { return nil }

	for _, suite := range pol.CipherSuites {
		if state.CipherSuite == suite { return nil }
	}

	return fmt.Errorf("%w: %s", ErrCipherSuiteMismatch, tls.CipherSuiteName(state.CipherSuite))
}

func (m Mode) String() string {
	switch m {
		case ModeRaw:
			return "raw"
		case ModeStructured:
			return "structured"
		default:
			return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (s Strategy) String() string {
	switch s {
		case SingleConnection:
			return "single-connection"
		case ConnectionPerRequest:
			return "connection-per-request"
		case ResumeAfterFirst:
			return "resume-after-first"
		case EarlyDataAfterFirst:
			return "early-data-after-first"
		default:
			return fmt.Sprintf("Strategy(%d)", int(s))
	}
}
