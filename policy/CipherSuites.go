package policy

import (
	"crypto/tls"
	"fmt"
	"sync"
	"unsafe"
)


//============================================= TLS 1.3 Cipher Suites


// crypto/tls ignores Config.CipherSuites for TLS 1.3, so a restricted policy rewrites the
// package's suite tables instead. The order of cipherSuitesTLS13 is AES-128-GCM, ChaCha20-Poly1305, AES-256-GCM.

//go:linkname cipherSuitesTLS13 crypto/tls.cipherSuitesTLS13
var cipherSuitesTLS13 []unsafe.Pointer

//go:linkname defaultCipherSuitesTLS13 crypto/tls.defaultCipherSuitesTLS13
var defaultCipherSuitesTLS13 []uint16

//go:linkname defaultCipherSuitesTLS13NoAES crypto/tls.defaultCipherSuitesTLS13NoAES
var defaultCipherSuitesTLS13NoAES []uint16

var suitesMu sync.Mutex
var suitesModified bool


// ApplyCipherSuites
//	Restrict every TLS 1.3 handshake in the process to the policy's suite, until reset is called.
//	Policies without a restriction get a no-op reset. Only one restriction may be active at a time.
func (pol Policy) ApplyCipherSuites() (reset func()) {
	if len(pol.CipherSuites) == 0 { return func() {} }
	return restrictCipherSuite(pol.CipherSuites[0])
}

func restrictCipherSuite(id uint16) func() {
	suitesMu.Lock()
	defer suitesMu.Unlock()

	if suitesModified { panic("tls 1.3 cipher suites already restricted") }

	origSuites := append([]unsafe.Pointer{}, cipherSuitesTLS13...)
	origDefaults := append([]uint16{}, defaultCipherSuitesTLS13...)
	origDefaultsNoAES := append([]uint16{}, defaultCipherSuitesTLS13NoAES...)

	switch id {
		case tls.TLS_AES_128_GCM_SHA256:
			cipherSuitesTLS13 = cipherSuitesTLS13[:1]
		case tls.TLS_CHACHA20_POLY1305_SHA256:
			cipherSuitesTLS13 = cipherSuitesTLS13[1:2]
		case tls.TLS_AES_256_GCM_SHA384:
			cipherSuitesTLS13 = cipherSuitesTLS13[2:]
		default:
			panic(fmt.Sprintf("not a tls 1.3 cipher suite: %#04x", id))
	}

	defaultCipherSuitesTLS13 = []uint16{ id }
	defaultCipherSuitesTLS13NoAES = []uint16{ id }
	suitesModified = true

	return func() {
		suitesMu.Lock()
		defer suitesMu.Unlock()

		cipherSuitesTLS13 = origSuites
		defaultCipherSuitesTLS13 = origDefaults
		defaultCipherSuitesTLS13NoAES = origDefaultsNoAES
		suitesModified = false
	}
}
