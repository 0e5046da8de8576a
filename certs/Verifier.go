package certs

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)


//============================================= Server Certificate Verifiers


// Verifier
//	Decides how a client trusts the server's certificate chain.
//	Connection setup applies whichever verifier it is given, so swapping one does not touch dialing code.
type Verifier interface {
	Configure(conf *tls.Config)
}

// TrustAll
//	Accepts any chain for any server name. Interop testing only checks the protocol, never the PKI.
type TrustAll struct{}

// ChainVerifier
//	Standard chain validation against a fixed root pool.
type ChainVerifier struct {
	Roots *x509.CertPool
}


// NewVerifier
//	insecure selects TrustAll; otherwise roots come from caFile, or the system pool when caFile is empty.
func NewVerifier(insecure bool, caFile string) (Verifier, error) {
	if insecure { return TrustAll{}, nil }
	if caFile == "" { return ChainVerifier{}, nil }

	return NewChainVerifier(caFile)
}

func NewChainVerifier(caFile string) (*ChainVerifier, error) {
	data, readErr := os.ReadFile(caFile)
	if readErr != nil { return nil, fmt.Errorf("reading roots: %w", readErr) }

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(data) { return nil, fmt.Errorf("%w in %s", ErrNoCertificate, caFile) }

	return &ChainVerifier{ Roots: roots }, nil
}

func (TrustAll) Configure(conf *tls.Config) {
	conf.InsecureSkipVerify = true
	conf.RootCAs = nil
}

func (v ChainVerifier) Configure(conf *tls.Config) {
	conf.InsecureSkipVerify = false
	conf.RootCAs = v.Roots
}
