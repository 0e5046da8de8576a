package certs

import (
	"crypto"
	"crypto/x509"
	"errors"
	"time"
)


// Credential: the server identity, never mutated after load
type Credential struct {
	// Chain: every certificate from the bundle, leaf first
	Chain []*x509.Certificate
	PrivateKey crypto.Signer
}

// KeyFormat: PEM encoding used when writing a generated private key
type KeyFormat int

const (
	// PKCS8: "PRIVATE KEY" block around an ECDSA key
	PKCS8 KeyFormat = iota
	// PKCS1: "RSA PRIVATE KEY" block around an RSA key
	PKCS1
)

// GenerateOpts: options for a generated root + leaf chain
type GenerateOpts struct {
	// Org: organization on both certificates
	Org string
	// Hosts: DNS names or IPs the leaf is valid for
	Hosts []string
	KeyFormat KeyFormat
	Validity time.Duration
}

// GeneratedChain: PEM material laid out the way LoadCredential reads it
type GeneratedChain struct {
	// CertPEM: leaf followed by root
	CertPEM []byte
	KeyPEM []byte
	// RootPEM: the root alone, for clients that validate the chain
	RootPEM []byte
}

const CERT_FILE = "cert.pem"
const ROOT_FILE = "ca.pem"

// KEY_FILES: candidate key file names, tried in order
var KEY_FILES = []string{ "priv.key", "key.pem" }

var (
	ErrNoCertificate = errors.New("no certificate found")
	ErrNoPrivateKey = errors.New("no private key found")
	ErrKeyMismatch = errors.New("private key does not match leaf certificate")
)
