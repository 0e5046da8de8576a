package certs

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)


//============================================= Credential Loader


// LoadCredential
//	Read the certificate bundle and private key from a certificates directory.
//	Any failure is fatal to the caller: without a key there is no server identity.
func LoadCredential(dir string) (*Credential, error) {
	certPEM, readCertErr := os.ReadFile(filepath.Join(dir, CERT_FILE))
	if readCertErr != nil { return nil, fmt.Errorf("reading certificate: %w", readCertErr) }

	keyPEM, readKeyErr := readKeyFile(dir)
	if readKeyErr != nil { return nil, readKeyErr }

	chain, chainErr := ParseCertificateChain(certPEM)
	if chainErr != nil { return nil, chainErr }

	key, keyErr := ParsePrivateKey(keyPEM)
	if keyErr != nil { return nil, keyErr }

	if !keyMatches(chain[0], key) { return nil, ErrKeyMismatch }

	return &Credential{ Chain: chain, PrivateKey: key }, nil
}

// ParseCertificateChain
//	Decode every CERTIFICATE block in order of appearance. Other block types are skipped.
func ParseCertificateChain(data []byte) ([]*x509.Certificate, error) {
	var chain []*x509.Certificate

	remain := data
	for {
		var block *pem.Block
		block, remain = pem.Decode(remain)
		if block == nil { break }
		if block.Type != "CERTIFICATE" { continue }

		cert, parseErr := x509.ParseCertificate(block.Bytes)
		if parseErr != nil { return nil, fmt.Errorf("parsing certificate %d: %w", len(chain), parseErr) }

		chain = append(chain, cert)
	}

	if len(chain) == 0 { return nil, ErrNoCertificate }
	return chain, nil
}

// ParsePrivateKey
//	PKCS8 blocks are tried first. Only when none exist is an RSA (PKCS1) block considered.
func ParsePrivateKey(data []byte) (crypto.Signer, error) {
	pkcs8 := blocksOfType(data, "PRIVATE KEY")
	if len(pkcs8) > 0 {
		key, parseErr := x509.ParsePKCS8PrivateKey(pkcs8[0].Bytes)
		if parseErr != nil { return nil, fmt.Errorf("parsing PKCS8 private key: %w", parseErr) }

		signer, ok := key.(crypto.Signer)
		if !ok { return nil, fmt.Errorf("%w: unsupported PKCS8 key type %T", ErrNoPrivateKey, key) }

		return signer, nil
	}

	rsa := blocksOfType(data, "RSA PRIVATE KEY")
	if len(rsa) > 0 {
		key, parseErr := x509.ParsePKCS1PrivateKey(rsa[0].Bytes)
		if parseErr != nil { return nil, fmt.Errorf("parsing RSA private key: %w", parseErr) }

		return key, nil
	}

	return nil, ErrNoPrivateKey
}

// TLSCertificate
//	The credential as crypto/tls presents it: the whole chain, not only the leaf.
func (cred *Credential) TLSCertificate() tls.Certificate {
	raw := make([][]byte, len(cred.Chain))
	for idx, cert := range cred.Chain { raw[idx] = cert.Raw }

	return tls.Certificate{ Certificate: raw, PrivateKey: cred.PrivateKey, Leaf: cred.Chain[0] }
}

func readKeyFile(dir string) ([]byte, error) {
	for _, name := range KEY_FILES {
		data, readErr := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(readErr, fs.ErrNotExist) { continue }
		if readErr != nil { return nil, fmt.Errorf("reading private key: %w", readErr) }

		return data, nil
	}

	return nil, fmt.Errorf("%w in %s (looked for %v)", ErrNoPrivateKey, dir, KEY_FILES)
}

func blocksOfType(data []byte, blockType string) []*pem.Block {
	var blocks []*pem.Block

	remain := data
	for {
		var block *pem.Block
		block, remain = pem.Decode(remain)
		if block == nil { break }
		if block.Type == blockType { blocks = append(blocks, block) }
	}

	return blocks
}

func keyMatches(leaf *x509.Certificate, key crypto.Signer) bool {
	pub, ok := key.Public().(interface{ Equal(crypto.PublicKey) bool })
	return ok && pub.Equal(leaf.PublicKey)
}
