package certs

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)


//============================================= Chain Generation


const DEFAULT_VALIDITY = 365 * 24 * time.Hour


// GenerateChain
//	Create a self-signed root and a leaf signed by it.
//	The leaf key is ECDSA P-256 for PKCS8, RSA 2048 for PKCS1.
func GenerateChain(opts GenerateOpts) (*GeneratedChain, error) {
	if opts.Validity == 0 { opts.Validity = DEFAULT_VALIDITY }

	rootKey, genRootKeyErr := generatePrivateKey(PKCS8)
	if genRootKeyErr != nil { return nil, genRootKeyErr }

	rootTemplate, rootTemplateErr := generateCertTemplate(opts.Org, opts.Validity)
	if rootTemplateErr != nil { return nil, rootTemplateErr }

	rootTemplate.Subject.CommonName = opts.Org + " root"
	rootTemplate.IsCA = true
	rootTemplate.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature
	rootTemplate.ExtKeyUsage = nil

	rootDER, rootErr := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, rootKey.Public(), rootKey)
	if rootErr != nil { return nil, rootErr }

	root, parseRootErr := x509.ParseCertificate(rootDER)
	if parseRootErr != nil { return nil, parseRootErr }

	leafKey, genLeafKeyErr := generatePrivateKey(opts.KeyFormat)
	if genLeafKeyErr != nil { return nil, genLeafKeyErr }

	leafTemplate, leafTemplateErr := generateCertTemplate(opts.Org, opts.Validity)
	if leafTemplateErr != nil { return nil, leafTemplateErr }

	leafTemplate.Subject.CommonName = opts.Org
	for _, host := range opts.Hosts {
		if ip := net.ParseIP(host); ip != nil {
			leafTemplate.IPAddresses = append(leafTemplate.IPAddresses, ip)
		} else { leafTemplate.DNSNames = append(leafTemplate.DNSNames, host) }
	}

	leafDER, leafErr := x509.CreateCertificate(rand.Reader, leafTemplate, root, leafKey.Public(), rootKey)
	if leafErr != nil { return nil, leafErr }

	keyPEM, encodeKeyErr := encodeKey(leafKey, opts.KeyFormat)
	if encodeKeyErr != nil { return nil, encodeKeyErr }

	rootPEM := pem.EncodeToMemory(&pem.Block{ Type: "CERTIFICATE", Bytes: rootDER })
	leafPEM := pem.EncodeToMemory(&pem.Block{ Type: "CERTIFICATE", Bytes: leafDER })

	return &GeneratedChain{
		CertPEM: bytes.Join([][]byte{ leafPEM, rootPEM }, nil),
		KeyPEM: keyPEM,
		RootPEM: rootPEM,
	}, nil
}

// Write
//	Lay the chain out as a certificates directory: cert.pem, priv.key and ca.pem.
func (chain *GeneratedChain) Write(dir string) error {
	mkdirErr := os.MkdirAll(dir, 0o755)
	if mkdirErr != nil { return mkdirErr }

	files := []struct {
		name string
		data []byte
		perm os.FileMode
	}{
		{ CERT_FILE, chain.CertPEM, 0o644 },
		{ KEY_FILES[0], chain.KeyPEM, 0o600 },
		{ ROOT_FILE, chain.RootPEM, 0o644 },
	}

	for _, f := range files {
		tmp := filepath.Join(dir, f.name + ".tmp")
		writeErr := os.WriteFile(tmp, f.data, f.perm)
		if writeErr != nil { return writeErr }

		renameErr := os.Rename(tmp, filepath.Join(dir, f.name))
		if renameErr != nil { return renameErr }
	}

	return nil
}

func generateCertTemplate(org string, validity time.Duration) (*x509.Certificate, error) {
	notBefore := time.Now().Add(-time.Minute)
	notAfter := notBefore.Add(validity)

	serialNumber, randErr := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if randErr != nil { return nil, randErr }

	return &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{ Organization: []string{ org }},
		NotBefore: notBefore,
		NotAfter: notAfter,
		KeyUsage: x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{ x509.ExtKeyUsageServerAuth },
		BasicConstraintsValid: true,
	}, nil
}

func generatePrivateKey(format KeyFormat) (crypto.Signer, error) {
	switch format {
		case PKCS1:
			return rsa.GenerateKey(rand.Reader, 2048)
		default:
			return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}
}

func encodeKey(key crypto.Signer, format KeyFormat) ([]byte, error) {
	if format == PKCS1 {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok { return nil, fmt.Errorf("PKCS1 requires an RSA key, got %T", key) }

		return pem.EncodeToMemory(&pem.Block{ Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey) }), nil
	}

	der, marshalErr := x509.MarshalPKCS8PrivateKey(key)
	if marshalErr != nil { return nil, marshalErr }

	return pem.EncodeToMemory(&pem.Block{ Type: "PRIVATE KEY", Bytes: der }), nil
}
