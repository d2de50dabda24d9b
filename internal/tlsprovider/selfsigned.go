package tlsprovider

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"
)

// SelfSignedProvider holds one certificate generated at process start,
// for local development and tests where no real PKI is wired up.
// Ported from generateSelfSignedCert/memoryTLSProvider in the proxy's
// main, generalized into a reusable provider instead of a main()-local
// closure.
type SelfSignedProvider struct {
	cert *tls.Certificate
}

// NewSelfSignedProvider generates a fresh RSA key and a year-valid
// self-signed certificate for commonName.
func NewSelfSignedProvider(commonName string) (*SelfSignedProvider, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("tlsprovider: generate key: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{Organization: []string{"jinshu"}, CommonName: commonName},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),

		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, fmt.Errorf("tlsprovider: create certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("tlsprovider: build key pair: %w", err)
	}

	return &SelfSignedProvider{cert: &cert}, nil
}

func (p *SelfSignedProvider) GetCertificate(ctx context.Context) (*tls.Certificate, error) {
	return p.cert, nil
}
