package tlsprovider

import (
	"context"
	"crypto/tls"
	"fmt"
)

// FileProvider loads a certificate/key pair from disk on every call, so
// an operator can rotate the files in place without restarting the
// comet process. Ported from storage/filesystem's FileTLSProvider.
type FileProvider struct {
	CertFile string
	KeyFile  string
}

func NewFileProvider(certFile, keyFile string) *FileProvider {
	return &FileProvider{CertFile: certFile, KeyFile: keyFile}
}

func (p *FileProvider) GetCertificate(ctx context.Context) (*tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(p.CertFile, p.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsprovider: load key pair from %s, %s: %w", p.CertFile, p.KeyFile, err)
	}
	return &cert, nil
}
