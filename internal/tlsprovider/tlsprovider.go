// Package tlsprovider supplies the comet listener's server certificate,
// selected at startup by CometConfig.TLS.Provider. Grounded on the
// proxy's own TLSProvider split (filesystem / kubernetes secret /
// generated self-signed), generalized here behind one interface instead
// of three structurally-identical one-method types scattered across
// packages.
package tlsprovider

import (
	"context"
	"crypto/tls"
)

// Provider returns the certificate the comet listener should present.
// Implementations may reload on every call (filesystem, kubernetes) or
// simply return a cached value (self-signed).
type Provider interface {
	GetCertificate(ctx context.Context) (*tls.Certificate, error)
}
