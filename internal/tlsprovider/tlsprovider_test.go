package tlsprovider

import (
	"context"
	"testing"

	"github.com/jinshuio/jinshu/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfSignedProviderReturnsUsableCertificate(t *testing.T) {
	p, err := NewSelfSignedProvider("jinshu.test")
	require.NoError(t, err)

	cert, err := p.GetCertificate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cert.Certificate)
}

func TestNewNoneProviderReturnsNil(t *testing.T) {
	p, err := New(config.TLSConfig{Provider: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewKubernetesProviderRequiresClientset(t *testing.T) {
	_, err := New(config.TLSConfig{Provider: "kubernetes", SecretName: "comet-tls"}, nil)
	assert.Error(t, err)
}

func TestNewUnknownProviderErrors(t *testing.T) {
	_, err := New(config.TLSConfig{Provider: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}
