package tls

import (
	"crypto/tls"
	"crypto/x509"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCert(t *testing.T) {
	dir := t.TempDir()
	cert, key := filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem")

	generated, err := EnsureCert(cert, key, []string{"localhost", "127.0.0.1"})
	require.NoError(t, err)
	assert.True(t, generated)

	pair, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	parsed, err := x509.ParseCertificate(pair.Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, parsed.DNSNames)
	require.Len(t, parsed.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", parsed.IPAddresses[0].String())

	generated, err = EnsureCert(cert, key, nil)
	require.NoError(t, err)
	assert.False(t, generated, "existing cert is kept")
}

func TestEnsureCert_NoHosts(t *testing.T) {
	dir := t.TempDir()
	_, err := EnsureCert(filepath.Join(dir, "c.pem"), filepath.Join(dir, "k.pem"), nil)
	assert.Error(t, err)
}
