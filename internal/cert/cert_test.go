package cert

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsure(t *testing.T) {
	keyBits = 1024
	t.Cleanup(func() { keyBits = 4096 })

	dir := t.TempDir()
	certPath := filepath.Join(dir, CertificateFilePath)
	keyPath := filepath.Join(dir, KeyFilePath)

	assert.False(t, CertExists(certPath, keyPath))
	require.NoError(t, Ensure(certPath, keyPath))
	assert.True(t, CertExists(certPath, keyPath))

	_, err := tls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)

	// Повторный вызов не перезаписывает файлы.
	require.NoError(t, Ensure(certPath, keyPath))
}
