// Package cert выпускает самоподписанный сертификат для запуска
// веб-интерфейса по HTTPS без внешнего центра сертификации.
package cert

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/logger"
)

const (
	CertificateFilePath = "server.crt"
	KeyFilePath         = "server.key"
)

// keyBits можно уменьшить в тестах.
var keyBits = 4096

// GenerateCert создаёт сертификат и ключ в формате PEM для localhost,
// 127.0.0.1 и ::1.
func GenerateCert() (certPEM []byte, keyPEM []byte, err error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Linkly"},
		},
		DNSNames:    []string{"localhost"},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:   time.Now(),
		// сертификат для локальной разработки, год достаточно
		NotAfter:    time.Now().AddDate(1, 0, 0),
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}

	var cb, kb bytes.Buffer
	if err := pem.Encode(&cb, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		return nil, nil, err
	}
	if err := pem.Encode(&kb, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}); err != nil {
		return nil, nil, err
	}

	return cb.Bytes(), kb.Bytes(), nil
}

// CertExists проверяет, что оба файла на месте.
func CertExists(certPath, keyPath string) bool {
	_, certErr := os.Stat(certPath)
	_, keyErr := os.Stat(keyPath)
	return certErr == nil && keyErr == nil
}

// SaveCert записывает сертификат и ключ.
func SaveCert(certPath, keyPath string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(certPath, certPEM, 0600); err != nil {
		return err
	}
	return os.WriteFile(keyPath, keyPEM, 0600)
}

// Ensure выпускает сертификат, если его ещё нет.
func Ensure(certPath, keyPath string) error {
	if CertExists(certPath, keyPath) {
		return nil
	}

	logger.Log.Info("generating self-signed certificate", zap.String("cert", certPath))
	certPEM, keyPEM, err := GenerateCert()
	if err != nil {
		return err
	}
	return SaveCert(certPath, keyPath, certPEM, keyPEM)
}
