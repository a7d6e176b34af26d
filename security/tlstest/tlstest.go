// Package tlstest issues throwaway certificates for HTTPS tests and starts
// test servers that present them.
//
//	certs := tlstest.GenerateTLSCerts(t)
//	srv := tlstest.NewServer(t, certs, handler)
//	cfg := security.TLSConfig{CAFile: certs.CAFile}
//
// Files are written under t.TempDir().
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TLSCerts is a test CA and a leaf certificate it signed. The leaf is valid
// for localhost, 127.0.0.1 and ::1, as server or client.
type TLSCerts struct {
	// CAFile, CertFile and KeyFile are PEM files.
	CAFile   string
	CertFile string
	KeyFile  string
	// CAPEM is the content of CAFile.
	CAPEM string

	CACert    *x509.Certificate
	CAKey     *ecdsa.PrivateKey
	ServerTLS tls.Certificate
	CertPool  *x509.CertPool
}

// GenerateTLSCerts issues a CA and a leaf certificate valid for one day.
func GenerateTLSCerts(t testing.TB) *TLSCerts {
	t.Helper()
	dir := t.TempDir()
	now := time.Now()

	caKey := newKey(t)
	ca := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"gs2kit test CA"}},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caCert, caDER := issue(t, ca, ca, &caKey.PublicKey, caKey)

	leafKey := newKey(t)
	leaf := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{Organization: []string{"gs2kit test"}, CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	_, leafDER := issue(t, leaf, caCert, &leafKey.PublicKey, caKey)

	keyDER, err := x509.MarshalECPrivateKey(leafKey)
	if err != nil {
		t.Fatalf("tlstest: marshal key: %v", err)
	}

	certs := &TLSCerts{
		CAFile:   writePEM(t, dir, "ca.pem", "CERTIFICATE", caDER),
		CertFile: writePEM(t, dir, "cert.pem", "CERTIFICATE", leafDER),
		KeyFile:  writePEM(t, dir, "key.pem", "EC PRIVATE KEY", keyDER),
		CAPEM:    string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caDER})),
		CACert:   caCert,
		CAKey:    caKey,
		CertPool: x509.NewCertPool(),
	}
	certs.CertPool.AddCert(caCert)

	certs.ServerTLS, err = tls.LoadX509KeyPair(certs.CertFile, certs.KeyFile)
	if err != nil {
		t.Fatalf("tlstest: load key pair: %v", err)
	}
	return certs
}

// NewServer starts an HTTPS test server presenting the leaf certificate.
// It is closed when the test ends.
func NewServer(t testing.TB, certs *TLSCerts, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(handler)
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{certs.ServerTLS},
		MinVersion:   tls.VersionTLS12,
	}
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv
}

// WriteInvalidPEM writes a certificate block whose content does not parse.
func WriteInvalidPEM(t testing.TB, filename string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	content := []byte("-----BEGIN CERTIFICATE-----\nnot-valid-base64-data\n-----END CERTIFICATE-----\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("tlstest: write invalid PEM: %v", err)
	}
	return path
}

func newKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: generate key: %v", err)
	}
	return key
}

func issue(t testing.TB, tmpl, parent *x509.Certificate, pub *ecdsa.PublicKey, signer *ecdsa.PrivateKey) (*x509.Certificate, []byte) {
	t.Helper()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, signer)
	if err != nil {
		t.Fatalf("tlstest: create certificate %q: %v", tmpl.Subject.CommonName, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("tlstest: parse certificate: %v", err)
	}
	return cert, der
}

func writePEM(t testing.TB, dir, name, blockType string, der []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("tlstest: write %s: %v", name, err)
	}
	return path
}
