package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	return cert
}

func TestSelfSigned_HostsAndValidity(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	certPEM, keyPEM, err := SelfSigned([]string{"localhost", "127.0.0.1"}, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("SelfSigned error: %v", err)
	}

	cert := parseCert(t, certPEM)
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CN = %q; want localhost", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("DNSNames = %v; want [localhost]", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || cert.IPAddresses[0].String() != "127.0.0.1" {
		t.Errorf("IPAddresses = %v; want [127.0.0.1]", cert.IPAddresses)
	}
	if !cert.NotAfter.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("NotAfter = %v; want %v", cert.NotAfter, now.Add(24*time.Hour))
	}
	if err := cert.VerifyHostname("localhost"); err != nil {
		t.Errorf("VerifyHostname: %v", err)
	}

	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Errorf("key pair does not match: %v", err)
	}
}

func TestSelfSigned_InvalidInput(t *testing.T) {
	if _, _, err := SelfSigned(nil, time.Now(), time.Hour); err == nil {
		t.Error("expected error for empty hosts")
	}
	if _, _, err := SelfSigned([]string{"localhost"}, time.Now(), 0); err == nil {
		t.Error("expected error for zero validity")
	}
}

func TestWritePair(t *testing.T) {
	certPEM, keyPEM, err := SelfSigned([]string{"localhost"}, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("SelfSigned error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "certs")
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	if err := WritePair(certPath, keyPath, certPEM, keyPEM); err != nil {
		t.Fatalf("WritePair error: %v", err)
	}

	if _, err := tls.LoadX509KeyPair(certPath, keyPath); err != nil {
		t.Fatalf("LoadX509KeyPair: %v", err)
	}
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key permissions = %o; want 600", perm)
	}
}
