// Package tlstest issues throwaway certificates and runs an in-process TLS
// listener for transport tests.
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/youmark/pkcs8"
)

var serial atomic.Int64

type Authority struct {
	cert   *x509.Certificate
	key    *ecdsa.PrivateKey
	caPath string
}

func NewAuthority(t testing.TB, dir string, commonName string) *Authority {
	t.Helper()

	key := newKey(t)
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(serial.Add(1)),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create ca cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse ca cert: %v", err)
	}

	caPath := filepath.Join(dir, sanitize(commonName)+"-ca.crt")
	if err := writePEM(caPath, &pem.Block{Type: "CERTIFICATE", Bytes: der}, 0o644); err != nil {
		t.Fatalf("write ca cert: %v", err)
	}
	return &Authority{cert: cert, key: key, caPath: caPath}
}

func (a *Authority) CAFile() string {
	return a.caPath
}

// IssueServerCert signs a localhost-capable server certificate.
func (a *Authority) IssueServerCert(t testing.TB, dir string, commonName string, dnsNames []string, ips []net.IP) (string, string) {
	t.Helper()
	return a.issueCert(t, dir, commonName, x509.ExtKeyUsageServerAuth, dnsNames, ips, keyEncoding{})
}

func (a *Authority) IssueClientCert(t testing.TB, dir string, commonName string) (string, string) {
	t.Helper()
	return a.issueCert(t, dir, commonName, x509.ExtKeyUsageClientAuth, nil, nil, keyEncoding{})
}

// IssueEncryptedClientCert writes the client key as a legacy RFC 1423
// encrypted PEM block (Proc-Type/DEK-Info headers).
func (a *Authority) IssueEncryptedClientCert(t testing.TB, dir string, commonName string, passphrase string) (string, string) {
	t.Helper()
	return a.issueCert(t, dir, commonName, x509.ExtKeyUsageClientAuth, nil, nil, keyEncoding{passphrase: passphrase})
}

// IssueEncryptedPKCS8ClientCert writes the client key as an
// "ENCRYPTED PRIVATE KEY" block, the default output of current OpenSSL.
func (a *Authority) IssueEncryptedPKCS8ClientCert(t testing.TB, dir string, commonName string, passphrase string) (string, string) {
	t.Helper()
	return a.issueCert(t, dir, commonName, x509.ExtKeyUsageClientAuth, nil, nil, keyEncoding{passphrase: passphrase, wrapPKCS8: true})
}

type keyEncoding struct {
	passphrase string
	wrapPKCS8  bool
}

func (a *Authority) issueCert(
	t testing.TB,
	dir string,
	commonName string,
	usage x509.ExtKeyUsage,
	dnsNames []string,
	ips []net.IP,
	enc keyEncoding,
) (string, string) {
	t.Helper()

	key := newKey(t)
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial.Add(1)),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{usage},
		DNSNames:     dnsNames,
		IPAddresses:  ips,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, a.cert, &key.PublicKey, a.key)
	if err != nil {
		t.Fatalf("create signed cert: %v", err)
	}

	base := sanitize(commonName)
	certPath := filepath.Join(dir, fmt.Sprintf("%s.crt", base))
	keyPath := filepath.Join(dir, fmt.Sprintf("%s.key", base))

	if err := writePEM(certPath, &pem.Block{Type: "CERTIFICATE", Bytes: der}, 0o644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	block, err := encodeKey(key, enc)
	if err != nil {
		t.Fatalf("encode key: %v", err)
	}
	if err := writePEM(keyPath, block, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certPath, keyPath
}

// Server is a TLS listener on 127.0.0.1 that hands each accepted,
// handshaken connection to a handler goroutine.
type Server struct {
	ln   net.Listener
	done chan struct{}
}

// ServerOptions configures StartServer. A non-empty ClientCAFile requires
// and verifies client certificates.
type ServerOptions struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

func StartServer(t testing.TB, opts ServerOptions, handle func(*tls.Conn)) *Server {
	t.Helper()

	cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
	if err != nil {
		t.Fatalf("load server keypair: %v", err)
	}
	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	}
	if opts.ClientCAFile != "" {
		caPEM, err := os.ReadFile(opts.ClientCAFile)
		if err != nil {
			t.Fatalf("read client ca: %v", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			t.Fatalf("parse client ca: %s", opts.ClientCAFile)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{ln: ln, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			tlsConn := conn.(*tls.Conn)
			go func() {
				defer tlsConn.Close()
				if err := tlsConn.Handshake(); err != nil {
					return
				}
				handle(tlsConn)
			}()
		}
	}()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Close() {
	_ = s.ln.Close()
	<-s.done
}

func encodeKey(key *ecdsa.PrivateKey, enc keyEncoding) (*pem.Block, error) {
	if enc.wrapPKCS8 {
		der, err := pkcs8.MarshalPrivateKey(key, []byte(enc.passphrase), pkcs8.DefaultOpts)
		if err != nil {
			return nil, err
		}
		return &pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der}, nil
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	if enc.passphrase == "" {
		return &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}, nil
	}
	//nolint:staticcheck // RFC 1423 keys
	return x509.EncryptPEMBlock(rand.Reader, "EC PRIVATE KEY", der, []byte(enc.passphrase), x509.PEMCipherAES256)
}

func newKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func writePEM(path string, block *pem.Block, perm os.FileMode) error {
	return os.WriteFile(path, pem.EncodeToMemory(block), perm)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "cert"
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
