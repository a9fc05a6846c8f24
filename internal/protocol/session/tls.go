package session

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/youmark/pkcs8"
)

var (
	ErrInvalidCABundle = errors.New("session: invalid ca bundle")
	ErrInvalidKeyPEM   = errors.New("session: invalid key pem")
	ErrKeyDecrypt      = errors.New("session: decrypt private key")
)

// TLSDialer dials TCP and completes a TLS client handshake.
type TLSDialer struct {
	cfg Config
}

// NewTLSDialer validates cfg against its security mode.
func NewTLSDialer(cfg Config) (*TLSDialer, error) {
	if err := cfg.ValidateClientTransport(); err != nil {
		return nil, err
	}
	return &TLSDialer{cfg: cfg}, nil
}

func (d *TLSDialer) Dial(ctx context.Context) (Stream, error) {
	tlsCfg, err := d.ClientTLSConfig()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: d.cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", d.cfg.Address)
	if err != nil {
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx := ctx
	if d.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		handshakeCtx, cancel = context.WithTimeout(ctx, d.cfg.HandshakeTimeout)
		defer cancel()
	}
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, fmt.Errorf("session: tls handshake %s: %w", d.cfg.Address, err)
	}
	log.Debug().
		Str("addr", d.cfg.Address).
		Str("server_name", tlsCfg.ServerName).
		Bool("mutual", d.cfg.TLS.Mutual()).
		Msg("session.TLSDialer.Dial handshake complete")
	return NewConnStream(conn, d.cfg.PollInterval), nil
}

// ClientTLSConfig builds the client configuration from the CA bundle and
// the optional client keypair.
func (d *TLSDialer) ClientTLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: d.cfg.TLS.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(d.cfg.TLS.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(d.cfg.Address)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(d.cfg.TLS.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCABundle, caPath)
		}
		cfg.RootCAs = pool
	} else if !cfg.InsecureSkipVerify {
		log.Warn().Str("addr", d.cfg.Address).
			Msg("session.TLSDialer no ca file, server certificate will not be verified")
		cfg.InsecureSkipVerify = true
	}

	if d.cfg.TLS.Mutual() {
		cert, err := LoadKeyPair(d.cfg.TLS.CertFile, d.cfg.TLS.KeyFile, d.cfg.TLS.Passphrase)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// LoadKeyPair reads a PEM certificate and key. A non-empty passphrase
// decrypts either a PKCS#8 "ENCRYPTED PRIVATE KEY" block or a legacy
// RFC 1423 encrypted block.
func LoadKeyPair(certFile, keyFile, passphrase string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, err
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, err
	}
	if passphrase != "" {
		keyPEM, err = decryptKeyPEM(keyPEM, passphrase)
		if err != nil {
			return tls.Certificate{}, err
		}
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

func decryptKeyPEM(data []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidKeyPEM
	}
	if block.Type == "ENCRYPTED PRIVATE KEY" {
		key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyDecrypt, err)
		}
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyDecrypt, err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
	}
	//nolint:staticcheck // RFC 1423 keys
	if !x509.IsEncryptedPEMBlock(block) {
		return data, nil
	}
	//nolint:staticcheck // RFC 1423 keys
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyDecrypt, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}

// connStream adapts a net.Conn to Stream. Reads are bounded by a deadline;
// a read that times out reports ErrWouldBlock.
type connStream struct {
	conn        net.Conn
	readTimeout time.Duration
	buf         []byte
}

// NewConnStream wraps an established connection. A non-positive
// readTimeout makes Receive block until data or an error.
func NewConnStream(conn net.Conn, readTimeout time.Duration) Stream {
	return &connStream{conn: conn, readTimeout: readTimeout}
}

func (s *connStream) Send(p []byte) error {
	n, err := s.conn.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(p))
	}
	return nil
}

func (s *connStream) Receive(max int) ([]byte, error) {
	if max <= 0 {
		max = DefaultReadSize
	}
	if cap(s.buf) < max {
		s.buf = make([]byte, max)
	}
	if s.readTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrClosed, err)
		}
	}
	n, err := s.conn.Read(s.buf[:max])
	if n > 0 {
		out := make([]byte, n)
		copy(out, s.buf[:n])
		return out, nil
	}
	switch Classify(err) {
	case ClassNone, ClassTransient:
		return nil, ErrWouldBlock
	case ClassClosed:
		return nil, fmt.Errorf("%w: %w", ErrClosed, err)
	default:
		return nil, err
	}
}

func (s *connStream) Close() error {
	return s.conn.Close()
}
