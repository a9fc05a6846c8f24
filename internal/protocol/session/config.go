package session

import (
	"time"

	"github.com/danmuck/takctl/internal/protocol/stream"
)

const (
	DefaultAddress      = "localhost:8089"
	DefaultReadSize     = 8192
	DefaultPollInterval = 10 * time.Millisecond
)

// SecurityMode selects how strictly the client transport is validated.
type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

// TLSConfig names the PEM files used for the client side of the handshake.
// A client keypair enables mutual TLS.
type TLSConfig struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	Passphrase         string
	ServerName         string
	InsecureSkipVerify bool
}

func (t TLSConfig) Mutual() bool {
	return t.CertFile != "" || t.KeyFile != ""
}

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines the transport and receive-loop settings of one session.
type Config struct {
	Address          string
	SecurityMode     SecurityMode
	TLS              TLSConfig
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	// PollInterval bounds each read and the wait after an empty one.
	PollInterval time.Duration
	ReadSize     int
	MaxBuffered  int
	Backoff      BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Address:          DefaultAddress,
		SecurityMode:     SecurityModeDevelopment,
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		PollInterval:     DefaultPollInterval,
		ReadSize:         DefaultReadSize,
		MaxBuffered:      stream.DefaultMaxBuffered,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
