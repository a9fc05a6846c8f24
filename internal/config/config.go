package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/takctl/internal/protocol/session"
	"github.com/danmuck/takctl/internal/protocol/stream"
)

const DefaultPath = "takctl.toml"

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the resolved client configuration shared by all commands.
type Config struct {
	Host             string
	Port             int
	SecurityMode     session.SecurityMode
	TLS              session.TLSConfig
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	PollInterval     time.Duration
	ReadSize         int
	MaxBuffered      int
	Inject           InjectConfig
	Listen           ListenConfig
}

type InjectConfig struct {
	// Count is the number of batches; 0 sends until interrupted.
	Count int
	// Interval spaces batches; units within a batch are a quarter apart.
	// 0 sends without pacing.
	Interval time.Duration
	// Drift is the largest per-batch move in degrees; 0 keeps units still.
	Drift float64
}

type ListenConfig struct {
	Compact     bool
	Filter      string
	Verbose     bool
	Reconnect   bool
	MetricsAddr string
}

func Default() Config {
	s := session.DefaultConfig()
	return Config{
		Host:             "localhost",
		Port:             8089,
		SecurityMode:     session.SecurityModeDevelopment,
		ConnectTimeout:   s.ConnectTimeout,
		HandshakeTimeout: s.HandshakeTimeout,
		PollInterval:     s.PollInterval,
		ReadSize:         s.ReadSize,
		MaxBuffered:      stream.DefaultMaxBuffered,
		Inject: InjectConfig{
			Count:    1,
			Interval: time.Second,
		},
	}
}

// takctl.toml key mapping.
type fileConfig struct {
	Host               string     `toml:"host"`
	Port               int        `toml:"port"`
	SecurityMode       string     `toml:"security_mode"`
	CertFile           string     `toml:"cert_file"`
	KeyFile            string     `toml:"key_file"`
	CAFile             string     `toml:"ca_file"`
	Passphrase         string     `toml:"passphrase"`
	ServerName         string     `toml:"server_name"`
	InsecureSkipVerify bool       `toml:"insecure_skip_verify"`
	ConnectTimeout     string     `toml:"connect_timeout"`
	HandshakeTimeout   string     `toml:"handshake_timeout"`
	PollInterval       string     `toml:"poll_interval"`
	ReadSize           int        `toml:"read_size"`
	MaxBuffered        int        `toml:"max_buffered"`
	Inject             injectFile `toml:"inject"`
	Listen             listenFile `toml:"listen"`
}

type injectFile struct {
	Count    int     `toml:"count"`
	Interval string  `toml:"interval"`
	Drift    float64 `toml:"drift"`
}

type listenFile struct {
	Compact     bool   `toml:"compact"`
	Filter      string `toml:"filter"`
	Verbose     bool   `toml:"verbose"`
	Reconnect   bool   `toml:"reconnect"`
	MetricsAddr string `toml:"metrics_addr"`
}

// Load overlays the keys present in path on Default and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load takctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("security_mode") {
		cfg.SecurityMode = session.SecurityMode(strings.TrimSpace(raw.SecurityMode))
	}
	if meta.IsDefined("cert_file") {
		cfg.TLS.CertFile = strings.TrimSpace(raw.CertFile)
	}
	if meta.IsDefined("key_file") {
		cfg.TLS.KeyFile = strings.TrimSpace(raw.KeyFile)
	}
	if meta.IsDefined("ca_file") {
		cfg.TLS.CAFile = strings.TrimSpace(raw.CAFile)
	}
	if meta.IsDefined("passphrase") {
		cfg.TLS.Passphrase = raw.Passphrase
	}
	if meta.IsDefined("server_name") {
		cfg.TLS.ServerName = strings.TrimSpace(raw.ServerName)
	}
	if meta.IsDefined("insecure_skip_verify") {
		cfg.TLS.InsecureSkipVerify = raw.InsecureSkipVerify
	}
	if meta.IsDefined("read_size") {
		cfg.ReadSize = raw.ReadSize
	}
	if meta.IsDefined("max_buffered") {
		cfg.MaxBuffered = raw.MaxBuffered
	}
	if meta.IsDefined("inject", "count") {
		cfg.Inject.Count = raw.Inject.Count
	}
	if meta.IsDefined("inject", "drift") {
		cfg.Inject.Drift = raw.Inject.Drift
	}
	if meta.IsDefined("listen", "compact") {
		cfg.Listen.Compact = raw.Listen.Compact
	}
	if meta.IsDefined("listen", "filter") {
		cfg.Listen.Filter = strings.TrimSpace(raw.Listen.Filter)
	}
	if meta.IsDefined("listen", "verbose") {
		cfg.Listen.Verbose = raw.Listen.Verbose
	}
	if meta.IsDefined("listen", "reconnect") {
		cfg.Listen.Reconnect = raw.Listen.Reconnect
	}
	if meta.IsDefined("listen", "metrics_addr") {
		cfg.Listen.MetricsAddr = strings.TrimSpace(raw.Listen.MetricsAddr)
	}

	durations := []struct {
		key []string
		raw string
		dst *time.Duration
	}{
		{[]string{"connect_timeout"}, raw.ConnectTimeout, &cfg.ConnectTimeout},
		{[]string{"handshake_timeout"}, raw.HandshakeTimeout, &cfg.HandshakeTimeout},
		{[]string{"poll_interval"}, raw.PollInterval, &cfg.PollInterval},
		{[]string{"inject", "interval"}, raw.Inject.Interval, &cfg.Inject.Interval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key...) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, strings.Join(d.key, "."), err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Host) == "":
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.ReadSize <= 0:
		return fmt.Errorf("%w: read_size must be positive", ErrInvalidConfig)
	case c.MaxBuffered < c.ReadSize:
		return fmt.Errorf("%w: max_buffered %d below read_size %d", ErrInvalidConfig, c.MaxBuffered, c.ReadSize)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	case c.Inject.Count < 0:
		return fmt.Errorf("%w: inject.count must not be negative", ErrInvalidConfig)
	case c.Inject.Interval < 0:
		return fmt.Errorf("%w: inject.interval must not be negative", ErrInvalidConfig)
	case c.Inject.Drift < 0:
		return fmt.Errorf("%w: inject.drift must not be negative", ErrInvalidConfig)
	}
	return nil
}
