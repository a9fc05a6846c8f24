// Package cli implements the takctl commands.
package cli

import (
	"fmt"
	"os"

	"github.com/danmuck/takctl/internal/config"
	"github.com/danmuck/takctl/internal/logging"
	"github.com/danmuck/takctl/internal/protocol/session"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath   string
	host         string
	port         int
	certFile     string
	keyFile      string
	caFile       string
	passphrase   string
	serverName   string
	securityMode string
	insecure     bool
}

// NewRootCmd builds the command tree. Each call returns independent flag
// state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "takctl",
		Short:         "Send and receive Cursor-on-Target events over a TAK server stream",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.ConfigureRuntime()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./takctl.toml when present)")
	f.StringVar(&opts.host, "host", "", "TAK server hostname (default: localhost)")
	f.IntVar(&opts.port, "port", 0, "TAK server TCP port (default: 8089)")
	f.StringVar(&opts.certFile, "cert", "", "Client certificate file (.pem)")
	f.StringVar(&opts.keyFile, "key", "", "Client private key file (.pem)")
	f.StringVar(&opts.caFile, "ca", "", "CA certificate file (.pem)")
	f.StringVar(&opts.passphrase, "passphrase", "", "Private key passphrase")
	f.StringVar(&opts.serverName, "server-name", "", "TLS server name (default: host)")
	f.StringVar(&opts.securityMode, "security-mode", "", "development or production")
	f.BoolVar(&opts.insecure, "insecure", false, "Skip server certificate verification")

	root.AddCommand(
		newInjectCmd(opts),
		newListenCmd(opts),
		newDescribeCmd(),
		newConfigCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "takctl: %v\n", err)
		return 1
	}
	return 0
}

// load resolves the config file and applies flags the user set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = o.host
	}
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("cert") {
		cfg.TLS.CertFile = o.certFile
	}
	if flags.Changed("key") {
		cfg.TLS.KeyFile = o.keyFile
	}
	if flags.Changed("ca") {
		cfg.TLS.CAFile = o.caFile
	}
	if flags.Changed("passphrase") {
		cfg.TLS.Passphrase = o.passphrase
	}
	if flags.Changed("server-name") {
		cfg.TLS.ServerName = o.serverName
	}
	if flags.Changed("security-mode") {
		cfg.SecurityMode = session.SecurityMode(o.securityMode)
	}
	if flags.Changed("insecure") {
		cfg.TLS.InsecureSkipVerify = o.insecure
	}
	return cfg, cfg.Validate()
}

func newController(cfg config.Config, obs session.Observer) (*session.Controller, error) {
	scfg := cfg.Session()
	dialer, err := session.NewTLSDialer(scfg)
	if err != nil {
		return nil, err
	}
	return session.NewController(dialer, session.WithConfig(scfg), session.WithObserver(obs)), nil
}
