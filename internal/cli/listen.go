package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/danmuck/takctl/internal/observability"
	"github.com/danmuck/takctl/internal/protocol/cot"
	"github.com/danmuck/takctl/internal/protocol/session"
	"github.com/danmuck/takctl/internal/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type listenOptions struct {
	compact     bool
	filter      string
	verbose     bool
	reconnect   bool
	metricsAddr string
}

func newListenCmd(root *rootOptions) *cobra.Command {
	opts := &listenOptions{}
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print events received from the server",
		Long: "Connects and prints every event the server streams until interrupted.\n\n" +
			"Type filter examples:\n" +
			"  a-f    Friendly units\n" +
			"  a-h    Hostile units\n" +
			"  a-n    Neutral units\n" +
			"  a-u    Unknown units",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("compact") {
				cfg.Listen.Compact = opts.compact
			}
			if flags.Changed("filter") {
				cfg.Listen.Filter = opts.filter
			}
			if flags.Changed("verbose") {
				cfg.Listen.Verbose = opts.verbose
			}
			if flags.Changed("reconnect") {
				cfg.Listen.Reconnect = opts.reconnect
			}
			if flags.Changed("metrics-addr") {
				cfg.Listen.MetricsAddr = opts.metricsAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics := observability.Default()
			if cfg.Listen.MetricsAddr != "" {
				go func() {
					if err := observability.Serve(ctx, cfg.Listen.MetricsAddr, prometheus.DefaultGatherer); err != nil {
						log.Error().Err(err).Str("addr", cfg.Listen.MetricsAddr).Msg("cli.listen metrics endpoint failed")
					}
				}()
			}

			c, err := newController(cfg, metrics)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Target: %s\n", cfg.Address())
			if cfg.Listen.Filter != "" {
				fmt.Fprintf(out, "Filter: %s\n", cfg.Listen.Filter)
			}

			printer := render.NewPrinter(out, render.Options{
				Compact: cfg.Listen.Compact,
				Filter:  cfg.Listen.Filter,
				Verbose: cfg.Listen.Verbose,
			})
			handle := func(msg cot.Message) {
				if err := printer.Print(msg); err != nil {
					log.Warn().Err(err).Msg("cli.listen render failed")
				}
			}
			err = runListener(ctx, c, session.NewBackoff(cfg.Session().Backoff), cfg.Listen.Reconnect, handle)
			shown, filtered := printer.Counts()
			log.Info().Int("shown", shown).Int("filtered", filtered).Msg("cli.listen stopped")
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Use compact one-line output")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only show events whose type contains this text (e.g. a-f)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Also print the raw XML of each event")
	cmd.Flags().BoolVar(&opts.reconnect, "reconnect", false, "Reconnect with backoff after the stream drops")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

// runListener connects and runs the receive loop until ctx is done. With
// reconnect set, failed connects and dropped streams are retried after a
// backoff delay; otherwise the first failure is returned.
func runListener(ctx context.Context, c *session.Controller, backoff *session.Backoff, reconnect bool, handle session.MessageHandler) error {
	stopDisconnect := context.AfterFunc(ctx, func() { _ = c.Disconnect() })
	defer stopDisconnect()
	defer c.Disconnect()

	for {
		if err := c.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !reconnect {
				return err
			}
			log.Warn().Err(err).Int("attempt", backoff.Attempt()+1).Msg("cli.listen connect failed, retrying")
			if err := backoff.Wait(ctx); err != nil {
				return nil
			}
			continue
		}
		backoff.Reset()
		log.Info().Msg("cli.listen listener active")

		err := c.ReceiveLoop(ctx, handle)
		switch {
		case ctx.Err() != nil, err == nil:
			return nil
		case !reconnect:
			return err
		case errors.Is(err, session.ErrClosed):
			log.Warn().Err(err).Msg("cli.listen connection lost, reconnecting")
		default:
			log.Error().Err(err).Msg("cli.listen receive failed, reconnecting")
		}
		_ = c.Disconnect()
		if err := backoff.Wait(ctx); err != nil {
			return nil
		}
	}
}
