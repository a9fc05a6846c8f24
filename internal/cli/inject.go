package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/takctl/internal/observability"
	"github.com/danmuck/takctl/internal/units"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

type injectOptions struct {
	count    int
	interval time.Duration
	drift    float64
	seed     uint64
}

func newInjectCmd(root *rootOptions) *cobra.Command {
	opts := &injectOptions{}
	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Send sample units to the server",
		Long: "Connects, places six sample units at random positions in Australia and sends them " +
			"in batches. Units in a batch are spaced by interval/4; batches by interval. " +
			"An interval of 0 sends without pacing; a drift moves units between batches.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("count") {
				cfg.Inject.Count = opts.count
			}
			if cmd.Flags().Changed("interval") {
				cfg.Inject.Interval = opts.interval
			}
			if cmd.Flags().Changed("drift") {
				cfg.Inject.Drift = opts.drift
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			seed := opts.seed
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := newController(cfg, observability.Default())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Target: %s\n", cfg.Address())
			fmt.Fprintf(out, "Count: %d, Interval: %s\n\n", cfg.Inject.Count, cfg.Inject.Interval)

			if err := c.Connect(ctx); err != nil {
				return err
			}
			defer c.Disconnect()

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			entities, err := units.Build(units.Samples(), units.Australia, rng)
			if err != nil {
				return err
			}

			pace := rate.NewLimiter(rate.Every(cfg.Inject.Interval/4), 1)
			sent, failed := 0, 0
			for batch := 1; cfg.Inject.Count == 0 || batch <= cfg.Inject.Count; batch++ {
				if cfg.Inject.Count == 0 {
					fmt.Fprintf(out, "=== Batch %d ===\n", batch)
				} else {
					fmt.Fprintf(out, "=== Batch %d of %d ===\n", batch, cfg.Inject.Count)
				}
				for _, e := range entities {
					if err := pace.Wait(ctx); err != nil {
						return interrupted(ctx, err)
					}
					e.Touch()
					if err := c.Send(e); err != nil {
						failed++
						fmt.Fprintf(out, "Failed to send unit %s: %v\n", e.Callsign(), err)
						continue
					}
					sent++
					lat, lon, _ := e.Position()
					log.Debug().Str("uid", e.UID()).Str("type", e.Type()).Str("how", e.How()).
						Time("time", e.Timestamp()).Float64("lat", lat).Float64("lon", lon).
						Msg("cli.inject sent")
					fmt.Fprintf(out, "Sent CoT object %s (%s)\n", e.UID(), e.Callsign())
				}
				if cfg.Inject.Count != 0 && batch == cfg.Inject.Count {
					break
				}
				if cfg.Inject.Interval > 0 {
					if err := sleep(ctx, cfg.Inject.Interval); err != nil {
						return interrupted(ctx, err)
					}
				} else if err := ctx.Err(); err != nil {
					return interrupted(ctx, err)
				}
				units.Drift(entities, units.Australia, rng, cfg.Inject.Drift)
			}

			log.Info().Int("sent", sent).Int("failed", failed).Msg("cli.inject complete")
			if failed > 0 {
				return fmt.Errorf("inject: %d of %d sends failed", failed, sent+failed)
			}
			fmt.Fprintf(out, "\nCoT injection completed successfully\n")
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.count, "count", 1, "Number of batches, 0 for until interrupted")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "Interval between batches, 0 for no pacing")
	cmd.Flags().Float64Var(&opts.drift, "drift", 0, "Largest per-batch move in degrees")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for unit positions (default: time based)")
	return cmd
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// interrupted turns a signal cancellation into a clean exit.
func interrupted(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		log.Info().Msg("cli interrupted")
		return nil
	}
	return err
}
