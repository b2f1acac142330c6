// cmd/sync.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aceteam-ai/wuscore/internal/platform"
	"github.com/aceteam-ai/wuscore/internal/publish"
	"github.com/aceteam-ai/wuscore/internal/usage"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var syncWatch bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publish recorded work units to Redis",
	Long: `Publishes every unsynced work unit from the local record database to the
Redis stream and marks it synced. A failed publish leaves the records unsynced
for the next attempt.

With --watch, keeps syncing every sync.interval until interrupted.`,
	Example: `  # Ship the backlog once
  wuscore sync

  # Keep shipping as 'wuscore record' adds units
  wuscore sync --watch --redis-url redis://metrics:6379`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)

		pub, err := newPublisher(cfg, nil)
		if err != nil {
			return err
		}
		defer pub.Close()

		store, err := openStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		var limiter *rate.Limiter
		if cfg.Sync.Rate > 0 {
			limiter = rate.NewLimiter(rate.Limit(cfg.Sync.Rate), 1)
		}
		syncer := usage.NewSyncer(usage.SyncerConfig{
			Store:     store,
			PublishFn: pub.PublishRecords,
			Interval:  cfg.Sync.Interval,
			BatchSize: cfg.Sync.BatchSize,
			Limiter:   limiter,
			LogFn:     debugLog,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := pub.Ping(ctx); err != nil {
			return err
		}

		if syncWatch {
			fmt.Fprintf(cmd.OutOrStdout(), "Syncing %s to %s every %s (Ctrl+C to stop)\n",
				cfg.Store.Path, pub.StreamName(), cfg.Sync.Interval)
			if err := syncer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}

		n, err := syncer.Drain(ctx)
		if err != nil {
			return fmt.Errorf("sync failed after %d records: %w", n, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Synced %d work units to %s\n", n, pub.StreamName())
		return nil
	},
}

// newPublisher builds a Redis publisher from the resolved config. host, when
// set, is attached to published summaries.
func newPublisher(cfg *Config, host *platform.HostInfo) (*publish.RedisPublisher, error) {
	return publish.NewRedisPublisher(publish.RedisPublisherConfig{
		RedisURL:        cfg.Redis.URL,
		RedisPassword:   cfg.Redis.Password,
		NodeID:          cfg.ResolvedNodeID(),
		StreamName:      cfg.Redis.Stream,
		ChannelOverride: cfg.Redis.Channel,
		Host:            host,
		DebugFunc:       Debug,
	})
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addStoreFlag(syncCmd)
	addRedisFlags(syncCmd)
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "Keep syncing until interrupted")
}
