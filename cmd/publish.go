// cmd/publish.go
package cmd

import (
	"fmt"

	"github.com/aceteam-ai/wuscore/internal/platform"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <log>...",
	Short: "Publish a summary of the given logs to Redis",
	Long: `Ingests the given logs into one board and publishes its summary once to
the node's Redis pub/sub channel (wuscore:summary:<node-id> by default) and to
the Redis stream. The message carries a snapshot of this host (CPU, memory,
GPUs).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)

		res, err := ingestLogs(cfg, args)
		if err != nil {
			return err
		}
		s, err := res.Board.Summary()
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		host := platform.CollectHostInfo()
		Debug("host: %s, %d cores, %d GPUs", host.Name, host.CPUCores, len(host.GPUs))
		pub, err := newPublisher(cfg, &host)
		if err != nil {
			return err
		}
		defer pub.Close()

		runID := uuid.New().String()
		if err := pub.PublishSummary(cmd.Context(), runID, s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published summary of %d work units to %s (run %s)\n",
			s.Completed, pub.Channel(), runID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	addIngestFlags(publishCmd)
	addRedisFlags(publishCmd)
}
