// cmd/record.go
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aceteam-ai/wuscore/internal/score"
	"github.com/aceteam-ai/wuscore/internal/usage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <log>...",
	Short: "Store completed work units in the local record database",
	Long: `Ingests the given logs and stores every completed work unit in the local
SQLite record database, tagged with a fresh run ID and this node's ID.
Units already recorded (same slot, unit, project and start) are skipped, so
the same logs can be recorded again safely. Use 'wuscore sync' to ship the
records to Redis.`,
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

		runID := uuid.New().String()
		nodeID := cfg.ResolvedNodeID()
		records, err := unitRecords(res.Board.Completed(), res.Slots, runID, nodeID)
		if err != nil {
			return err
		}

		store, err := openStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		inserted, err := store.InsertBatch(records)
		if err != nil {
			return fmt.Errorf("record work units: %w", err)
		}
		Debug("run %s: %d of %d records inserted into %s", runID, inserted, len(records), cfg.Store.Path)

		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d new work units (%d already known), run %s\n",
			inserted, len(records)-inserted, runID)
		return nil
	},
}

func unitRecords(completed []score.WorkUnitRecord, slots score.SlotMap, runID, nodeID string) ([]usage.UnitRecord, error) {
	records := make([]usage.UnitRecord, 0, len(completed))
	for _, r := range completed {
		rec, err := usage.FromWorkUnit(r, slots, runID, nodeID)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// openStore opens the record database, creating its directory if needed.
func openStore(path string) (*usage.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create store directory: %w", err)
	}
	return usage.OpenStore(path)
}

func init() {
	rootCmd.AddCommand(recordCmd)
	addIngestFlags(recordCmd)
	addStoreFlag(recordCmd)
}
