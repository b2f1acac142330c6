// cmd/score.go
package cmd

import (
	"fmt"

	"github.com/aceteam-ai/wuscore/internal/score"
	"github.com/spf13/cobra"
)

var scoreQuiet bool

var scoreCmd = &cobra.Command{
	Use:   "score <log>...",
	Short: "Print completed work units and total points",
	Long: `Ingests the given logs, in order, into one board and prints one
tab-separated line per completed work unit:

  start  end  duration  project  slot-type  unit  points

followed by the total points. The date of each log is taken from its name
(log-YYYYMMDD-<seq>) and falls back to today.`,
	Example: `  # Score one day of logs
  wuscore score logs/log-20240101-1.txt

  # Score logs without a date in their name
  wuscore score --today 2024-01-01 current.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		res, err := ingestLogs(cfg, args)
		if err != nil {
			return err
		}

		table, err := res.Board.Render()
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}

		out := cmd.OutOrStdout()
		if table != "" {
			fmt.Fprintln(out, table)
		}
		if !scoreQuiet {
			fmt.Fprintf(out, "Total points: %s\n", score.FormatPoints(res.Board.TotalPoints()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	addIngestFlags(scoreCmd)
	scoreCmd.Flags().BoolVarP(&scoreQuiet, "quiet", "q", false, "Only print the table")
}
