// cmd/ingest.go
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/aceteam-ai/wuscore/internal/score"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// todayFlag overrides the date used for logs whose name carries none
var todayFlag string

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&todayFlag, "today", "", "date for logs without one in their name (YYYY-MM-DD, default: today)")
}

// ingestResult is a board built from the command's log arguments.
type ingestResult struct {
	Board *score.Board
	Stats []score.IngestStats
	Slots score.SlotMap
}

// ingestLogs builds one board from the given paths, in order. Unreadable
// files are reported on stderr and skipped; it only fails when none could
// be read.
func ingestLogs(cfg *Config, paths []string) (*ingestResult, error) {
	slots, err := cfg.SlotMap()
	if err != nil {
		return nil, err
	}

	now := time.Now
	if todayFlag != "" {
		d, err := score.ParseDate(todayFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --today: %w", err)
		}
		fixed := d.At(0)
		now = func() time.Time { return fixed }
	}

	board := score.NewBoard(score.Options{
		Slots:     slots,
		Now:       now,
		DebugFunc: Debug,
	})

	res := &ingestResult{Board: board, Slots: slots}
	var failed int
	for _, path := range paths {
		stats, err := board.Ingest(path)
		if err != nil {
			failed++
			color.New(color.FgYellow).Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		res.Stats = append(res.Stats, stats)
	}

	if len(paths) > 0 && failed == len(paths) {
		return nil, fmt.Errorf("no log could be read")
	}
	return res, nil
}

// skipped sums the skipped line counts across all ingested files.
func (r *ingestResult) skipped() (lines, skipped int) {
	for _, s := range r.Stats {
		lines += s.Lines
		skipped += s.Skipped()
	}
	return lines, skipped
}
