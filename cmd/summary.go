// cmd/summary.go
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/aceteam-ai/wuscore/internal/platform"
	"github.com/aceteam-ai/wuscore/internal/score"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	goodColor   = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	badColor    = color.New(color.FgRed)
	labelColor  = color.New(color.Bold)
	noColor     bool
	summaryJSON bool
	summaryHost bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <log>...",
	Short: "Print a report of points, idle time, dumps and crashes",
	Long: `Ingests the given logs into one board and prints what happened on each
slot: completed units and points per slot type, units still running, time
spent idle after failed assignments, units dumped by the server and fatal
core errors.`,
	Example: `  # Report on a week of logs
  wuscore summary logs/log-2024010*

  # Without colors (for scripts/logging)
  wuscore summary --no-color logs/*.txt

  # As JSON
  wuscore summary --json logs/*.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if noColor || !isTerminal(out) {
			color.NoColor = true
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		res, err := ingestLogs(cfg, args)
		if err != nil {
			return err
		}
		s, err := res.Board.Summary()
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		if summaryJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		printSummary(w, res, s)
		if summaryHost {
			printHostInfo(w, platform.CollectHostInfo())
		}
		return w.Flush()
	},
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printSummary(w io.Writer, res *ingestResult, s score.Summary) {
	headerColor.Fprintf(w, "--- wuscore summary (%d logs) ---\n", len(res.Stats))

	headerColor.Fprintln(w, "\nWORK UNITS")
	fmt.Fprintf(w, "  %s\t%d\n", labelColor.Sprint("Completed:"), s.Completed)
	fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("Total points:"), goodColor.Sprint(score.FormatPoints(s.TotalPoints)))
	types := make([]string, 0, len(s.Points))
	for t := range s.Points {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprintf("%s points:", t), score.FormatPoints(s.Points[score.SlotType(t)]))
	}
	if s.InFlight > 0 {
		fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("In flight:"), warnColor.Sprint(s.InFlight))
		for _, r := range res.Board.InFlight() {
			fmt.Fprintf(w, "    %s\t%s project %s since %s\n", r.Slot, r.Unit, r.Project, r.Start.Format(score.TimestampLayout))
		}
	} else {
		fmt.Fprintf(w, "  %s\t%d\n", labelColor.Sprint("In flight:"), 0)
	}

	headerColor.Fprintln(w, "\nIDLE")
	if len(s.Idle) == 0 {
		fmt.Fprintln(w, "  No idle time recorded.")
	}
	for _, st := range s.Idle {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", st.Date, st.SlotType, warnColor.Sprint(score.FormatDuration(st.Idle)))
	}
	idleSince := res.Board.IdleSince()
	slots := make([]string, 0, len(idleSince))
	for slot := range idleSince {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		fmt.Fprintf(w, "  %s\tidle since %s\n", slot, idleSince[slot].Format(score.TimestampLayout))
	}

	headerColor.Fprintln(w, "\nDUMPED")
	if len(s.Dumped) == 0 {
		fmt.Fprintln(w, "  No dumped units.")
	}
	for _, st := range s.Dumped {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", st.Date, st.SlotType, badColor.Sprint(st.Count))
	}

	headerColor.Fprintln(w, "\nCORE ERRORS")
	if len(s.Errors) == 0 {
		fmt.Fprintf(w, "  %s\n", goodColor.Sprint("None"))
	}
	for _, ts := range s.Errors {
		fmt.Fprintf(w, "  %s\n", badColor.Sprint(ts.Format(score.TimestampLayout)))
	}

	lines, skipped := res.skipped()
	fmt.Fprintf(w, "\n%s\t%d of %d lines skipped\n", labelColor.Sprint("Parsed:"), skipped, lines)
}

func printHostInfo(w io.Writer, h platform.HostInfo) {
	headerColor.Fprintln(w, "\nHOST")
	fmt.Fprintf(w, "  %s\t%s (%s)\n", labelColor.Sprint("Name:"), h.Name, h.OS)
	if h.Platform != "" {
		fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("Platform:"), h.Platform)
	}
	fmt.Fprintf(w, "  %s\t%s, %d cores\n", labelColor.Sprint("CPU:"), h.CPUModel, h.CPUCores)
	fmt.Fprintf(w, "  %s\t%.1f GB\n", labelColor.Sprint("Memory:"), h.MemoryTotalGB)
	if len(h.GPUs) == 0 {
		fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("GPUs:"), warnColor.Sprint("none detected"))
	}
	for i, name := range h.GPUs {
		fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprintf("GPU %d:", i), name)
	}
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	addIngestFlags(summaryCmd)
	summaryCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the summary as JSON")
	summaryCmd.Flags().BoolVar(&summaryHost, "host", false, "Also print this host's CPU, memory and GPUs")
}
