package cli

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/progressio"
)

// statChunk is the number of bytes read per step.
const statChunk = 64 * 1024

var statHuman bool

var statCmd = &cobra.Command{
	Use:     "stat <file>",
	Short:   "Show size and line statistics for a file",
	GroupID: "core",
	Long: `Stat reads a file in chunks and prints its size, the number of bytes
actually read, and the number of newline characters.

Examples:
  progressio stat data.csv
  progressio stat -H data.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func init() {
	statCmd.Flags().BoolVarP(&statHuman, "human-readable", "H", false, "Print sizes in human-readable format")
	rootCmd.AddCommand(statCmd)
}

// fileStats is what stat reports.
type fileStats struct {
	Path     string
	Total    int64
	Read     int64
	Newlines int
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	r, done, err := openReader(args[0], "Scanning")
	if err != nil {
		return err
	}
	defer done()

	stats := fileStats{Path: args[0], Total: r.Total()}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := r.ReadN(statChunk)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			break
		}
		stats.Read += int64(len(chunk))
		stats.Newlines += bytes.Count(chunk, []byte{'\n'})
	}

	printStats(cmd.OutOrStdout(), stats)
	return nil
}

// printStats prints one "name  value" row per statistic.
func printStats(w io.Writer, s fileStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "path\t%s\n", s.Path)
	fmt.Fprintf(tw, "size\t%s\n", formatSize(s.Total))
	fmt.Fprintf(tw, "read\t%s\n", formatSize(s.Read))
	fmt.Fprintf(tw, "newlines\t%d\n", s.Newlines)
	tw.Flush()
}

// formatSize formats a byte count for display.
func formatSize(size int64) string {
	if size == progressio.UnknownTotal {
		return "-"
	}
	if statHuman {
		//nolint:gosec // G115: size is non-negative here
		return humanize.IBytes(uint64(size))
	}
	return strconv.FormatInt(size, 10)
}
