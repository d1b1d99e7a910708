package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/progressio"
)

var (
	linesLimit int
	linesPrint bool
)

var linesCmd = &cobra.Command{
	Use:     "lines <file>",
	Short:   "Count the lines in a file",
	GroupID: "core",
	Long: `Lines counts the lines in a file, reporting progress after each line.

The separator accepts Go escapes and may be longer than one byte. An empty
separator treats the whole file as one line. With --limit, lines longer than
the limit are split into several.

Examples:
  progressio lines access.log
  progressio lines --separator '\r\n' export.csv
  progressio lines --print --limit 80 notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runLines,
}

func init() {
	linesCmd.Flags().String("separator", `\n`, "Line separator (Go escapes allowed)")
	linesCmd.Flags().IntVar(&linesLimit, "limit", -1, "Maximum bytes per line (-1 for no limit)")
	linesCmd.Flags().BoolVar(&linesPrint, "print", false, "Print every line as it is read")
	//nolint:errcheck // flag is defined above
	viper.BindPFlag("lines.separator", linesCmd.Flags().Lookup("separator"))
	rootCmd.AddCommand(linesCmd)
}

func runLines(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sep, err := unescapeSeparator(cfg.Lines.Separator)
	if err != nil {
		return err
	}

	// Set up signal handling
	ctx, cancel := signalContext()
	defer cancel()

	r, done, err := openReader(args[0], "Counting")
	if err != nil {
		return err
	}
	defer done()

	out := cmd.OutOrStdout()
	var count int
	err = r.Each(func(line string) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		count++
		if linesPrint {
			fmt.Fprintf(out, "%d\t%q\n", count, line)
		}
		return nil
	}, progressio.WithSeparator(sep), progressio.WithLimit(linesLimit))
	if err != nil {
		return err
	}

	if !linesPrint {
		fmt.Fprintln(out, count)
	}
	return nil
}
