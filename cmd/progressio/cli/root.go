// Package cli implements the progressio command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/progressio"
	"github.com/meigma/progressio/cmd/progressio/cli/config"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	cfgFile string
	verbose bool
)

// Sentinel errors for CLI-level failures.
var (
	errUnsupportedAlgorithm   = errors.New("unsupported digest algorithm")
	errUnsupportedCompression = errors.New("unsupported compression")
	errDigestMismatch         = errors.New("digest mismatch")
	errInvalidSeparator       = errors.New("invalid separator")
)

var rootCmd = &cobra.Command{
	Use:   "progressio",
	Short: "Process files with read progress",
	Long: `Progressio reads local files through a progress-reporting stream.

Every command reports how far into the file it has read, whether it walks
the file line by line, byte by byte, or in large chunks.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return initConfig() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/progressio/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().String("progress", "auto", "Progress display: auto, tty, or plain")
	//nolint:errcheck // flag is defined above
	viper.BindPFlag("progress", rootCmd.PersistentFlags().Lookup("progress"))

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "File Commands:"})
	rootCmd.Version = version
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// initConfig wires defaults, environment and the config file into Viper.
// A missing config file is not an error.
func initConfig() error {
	for key, value := range config.Default().Settings() {
		viper.SetDefault(key, value)
	}
	viper.SetEnvPrefix("PROGRESSIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	logger().Debug("configuration loaded", "file", viper.ConfigFileUsed())
	return nil
}

// loadConfig returns the effective configuration.
func loadConfig() (config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// logger returns a debug logger when --verbose is set and a discarding one
// otherwise.
func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openReader opens path and wraps it in a progress-reporting Reader whose
// callback drives a progress bar. The returned close function finishes the
// bar and closes the file; the Reader itself never closes it.
func openReader(path, description string) (*progressio.Reader, func(), error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is a user-provided CLI argument
	if err != nil {
		return nil, nil, err
	}

	callback, finish := newProgress(description)
	r := progressio.New(progressio.NewStream(f), callback, progressio.WithLogger(logger()))
	logger().Debug("opened file", "path", path, "total", r.Total())

	return r, func() {
		finish()
		f.Close()
	}, nil
}

// unescapeSeparator interprets Go escape sequences such as \n or \t.
func unescapeSeparator(sep string) (string, error) {
	out, err := strconv.Unquote(`"` + strings.ReplaceAll(sep, `"`, `\"`) + `"`)
	if err != nil {
		return "", fmt.Errorf("%w %q", errInvalidSeparator, sep)
	}
	return out, nil
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// formatError converts errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("Error: file not found: %v", err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Sprintf("Error: permission denied: %v", err)
	case errors.Is(err, errDigestMismatch):
		return fmt.Sprintf("Error: integrity check failed: %v", err)
	case errors.Is(err, progressio.ErrInvalidLimit):
		return "Error: --limit must not be 0"
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
