package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/progressio"
)

// Compression magic numbers.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

var (
	catOffset int64
	catOutput string
)

var catCmd = &cobra.Command{
	Use:     "cat <file>",
	Short:   "Output a file with progress",
	GroupID: "core",
	Long: `Cat copies a file to stdout, or to --output, reporting progress.

With --offset, output starts at that byte. With --decompress, gzip or zstd
input is decompressed on the fly; progress is then measured in compressed
bytes, which is what the file on disk holds. "auto" picks the format from
the file's magic number.

Parent directories of --output are created automatically. If --output is an
existing directory, the file is placed inside it.

Examples:
  progressio cat big.log > copy.log
  progressio cat --offset 1048576 big.log
  progressio cat --decompress auto backup.tar.zst -o backup.tar`,
	Args: cobra.ExactArgs(1),
	RunE: runCat,
}

func init() {
	catCmd.Flags().Int64Var(&catOffset, "offset", 0, "Byte offset to start reading at")
	catCmd.Flags().StringVarP(&catOutput, "output", "o", "", "Write to this path instead of stdout")
	catCmd.Flags().String("decompress", "none", "Decompress input: auto, none, gzip, or zstd")
	//nolint:errcheck // flag is defined above
	viper.BindPFlag("cat.decompress", catCmd.Flags().Lookup("decompress"))
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	srcPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, done, err := openReader(srcPath, "Reading")
	if err != nil {
		return err
	}
	defer done()

	if catOffset != 0 {
		if _, err := r.SetPos(catOffset); err != nil {
			return err
		}
	}

	src, err := decompressor(r, cfg.Cat.Decompress)
	if err != nil {
		return err
	}
	defer src.Close()

	if catOutput == "" {
		_, err = io.Copy(cmd.OutOrStdout(), src)
		return err
	}

	f, err := createOutput(catOutput, srcPath)
	if err != nil {
		return err
	}
	return copyAndClose(f, src)
}

// copyAndClose copies src to dst and closes dst. A failed Close is reported
// when the copy itself succeeded.
func copyAndClose(dst io.WriteCloser, src io.Reader) error {
	_, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err != nil {
		return err
	}
	return closeErr
}

// decompressor returns a reader that decompresses r according to mode.
// Detection in auto mode peeks through Unwrap so it is not reported as
// progress, then restores the position.
func decompressor(r *progressio.Reader, mode string) (io.ReadCloser, error) {
	if mode == "auto" {
		detected, err := detectCompression(r)
		if err != nil {
			return nil, err
		}
		logger().Debug("detected compression", "format", detected)
		mode = detected
	}

	switch mode {
	case "none", "":
		return io.NopCloser(r), nil
	case "gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case "zstd":
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected auto, none, gzip, or zstd)", errUnsupportedCompression, mode)
	}
}

// detectCompression sniffs the magic number at the current position.
func detectCompression(r *progressio.Reader) (string, error) {
	raw := r.Unwrap()
	start, err := raw.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", err
	}

	head := make([]byte, len(zstdMagic))
	n, err := io.ReadFull(raw, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if _, err := raw.Seek(start, io.SeekStart); err != nil {
		return "", err
	}

	head = head[:n]
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return "gzip", nil
	case bytes.HasPrefix(head, zstdMagic):
		return "zstd", nil
	default:
		return "none", nil
	}
}

// createOutput creates the destination file, like cp: an existing directory
// receives a file named after the source, and missing parents are created.
func createOutput(destPath, srcPath string) (*os.File, error) {
	if info, statErr := os.Stat(destPath); statErr == nil && info.IsDir() {
		destPath = filepath.Join(destPath, filepath.Base(srcPath))
	}

	// Create parent directories if needed
	if dir := filepath.Dir(destPath); dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			return nil, mkdirErr
		}
	}

	return os.Create(destPath) //nolint:gosec // G304: destPath is user-provided CLI argument
}
