package cli

import (
	_ "crypto/sha256" // register SHA-256 for go-digest
	_ "crypto/sha512" // register SHA-384 and SHA-512 for go-digest
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sumVerify string

var sumCmd = &cobra.Command{
	Use:     "sum <file>",
	Short:   "Compute the digest of a file",
	GroupID: "core",
	Long: `Sum computes an OCI-style digest (algorithm:hex) of a file,
reporting progress while the file is hashed.

With --verify, the file is checked against an expected digest instead and
the command fails if they differ. The algorithm is taken from the digest.

Examples:
  progressio sum image.tar
  progressio sum --algorithm sha512 image.tar
  progressio sum --verify sha256:9f86d08... image.tar`,
	Args: cobra.ExactArgs(1),
	RunE: runSum,
}

func init() {
	sumCmd.Flags().StringP("algorithm", "a", "sha256", "Digest algorithm: sha256, sha384, or sha512")
	sumCmd.Flags().StringVar(&sumVerify, "verify", "", "Expected digest to verify against")
	//nolint:errcheck // flag is defined above
	viper.BindPFlag("sum.algorithm", sumCmd.Flags().Lookup("algorithm"))
	rootCmd.AddCommand(sumCmd)
}

func runSum(cmd *cobra.Command, args []string) error {
	path := args[0]

	if sumVerify != "" {
		return verifySum(cmd, path, sumVerify)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	alg := digest.Algorithm(cfg.Sum.Algorithm)
	if !alg.Available() {
		return fmt.Errorf("%w: %q", errUnsupportedAlgorithm, cfg.Sum.Algorithm)
	}

	r, done, err := openReader(path, "Hashing")
	if err != nil {
		return err
	}
	defer done()

	digester := alg.Digester()
	if _, err := io.Copy(digester.Hash(), r); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digester.Digest(), path)
	return nil
}

func verifySum(cmd *cobra.Command, path, expected string) error {
	want, err := digest.Parse(expected)
	if err != nil {
		return fmt.Errorf("parse --verify: %w", err)
	}

	r, done, err := openReader(path, "Verifying")
	if err != nil {
		return err
	}
	defer done()

	verifier := want.Verifier()
	if _, err := io.Copy(verifier, r); err != nil {
		return err
	}
	if !verifier.Verified() {
		return fmt.Errorf("%w: %s does not match %s", errDigestMismatch, path, want)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", path)
	return nil
}
