package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/tflbuild/internal/build"
	"github.com/goplus/tflbuild/pkgs/buildsys"
)

var (
	prepareCgoOut string
	prepareCgoPkg string
)

// runner runs the build tools; tests replace it.
var runner buildsys.Runner = buildsys.DefaultRunner

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build or install the library and print linkage directives",
	Long: `Prepare installs the library into the output directory, building it first when
no artifact for the current variant exists, then prints one linkage directive
per line. With --cgo-out the directives are also written as #cgo LDFLAGS in a
generated Go file.`,
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVar(&prepareCgoOut, "cgo-out", "", "Write a cgo file carrying the link flags")
	prepareCmd.Flags().StringVar(&prepareCgoPkg, "cgo-package", "tflite", "Package name of the cgo file")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	b := build.NewBuilder(log)
	b.Runner = runner
	out, err := b.Prepare(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := out.Plan.WriteText(cmd.OutOrStdout()); err != nil {
		return err
	}
	if prepareCgoOut == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := out.Plan.WriteCgo(&buf, prepareCgoPkg, cfg.GOOS, cfg.GOARCH); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(prepareCgoOut), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(prepareCgoOut, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write cgo file: %w", err)
	}
	return nil
}
