package internal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goplus/tflbuild/internal/artifact"
	"github.com/goplus/tflbuild/internal/manifest"
)

var (
	statusDir    string
	statusVerify bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the manifest of the last prepare run",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusDir, "dir", "", "Output directory (default: resolved from the configuration)")
	statusCmd.Flags().BoolVar(&statusVerify, "verify", false, "Check installed files against the recorded digests")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := statusDir
	if dir == "" {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		dir = cfg.OutDir
	}
	m, err := manifest.Read(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if !statusVerify {
		return nil
	}

	changed := 0
	for _, f := range m.Files {
		sum, err := artifact.Digest(filepath.Join(dir, f.Name))
		switch {
		case err != nil:
			fmt.Fprintf(cmd.OutOrStdout(), "missing: %s\n", f.Name)
		case sum != f.Digest:
			fmt.Fprintf(cmd.OutOrStdout(), "modified: %s\n", f.Name)
		default:
			continue
		}
		changed++
	}
	if changed > 0 {
		return fmt.Errorf("%d installed files differ from the manifest", changed)
	}
	return nil
}
